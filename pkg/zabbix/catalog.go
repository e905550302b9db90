/*
 * Copyright 2025 The Monbridge Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package zabbix

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const defaultCatalogTTL = 5 * time.Minute

// Catalog caches the server-side reference catalogs so rule validation and
// name resolution do not hammer the API. Returned slices are shared;
// callers must not mutate them.
type Catalog struct {
	api API
	ttl time.Duration
	now func() time.Time

	mu            sync.RWMutex
	groups        []HostGroup
	groupsAt      time.Time
	templates     []Template
	templatesAt   time.Time
	proxies       []Proxy
	proxiesAt     time.Time
	proxyGroups   []ProxyGroup
	proxyGroupsAt time.Time
}

// NewCatalog creates a catalog backed by api. A non-positive ttl selects
// the default of five minutes.
func NewCatalog(api API, ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}

	return &Catalog{api: api, ttl: ttl, now: time.Now}
}

func (c *Catalog) fresh(at time.Time) bool {
	return !at.IsZero() && c.now().Sub(at) < c.ttl
}

// Invalidate drops every cached catalog.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.groupsAt = time.Time{}
	c.templatesAt = time.Time{}
	c.proxiesAt = time.Time{}
	c.proxyGroupsAt = time.Time{}
}

// Groups returns the host group catalog, refreshing it when stale.
func (c *Catalog) Groups(ctx context.Context) ([]HostGroup, error) {
	c.mu.RLock()
	if c.fresh(c.groupsAt) {
		groups := c.groups
		c.mu.RUnlock()

		return groups, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fresh(c.groupsAt) {
		return c.groups, nil
	}

	groups, err := c.api.HostGroupList(ctx)
	if err != nil {
		return nil, err
	}

	c.groups = groups
	c.groupsAt = c.now()

	return groups, nil
}

// Templates returns the template catalog, refreshing it when stale.
func (c *Catalog) Templates(ctx context.Context) ([]Template, error) {
	c.mu.RLock()
	if c.fresh(c.templatesAt) {
		templates := c.templates
		c.mu.RUnlock()

		return templates, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fresh(c.templatesAt) {
		return c.templates, nil
	}

	templates, err := c.api.TemplateList(ctx)
	if err != nil {
		return nil, err
	}

	c.templates = templates
	c.templatesAt = c.now()

	return templates, nil
}

// Proxies returns the proxy catalog, refreshing it when stale.
func (c *Catalog) Proxies(ctx context.Context) ([]Proxy, error) {
	c.mu.RLock()
	if c.fresh(c.proxiesAt) {
		proxies := c.proxies
		c.mu.RUnlock()

		return proxies, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fresh(c.proxiesAt) {
		return c.proxies, nil
	}

	proxies, err := c.api.ProxyList(ctx)
	if err != nil {
		return nil, err
	}

	c.proxies = proxies
	c.proxiesAt = c.now()

	return proxies, nil
}

// ProxyGroups returns the proxy group catalog, refreshing it when stale.
func (c *Catalog) ProxyGroups(ctx context.Context) ([]ProxyGroup, error) {
	c.mu.RLock()
	if c.fresh(c.proxyGroupsAt) {
		groups := c.proxyGroups
		c.mu.RUnlock()

		return groups, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fresh(c.proxyGroupsAt) {
		return c.proxyGroups, nil
	}

	groups, err := c.api.ProxyGroupList(ctx)
	if err != nil {
		return nil, err
	}

	c.proxyGroups = groups
	c.proxyGroupsAt = c.now()

	return groups, nil
}

// GroupID resolves a host group name to its identifier. A miss forces one
// refresh before failing: the group may have been created since the last
// fetch.
func (c *Catalog) GroupID(ctx context.Context, name string) (int64, error) {
	for attempt := 0; attempt < 2; attempt++ {
		groups, err := c.Groups(ctx)
		if err != nil {
			return 0, err
		}

		for i := range groups {
			if groups[i].Name == name {
				return groups[i].GroupID.Int64(), nil
			}
		}

		if attempt == 0 {
			c.expireGroups()
		}
	}

	return 0, fmt.Errorf("%w: host group %q", ErrNameNotFound, name)
}

// TemplateID resolves a template by visible or technical name.
func (c *Catalog) TemplateID(ctx context.Context, name string) (int64, error) {
	for attempt := 0; attempt < 2; attempt++ {
		templates, err := c.Templates(ctx)
		if err != nil {
			return 0, err
		}

		for i := range templates {
			if templates[i].Name == name || templates[i].Host == name {
				return templates[i].TemplateID.Int64(), nil
			}
		}

		if attempt == 0 {
			c.expireTemplates()
		}
	}

	return 0, fmt.Errorf("%w: template %q", ErrNameNotFound, name)
}

// ProxyID resolves a proxy name to its identifier.
func (c *Catalog) ProxyID(ctx context.Context, name string) (int64, error) {
	for attempt := 0; attempt < 2; attempt++ {
		proxies, err := c.Proxies(ctx)
		if err != nil {
			return 0, err
		}

		for i := range proxies {
			if proxies[i].Name == name {
				return proxies[i].ProxyID.Int64(), nil
			}
		}

		if attempt == 0 {
			c.expireProxies()
		}
	}

	return 0, fmt.Errorf("%w: proxy %q", ErrNameNotFound, name)
}

// ProxyGroupID resolves a proxy group name to its identifier.
func (c *Catalog) ProxyGroupID(ctx context.Context, name string) (int64, error) {
	for attempt := 0; attempt < 2; attempt++ {
		groups, err := c.ProxyGroups(ctx)
		if err != nil {
			return 0, err
		}

		for i := range groups {
			if groups[i].Name == name {
				return groups[i].ProxyGroupID.Int64(), nil
			}
		}

		if attempt == 0 {
			c.expireProxyGroups()
		}
	}

	return 0, fmt.Errorf("%w: proxy group %q", ErrNameNotFound, name)
}

func (c *Catalog) expireGroups() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.groupsAt = time.Time{}
}

func (c *Catalog) expireTemplates() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.templatesAt = time.Time{}
}

func (c *Catalog) expireProxies() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.proxiesAt = time.Time{}
}

func (c *Catalog) expireProxyGroups() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.proxyGroupsAt = time.Time{}
}
