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

// Package netbox implements the inventory.Provider interface against the
// NetBox REST API. Records come back normalized; the rest of the engine
// never sees NetBox wire shapes.
package netbox

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/monbridge/monbridge/pkg/inventory"
	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/models"
)

const (
	defaultPageSize = 100
	defaultTimeout  = 30 * time.Second

	devicesPath      = "/api/dcim/devices/"
	vmsPath          = "/api/virtualization/virtual-machines/"
	deviceIfacesPath = "/api/dcim/interfaces/"
	vmIfacesPath     = "/api/virtualization/interfaces/"
	ipAddressesPath  = "/api/ipam/ip-addresses/"
	sitesPath        = "/api/dcim/sites/"
)

var (
	// ErrMissingEndpoint indicates the client was constructed without an
	// inventory endpoint.
	ErrMissingEndpoint = errors.New("inventory endpoint is required")

	errUnexpectedStatusCode = errors.New("unexpected status code")
)

// Client pages through the NetBox REST API. Site details are cached for the
// client's lifetime because list payloads omit the region nesting.
type Client struct {
	endpoint string
	token    string
	pageSize int
	http     *http.Client
	logger   logger.Logger

	siteMu sync.Mutex
	sites  map[int64]*models.Site
}

var _ inventory.Provider = (*Client)(nil)

// New creates a client for the configured NetBox instance. Callers that
// keep the API token in the encrypted secret file resolve it into
// cfg.APIToken first.
func New(cfg *models.InventoryConfig, log logger.Logger) (*Client, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	timeout := time.Duration(cfg.Timeout)
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.InsecureSkipVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // operator opt-in for self-signed lab instances
		}
	}

	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		token:    cfg.APIToken,
		pageSize: pageSize,
		http:     httpClient,
		logger:   log,
		sites:    make(map[int64]*models.Site),
	}, nil
}

// GetObject fetches and hydrates one inventory object.
func (c *Client) GetObject(ctx context.Context, ref models.ObjectRef) (*models.InventoryObject, error) {
	switch ref.Kind {
	case models.KindDevice:
		return c.getDevice(ctx, ref.ID)
	case models.KindVirtualMachine:
		return c.getVM(ctx, ref.ID)
	default:
		return nil, fmt.Errorf("%w: %q", inventory.ErrUnknownKind, ref.Kind)
	}
}

// ListObjects returns every object of the given kind without interface
// hydration.
func (c *Client) ListObjects(ctx context.Context, kind models.ObjectKind) ([]*models.InventoryObject, error) {
	switch kind {
	case models.KindDevice:
		records, err := c.listDevices(ctx)
		if err != nil {
			return nil, err
		}

		objects := make([]*models.InventoryObject, 0, len(records))
		for i := range records {
			objects = append(objects, c.normalizeDevice(ctx, &records[i]))
		}

		return objects, nil
	case models.KindVirtualMachine:
		records, err := c.listVMs(ctx)
		if err != nil {
			return nil, err
		}

		objects := make([]*models.InventoryObject, 0, len(records))
		for i := range records {
			objects = append(objects, c.normalizeVM(ctx, &records[i]))
		}

		return objects, nil
	default:
		return nil, fmt.Errorf("%w: %q", inventory.ErrUnknownKind, kind)
	}
}

func (c *Client) getDevice(ctx context.Context, id int64) (*models.InventoryObject, error) {
	var rec deviceRecord

	url := fmt.Sprintf("%s%s%d/", c.endpoint, devicesPath, id)
	if err := c.getJSON(ctx, url, &rec); err != nil {
		if errors.Is(err, inventory.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: device %d", inventory.ErrObjectNotFound, id)
		}

		return nil, err
	}

	obj := c.normalizeDevice(ctx, &rec)
	if err := c.hydrateInterfaces(ctx, obj, deviceIfacesPath, "device_id"); err != nil {
		return nil, err
	}

	return obj, nil
}

func (c *Client) getVM(ctx context.Context, id int64) (*models.InventoryObject, error) {
	var rec vmRecord

	url := fmt.Sprintf("%s%s%d/", c.endpoint, vmsPath, id)
	if err := c.getJSON(ctx, url, &rec); err != nil {
		if errors.Is(err, inventory.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: virtual machine %d", inventory.ErrObjectNotFound, id)
		}

		return nil, err
	}

	obj := c.normalizeVM(ctx, &rec)
	if err := c.hydrateInterfaces(ctx, obj, vmIfacesPath, "virtual_machine_id"); err != nil {
		return nil, err
	}

	return obj, nil
}

// hydrateInterfaces attaches the object's interfaces and their addresses,
// and enriches the primary IP with the dns_name only the ipam endpoint
// carries.
func (c *Client) hydrateInterfaces(ctx context.Context, obj *models.InventoryObject, ifacePath, filterKey string) error {
	ifaceRecords, err := c.listInterfaces(ctx, ifacePath, filterKey, obj.Ref.ID)
	if err != nil {
		return err
	}

	ipRecords, err := c.listIPs(ctx, filterKey, obj.Ref.ID)
	if err != nil {
		return err
	}

	byInterface := make(map[int64][]models.IPAddress, len(ipRecords))

	for i := range ipRecords {
		rec := &ipRecords[i]

		byInterface[rec.AssignedObjectID] = append(byInterface[rec.AssignedObjectID], models.IPAddress{
			ID:      rec.ID,
			Address: rec.Address,
			DNSName: rec.DNSName,
		})

		if obj.PrimaryIP != nil && rec.ID == obj.PrimaryIP.ID {
			obj.PrimaryIP.Address = rec.Address
			obj.PrimaryIP.DNSName = rec.DNSName
		}
	}

	obj.Interfaces = make([]models.NetworkInterface, 0, len(ifaceRecords))

	for i := range ifaceRecords {
		rec := &ifaceRecords[i]

		obj.Interfaces = append(obj.Interfaces, models.NetworkInterface{
			ID:        rec.ID,
			Name:      rec.Name,
			MAC:       rec.MACAddress,
			MgmtOnly:  rec.MgmtOnly,
			Addresses: byInterface[rec.ID],
			ObjectRef: obj.Ref,
		})
	}

	return nil
}

func (c *Client) normalizeDevice(ctx context.Context, rec *deviceRecord) *models.InventoryObject {
	obj := &models.InventoryObject{
		Ref:          models.ObjectRef{Kind: models.KindDevice, ID: rec.ID},
		Name:         rec.Name,
		Status:       rec.Status.Value,
		Description:  rec.Description,
		CustomFields: rec.CustomFields,
		Site:         c.siteFor(ctx, rec.Site),
		Role:         roleFor(rec.Role),
		Platform:     platformFor(rec.Platform),
	}

	if rec.PrimaryIP != nil {
		obj.PrimaryIP = &models.IPAddress{ID: rec.PrimaryIP.ID, Address: rec.PrimaryIP.Address}
	}

	return obj
}

func (c *Client) normalizeVM(ctx context.Context, rec *vmRecord) *models.InventoryObject {
	obj := &models.InventoryObject{
		Ref:          models.ObjectRef{Kind: models.KindVirtualMachine, ID: rec.ID},
		Name:         rec.Name,
		Status:       rec.Status.Value,
		Description:  rec.Description,
		CustomFields: rec.CustomFields,
		Site:         c.siteFor(ctx, rec.Site),
		Role:         roleFor(rec.Role),
		Platform:     platformFor(rec.Platform),
	}

	if rec.Cluster != nil {
		obj.Cluster = &models.Cluster{ID: rec.Cluster.ID, Name: rec.Cluster.Name}
	}

	if rec.PrimaryIP != nil {
		obj.PrimaryIP = &models.IPAddress{ID: rec.PrimaryIP.ID, Address: rec.PrimaryIP.Address}
	}

	return obj
}

func roleFor(brief *briefRef) *models.Role {
	if brief == nil {
		return nil
	}

	return &models.Role{ID: brief.ID, Name: brief.Name, Slug: brief.Slug}
}

func platformFor(brief *briefRef) *models.Platform {
	if brief == nil {
		return nil
	}

	return &models.Platform{ID: brief.ID, Name: brief.Name, Slug: brief.Slug}
}

// siteFor resolves a brief site reference through the detail endpoint so
// the region is available to field mappings. A failed detail fetch degrades
// to the brief form instead of failing the object.
func (c *Client) siteFor(ctx context.Context, brief *briefRef) *models.Site {
	if brief == nil {
		return nil
	}

	c.siteMu.Lock()
	if site, ok := c.sites[brief.ID]; ok {
		c.siteMu.Unlock()

		return site
	}
	c.siteMu.Unlock()

	var detail siteDetail

	url := fmt.Sprintf("%s%s%d/", c.endpoint, sitesPath, brief.ID)
	if err := c.getJSON(ctx, url, &detail); err != nil {
		c.logger.Warn().Err(err).Int64("site_id", brief.ID).Msg("Failed to fetch site detail; region unavailable")

		return &models.Site{ID: brief.ID, Name: brief.Name, Slug: brief.Slug}
	}

	site := &models.Site{ID: detail.ID, Name: detail.Name, Slug: detail.Slug}
	if detail.Region != nil {
		site.Region = &models.Region{ID: detail.Region.ID, Name: detail.Region.Name, Slug: detail.Region.Slug}
	}

	c.siteMu.Lock()
	c.sites[brief.ID] = site
	c.siteMu.Unlock()

	return site
}

func (c *Client) listDevices(ctx context.Context) ([]deviceRecord, error) {
	url := fmt.Sprintf("%s%s?limit=%d", c.endpoint, devicesPath, c.pageSize)

	var all []deviceRecord

	for url != "" {
		var page deviceListResponse
		if err := c.getJSON(ctx, url, &page); err != nil {
			return nil, err
		}

		all = append(all, page.Results...)
		url = page.Next
	}

	c.logger.Debug().Int("count", len(all)).Msg("Fetched devices from inventory")

	return all, nil
}

func (c *Client) listVMs(ctx context.Context) ([]vmRecord, error) {
	url := fmt.Sprintf("%s%s?limit=%d", c.endpoint, vmsPath, c.pageSize)

	var all []vmRecord

	for url != "" {
		var page vmListResponse
		if err := c.getJSON(ctx, url, &page); err != nil {
			return nil, err
		}

		all = append(all, page.Results...)
		url = page.Next
	}

	c.logger.Debug().Int("count", len(all)).Msg("Fetched virtual machines from inventory")

	return all, nil
}

func (c *Client) listInterfaces(ctx context.Context, path, filterKey string, objectID int64) ([]interfaceRecord, error) {
	url := fmt.Sprintf("%s%s?%s=%d&limit=%d", c.endpoint, path, filterKey, objectID, c.pageSize)

	var all []interfaceRecord

	for url != "" {
		var page interfaceListResponse
		if err := c.getJSON(ctx, url, &page); err != nil {
			return nil, err
		}

		all = append(all, page.Results...)
		url = page.Next
	}

	return all, nil
}

func (c *Client) listIPs(ctx context.Context, filterKey string, objectID int64) ([]ipRecord, error) {
	url := fmt.Sprintf("%s%s?%s=%d&limit=%d", c.endpoint, ipAddressesPath, filterKey, objectID, c.pageSize)

	var all []ipRecord

	for url != "" {
		var page ipListResponse
		if err := c.getJSON(ctx, url, &page); err != nil {
			return nil, err
		}

		all = append(all, page.Results...)
		url = page.Next
	}

	return all, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn().Err(closeErr).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return inventory.ErrObjectNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", errUnexpectedStatusCode, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
