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

package models

// AttrResolver is implemented by inventory types whose attributes can be
// looked up by name. A true second return value means the attribute exists;
// the value itself may still be nil when the link is unset.
type AttrResolver interface {
	Attr(name string) (interface{}, bool)
}

// Attr resolves a single attribute of the inventory object by name.
func (o *InventoryObject) Attr(name string) (interface{}, bool) {
	switch name {
	case "name":
		return o.Name, true
	case "status":
		return o.Status, true
	case "description":
		return o.Description, true
	case "site":
		if o.Site == nil {
			return nil, true
		}

		return o.Site, true
	case "role":
		if o.Role == nil {
			return nil, true
		}

		return o.Role, true
	case "platform":
		if o.Platform == nil {
			return nil, true
		}

		return o.Platform, true
	case "cluster":
		if o.Cluster == nil {
			return nil, true
		}

		return o.Cluster, true
	case "primary_ip":
		if o.PrimaryIP == nil {
			return nil, true
		}

		return o.PrimaryIP, true
	case "custom_fields":
		if o.CustomFields == nil {
			return nil, true
		}

		return attrMap(o.CustomFields), true
	default:
		return nil, false
	}
}

// Attr resolves site attributes.
func (s *Site) Attr(name string) (interface{}, bool) {
	switch name {
	case "name":
		return s.Name, true
	case "slug":
		return s.Slug, true
	case "region":
		if s.Region == nil {
			return nil, true
		}

		return s.Region, true
	default:
		return nil, false
	}
}

// Attr resolves region attributes.
func (r *Region) Attr(name string) (interface{}, bool) {
	switch name {
	case "name":
		return r.Name, true
	case "slug":
		return r.Slug, true
	default:
		return nil, false
	}
}

// Attr resolves role attributes.
func (r *Role) Attr(name string) (interface{}, bool) {
	switch name {
	case "name":
		return r.Name, true
	case "slug":
		return r.Slug, true
	default:
		return nil, false
	}
}

// Attr resolves platform attributes.
func (p *Platform) Attr(name string) (interface{}, bool) {
	switch name {
	case "name":
		return p.Name, true
	case "slug":
		return p.Slug, true
	default:
		return nil, false
	}
}

// Attr resolves cluster attributes.
func (c *Cluster) Attr(name string) (interface{}, bool) {
	switch name {
	case "name":
		return c.Name, true
	default:
		return nil, false
	}
}

// Attr resolves IP address attributes.
func (a *IPAddress) Attr(name string) (interface{}, bool) {
	switch name {
	case "address":
		return a.Address, true
	case "ip":
		return a.BareIP(), true
	case "dns_name":
		return a.DNSName, true
	default:
		return nil, false
	}
}

// attrMap adapts a custom-field map to the AttrResolver interface so dotted
// paths can descend into it.
type attrMap map[string]interface{}

func (m attrMap) Attr(name string) (interface{}, bool) {
	v, ok := m[name]
	if !ok {
		return nil, false
	}

	return v, true
}
