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

import (
	"fmt"
	"strings"
)

// ObjectKind identifies which inventory collection an object belongs to.
type ObjectKind string

const (
	KindDevice         ObjectKind = "device"
	KindVirtualMachine ObjectKind = "virtual_machine"
)

// ObjectRef is a typed reference to an inventory object. The inventory
// system exposes devices and virtual machines as distinct collections, so a
// bare numeric ID is ambiguous without the kind tag.
type ObjectRef struct {
	Kind ObjectKind `json:"kind"`
	ID   int64      `json:"id"`
}

// String renders the reference as "kind/id" for logs and event payloads.
func (r ObjectRef) String() string {
	return fmt.Sprintf("%s/%d", r.Kind, r.ID)
}

// IsZero reports whether the reference is unset.
func (r ObjectRef) IsZero() bool {
	return r.Kind == "" && r.ID == 0
}

// Region is a named grouping of sites.
type Region struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Site is the physical or logical location an inventory object lives in.
type Site struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Slug   string  `json:"slug"`
	Region *Region `json:"region,omitempty"`
}

// Role describes the function of an inventory object (router, web server, ...).
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Platform describes the operating system or firmware family.
type Platform struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Cluster is the virtualization cluster a VM runs on. Devices carry none.
type Cluster struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// IPAddress is an address assigned to a network interface. Address keeps the
// CIDR form the inventory system stores ("10.0.0.5/24").
type IPAddress struct {
	ID      int64  `json:"id"`
	Address string `json:"address"`
	DNSName string `json:"dns_name,omitempty"`
}

// BareIP returns the address without its prefix length.
func (a *IPAddress) BareIP() string {
	if a == nil {
		return ""
	}

	if i := strings.IndexByte(a.Address, '/'); i >= 0 {
		return a.Address[:i]
	}

	return a.Address
}

// NetworkInterface is a physical or virtual interface on an inventory object.
type NetworkInterface struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	MAC        string      `json:"mac,omitempty"`
	MgmtOnly   bool        `json:"mgmt_only,omitempty"`
	Addresses  []IPAddress `json:"addresses,omitempty"`
	ObjectRef  ObjectRef   `json:"object_ref"`
	ParentName string      `json:"parent_name,omitempty"`
}

// HasAddress reports whether the interface carries the given IP address ID.
func (n *NetworkInterface) HasAddress(ipID int64) bool {
	for i := range n.Addresses {
		if n.Addresses[i].ID == ipID {
			return true
		}
	}

	return false
}

// InventoryObject is the normalized read-only view of a device or virtual
// machine. The reconciliation core never writes back to the inventory system;
// it only projects these records into monitoring configuration.
type InventoryObject struct {
	Ref          ObjectRef              `json:"ref"`
	Name         string                 `json:"name"`
	Status       string                 `json:"status"`
	Site         *Site                  `json:"site,omitempty"`
	Role         *Role                  `json:"role,omitempty"`
	Platform     *Platform              `json:"platform,omitempty"`
	Cluster      *Cluster               `json:"cluster,omitempty"`
	PrimaryIP    *IPAddress             `json:"primary_ip,omitempty"`
	Interfaces   []NetworkInterface     `json:"interfaces,omitempty"`
	CustomFields map[string]interface{} `json:"custom_fields,omitempty"`
	Description  string                 `json:"description,omitempty"`
}

// Interface returns the network interface with the given ID, or nil.
func (o *InventoryObject) Interface(id int64) *NetworkInterface {
	for i := range o.Interfaces {
		if o.Interfaces[i].ID == id {
			return &o.Interfaces[i]
		}
	}

	return nil
}

// SiteID returns the object's site ID, or 0 when no site is assigned.
func (o *InventoryObject) SiteID() int64 {
	if o.Site == nil {
		return 0
	}

	return o.Site.ID
}

// RoleID returns the object's role ID, or 0 when no role is assigned.
func (o *InventoryObject) RoleID() int64 {
	if o.Role == nil {
		return 0
	}

	return o.Role.ID
}

// PlatformID returns the object's platform ID, or 0 when none is assigned.
func (o *InventoryObject) PlatformID() int64 {
	if o.Platform == nil {
		return 0
	}

	return o.Platform.ID
}
