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

// Package zabbix implements a JSON-RPC client for the Zabbix server API.
// The wire protocol encodes identifiers and enumerations as decimal strings;
// this package keeps string enums on the wire structs and converts
// identifiers through the ID type so callers work with int64 throughout.
package zabbix

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a Zabbix object identifier. The server encodes identifiers as
// decimal strings but tolerates numbers on input; ID accepts both forms on
// decode and always emits the string form.
type ID int64

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(id), 10))
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	raw := string(bytes.Trim(data, `"`))
	if raw == "" || raw == "null" {
		*id = 0
		return nil
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s", errInvalidID, string(data))
	}

	*id = ID(v)

	return nil
}

// Int64 returns the identifier as a plain int64.
func (id ID) Int64() int64 {
	return int64(id)
}

// GroupRef references a host group in write operations.
type GroupRef struct {
	GroupID ID `json:"groupid"`
}

// TemplateRef references a template in write operations.
type TemplateRef struct {
	TemplateID ID `json:"templateid"`
}

// HostRef references a host in maintenance write operations.
type HostRef struct {
	HostID ID `json:"hostid"`
}

// Tag is a host tag as it appears on the wire.
type Tag struct {
	Tag   string `json:"tag"`
	Value string `json:"value,omitempty"`
}

// Macro is a user macro as it appears on the wire.
type Macro struct {
	Macro       string `json:"macro"`
	Value       string `json:"value,omitempty"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// SNMPDetails carries the details block of an SNMP interface. Version "2"
// and "3" use the fields relevant to them; the server ignores the rest.
type SNMPDetails struct {
	Version        string `json:"version"`
	Bulk           string `json:"bulk,omitempty"`
	Community      string `json:"community,omitempty"`
	MaxRepetitions string `json:"max_repetitions,omitempty"`
	ContextName    string `json:"contextname,omitempty"`
	SecurityName   string `json:"securityname,omitempty"`
	SecurityLevel  string `json:"securitylevel,omitempty"`
	AuthProtocol   string `json:"authprotocol,omitempty"`
	AuthPassphrase string `json:"authpassphrase,omitempty"`
	PrivProtocol   string `json:"privprotocol,omitempty"`
	PrivPassphrase string `json:"privpassphrase,omitempty"`
}

// Interface is a host interface as returned by hostinterface.get.
type Interface struct {
	InterfaceID ID           `json:"interfaceid"`
	HostID      ID           `json:"hostid"`
	Type        string       `json:"type"`
	Main        string       `json:"main"`
	UseIP       string       `json:"useip"`
	IP          string       `json:"ip"`
	DNS         string       `json:"dns"`
	Port        string       `json:"port"`
	Details     *SNMPDetails `json:"details,omitempty"`
}

// InterfaceParams is the write shape for hostinterface.create and
// hostinterface.update. IP and DNS stay unconditional: the server expects
// both keys even when one is blank.
type InterfaceParams struct {
	InterfaceID ID           `json:"interfaceid,omitempty"`
	HostID      ID           `json:"hostid,omitempty"`
	Type        string       `json:"type,omitempty"`
	Main        string       `json:"main,omitempty"`
	UseIP       string       `json:"useip,omitempty"`
	IP          string       `json:"ip"`
	DNS         string       `json:"dns"`
	Port        string       `json:"port,omitempty"`
	Details     *SNMPDetails `json:"details,omitempty"`
}

// HostGroup is a host group as returned by hostgroup.get.
type HostGroup struct {
	GroupID ID     `json:"groupid"`
	Name    string `json:"name"`
}

// Template is a template as returned by template.get.
type Template struct {
	TemplateID ID     `json:"templateid"`
	Host       string `json:"host"`
	Name       string `json:"name"`
}

// Proxy is a proxy as returned by proxy.get.
type Proxy struct {
	ProxyID ID     `json:"proxyid"`
	Name    string `json:"name"`
}

// ProxyGroup is a proxy group as returned by proxygroup.get.
type ProxyGroup struct {
	ProxyGroupID ID     `json:"proxy_groupid"`
	Name         string `json:"name"`
}

// InventoryMap is the host inventory object. Servers encode an empty
// inventory as a JSON array, so decoding tolerates both shapes.
type InventoryMap map[string]string

// UnmarshalJSON implements json.Unmarshaler.
func (m *InventoryMap) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] == '[' || string(trimmed) == "null" {
		*m = nil
		return nil
	}

	var raw map[string]string
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}

	*m = raw

	return nil
}

// Host is a host as returned by host.get with the selects the client
// requests. Inventory mode rides in its own field, not in the inventory
// object.
type Host struct {
	HostID          ID           `json:"hostid"`
	Host            string       `json:"host"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	Status          string       `json:"status"`
	MonitoredBy     string       `json:"monitored_by"`
	ProxyID         ID           `json:"proxyid"`
	ProxyGroupID    ID           `json:"proxy_groupid"`
	InventoryMode   string       `json:"inventory_mode"`
	TLSConnect      string       `json:"tls_connect"`
	TLSAccept       string       `json:"tls_accept"`
	TLSIssuer       string       `json:"tls_issuer"`
	TLSSubject      string       `json:"tls_subject"`
	Groups          []HostGroup  `json:"groups"`
	ParentTemplates []Template   `json:"parentTemplates"`
	Tags            []Tag        `json:"tags"`
	Macros          []Macro      `json:"macros"`
	Inventory       InventoryMap `json:"inventory"`
	Interfaces      []Interface  `json:"interfaces"`
}

// HostParams is the write shape shared by host.create and host.update.
// Nil slices and empty strings are omitted so update payloads only carry
// the properties the caller wants changed.
type HostParams struct {
	HostID        ID                `json:"hostid,omitempty"`
	Host          string            `json:"host,omitempty"`
	Name          string            `json:"name,omitempty"`
	Description   *string           `json:"description,omitempty"`
	Status        string            `json:"status,omitempty"`
	MonitoredBy   string            `json:"monitored_by,omitempty"`
	ProxyID       string            `json:"proxyid,omitempty"`
	ProxyGroupID  string            `json:"proxy_groupid,omitempty"`
	InventoryMode string            `json:"inventory_mode,omitempty"`
	Inventory     map[string]string `json:"inventory,omitempty"`
	TLSConnect    string            `json:"tls_connect,omitempty"`
	TLSAccept     string            `json:"tls_accept,omitempty"`
	TLSIssuer     *string           `json:"tls_issuer,omitempty"`
	TLSSubject    *string           `json:"tls_subject,omitempty"`
	TLSPSKID      string            `json:"tls_psk_identity,omitempty"`
	TLSPSK        string            `json:"tls_psk,omitempty"`
	Groups        []GroupRef        `json:"groups,omitempty"`
	Templates     []TemplateRef     `json:"templates,omitempty"`
	Tags          []Tag             `json:"tags,omitempty"`
	Macros        []Macro           `json:"macros,omitempty"`
	Interfaces    []InterfaceParams `json:"interfaces,omitempty"`
}

// TimePeriod is the one-time window attached to a maintenance object.
type TimePeriod struct {
	Type      string `json:"timeperiod_type"`
	StartDate int64  `json:"start_date"`
	Period    int64  `json:"period"`
}

// MaintenanceParams is the write shape for maintenance.create.
type MaintenanceParams struct {
	Name            string       `json:"name"`
	Description     string       `json:"description,omitempty"`
	ActiveSince     int64        `json:"active_since"`
	ActiveTill      int64        `json:"active_till"`
	MaintenanceType string       `json:"maintenance_type,omitempty"`
	Groups          []GroupRef   `json:"groups,omitempty"`
	Hosts           []HostRef    `json:"hosts,omitempty"`
	TimePeriods     []TimePeriod `json:"timeperiods"`
}
