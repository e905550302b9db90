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

package netbox

// briefRef is the compact nested form NetBox uses for related objects in
// list and detail payloads.
type briefRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// statusField carries NetBox's {value, label} status encoding.
type statusField struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ipBrief is the compact primary_ip form. The full address record, with
// dns_name, comes from the ipam endpoint.
type ipBrief struct {
	ID      int64  `json:"id"`
	Address string `json:"address"`
}

// siteDetail is the site detail payload. Only the detail endpoint nests the
// region; list payloads carry the brief form without it.
type siteDetail struct {
	ID     int64     `json:"id"`
	Name   string    `json:"name"`
	Slug   string    `json:"slug"`
	Region *briefRef `json:"region"`
}

// deviceRecord represents a NetBox device as returned by the API.
type deviceRecord struct {
	ID           int64                  `json:"id"`
	Name         string                 `json:"name"`
	Status       statusField            `json:"status"`
	Site         *briefRef              `json:"site"`
	Role         *briefRef              `json:"role"`
	Platform     *briefRef              `json:"platform"`
	PrimaryIP    *ipBrief               `json:"primary_ip"`
	Description  string                 `json:"description"`
	CustomFields map[string]interface{} `json:"custom_fields"`
}

// vmRecord represents a NetBox virtual machine as returned by the API.
type vmRecord struct {
	ID           int64                  `json:"id"`
	Name         string                 `json:"name"`
	Status       statusField            `json:"status"`
	Site         *briefRef              `json:"site"`
	Cluster      *briefRef              `json:"cluster"`
	Role         *briefRef              `json:"role"`
	Platform     *briefRef              `json:"platform"`
	PrimaryIP    *ipBrief               `json:"primary_ip"`
	Description  string                 `json:"description"`
	CustomFields map[string]interface{} `json:"custom_fields"`
}

// interfaceRecord represents a device or VM interface. Virtual machine
// interfaces carry no mgmt_only flag; the zero value is fine.
type interfaceRecord struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	MACAddress string `json:"mac_address"`
	MgmtOnly   bool   `json:"mgmt_only"`
}

// ipRecord represents an IP address record from the ipam endpoint.
// AssignedObjectID points at the owning interface.
type ipRecord struct {
	ID               int64  `json:"id"`
	Address          string `json:"address"`
	DNSName          string `json:"dns_name"`
	AssignedObjectID int64  `json:"assigned_object_id"`
}

// List envelopes. Next is the pagination URL, empty on the last page.

type deviceListResponse struct {
	Count    int            `json:"count"`
	Next     string         `json:"next"`
	Previous string         `json:"previous"`
	Results  []deviceRecord `json:"results"`
}

type vmListResponse struct {
	Count    int        `json:"count"`
	Next     string     `json:"next"`
	Previous string     `json:"previous"`
	Results  []vmRecord `json:"results"`
}

type interfaceListResponse struct {
	Count    int               `json:"count"`
	Next     string            `json:"next"`
	Previous string            `json:"previous"`
	Results  []interfaceRecord `json:"results"`
}

type ipListResponse struct {
	Count    int        `json:"count"`
	Next     string     `json:"next"`
	Previous string     `json:"previous"`
	Results  []ipRecord `json:"results"`
}
