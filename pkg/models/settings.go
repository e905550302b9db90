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
	"encoding/json"
	"fmt"
	"time"
)

// Duration is a time.Duration that unmarshals from either a duration string
// ("30s") or a numeric nanosecond count.
type Duration time.Duration

var errInvalidDuration = fmt.Errorf("invalid duration")

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %w", errInvalidDuration, err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// SecurityMode defines the transport security to use.
type SecurityMode string

const (
	SecurityModeNone SecurityMode = "none"
	SecurityModeTLS  SecurityMode = "tls"
	SecurityModeMTLS SecurityMode = "mtls"
)

// TLSConfig names the certificate material for TLS connections.
type TLSConfig struct {
	CertFile     string `json:"cert_file"`
	KeyFile      string `json:"key_file"`
	CAFile       string `json:"ca_file"`
	ClientCAFile string `json:"client_ca_file,omitempty"`
}

// SecurityConfig holds common transport security configuration.
type SecurityConfig struct {
	Mode       SecurityMode `json:"mode"`
	CertDir    string       `json:"cert_dir,omitempty"`
	ServerName string       `json:"server_name,omitempty"`
	TLS        TLSConfig    `json:"tls"`
}

// IPAssignment selects which IP address a provisioned interface uses.
type IPAssignment string

const (
	// IPAssignPrimary uses the inventory object's primary IP.
	IPAssignPrimary IPAssignment = "primary"

	// IPAssignInterface uses the first address of the referenced network
	// interface.
	IPAssignInterface IPAssignment = "interface"
)

// DeleteMode selects how remote hosts are removed.
type DeleteMode string

const (
	// DeleteModeSoft renames the remote host with the graveyard suffix and
	// moves it to the graveyard group instead of deleting it.
	DeleteModeSoft DeleteMode = "soft"

	// DeleteModeHard removes the remote host permanently.
	DeleteModeHard DeleteMode = "hard"
)

// TagNameFormat controls how projected tag names are normalized.
type TagNameFormat string

const (
	TagFormatKeep  TagNameFormat = "keep"
	TagFormatLower TagNameFormat = "lower"
	TagFormatUpper TagNameFormat = "upper"
)

// FieldMapping projects an inventory attribute onto a named target (a host
// tag or a remote inventory field). Paths is an ordered fallback chain of
// dotted attribute paths; the first path that resolves to a non-empty value
// wins.
type FieldMapping struct {
	Name  string   `json:"name"`
	Paths []string `json:"paths"`
}

// EngineConfig carries the behavioral settings of the reconciliation
// engine. It is passed explicitly into the orchestrator and applier at
// construction; there is no global settings object.
type EngineConfig struct {
	IPAssignment      IPAssignment   `json:"ip_assignment"`
	DeleteMode        DeleteMode     `json:"delete_mode"`
	GraveyardGroupID  int64          `json:"graveyard_group_id,omitempty"`
	GraveyardSuffix   string         `json:"graveyard_suffix"`
	DefaultTag        string         `json:"default_tag,omitempty"`
	TagPrefix         string         `json:"tag_prefix,omitempty"`
	TagNameFormat     TagNameFormat  `json:"tag_name_format"`
	ExcludeEnabled    bool           `json:"exclude_enabled"`
	ExcludeField      string         `json:"exclude_field,omitempty"`
	InventoryMode     InventoryMode  `json:"inventory_mode"`
	TagMappings       []FieldMapping `json:"tag_mappings,omitempty"`
	InventoryMappings []FieldMapping `json:"inventory_mappings,omitempty"`
	MaintenanceGrace  Duration       `json:"maintenance_grace,omitempty"`
	AgentPort         string         `json:"agent_port,omitempty"`
	SNMPPort          string         `json:"snmp_port,omitempty"`
}

const (
	defaultGraveyardSuffix  = "-archived"
	defaultExcludeField     = "monitoring_exclude"
	defaultAgentPort        = "10050"
	defaultSNMPPort         = "161"
	defaultMaintenanceGrace = Duration(24 * time.Hour)
)

var (
	errInvalidIPAssignment  = fmt.Errorf("invalid ip assignment method")
	errInvalidDeleteMode    = fmt.Errorf("invalid delete mode")
	errInvalidTagFormat     = fmt.Errorf("invalid tag name format")
	errGraveyardGroupNeeded = fmt.Errorf("soft delete mode requires a graveyard group")
)

// Validate checks the engine settings and applies defaults for the optional
// fields.
func (c *EngineConfig) Validate() error {
	if c.IPAssignment == "" {
		c.IPAssignment = IPAssignPrimary
	}

	if c.IPAssignment != IPAssignPrimary && c.IPAssignment != IPAssignInterface {
		return fmt.Errorf("%w: %q", errInvalidIPAssignment, c.IPAssignment)
	}

	if c.DeleteMode == "" {
		c.DeleteMode = DeleteModeSoft
	}

	if c.DeleteMode != DeleteModeSoft && c.DeleteMode != DeleteModeHard {
		return fmt.Errorf("%w: %q", errInvalidDeleteMode, c.DeleteMode)
	}

	if c.DeleteMode == DeleteModeSoft && c.GraveyardGroupID == 0 {
		return errGraveyardGroupNeeded
	}

	if c.GraveyardSuffix == "" {
		c.GraveyardSuffix = defaultGraveyardSuffix
	}

	if c.TagNameFormat == "" {
		c.TagNameFormat = TagFormatLower
	}

	switch c.TagNameFormat {
	case TagFormatKeep, TagFormatLower, TagFormatUpper:
	default:
		return fmt.Errorf("%w: %q", errInvalidTagFormat, c.TagNameFormat)
	}

	if c.ExcludeEnabled && c.ExcludeField == "" {
		c.ExcludeField = defaultExcludeField
	}

	if c.AgentPort == "" {
		c.AgentPort = defaultAgentPort
	}

	if c.SNMPPort == "" {
		c.SNMPPort = defaultSNMPPort
	}

	if c.MaintenanceGrace == 0 {
		c.MaintenanceGrace = defaultMaintenanceGrace
	}

	return nil
}
