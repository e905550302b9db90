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
	"errors"
	"fmt"

	"github.com/monbridge/monbridge/pkg/logger"
)

var (
	errInventoryEndpointRequired = fmt.Errorf("inventory endpoint is required")
	errInventoryTokenRequired    = fmt.Errorf("inventory api token is required")
	errMonitorEndpointRequired   = fmt.Errorf("monitor endpoint is required")
	errMonitorCredsRequired      = fmt.Errorf("monitor credentials are required")
	errDatabaseHostRequired      = fmt.Errorf("database host is required")
	errDatabaseNameRequired      = fmt.Errorf("database name is required")
	errDatabaseDriverUnknown     = fmt.Errorf("unknown database driver")
	errSecretsFileRequired       = fmt.Errorf("secrets file is required")
	errSecretsKeyRequired        = fmt.Errorf("secrets key or key file is required")
	errLoggingConfigRequired     = fmt.Errorf("logging configuration is required")
)

// InventoryConfig points at the inventory service and controls how objects
// are fetched from it.
type InventoryConfig struct {
	Endpoint           string   `json:"endpoint"`
	APIToken           string   `json:"api_token,omitempty"`
	TokenFile          string   `json:"token_file,omitempty"`
	PageSize           int      `json:"page_size,omitempty"`
	Timeout            Duration `json:"timeout,omitempty"`
	InsecureSkipVerify bool     `json:"insecure_skip_verify,omitempty"`
}

// Validate ensures the inventory configuration is usable.
func (c *InventoryConfig) Validate() error {
	if c.Endpoint == "" {
		return errInventoryEndpointRequired
	}

	if c.APIToken == "" && c.TokenFile == "" {
		return errInventoryTokenRequired
	}

	if c.PageSize <= 0 {
		c.PageSize = 100
	}

	return nil
}

// MonitorConfig points at the monitoring server's JSON-RPC endpoint.
// Authentication is either a static API token or a username/password pair
// that is exchanged for a session token on first use.
type MonitorConfig struct {
	Endpoint           string   `json:"endpoint"`
	Username           string   `json:"username,omitempty"`
	Password           string   `json:"password,omitempty"`
	APIToken           string   `json:"api_token,omitempty"`
	TokenFile          string   `json:"token_file,omitempty"`
	Timeout            Duration `json:"timeout,omitempty"`
	InsecureSkipVerify bool     `json:"insecure_skip_verify,omitempty"`
}

// Validate ensures the monitor configuration is usable.
func (c *MonitorConfig) Validate() error {
	if c.Endpoint == "" {
		return errMonitorEndpointRequired
	}

	if c.APIToken == "" && c.TokenFile == "" && (c.Username == "" || c.Password == "") {
		return errMonitorCredsRequired
	}

	return nil
}

// Database drivers selectable via DatabaseConfig.Driver.
const (
	DatabaseDriverPostgres = "postgres"
	DatabaseDriverMemory   = "memory"
)

// DatabaseConfig describes the store holding the local state: a Postgres
// cluster, or the in-memory store for lab setups that tolerate losing
// state on restart.
type DatabaseConfig struct {
	Driver             string            `json:"driver,omitempty"`
	Host               string            `json:"host"`
	Port               int               `json:"port,omitempty"`
	Database           string            `json:"database"`
	Username           string            `json:"username,omitempty"`
	Password           string            `json:"password,omitempty"`
	SSLMode            string            `json:"ssl_mode,omitempty"`
	ApplicationName    string            `json:"application_name,omitempty"`
	MaxConnections     int32             `json:"max_connections,omitempty"`
	MinConnections     int32             `json:"min_connections,omitempty"`
	MaxConnLifetime    Duration          `json:"max_conn_lifetime,omitempty"`
	HealthCheckPeriod  Duration          `json:"health_check_period,omitempty"`
	StatementTimeout   Duration          `json:"statement_timeout,omitempty"`
	ExtraRuntimeParams map[string]string `json:"extra_runtime_params,omitempty"`
	TLS                *TLSConfig        `json:"tls,omitempty"`
}

// Validate ensures the database configuration is usable.
func (c *DatabaseConfig) Validate() error {
	switch c.Driver {
	case "":
		c.Driver = DatabaseDriverPostgres
	case DatabaseDriverPostgres, DatabaseDriverMemory:
	default:
		return fmt.Errorf("%w: %q", errDatabaseDriverUnknown, c.Driver)
	}

	if c.Driver == DatabaseDriverMemory {
		return nil
	}

	if c.Host == "" {
		return errDatabaseHostRequired
	}

	if c.Database == "" {
		return errDatabaseNameRequired
	}

	return nil
}

// JobsConfig configures the JetStream work queue consumed by the job runner.
type JobsConfig struct {
	Enabled      bool   `json:"enabled"`
	StreamName   string `json:"stream_name,omitempty"`
	ConsumerName string `json:"consumer_name,omitempty"`
	Subject      string `json:"subject,omitempty"`
	MaxDeliver   int    `json:"max_deliver,omitempty"`
}

// Validate applies the stream naming defaults.
func (c *JobsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.StreamName == "" {
		c.StreamName = "monbridge-jobs"
	}

	if c.ConsumerName == "" {
		c.ConsumerName = "monbridge-worker"
	}

	if c.Subject == "" {
		c.Subject = "jobs.monbridge.>"
	}

	if c.MaxDeliver <= 0 {
		c.MaxDeliver = 5
	}

	return nil
}

// SchedulesConfig holds the cron expressions for the recurring sweeps.
type SchedulesConfig struct {
	Reconcile        string `json:"reconcile,omitempty"`
	MaintenancePurge string `json:"maintenance_purge,omitempty"`
	ImportInventory  string `json:"import_inventory,omitempty"`
}

// Validate applies the schedule defaults.
func (c *SchedulesConfig) Validate() error {
	if c.Reconcile == "" {
		c.Reconcile = "@every 15m"
	}

	if c.MaintenancePurge == "" {
		c.MaintenancePurge = "@every 1h"
	}

	return nil
}

// SNMPCheckConfig tunes the optional SNMP preflight probe run before an
// SNMP interface is provisioned remotely.
type SNMPCheckConfig struct {
	Enabled bool     `json:"enabled"`
	Timeout Duration `json:"timeout,omitempty"`
	Retries int      `json:"retries,omitempty"`
}

// SecretsConfig locates the sealed secret store and its passphrase. The
// passphrase comes from Key directly or from the first line of KeyFile.
type SecretsConfig struct {
	File    string `json:"file,omitempty"`
	KeyFile string `json:"key_file,omitempty"`
	Key     string `json:"key,omitempty"`
}

// Validate ensures the store location and a passphrase source are set.
func (c *SecretsConfig) Validate() error {
	if c.File == "" {
		return errSecretsFileRequired
	}

	if c.Key == "" && c.KeyFile == "" {
		return errSecretsKeyRequired
	}

	return nil
}

// BridgeConfig is the top-level configuration of the bridge service.
type BridgeConfig struct {
	ListenAddr string           `json:"listen_addr"`
	GrpcAddr   string           `json:"grpc_addr,omitempty"`
	Inventory  InventoryConfig  `json:"inventory"`
	Monitor    MonitorConfig    `json:"monitor"`
	Database   DatabaseConfig   `json:"database"`
	Engine     EngineConfig     `json:"engine"`
	Schedules  SchedulesConfig  `json:"schedules"`
	SNMPCheck  *SNMPCheckConfig `json:"snmp_check,omitempty"`
	NATS       *NATSConfig      `json:"nats,omitempty"`
	Events     *EventsConfig    `json:"events,omitempty"`
	Jobs       *JobsConfig      `json:"jobs,omitempty"`
	Secrets    *SecretsConfig   `json:"secrets,omitempty"`
	Security   *SecurityConfig  `json:"security,omitempty"`
	CORS       CORSConfig       `json:"cors,omitempty"`
	Logging    *logger.Config   `json:"logging,omitempty"`
}

// CORSConfig configures cross-origin access to the HTTP API.
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins,omitempty"`
	AllowCredentials bool     `json:"allow_credentials,omitempty"`
}

// Validate checks every section and applies defaults.
func (c *BridgeConfig) Validate() error {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8090"
	}

	if err := c.Inventory.Validate(); err != nil {
		return fmt.Errorf("inventory: %w", err)
	}

	if err := c.Monitor.Validate(); err != nil {
		// The sealed secret store may hold the API token instead of the
		// config file.
		if c.Secrets == nil || !errors.Is(err, errMonitorCredsRequired) {
			return fmt.Errorf("monitor: %w", err)
		}
	}

	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	if err := c.Schedules.Validate(); err != nil {
		return fmt.Errorf("schedules: %w", err)
	}

	if c.NATS != nil {
		if err := c.NATS.Validate(); err != nil {
			return fmt.Errorf("nats: %w", err)
		}
	}

	if c.Events != nil {
		if err := c.Events.Validate(); err != nil {
			return fmt.Errorf("events: %w", err)
		}
	}

	if c.Jobs != nil {
		if err := c.Jobs.Validate(); err != nil {
			return fmt.Errorf("jobs: %w", err)
		}
	}

	if c.Secrets != nil {
		if err := c.Secrets.Validate(); err != nil {
			return fmt.Errorf("secrets: %w", err)
		}
	}

	if c.Logging == nil {
		return errLoggingConfigRequired
	}

	return nil
}
