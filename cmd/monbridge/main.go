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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nats-io/nats.go"

	"github.com/monbridge/monbridge/pkg/audit"
	"github.com/monbridge/monbridge/pkg/config"
	"github.com/monbridge/monbridge/pkg/db"
	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/models"
	"github.com/monbridge/monbridge/pkg/netbox"
	"github.com/monbridge/monbridge/pkg/secrets"
	"github.com/monbridge/monbridge/pkg/syncer"
	"github.com/monbridge/monbridge/pkg/version"
	"github.com/monbridge/monbridge/pkg/zabbix"
)

var errEmptyFile = errors.New("file is empty")

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/monbridge/monbridge.json", "Path to config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg models.BridgeConfig

	if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	mainLogger, err := logger.New(ctx, "monbridge", cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	mainLogger.Info().
		Str("version", version.GetFullVersion()).
		Str("config", *configPath).
		Msg("Starting monbridge")

	if err := resolveTokenFiles(&cfg); err != nil {
		return err
	}

	var store db.Service

	if cfg.Database.Driver == models.DatabaseDriverMemory {
		mainLogger.Warn().Msg("Using in-memory store; state is lost on restart")

		store = db.NewMemStore()
	} else {
		pool, err := db.New(ctx, &cfg.Database, mainLogger)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer pool.Close()

		store = pool
	}

	sealed, err := openSecrets(cfg.Secrets)
	if err != nil {
		return err
	}

	tokens, err := monitorTokens(&cfg.Monitor, sealed)
	if err != nil {
		return fmt.Errorf("monitor credentials: %w", err)
	}

	remote, err := zabbix.NewClient(&cfg.Monitor, tokens, mainLogger)
	if err != nil {
		return fmt.Errorf("monitor client: %w", err)
	}

	source, err := netbox.New(&cfg.Inventory, mainLogger)
	if err != nil {
		return fmt.Errorf("inventory client: %w", err)
	}

	var nc *nats.Conn

	if cfg.NATS != nil {
		nc, err = audit.Connect(cfg.NATS, mainLogger)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer nc.Close()
	}

	deps := syncer.Deps{
		Config:    &cfg,
		Store:     store,
		Remote:    remote,
		Inventory: source,
		NATS:      nc,
		Logger:    mainLogger,
	}

	// A nil *Store must not reach the interface field.
	if sealed != nil {
		deps.Secrets = sealed
	}

	svc, err := syncer.New(ctx, deps)
	if err != nil {
		return fmt.Errorf("assemble service: %w", err)
	}

	return svc.Run(ctx)
}

// resolveTokenFiles reads file-sourced API tokens into their config fields.
// The clients consume only the resolved token.
func resolveTokenFiles(cfg *models.BridgeConfig) error {
	if cfg.Inventory.APIToken == "" && cfg.Inventory.TokenFile != "" {
		token, err := firstLine(cfg.Inventory.TokenFile)
		if err != nil {
			return fmt.Errorf("inventory token file %s: %w", cfg.Inventory.TokenFile, err)
		}

		cfg.Inventory.APIToken = token
	}

	if cfg.Monitor.APIToken == "" && cfg.Monitor.TokenFile != "" {
		token, err := firstLine(cfg.Monitor.TokenFile)
		if err != nil {
			return fmt.Errorf("monitor token file %s: %w", cfg.Monitor.TokenFile, err)
		}

		cfg.Monitor.APIToken = token
	}

	return nil
}

// openSecrets opens the sealed store when one is configured. The store is
// created out of band; a missing file is an operator error.
func openSecrets(cfg *models.SecretsConfig) (*secrets.Store, error) {
	if cfg == nil {
		return nil, nil
	}

	passphrase := cfg.Key
	if passphrase == "" {
		line, err := firstLine(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("secrets key file %s: %w", cfg.KeyFile, err)
		}

		passphrase = line
	}

	store, err := secrets.Open(cfg.File, passphrase)
	if err != nil {
		return nil, fmt.Errorf("open secret store %s: %w", cfg.File, err)
	}

	return store, nil
}

// monitorTokens picks the API token source. A token sealed in the secret
// store wins over config file credentials.
func monitorTokens(cfg *models.MonitorConfig, sealed *secrets.Store) (zabbix.TokenProvider, error) {
	if sealed != nil {
		if _, err := sealed.Get(secrets.KeyAPIToken); err == nil {
			return sealed, nil
		}
	}

	return zabbix.NewTokenProvider(cfg)
}

func firstLine(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	line, _, _ := strings.Cut(string(raw), "\n")

	line = strings.TrimSpace(line)
	if line == "" {
		return "", errEmptyFile
	}

	return line, nil
}
