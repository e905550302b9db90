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

package db

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monbridge/monbridge/pkg/models"
)

func TestBuildConnURLDefaultsSSLModeDisable(t *testing.T) {
	cfg := &models.DatabaseConfig{
		Host:     "db.local",
		Database: "monbridge",
		Username: "bridge",
		Password: "secret",
	}

	parsed, err := url.Parse(buildConnURL(cfg))
	require.NoError(t, err)

	assert.Equal(t, "postgres", parsed.Scheme)
	assert.Equal(t, "db.local:5432", parsed.Host)
	assert.Equal(t, "/monbridge", parsed.Path)
	assert.Equal(t, "bridge", parsed.User.Username())

	password, set := parsed.User.Password()
	require.True(t, set)
	assert.Equal(t, "secret", password)

	assert.Equal(t, "disable", parsed.Query().Get("sslmode"))
}

func TestBuildConnURLDefaultsVerifyFullWithTLS(t *testing.T) {
	cfg := &models.DatabaseConfig{
		Host:     "db.local",
		Port:     5433,
		Database: "monbridge",
		TLS: &models.TLSConfig{
			CertFile: "client.pem",
			KeyFile:  "client-key.pem",
			CAFile:   "ca.pem",
		},
	}

	parsed, err := url.Parse(buildConnURL(cfg))
	require.NoError(t, err)

	assert.Equal(t, "db.local:5433", parsed.Host)
	assert.Equal(t, "verify-full", parsed.Query().Get("sslmode"))
}

func TestBuildConnURLCarriesRuntimeParams(t *testing.T) {
	cfg := &models.DatabaseConfig{
		Host:            "db.local",
		Database:        "monbridge",
		SSLMode:         "require",
		ApplicationName: "monbridge-test",
		ExtraRuntimeParams: map[string]string{
			"search_path": "bridge",
			"":            "ignored",
		},
	}

	parsed, err := url.Parse(buildConnURL(cfg))
	require.NoError(t, err)

	query := parsed.Query()
	assert.Equal(t, "require", query.Get("sslmode"))
	assert.Equal(t, "monbridge-test", query.Get("application_name"))
	assert.Equal(t, "bridge", query.Get("search_path"))
	assert.NotContains(t, query, "")
}

func TestBuildPoolTLSConfigRequiresAllFiles(t *testing.T) {
	cfg := &models.DatabaseConfig{
		Host:     "db.local",
		Database: "monbridge",
		TLS: &models.TLSConfig{
			CertFile: "client.pem",
		},
	}

	_, err := buildPoolTLSConfig(cfg)
	require.ErrorIs(t, err, ErrLackingTLSFiles)
}

func TestBuildPoolTLSConfigNilWithoutTLS(t *testing.T) {
	tlsConfig, err := buildPoolTLSConfig(&models.DatabaseConfig{Host: "db.local", Database: "monbridge"})
	require.NoError(t, err)
	assert.Nil(t, tlsConfig)
}
