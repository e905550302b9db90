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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/monbridge/monbridge/pkg/models"
)

// NewTokenProvider builds a provider from the monitor configuration. A
// static API token wins over username and password; callers that source the
// token from an encrypted secret file resolve it into cfg.APIToken before
// calling.
func NewTokenProvider(cfg *models.MonitorConfig) (TokenProvider, error) {
	if cfg == nil {
		return nil, ErrMissingCredentials
	}

	if cfg.APIToken != "" {
		return StaticToken(cfg.APIToken), nil
	}

	if cfg.Username != "" && cfg.Password != "" {
		return NewSessionProvider(cfg, nil), nil
	}

	return nil, ErrMissingCredentials
}

// StaticToken serves a fixed API token.
type StaticToken string

// Token implements TokenProvider.
func (t StaticToken) Token(_ context.Context) (string, error) {
	if t == "" {
		return "", ErrMissingCredentials
	}

	return string(t), nil
}

// SessionProvider logs in with username and password and caches the session
// token until Invalidate is called. Server sessions outlive any single
// reconciliation run, so there is no time-based expiry.
type SessionProvider struct {
	endpoint string
	username string
	password string
	http     HTTPClient

	mu      sync.RWMutex
	session string
}

var _ TokenProvider = (*SessionProvider)(nil)

// NewSessionProvider creates a provider for the configured endpoint. A nil
// httpClient gets a default client with the configured timeout.
func NewSessionProvider(cfg *models.MonitorConfig, httpClient HTTPClient) *SessionProvider {
	if httpClient == nil {
		httpClient = newHTTPClient(cfg)
	}

	return &SessionProvider{
		endpoint: apiURL(cfg.Endpoint),
		username: cfg.Username,
		password: cfg.Password,
		http:     httpClient,
	}
}

// Token returns the cached session token, logging in on first use.
func (p *SessionProvider) Token(ctx context.Context) (string, error) {
	p.mu.RLock()
	if p.session != "" {
		session := p.session
		p.mu.RUnlock()

		return session, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Another caller may have logged in while we waited for the lock.
	if p.session != "" {
		return p.session, nil
	}

	session, err := p.login(ctx)
	if err != nil {
		return "", err
	}

	p.session = session

	return session, nil
}

// Invalidate drops the cached session so the next Token call logs in again.
func (p *SessionProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.session = ""
}

func (p *SessionProvider) login(ctx context.Context) (string, error) {
	payload := rpcRequest{
		JSONRPC: "2.0",
		Method:  methodLogin,
		Params: map[string]string{
			"username": p.username,
			"password": p.password,
		},
		ID: 1,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create login request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json-rpc")
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)

		return "", fmt.Errorf("%w: %d, response: %s", errUnexpectedStatusCode, resp.StatusCode, string(respBody))
	}

	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}

	if envelope.Error != nil {
		return "", fmt.Errorf("%s: %w", methodLogin, envelope.Error)
	}

	var session string
	if err := json.Unmarshal(envelope.Result, &session); err != nil {
		return "", fmt.Errorf("decode login result: %w", err)
	}

	if session == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyResult, methodLogin)
	}

	return session, nil
}
