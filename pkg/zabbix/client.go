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
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/models"
)

const (
	defaultTimeout = 30 * time.Second

	apiPath = "/api_jsonrpc.php"

	methodVersion           = "apiinfo.version"
	methodLogin             = "user.login"
	methodHostCreate        = "host.create"
	methodHostUpdate        = "host.update"
	methodHostDelete        = "host.delete"
	methodHostGet           = "host.get"
	methodInterfaceGet      = "hostinterface.get"
	methodInterfaceCreate   = "hostinterface.create"
	methodInterfaceUpdate   = "hostinterface.update"
	methodHostGroupGet      = "hostgroup.get"
	methodTemplateGet       = "template.get"
	methodProxyGet          = "proxy.get"
	methodProxyGroupGet     = "proxygroup.get"
	methodMaintenanceCreate = "maintenance.create"
	methodMaintenanceDelete = "maintenance.delete"
)

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      int64       `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *APIError       `json:"error"`
	ID      int64           `json:"id"`
}

type hostIDsResult struct {
	HostIDs []ID `json:"hostids"`
}

type interfaceIDsResult struct {
	InterfaceIDs []ID `json:"interfaceids"`
}

type maintenanceIDsResult struct {
	MaintenanceIDs []ID `json:"maintenanceids"`
}

// Client talks JSON-RPC to a single Zabbix server endpoint.
type Client struct {
	endpoint string
	http     HTTPClient
	tokens   TokenProvider
	logger   logger.Logger
	reqID    atomic.Int64
}

var _ API = (*Client)(nil)

// NewClient creates a client for the configured endpoint. The token
// provider is built separately so callers decide how credentials are
// sourced; NewTokenProvider covers the common cases.
func NewClient(cfg *models.MonitorConfig, tokens TokenProvider, log logger.Logger) (*Client, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}

	if tokens == nil {
		return nil, ErrMissingCredentials
	}

	return &Client{
		endpoint: apiURL(cfg.Endpoint),
		http:     newHTTPClient(cfg),
		tokens:   tokens,
		logger:   log,
	}, nil
}

func newHTTPClient(cfg *models.MonitorConfig) *http.Client {
	timeout := time.Duration(cfg.Timeout)
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &http.Client{Timeout: timeout}
	if cfg.InsecureSkipVerify {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // operator opt-in for self-signed lab servers
		}
	}

	return client
}

func apiURL(endpoint string) string {
	trimmed := strings.TrimRight(endpoint, "/")
	if strings.HasSuffix(trimmed, apiPath) {
		return trimmed
	}

	return trimmed + apiPath
}

// call executes one JSON-RPC request and decodes the result payload into
// result when it is non-nil. apiinfo.version and user.login are the two
// methods the server rejects when an Authorization header is present.
func (c *Client) call(ctx context.Context, method string, params, result interface{}) error {
	id := c.reqID.Add(1)

	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: id})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}

	req.Header.Set("Content-Type", "application/json-rpc")
	req.Header.Set("Accept", "application/json")

	if method != methodVersion && method != methodLogin {
		token, tokenErr := c.tokens.Token(ctx)
		if tokenErr != nil {
			return fmt.Errorf("obtain api token: %w", tokenErr)
		}

		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn().Err(closeErr).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)

		return fmt.Errorf("%w: %d, response: %s", errUnexpectedStatusCode, resp.StatusCode, string(respBody))
	}

	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}

	if envelope.Error != nil {
		return fmt.Errorf("%s: %w", method, envelope.Error)
	}

	if result == nil {
		return nil
	}

	if len(envelope.Result) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyResult, method)
	}

	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}

	return nil
}

// Version returns the server API version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	var version string
	if err := c.call(ctx, methodVersion, struct{}{}, &version); err != nil {
		return "", err
	}

	return version, nil
}

// HostCreate registers a new host and returns its identifier.
func (c *Client) HostCreate(ctx context.Context, params *HostParams) (int64, error) {
	var res hostIDsResult
	if err := c.call(ctx, methodHostCreate, params, &res); err != nil {
		return 0, err
	}

	if len(res.HostIDs) == 0 {
		return 0, fmt.Errorf("%w: %s returned no hostids", ErrEmptyResult, methodHostCreate)
	}

	c.logger.Debug().Int64("hostid", res.HostIDs[0].Int64()).Str("host", params.Host).Msg("Created host")

	return res.HostIDs[0].Int64(), nil
}

// HostUpdate applies the populated fields of params to an existing host.
func (c *Client) HostUpdate(ctx context.Context, params *HostParams) error {
	if params.HostID == 0 {
		return fmt.Errorf("%w: host update requires hostid", errInvalidID)
	}

	return c.call(ctx, methodHostUpdate, params, &hostIDsResult{})
}

// HostDelete removes a host and everything attached to it.
func (c *Client) HostDelete(ctx context.Context, hostID int64) error {
	if hostID == 0 {
		return fmt.Errorf("%w: host delete requires hostid", errInvalidID)
	}

	return c.call(ctx, methodHostDelete, []ID{ID(hostID)}, &hostIDsResult{})
}

func hostSelects() map[string]interface{} {
	return map[string]interface{}{
		"output":                "extend",
		"selectGroups":          []string{"groupid", "name"},
		"selectParentTemplates": []string{"templateid", "host", "name"},
		"selectTags":            "extend",
		"selectMacros":          "extend",
		"selectInterfaces":      "extend",
		"selectInventory":       "extend",
	}
}

// HostGet fetches one host with its groups, templates, tags, macros,
// interfaces, and inventory.
func (c *Client) HostGet(ctx context.Context, hostID int64) (*Host, error) {
	params := hostSelects()
	params["hostids"] = []ID{ID(hostID)}

	var hosts []Host
	if err := c.call(ctx, methodHostGet, params, &hosts); err != nil {
		return nil, err
	}

	if len(hosts) == 0 {
		return nil, fmt.Errorf("%w: hostid %d", ErrHostNotFound, hostID)
	}

	return &hosts[0], nil
}

// HostGetByName fetches one host by its technical name.
func (c *Client) HostGetByName(ctx context.Context, host string) (*Host, error) {
	params := hostSelects()
	params["filter"] = map[string][]string{"host": {host}}

	var hosts []Host
	if err := c.call(ctx, methodHostGet, params, &hosts); err != nil {
		return nil, err
	}

	if len(hosts) == 0 {
		return nil, fmt.Errorf("%w: host %q", ErrHostNotFound, host)
	}

	return &hosts[0], nil
}

// InterfaceList returns the interfaces attached to a host.
func (c *Client) InterfaceList(ctx context.Context, hostID int64) ([]Interface, error) {
	params := map[string]interface{}{
		"hostids": []ID{ID(hostID)},
		"output":  "extend",
	}

	var ifaces []Interface
	if err := c.call(ctx, methodInterfaceGet, params, &ifaces); err != nil {
		return nil, err
	}

	return ifaces, nil
}

// InterfaceCreate attaches a new interface to a host and returns its
// identifier.
func (c *Client) InterfaceCreate(ctx context.Context, params *InterfaceParams) (int64, error) {
	if params.HostID == 0 {
		return 0, fmt.Errorf("%w: interface create requires hostid", errInvalidID)
	}

	var res interfaceIDsResult
	if err := c.call(ctx, methodInterfaceCreate, params, &res); err != nil {
		return 0, err
	}

	if len(res.InterfaceIDs) == 0 {
		return 0, fmt.Errorf("%w: %s returned no interfaceids", ErrEmptyResult, methodInterfaceCreate)
	}

	return res.InterfaceIDs[0].Int64(), nil
}

// InterfaceUpdate applies the populated fields of params to an existing
// interface.
func (c *Client) InterfaceUpdate(ctx context.Context, params *InterfaceParams) error {
	if params.InterfaceID == 0 {
		return fmt.Errorf("%w: interface update requires interfaceid", errInvalidID)
	}

	return c.call(ctx, methodInterfaceUpdate, params, &interfaceIDsResult{})
}

// HostGroupList returns every host group visible to the credentials.
func (c *Client) HostGroupList(ctx context.Context) ([]HostGroup, error) {
	params := map[string]interface{}{
		"output":    []string{"groupid", "name"},
		"sortfield": "name",
	}

	var groups []HostGroup
	if err := c.call(ctx, methodHostGroupGet, params, &groups); err != nil {
		return nil, err
	}

	return groups, nil
}

// TemplateList returns every template visible to the credentials.
func (c *Client) TemplateList(ctx context.Context) ([]Template, error) {
	params := map[string]interface{}{
		"output":    []string{"templateid", "host", "name"},
		"sortfield": "host",
	}

	var templates []Template
	if err := c.call(ctx, methodTemplateGet, params, &templates); err != nil {
		return nil, err
	}

	return templates, nil
}

// ProxyList returns every proxy visible to the credentials.
func (c *Client) ProxyList(ctx context.Context) ([]Proxy, error) {
	params := map[string]interface{}{
		"output":    []string{"proxyid", "name"},
		"sortfield": "name",
	}

	var proxies []Proxy
	if err := c.call(ctx, methodProxyGet, params, &proxies); err != nil {
		return nil, err
	}

	return proxies, nil
}

// ProxyGroupList returns every proxy group visible to the credentials.
func (c *Client) ProxyGroupList(ctx context.Context) ([]ProxyGroup, error) {
	params := map[string]interface{}{
		"output":    []string{"proxy_groupid", "name"},
		"sortfield": "name",
	}

	var groups []ProxyGroup
	if err := c.call(ctx, methodProxyGroupGet, params, &groups); err != nil {
		return nil, err
	}

	return groups, nil
}

// MaintenanceCreate registers a maintenance window and returns its
// identifier.
func (c *Client) MaintenanceCreate(ctx context.Context, params *MaintenanceParams) (int64, error) {
	var res maintenanceIDsResult
	if err := c.call(ctx, methodMaintenanceCreate, params, &res); err != nil {
		return 0, err
	}

	if len(res.MaintenanceIDs) == 0 {
		return 0, fmt.Errorf("%w: %s returned no maintenanceids", ErrEmptyResult, methodMaintenanceCreate)
	}

	return res.MaintenanceIDs[0].Int64(), nil
}

// MaintenanceDelete removes a maintenance window.
func (c *Client) MaintenanceDelete(ctx context.Context, maintenanceID int64) error {
	if maintenanceID == 0 {
		return fmt.Errorf("%w: maintenance delete requires maintenanceid", errInvalidID)
	}

	return c.call(ctx, methodMaintenanceDelete, []ID{ID(maintenanceID)}, &maintenanceIDsResult{})
}
