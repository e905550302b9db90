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
	"context"
	"net/http"
)

//go:generate mockgen -destination=mock_zabbix.go -package=zabbix github.com/monbridge/monbridge/pkg/zabbix API,HTTPClient,TokenProvider

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenProvider defines the interface for obtaining API tokens.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// API is the monitoring-server surface the reconciliation core consumes.
type API interface {
	Version(ctx context.Context) (string, error)

	HostCreate(ctx context.Context, params *HostParams) (int64, error)
	HostUpdate(ctx context.Context, params *HostParams) error
	HostDelete(ctx context.Context, hostID int64) error
	HostGet(ctx context.Context, hostID int64) (*Host, error)
	HostGetByName(ctx context.Context, host string) (*Host, error)

	InterfaceList(ctx context.Context, hostID int64) ([]Interface, error)
	InterfaceCreate(ctx context.Context, params *InterfaceParams) (int64, error)
	InterfaceUpdate(ctx context.Context, params *InterfaceParams) error

	HostGroupList(ctx context.Context) ([]HostGroup, error)
	TemplateList(ctx context.Context) ([]Template, error)
	ProxyList(ctx context.Context) ([]Proxy, error)
	ProxyGroupList(ctx context.Context) ([]ProxyGroup, error)

	MaintenanceCreate(ctx context.Context, params *MaintenanceParams) (int64, error)
	MaintenanceDelete(ctx context.Context, maintenanceID int64) error
}
