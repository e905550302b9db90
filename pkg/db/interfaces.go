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
	"context"

	"github.com/google/uuid"

	"github.com/monbridge/monbridge/pkg/models"
)

// Service represents all local-state operations of the bridge. The pgx
// implementation backs production; the in-memory store backs tests and
// single-binary deployments.
type Service interface {
	Close()

	// Host configuration operations.

	CreateHostConfig(ctx context.Context, hc *models.HostConfiguration) error
	GetHostConfig(ctx context.Context, id uuid.UUID) (*models.HostConfiguration, error)
	GetHostConfigByObject(ctx context.Context, ref models.ObjectRef) (*models.HostConfiguration, error)
	GetHostConfigByRemoteID(ctx context.Context, remoteID int64) (*models.HostConfiguration, error)
	ListHostConfigs(ctx context.Context) ([]*models.HostConfiguration, error)
	UpdateHostConfig(ctx context.Context, hc *models.HostConfiguration) error
	DeleteHostConfig(ctx context.Context, id uuid.UUID) error

	// Mapping rule operations.

	CreateRule(ctx context.Context, rule *models.MappingRule) error
	GetRule(ctx context.Context, id uuid.UUID) (*models.MappingRule, error)
	ListRules(ctx context.Context) ([]*models.MappingRule, error)
	UpdateRule(ctx context.Context, rule *models.MappingRule) error
	DeleteRule(ctx context.Context, id uuid.UUID) error

	// Maintenance window operations.

	CreateMaintenance(ctx context.Context, window *models.MaintenanceWindow) error
	GetMaintenance(ctx context.Context, id uuid.UUID) (*models.MaintenanceWindow, error)
	ListMaintenance(ctx context.Context) ([]*models.MaintenanceWindow, error)
	ListMaintenanceByStatus(ctx context.Context, status models.MaintenanceStatus) ([]*models.MaintenanceWindow, error)
	UpdateMaintenance(ctx context.Context, window *models.MaintenanceWindow) error
	DeleteMaintenance(ctx context.Context, id uuid.UUID) error

	// Job association operations.

	LinkJob(ctx context.Context, link *models.JobLink) error
	ListJobLinks(ctx context.Context, hostConfigID uuid.UUID) ([]*models.JobLink, error)

	// WithTx runs fn against a transactional view of the store. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(Service) error) error
}
