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
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/monbridge/monbridge/pkg/models"
)

const (
	maintenanceColumns = `
	id,
	name,
	description,
	starts_at,
	ends_at,
	suppress_data,
	remote_id,
	status,
	targets,
	created_at,
	updated_at`

	insertMaintenanceSQL = `
INSERT INTO maintenance_windows (` + maintenanceColumns + `
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)`

	updateMaintenanceSQL = `
UPDATE maintenance_windows SET
	name = $2,
	description = $3,
	starts_at = $4,
	ends_at = $5,
	suppress_data = $6,
	remote_id = $7,
	status = $8,
	targets = $9,
	updated_at = $10
WHERE id = $1`

	selectMaintenanceSQL = `SELECT ` + maintenanceColumns + ` FROM maintenance_windows WHERE id = $1`

	listMaintenanceSQL = `SELECT ` + maintenanceColumns + ` FROM maintenance_windows ORDER BY starts_at`

	listMaintenanceByStatusSQL = `SELECT ` + maintenanceColumns + `
FROM maintenance_windows WHERE status = $1 ORDER BY starts_at`

	deleteMaintenanceSQL = `DELETE FROM maintenance_windows WHERE id = $1`
)

// CreateMaintenance inserts a maintenance window. A zero ID is assigned.
func (db *DB) CreateMaintenance(ctx context.Context, window *models.MaintenanceWindow) error {
	if window == nil {
		return ErrMaintenanceNil
	}

	if window.ID == uuid.Nil {
		window.ID = uuid.New()
	}

	window.CreatedAt = sanitizeTimestamp(window.CreatedAt)
	window.UpdatedAt = sanitizeTimestamp(window.UpdatedAt)

	args, err := buildMaintenanceArgs(window)
	if err != nil {
		return err
	}

	if _, err := db.q.Exec(ctx, insertMaintenanceSQL, args...); err != nil {
		return fmt.Errorf("%w: maintenance window: %s", ErrFailedToInsert, err)
	}

	return nil
}

// GetMaintenance loads one maintenance window by ID.
func (db *DB) GetMaintenance(ctx context.Context, id uuid.UUID) (*models.MaintenanceWindow, error) {
	window, err := scanMaintenance(db.q.QueryRow(ctx, selectMaintenanceSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMaintenanceNotFound
		}

		return nil, err
	}

	return window, nil
}

// ListMaintenance returns all maintenance windows ordered by start time.
func (db *DB) ListMaintenance(ctx context.Context) ([]*models.MaintenanceWindow, error) {
	return db.listMaintenance(ctx, listMaintenanceSQL)
}

// ListMaintenanceByStatus returns the windows currently in one lifecycle state.
func (db *DB) ListMaintenanceByStatus(ctx context.Context, status models.MaintenanceStatus) ([]*models.MaintenanceWindow, error) {
	return db.listMaintenance(ctx, listMaintenanceByStatusSQL, string(status))
}

func (db *DB) listMaintenance(ctx context.Context, sql string, args ...interface{}) ([]*models.MaintenanceWindow, error) {
	rows, err := db.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list maintenance windows: %s", ErrFailedToQuery, err)
	}
	defer rows.Close()

	var out []*models.MaintenanceWindow

	for rows.Next() {
		window, err := scanMaintenance(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, window)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate maintenance windows: %s", ErrFailedToQuery, err)
	}

	return out, nil
}

// UpdateMaintenance persists a maintenance window by ID.
func (db *DB) UpdateMaintenance(ctx context.Context, window *models.MaintenanceWindow) error {
	if window == nil {
		return ErrMaintenanceNil
	}

	window.UpdatedAt = time.Now().UTC()

	args, err := buildMaintenanceArgs(window)
	if err != nil {
		return err
	}

	updateArgs := make([]interface{}, 0, 10)
	updateArgs = append(updateArgs, args[:9]...)
	updateArgs = append(updateArgs, window.UpdatedAt)

	tag, err := db.q.Exec(ctx, updateMaintenanceSQL, updateArgs...)
	if err != nil {
		return fmt.Errorf("%w: maintenance window: %s", ErrFailedToUpdate, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrMaintenanceNotFound, window.ID)
	}

	return nil
}

// DeleteMaintenance removes a maintenance window.
func (db *DB) DeleteMaintenance(ctx context.Context, id uuid.UUID) error {
	tag, err := db.q.Exec(ctx, deleteMaintenanceSQL, id)
	if err != nil {
		return fmt.Errorf("%w: maintenance window: %s", ErrFailedToDelete, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrMaintenanceNotFound, id)
	}

	return nil
}

func buildMaintenanceArgs(window *models.MaintenanceWindow) ([]interface{}, error) {
	targets, err := marshalJSONField(window.Targets)
	if err != nil {
		return nil, fmt.Errorf("targets: %w", err)
	}

	return []interface{}{
		window.ID,
		window.Name,
		window.Description,
		window.StartsAt.UTC(),
		window.EndsAt.UTC(),
		window.SuppressData,
		nullableID(window.RemoteID),
		string(window.Status),
		targets,
		window.CreatedAt,
		window.UpdatedAt,
	}, nil
}

func scanMaintenance(row pgx.Row) (*models.MaintenanceWindow, error) {
	var (
		window   models.MaintenanceWindow
		remoteID *int64
		status   string
		targets  []byte
	)

	err := row.Scan(
		&window.ID,
		&window.Name,
		&window.Description,
		&window.StartsAt,
		&window.EndsAt,
		&window.SuppressData,
		&remoteID,
		&status,
		&targets,
		&window.CreatedAt,
		&window.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: maintenance window: %s", ErrFailedToScan, err)
	}

	window.RemoteID = fromNullableID(remoteID)
	window.Status = models.MaintenanceStatus(status)

	if err := unmarshalJSONField(targets, &window.Targets); err != nil {
		return nil, fmt.Errorf("%w: targets: %s", ErrFailedToScan, err)
	}

	return &window, nil
}
