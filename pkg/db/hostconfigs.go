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
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/monbridge/monbridge/pkg/models"
)

const (
	hostConfigColumns = `
	id,
	object_kind,
	object_id,
	remote_id,
	host,
	visible_name,
	description,
	status,
	in_sync,
	last_sync_check,
	monitored_by,
	proxy_id,
	proxy_group_id,
	group_ids,
	template_ids,
	tags,
	macros,
	inventory_mode,
	inventory,
	interfaces,
	tls,
	created_at,
	updated_at`

	insertHostConfigSQL = `
INSERT INTO host_configs (` + hostConfigColumns + `
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23
)`

	updateHostConfigSQL = `
UPDATE host_configs SET
	remote_id = $2,
	host = $3,
	visible_name = $4,
	description = $5,
	status = $6,
	in_sync = $7,
	last_sync_check = $8,
	monitored_by = $9,
	proxy_id = $10,
	proxy_group_id = $11,
	group_ids = $12,
	template_ids = $13,
	tags = $14,
	macros = $15,
	inventory_mode = $16,
	inventory = $17,
	interfaces = $18,
	tls = $19,
	updated_at = $20
WHERE id = $1`

	selectHostConfigSQL = `SELECT ` + hostConfigColumns + ` FROM host_configs WHERE id = $1`

	selectHostConfigByObjectSQL = `SELECT ` + hostConfigColumns + `
FROM host_configs WHERE object_kind = $1 AND object_id = $2`

	selectHostConfigByRemoteSQL = `SELECT ` + hostConfigColumns + `
FROM host_configs WHERE remote_id = $1`

	listHostConfigsSQL = `SELECT ` + hostConfigColumns + ` FROM host_configs ORDER BY host`

	deleteHostConfigSQL = `DELETE FROM host_configs WHERE id = $1`
)

// hostTLSDoc is the JSONB shape of the TLS block.
type hostTLSDoc struct {
	Connect     models.TLSMode `json:"connect,omitempty"`
	Accept      models.TLSMode `json:"accept,omitempty"`
	Issuer      string         `json:"issuer,omitempty"`
	Subject     string         `json:"subject,omitempty"`
	PSKIdentity string         `json:"psk_identity,omitempty"`
	PSK         string         `json:"psk,omitempty"`
}

// CreateHostConfig inserts a host configuration. A zero ID is assigned.
func (db *DB) CreateHostConfig(ctx context.Context, hc *models.HostConfiguration) error {
	if hc == nil {
		return ErrHostConfigNil
	}

	if hc.ID == uuid.Nil {
		hc.ID = uuid.New()
	}

	hc.CreatedAt = sanitizeTimestamp(hc.CreatedAt)
	hc.UpdatedAt = sanitizeTimestamp(hc.UpdatedAt)

	args, err := buildHostConfigArgs(hc)
	if err != nil {
		return err
	}

	if _, err := db.q.Exec(ctx, insertHostConfigSQL, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s/%d", ErrHostConfigExists, hc.ObjectRef.Kind, hc.ObjectRef.ID)
		}

		return fmt.Errorf("%w: host config: %s", ErrFailedToInsert, err)
	}

	return nil
}

// GetHostConfig loads one host configuration by ID.
func (db *DB) GetHostConfig(ctx context.Context, id uuid.UUID) (*models.HostConfiguration, error) {
	return db.scanOneHostConfig(db.q.QueryRow(ctx, selectHostConfigSQL, id))
}

// GetHostConfigByObject loads the configuration tracking an inventory object.
func (db *DB) GetHostConfigByObject(ctx context.Context, ref models.ObjectRef) (*models.HostConfiguration, error) {
	return db.scanOneHostConfig(db.q.QueryRow(ctx, selectHostConfigByObjectSQL, string(ref.Kind), ref.ID))
}

// GetHostConfigByRemoteID loads the configuration holding a remote host ID.
func (db *DB) GetHostConfigByRemoteID(ctx context.Context, remoteID int64) (*models.HostConfiguration, error) {
	return db.scanOneHostConfig(db.q.QueryRow(ctx, selectHostConfigByRemoteSQL, remoteID))
}

// ListHostConfigs returns all host configurations ordered by host name.
func (db *DB) ListHostConfigs(ctx context.Context) ([]*models.HostConfiguration, error) {
	rows, err := db.q.Query(ctx, listHostConfigsSQL)
	if err != nil {
		return nil, fmt.Errorf("%w: list host configs: %s", ErrFailedToQuery, err)
	}
	defer rows.Close()

	var out []*models.HostConfiguration

	for rows.Next() {
		hc, err := scanHostConfig(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, hc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate host configs: %s", ErrFailedToQuery, err)
	}

	return out, nil
}

// UpdateHostConfig persists a host configuration by ID.
func (db *DB) UpdateHostConfig(ctx context.Context, hc *models.HostConfiguration) error {
	if hc == nil {
		return ErrHostConfigNil
	}

	hc.UpdatedAt = time.Now().UTC()

	args, err := buildHostConfigArgs(hc)
	if err != nil {
		return err
	}

	// Update args share the insert layout minus the identity columns.
	updateArgs := make([]interface{}, 0, 20)
	updateArgs = append(updateArgs, args[0])
	updateArgs = append(updateArgs, args[3:21]...)
	updateArgs = append(updateArgs, hc.UpdatedAt)

	tag, err := db.q.Exec(ctx, updateHostConfigSQL, updateArgs...)
	if err != nil {
		return fmt.Errorf("%w: host config: %s", ErrFailedToUpdate, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrHostConfigNotFound, hc.ID)
	}

	return nil
}

// DeleteHostConfig removes a host configuration.
func (db *DB) DeleteHostConfig(ctx context.Context, id uuid.UUID) error {
	tag, err := db.q.Exec(ctx, deleteHostConfigSQL, id)
	if err != nil {
		return fmt.Errorf("%w: host config: %s", ErrFailedToDelete, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrHostConfigNotFound, id)
	}

	return nil
}

func buildHostConfigArgs(hc *models.HostConfiguration) ([]interface{}, error) {
	groupIDs, err := marshalJSONField(hc.GroupIDs)
	if err != nil {
		return nil, fmt.Errorf("group_ids: %w", err)
	}

	templateIDs, err := marshalJSONField(hc.TemplateIDs)
	if err != nil {
		return nil, fmt.Errorf("template_ids: %w", err)
	}

	tags, err := marshalJSONField(hc.Tags)
	if err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}

	macros, err := marshalJSONField(hc.Macros)
	if err != nil {
		return nil, fmt.Errorf("macros: %w", err)
	}

	inventory, err := marshalJSONField(hc.Inventory)
	if err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}

	interfaces, err := marshalJSONField(hc.Interfaces)
	if err != nil {
		return nil, fmt.Errorf("interfaces: %w", err)
	}

	var tlsDoc interface{}

	if hc.TLSConnect != 0 || hc.TLSAccept != 0 || hc.TLSPSKID != "" || hc.TLSIssuer != "" || hc.TLSSubject != "" {
		tlsDoc, err = marshalJSONField(hostTLSDoc{
			Connect:     hc.TLSConnect,
			Accept:      hc.TLSAccept,
			Issuer:      hc.TLSIssuer,
			Subject:     hc.TLSSubject,
			PSKIdentity: hc.TLSPSKID,
			PSK:         hc.TLSPSK,
		})
		if err != nil {
			return nil, fmt.Errorf("tls: %w", err)
		}
	}

	var lastCheck interface{}
	if !hc.LastSyncCheck.IsZero() {
		lastCheck = hc.LastSyncCheck.UTC()
	}

	return []interface{}{
		hc.ID,
		string(hc.ObjectRef.Kind),
		hc.ObjectRef.ID,
		nullableID(hc.RemoteID),
		hc.Host,
		hc.VisibleName,
		hc.Description,
		int16(hc.Status),
		hc.InSync,
		lastCheck,
		int16(hc.MonitoredBy),
		nullableID(hc.ProxyID),
		nullableID(hc.ProxyGroupID),
		groupIDs,
		templateIDs,
		tags,
		macros,
		int16(hc.InventoryMode),
		inventory,
		interfaces,
		tlsDoc,
		hc.CreatedAt,
		hc.UpdatedAt,
	}, nil
}

func (db *DB) scanOneHostConfig(row pgx.Row) (*models.HostConfiguration, error) {
	hc, err := scanHostConfig(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHostConfigNotFound
		}

		return nil, err
	}

	return hc, nil
}

func scanHostConfig(row pgx.Row) (*models.HostConfiguration, error) {
	var (
		hc        models.HostConfiguration
		kind      string
		remoteID  *int64
		lastCheck *time.Time
		status    int16
		monitored int16
		proxyID   *int64
		proxyGrp  *int64
		invMode   int16

		groupIDs, templateIDs, tags, macros, inventory, interfaces, tlsDoc []byte
	)

	err := row.Scan(
		&hc.ID,
		&kind,
		&hc.ObjectRef.ID,
		&remoteID,
		&hc.Host,
		&hc.VisibleName,
		&hc.Description,
		&status,
		&hc.InSync,
		&lastCheck,
		&monitored,
		&proxyID,
		&proxyGrp,
		&groupIDs,
		&templateIDs,
		&tags,
		&macros,
		&invMode,
		&inventory,
		&interfaces,
		&tlsDoc,
		&hc.CreatedAt,
		&hc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: host config: %s", ErrFailedToScan, err)
	}

	hc.ObjectRef.Kind = models.ObjectKind(kind)
	hc.RemoteID = fromNullableID(remoteID)
	hc.Status = models.HostStatus(status)
	hc.MonitoredBy = models.MonitoredBy(monitored)
	hc.ProxyID = fromNullableID(proxyID)
	hc.ProxyGroupID = fromNullableID(proxyGrp)
	hc.InventoryMode = models.InventoryMode(invMode)

	if lastCheck != nil {
		hc.LastSyncCheck = *lastCheck
	}

	if err := unmarshalJSONField(groupIDs, &hc.GroupIDs); err != nil {
		return nil, fmt.Errorf("%w: group_ids: %s", ErrFailedToScan, err)
	}

	if err := unmarshalJSONField(templateIDs, &hc.TemplateIDs); err != nil {
		return nil, fmt.Errorf("%w: template_ids: %s", ErrFailedToScan, err)
	}

	if err := unmarshalJSONField(tags, &hc.Tags); err != nil {
		return nil, fmt.Errorf("%w: tags: %s", ErrFailedToScan, err)
	}

	if err := unmarshalJSONField(macros, &hc.Macros); err != nil {
		return nil, fmt.Errorf("%w: macros: %s", ErrFailedToScan, err)
	}

	if err := unmarshalJSONField(inventory, &hc.Inventory); err != nil {
		return nil, fmt.Errorf("%w: inventory: %s", ErrFailedToScan, err)
	}

	if err := unmarshalJSONField(interfaces, &hc.Interfaces); err != nil {
		return nil, fmt.Errorf("%w: interfaces: %s", ErrFailedToScan, err)
	}

	if len(tlsDoc) > 0 {
		var doc hostTLSDoc
		if err := unmarshalJSONField(tlsDoc, &doc); err != nil {
			return nil, fmt.Errorf("%w: tls: %s", ErrFailedToScan, err)
		}

		hc.TLSConnect = doc.Connect
		hc.TLSAccept = doc.Accept
		hc.TLSIssuer = doc.Issuer
		hc.TLSSubject = doc.Subject
		hc.TLSPSKID = doc.PSKIdentity
		hc.TLSPSK = doc.PSK
	}

	return &hc, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
