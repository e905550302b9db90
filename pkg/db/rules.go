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
	ruleColumns = `
	id,
	name,
	object_kind,
	is_default,
	site_ids,
	role_ids,
	platform_ids,
	interface_filter,
	host_group_ids,
	template_ids,
	proxy_id,
	proxy_group_id,
	created_at,
	updated_at`

	insertRuleSQL = `
INSERT INTO mapping_rules (` + ruleColumns + `
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
)`

	updateRuleSQL = `
UPDATE mapping_rules SET
	name = $2,
	object_kind = $3,
	is_default = $4,
	site_ids = $5,
	role_ids = $6,
	platform_ids = $7,
	interface_filter = $8,
	host_group_ids = $9,
	template_ids = $10,
	proxy_id = $11,
	proxy_group_id = $12,
	updated_at = $13
WHERE id = $1`

	selectRuleSQL = `SELECT ` + ruleColumns + ` FROM mapping_rules WHERE id = $1`

	listRulesSQL = `SELECT ` + ruleColumns + ` FROM mapping_rules ORDER BY is_default, name`

	deleteRuleSQL = `DELETE FROM mapping_rules WHERE id = $1`
)

// CreateRule inserts a mapping rule. A zero ID is assigned.
func (db *DB) CreateRule(ctx context.Context, rule *models.MappingRule) error {
	if rule == nil {
		return ErrRuleNil
	}

	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}

	rule.CreatedAt = sanitizeTimestamp(rule.CreatedAt)
	rule.UpdatedAt = sanitizeTimestamp(rule.UpdatedAt)

	args, err := buildRuleArgs(rule)
	if err != nil {
		return err
	}

	if _, err := db.q.Exec(ctx, insertRuleSQL, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", ErrRuleNameExists, rule.Name)
		}

		return fmt.Errorf("%w: mapping rule: %s", ErrFailedToInsert, err)
	}

	return nil
}

// GetRule loads one mapping rule by ID.
func (db *DB) GetRule(ctx context.Context, id uuid.UUID) (*models.MappingRule, error) {
	rule, err := scanRule(db.q.QueryRow(ctx, selectRuleSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRuleNotFound
		}

		return nil, err
	}

	return rule, nil
}

// ListRules returns all mapping rules, non-defaults first.
func (db *DB) ListRules(ctx context.Context) ([]*models.MappingRule, error) {
	rows, err := db.q.Query(ctx, listRulesSQL)
	if err != nil {
		return nil, fmt.Errorf("%w: list rules: %s", ErrFailedToQuery, err)
	}
	defer rows.Close()

	var out []*models.MappingRule

	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate rules: %s", ErrFailedToQuery, err)
	}

	return out, nil
}

// UpdateRule persists a mapping rule by ID.
func (db *DB) UpdateRule(ctx context.Context, rule *models.MappingRule) error {
	if rule == nil {
		return ErrRuleNil
	}

	rule.UpdatedAt = time.Now().UTC()

	args, err := buildRuleArgs(rule)
	if err != nil {
		return err
	}

	updateArgs := make([]interface{}, 0, 13)
	updateArgs = append(updateArgs, args[:12]...)
	updateArgs = append(updateArgs, rule.UpdatedAt)

	tag, err := db.q.Exec(ctx, updateRuleSQL, updateArgs...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", ErrRuleNameExists, rule.Name)
		}

		return fmt.Errorf("%w: mapping rule: %s", ErrFailedToUpdate, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, rule.ID)
	}

	return nil
}

// DeleteRule removes a mapping rule. Default-rule protection lives in the
// rule manager, not here.
func (db *DB) DeleteRule(ctx context.Context, id uuid.UUID) error {
	tag, err := db.q.Exec(ctx, deleteRuleSQL, id)
	if err != nil {
		return fmt.Errorf("%w: mapping rule: %s", ErrFailedToDelete, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}

	return nil
}

func buildRuleArgs(rule *models.MappingRule) ([]interface{}, error) {
	siteIDs, err := marshalJSONField(rule.SiteIDs)
	if err != nil {
		return nil, fmt.Errorf("site_ids: %w", err)
	}

	roleIDs, err := marshalJSONField(rule.RoleIDs)
	if err != nil {
		return nil, fmt.Errorf("role_ids: %w", err)
	}

	platformIDs, err := marshalJSONField(rule.PlatformIDs)
	if err != nil {
		return nil, fmt.Errorf("platform_ids: %w", err)
	}

	groupIDs, err := marshalJSONField(rule.HostGroupIDs)
	if err != nil {
		return nil, fmt.Errorf("host_group_ids: %w", err)
	}

	templateIDs, err := marshalJSONField(rule.TemplateIDs)
	if err != nil {
		return nil, fmt.Errorf("template_ids: %w", err)
	}

	return []interface{}{
		rule.ID,
		rule.Name,
		string(rule.Kind),
		rule.Default,
		siteIDs,
		roleIDs,
		platformIDs,
		int16(rule.InterfaceFilter),
		groupIDs,
		templateIDs,
		nullableID(rule.ProxyID),
		nullableID(rule.ProxyGroupID),
		rule.CreatedAt,
		rule.UpdatedAt,
	}, nil
}

func scanRule(row pgx.Row) (*models.MappingRule, error) {
	var (
		rule     models.MappingRule
		kind     string
		filter   int16
		proxyID  *int64
		proxyGrp *int64

		siteIDs, roleIDs, platformIDs, groupIDs, templateIDs []byte
	)

	err := row.Scan(
		&rule.ID,
		&rule.Name,
		&kind,
		&rule.Default,
		&siteIDs,
		&roleIDs,
		&platformIDs,
		&filter,
		&groupIDs,
		&templateIDs,
		&proxyID,
		&proxyGrp,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: mapping rule: %s", ErrFailedToScan, err)
	}

	rule.Kind = models.ObjectKind(kind)
	rule.InterfaceFilter = models.InterfaceFilter(filter)
	rule.ProxyID = fromNullableID(proxyID)
	rule.ProxyGroupID = fromNullableID(proxyGrp)

	if err := unmarshalJSONField(siteIDs, &rule.SiteIDs); err != nil {
		return nil, fmt.Errorf("%w: site_ids: %s", ErrFailedToScan, err)
	}

	if err := unmarshalJSONField(roleIDs, &rule.RoleIDs); err != nil {
		return nil, fmt.Errorf("%w: role_ids: %s", ErrFailedToScan, err)
	}

	if err := unmarshalJSONField(platformIDs, &rule.PlatformIDs); err != nil {
		return nil, fmt.Errorf("%w: platform_ids: %s", ErrFailedToScan, err)
	}

	if err := unmarshalJSONField(groupIDs, &rule.HostGroupIDs); err != nil {
		return nil, fmt.Errorf("%w: host_group_ids: %s", ErrFailedToScan, err)
	}

	if err := unmarshalJSONField(templateIDs, &rule.TemplateIDs); err != nil {
		return nil, fmt.Errorf("%w: template_ids: %s", ErrFailedToScan, err)
	}

	return &rule, nil
}
