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
	"fmt"

	"github.com/google/uuid"

	"github.com/monbridge/monbridge/pkg/models"
)

const (
	insertJobLinkSQL = `
INSERT INTO job_links (
	job_id,
	host_config_id,
	action,
	created_at
) VALUES (
	$1,$2,$3,$4
) ON CONFLICT (job_id, host_config_id) DO NOTHING`

	listJobLinksSQL = `
SELECT job_id, host_config_id, action, created_at
FROM job_links WHERE host_config_id = $1 ORDER BY created_at DESC`
)

// LinkJob records which queued job touched a host configuration. Re-linking
// the same pair is a no-op so redeliveries stay idempotent.
func (db *DB) LinkJob(ctx context.Context, link *models.JobLink) error {
	if link == nil {
		return ErrJobLinkNil
	}

	if link.JobID == "" {
		return models.ErrJobIDMissing
	}

	link.CreatedAt = sanitizeTimestamp(link.CreatedAt)

	_, err := db.q.Exec(ctx, insertJobLinkSQL, link.JobID, link.HostConfigID, string(link.Action), link.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: job link: %s", ErrFailedToInsert, err)
	}

	return nil
}

// ListJobLinks returns the jobs recorded against a host configuration,
// newest first.
func (db *DB) ListJobLinks(ctx context.Context, hostConfigID uuid.UUID) ([]*models.JobLink, error) {
	rows, err := db.q.Query(ctx, listJobLinksSQL, hostConfigID)
	if err != nil {
		return nil, fmt.Errorf("%w: list job links: %s", ErrFailedToQuery, err)
	}
	defer rows.Close()

	var out []*models.JobLink

	for rows.Next() {
		var (
			link   models.JobLink
			action string
		)

		if err := rows.Scan(&link.JobID, &link.HostConfigID, &action, &link.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: job link: %s", ErrFailedToScan, err)
		}

		link.Action = models.JobAction(action)
		out = append(out, &link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate job links: %s", ErrFailedToQuery, err)
	}

	return out, nil
}
