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

package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/monbridge/monbridge/pkg/db"
	"github.com/monbridge/monbridge/pkg/models"
)

// Sweep reconciles every tracked host configuration sequentially. One
// failing record is recorded in the summary and does not stop the sweep;
// a canceled context does, returning the partial summary alongside the
// context error. The in_sync flag of a failed record keeps its previous
// value.
func (o *Orchestrator) Sweep(ctx context.Context) (*models.SweepSummary, error) {
	configs, err := o.store.ListHostConfigs(ctx)
	if err != nil {
		return nil, err
	}

	summary := &models.SweepSummary{
		Total:     len(configs),
		StartedAt: o.now(),
	}

	o.logger.Info().Int("total", summary.Total).Msg("Sweep started")

	for _, hc := range configs {
		if ctx.Err() != nil {
			summary.Duration = o.now().Sub(summary.StartedAt)
			o.logger.Warn().
				Int("updated", summary.Updated).
				Int("failed", summary.Failed).
				Msg("Sweep aborted")

			return summary, ctx.Err()
		}

		outcome, err := o.reconcileRecord(ctx, hc, "")
		if err != nil {
			summary.RecordFailure(hc, err)
			o.logger.Error().Err(err).
				Str("host", hc.Host).
				Str("id", hc.ID.String()).
				Msg("Sweep reconciliation failed")

			continue
		}

		if outcome == outcomeSkipped {
			summary.Skipped++
			continue
		}

		summary.Updated++
	}

	summary.Duration = o.now().Sub(summary.StartedAt)

	o.logger.Info().
		Int("total", summary.Total).
		Int("updated", summary.Updated).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Dur("duration", summary.Duration).
		Msg("Sweep finished")

	o.metrics.RecordSweep(summary)

	return summary, nil
}

// ImportInventory walks the provider's devices and virtual machines and
// adopts or provisions any that are not yet tracked. Tracked objects are
// skipped without touching the remote. One failing object does not stop
// the pass; a canceled context does.
func (o *Orchestrator) ImportInventory(ctx context.Context) error {
	kinds := []models.ObjectKind{models.KindDevice, models.KindVirtualMachine}

	var total, imported, tracked, failed int

	for _, kind := range kinds {
		objs, err := o.source.ListObjects(ctx, kind)
		if err != nil {
			return fmt.Errorf("list %s objects: %w", kind, err)
		}

		for _, obj := range objs {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			total++

			_, err := o.store.GetHostConfigByObject(ctx, obj.Ref)

			switch {
			case err == nil:
				tracked++
				continue
			case !errors.Is(err, db.ErrHostConfigNotFound):
				failed++
				o.logger.Error().Err(err).
					Str("object", obj.Ref.String()).
					Msg("Inventory import lookup failed")

				continue
			}

			hc, err := o.ImportHost(ctx, obj.Ref, "")
			if err != nil {
				failed++
				o.logger.Error().Err(err).
					Str("object", obj.Ref.String()).
					Msg("Inventory import failed")

				continue
			}

			if hc != nil {
				imported++
			}
		}
	}

	o.logger.Info().
		Int("total", total).
		Int("imported", imported).
		Int("tracked", tracked).
		Int("failed", failed).
		Msg("Inventory import finished")

	return nil
}
