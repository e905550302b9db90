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

package syncer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/monbridge/monbridge/pkg/models"
)

type captureSink struct {
	created     []*models.HostEventData
	updated     []*models.HostEventData
	maintenance []*models.MaintenanceEventData
	sweeps      []*models.SweepSummary
}

func (c *captureSink) LogCreationEvent(_ context.Context, e *models.HostEventData) {
	c.created = append(c.created, e)
}

func (c *captureSink) LogUpdateEvent(_ context.Context, e *models.HostEventData) {
	c.updated = append(c.updated, e)
}

func (c *captureSink) LogMaintenanceEvent(_ context.Context, e *models.MaintenanceEventData) {
	c.maintenance = append(c.maintenance, e)
}

func (c *captureSink) LogSweepEvent(_ context.Context, s *models.SweepSummary) {
	c.sweeps = append(c.sweeps, s)
}

func TestFanoutRelaysToAllSinks(t *testing.T) {
	first := &captureSink{}
	second := &captureSink{}

	sink := Fanout(first, nil, second)

	ctx := context.Background()
	sink.LogCreationEvent(ctx, &models.HostEventData{Host: "core-sw-01"})
	sink.LogUpdateEvent(ctx, &models.HostEventData{Host: "core-sw-01"})
	sink.LogMaintenanceEvent(ctx, &models.MaintenanceEventData{Name: "rack 12 recable"})
	sink.LogSweepEvent(ctx, &models.SweepSummary{Total: 3, Updated: 2, Skipped: 1})

	for _, s := range []*captureSink{first, second} {
		assert.Len(t, s.created, 1)
		assert.Len(t, s.updated, 1)
		assert.Len(t, s.maintenance, 1)
		assert.Len(t, s.sweeps, 1)
	}
}

func TestFanoutDropsNilSinks(t *testing.T) {
	sink := Fanout(nil, nil)

	assert.NotPanics(t, func() {
		sink.LogSweepEvent(context.Background(), &models.SweepSummary{})
	})
}
