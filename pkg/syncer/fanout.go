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

	"github.com/monbridge/monbridge/pkg/models"
)

// EventSink is the union of the audit surfaces the engine layers feed:
// host lifecycle, maintenance lifecycle, and sweep completion.
type EventSink interface {
	LogCreationEvent(ctx context.Context, event *models.HostEventData)
	LogUpdateEvent(ctx context.Context, event *models.HostEventData)
	LogMaintenanceEvent(ctx context.Context, event *models.MaintenanceEventData)
	LogSweepEvent(ctx context.Context, summary *models.SweepSummary)
}

// fanout relays every event to each sink in order. Sinks absorb their
// own delivery failures, so relaying never fails.
type fanout struct {
	sinks []EventSink
}

// Fanout combines sinks into one. Nil sinks are dropped; an empty set
// degrades to a no-op.
func Fanout(sinks ...EventSink) EventSink {
	kept := make([]EventSink, 0, len(sinks))

	for _, sink := range sinks {
		if sink != nil {
			kept = append(kept, sink)
		}
	}

	return &fanout{sinks: kept}
}

func (f *fanout) LogCreationEvent(ctx context.Context, event *models.HostEventData) {
	for _, sink := range f.sinks {
		sink.LogCreationEvent(ctx, event)
	}
}

func (f *fanout) LogUpdateEvent(ctx context.Context, event *models.HostEventData) {
	for _, sink := range f.sinks {
		sink.LogUpdateEvent(ctx, event)
	}
}

func (f *fanout) LogMaintenanceEvent(ctx context.Context, event *models.MaintenanceEventData) {
	for _, sink := range f.sinks {
		sink.LogMaintenanceEvent(ctx, event)
	}
}

func (f *fanout) LogSweepEvent(ctx context.Context, summary *models.SweepSummary) {
	for _, sink := range f.sinks {
		sink.LogSweepEvent(ctx, summary)
	}
}
