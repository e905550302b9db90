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

// Package audit publishes host, maintenance, and sweep lifecycle events
// as CloudEvents on a NATS JetStream stream.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/models"
)

const (
	specVersion  = "1.0"
	eventSource  = "monbridge/engine"
	contentType  = "application/json"
	sweepSubject = "events.sweep.completed"
)

var errNoConn = errors.New("nats connection is required")

// Publisher emits lifecycle events to JetStream. Publish failures are
// logged, never returned: reconciliation outcomes must not depend on the
// audit stream.
type Publisher struct {
	js     jetstream.JetStream
	stream string
	logger logger.Logger
}

// New creates a Publisher on an existing NATS connection and ensures the
// target stream exists with a subject list covering every subject the
// publisher emits.
func New(ctx context.Context, nc *nats.Conn, domain string, events *models.EventsConfig, log logger.Logger) (*Publisher, error) {
	if nc == nil {
		return nil, errNoConn
	}

	if err := events.Validate(); err != nil {
		return nil, err
	}

	var (
		js  jetstream.JetStream
		err error
	)

	if domain != "" {
		js, err = jetstream.NewWithDomain(nc, domain)
	} else {
		js, err = jetstream.New(nc)
	}

	if err != nil {
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	if _, err := js.Stream(ctx, events.StreamName); err != nil {
		subjects := append([]string(nil), events.Subjects...)
		for _, subject := range publishSubjects() {
			subjects = ensureSubjectList(subjects, subject)
		}

		if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     events.StreamName,
			Subjects: subjects,
		}); err != nil {
			return nil, fmt.Errorf("create stream %s: %w", events.StreamName, err)
		}

		log.Info().Str("stream", events.StreamName).Msg("Created audit event stream")
	}

	return &Publisher{js: js, stream: events.StreamName, logger: log}, nil
}

// LogCreationEvent publishes provision and import outcomes.
func (p *Publisher) LogCreationEvent(ctx context.Context, event *models.HostEventData) {
	p.publishHost(ctx, event)
}

// LogUpdateEvent publishes update and delete outcomes.
func (p *Publisher) LogUpdateEvent(ctx context.Context, event *models.HostEventData) {
	p.publishHost(ctx, event)
}

// LogMaintenanceEvent publishes maintenance window lifecycle changes.
func (p *Publisher) LogMaintenanceEvent(ctx context.Context, event *models.MaintenanceEventData) {
	p.publish(ctx, maintenanceSubject(event.Status), event.Timestamp, event)
}

// LogSweepEvent publishes the summary of a finished reconciliation sweep.
func (p *Publisher) LogSweepEvent(ctx context.Context, summary *models.SweepSummary) {
	ts := summary.StartedAt.Add(summary.Duration)
	if summary.StartedAt.IsZero() {
		ts = time.Now().UTC()
	}

	p.publish(ctx, sweepSubject, ts, summary)
}

func (p *Publisher) publishHost(ctx context.Context, event *models.HostEventData) {
	p.publish(ctx, hostSubject(event.Action), event.Timestamp, event)
}

func (p *Publisher) publish(ctx context.Context, subject string, ts time.Time, data interface{}) {
	payload, err := json.Marshal(newEvent(subject, ts, data))
	if err != nil {
		p.logger.Error().Err(err).Str("subject", subject).Msg("Marshaling audit event failed")
		return
	}

	ack, err := p.js.Publish(ctx, subject, payload)
	if err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("Publishing audit event failed")
		return
	}

	p.logger.Debug().
		Str("subject", subject).
		Uint64("seq", ack.Sequence).
		Msg("Published audit event")
}

// newEvent wraps a payload in the CloudEvents v1.0 envelope. The event
// type mirrors the subject under the com.monbridge prefix.
func newEvent(subject string, ts time.Time, data interface{}) models.CloudEvent {
	return models.CloudEvent{
		SpecVersion:     specVersion,
		ID:              uuid.New().String(),
		Source:          eventSource,
		Type:            "com.monbridge." + strings.TrimPrefix(subject, "events."),
		DataContentType: contentType,
		Subject:         subject,
		Time:            &ts,
		Data:            data,
	}
}

func hostSubject(action models.HostAction) string {
	return "events.host." + string(action)
}

func maintenanceSubject(status models.MaintenanceStatus) string {
	return "events.maintenance." + string(status)
}

// publishSubjects enumerates every concrete subject the publisher emits,
// so stream creation can guarantee coverage.
func publishSubjects() []string {
	subjects := make([]string, 0, 9)

	for _, action := range []models.HostAction{
		models.HostActionCreated,
		models.HostActionUpdated,
		models.HostActionDeleted,
		models.HostActionImported,
	} {
		subjects = append(subjects, hostSubject(action))
	}

	for _, status := range []models.MaintenanceStatus{
		models.MaintenancePending,
		models.MaintenanceActive,
		models.MaintenanceExpired,
		models.MaintenanceFailed,
	} {
		subjects = append(subjects, maintenanceSubject(status))
	}

	return append(subjects, sweepSubject)
}

// ensureSubjectList returns the subject list extended with subject when
// no existing pattern covers it.
func ensureSubjectList(subjects []string, subject string) []string {
	for _, pattern := range subjects {
		if matchesSubject(pattern, subject) {
			return subjects
		}
	}

	return append(subjects, subject)
}

// matchesSubject reports whether a NATS subject pattern covers a concrete
// subject. "*" matches one token, ">" matches the rest.
func matchesSubject(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")

	for i, tok := range pt {
		if tok == ">" {
			return true
		}

		if i >= len(st) {
			return false
		}

		if tok != "*" && tok != st[i] {
			return false
		}
	}

	return len(pt) == len(st)
}

// Nop is the audit sink used when event publishing is disabled.
type Nop struct{}

func (Nop) LogCreationEvent(context.Context, *models.HostEventData) {}

func (Nop) LogUpdateEvent(context.Context, *models.HostEventData) {}

func (Nop) LogMaintenanceEvent(context.Context, *models.MaintenanceEventData) {}

func (Nop) LogSweepEvent(context.Context, *models.SweepSummary) {}
