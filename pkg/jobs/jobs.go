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

// Package jobs moves reconciliation work through a NATS JetStream queue:
// a producer enqueues jobs on per-action subjects under the configured
// wildcard and a durable pull consumer dispatches them to the
// orchestrator with at-least-once delivery.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/models"
)

// jetStreamPublisher is the slice of the JetStream API the producer uses.
type jetStreamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Queue enqueues reconciliation jobs.
type Queue struct {
	js      jetStreamPublisher
	subject string
	logger  logger.Logger
}

// NewQueue creates a job producer and ensures the jobs stream exists.
func NewQueue(ctx context.Context, js jetstream.JetStream, cfg *models.JobsConfig, log logger.Logger) (*Queue, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := ensureStream(ctx, js, cfg); err != nil {
		return nil, err
	}

	return &Queue{js: js, subject: cfg.Subject, logger: log}, nil
}

// Enqueue publishes a job. A missing job ID and enqueue time are filled
// in; the subject is derived from the action.
func (q *Queue) Enqueue(ctx context.Context, job *models.JobMessage) error {
	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}

	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}

	if err := job.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.JobID, err)
	}

	subject := publishSubject(q.subject, job.Action)

	if _, err := q.js.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("enqueue job %s: %w", job.JobID, err)
	}

	q.logger.Info().
		Str("job_id", job.JobID).
		Str("action", string(job.Action)).
		Str("subject", subject).
		Msg("Enqueued job")

	return nil
}

// publishSubject derives the per-action subject from the configured
// wildcard, so "jobs.monbridge.>" enqueues on "jobs.monbridge.<action>".
func publishSubject(wildcard string, action models.JobAction) string {
	base := strings.TrimSuffix(strings.TrimSuffix(wildcard, ".>"), ".*")

	return base + "." + string(action)
}

func ensureStream(ctx context.Context, js jetstream.JetStream, cfg *models.JobsConfig) error {
	if _, err := js.Stream(ctx, cfg.StreamName); err == nil {
		return nil
	}

	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: []string{cfg.Subject},
	}); err != nil {
		return fmt.Errorf("create stream %s: %w", cfg.StreamName, err)
	}

	return nil
}
