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

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/models"
)

const (
	fetchBatch = 16
	fetchWait  = 5 * time.Second
	ackWait    = 30 * time.Second
	retryDelay = 15 * time.Second
	retryPause = time.Second
)

// Orchestrator is the slice of the reconciliation engine the consumer
// dispatches to.
type Orchestrator interface {
	Provision(ctx context.Context, ref models.ObjectRef, jobID string) (*models.HostConfiguration, error)
	Reconcile(ctx context.Context, id uuid.UUID, jobID string) (*models.HostConfiguration, error)
	Delete(ctx context.Context, id uuid.UUID, jobID string) error
	Sweep(ctx context.Context) (*models.SweepSummary, error)
}

// pullConsumer is the slice of the JetStream consumer API the loop uses.
type pullConsumer interface {
	Fetch(batch int, opts ...jetstream.FetchOpt) (jetstream.MessageBatch, error)
}

// jobMsg is the slice of a JetStream message the handler touches.
type jobMsg interface {
	Data() []byte
	Subject() string
	Ack() error
	NakWithDelay(delay time.Duration) error
	Metadata() (*jetstream.MsgMetadata, error)
}

// Consumer pulls queued jobs and runs them through the orchestrator.
// Delivery is at-least-once: a job is acked only after the dispatched
// operation returns without error.
type Consumer struct {
	stream     string
	durable    string
	consumer   pullConsumer
	engine     Orchestrator
	maxDeliver uint64
	logger     logger.Logger
}

// NewConsumer creates or retrieves the engine's durable pull consumer.
func NewConsumer(ctx context.Context, js jetstream.JetStream, cfg *models.JobsConfig, engine Orchestrator, log logger.Logger) (*Consumer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := ensureStream(ctx, js, cfg); err != nil {
		return nil, err
	}

	consumer, err := js.Consumer(ctx, cfg.StreamName, cfg.ConsumerName)
	if err != nil {
		consumer, err = js.CreateConsumer(ctx, cfg.StreamName, jetstream.ConsumerConfig{
			Durable:       cfg.ConsumerName,
			AckPolicy:     jetstream.AckExplicitPolicy,
			AckWait:       ackWait,
			MaxDeliver:    cfg.MaxDeliver,
			FilterSubject: cfg.Subject,
		})
		if err != nil {
			return nil, fmt.Errorf("create consumer %s: %w", cfg.ConsumerName, err)
		}
	}

	return &Consumer{
		stream:     cfg.StreamName,
		durable:    cfg.ConsumerName,
		consumer:   consumer,
		engine:     engine,
		maxDeliver: uint64(cfg.MaxDeliver),
		logger:     log,
	}, nil
}

// Run fetches and dispatches jobs until the context is canceled or the
// connection is gone for good.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info().
		Str("stream", c.stream).
		Str("consumer", c.durable).
		Msg("Job consumer started")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("Job consumer stopped")
			return nil
		default:
		}

		batch, err := c.consumer.Fetch(fetchBatch, jetstream.FetchMaxWait(fetchWait))
		if err != nil {
			if isFatalFetchErr(err) {
				return fmt.Errorf("fetch jobs: %w", err)
			}

			c.logger.Warn().Err(err).Msg("Fetching jobs failed")
			time.Sleep(retryPause)

			continue
		}

		for msg := range batch.Messages() {
			c.handle(ctx, msg)
		}

		if err := batch.Error(); err != nil {
			c.logger.Debug().Err(err).Msg("Job batch ended with error")
		}
	}
}

func isFatalFetchErr(err error) bool {
	return errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrNoResponders)
}

func (c *Consumer) handle(ctx context.Context, msg jobMsg) {
	var job models.JobMessage

	if err := json.Unmarshal(msg.Data(), &job); err != nil {
		c.logger.Error().Err(err).
			Str("subject", msg.Subject()).
			Msg("Dropping undecodable job")
		c.ack(msg, "")

		return
	}

	if err := job.Validate(); err != nil {
		c.logger.Error().Err(err).
			Str("job_id", job.JobID).
			Msg("Dropping invalid job")
		c.ack(msg, job.JobID)

		return
	}

	if err := c.dispatch(ctx, &job); err != nil {
		c.retry(msg, &job, err)

		return
	}

	c.ack(msg, job.JobID)
}

func (c *Consumer) dispatch(ctx context.Context, job *models.JobMessage) error {
	switch job.Action {
	case models.JobActionProvision:
		_, err := c.engine.Provision(ctx, job.ObjectRef, job.JobID)
		return err
	case models.JobActionUpdate:
		_, err := c.engine.Reconcile(ctx, job.HostConfigID, job.JobID)
		return err
	case models.JobActionDelete:
		return c.engine.Delete(ctx, job.HostConfigID, job.JobID)
	case models.JobActionSweep:
		_, err := c.engine.Sweep(ctx)
		return err
	default:
		return fmt.Errorf("%w: %s", models.ErrJobActionUnknown, job.Action)
	}
}

// retry redelivers a failed job with a delay until its deliveries are
// exhausted, then drops it with an error log.
func (c *Consumer) retry(msg jobMsg, job *models.JobMessage, cause error) {
	if meta, err := msg.Metadata(); err == nil && meta.NumDelivered >= c.maxDeliver {
		c.logger.Error().Err(cause).
			Str("job_id", job.JobID).
			Str("action", string(job.Action)).
			Uint64("deliveries", meta.NumDelivered).
			Msg("Job exhausted its deliveries; dropping")
		c.ack(msg, job.JobID)

		return
	}

	c.logger.Warn().Err(cause).
		Str("job_id", job.JobID).
		Str("action", string(job.Action)).
		Msg("Job failed; redelivering")

	if err := msg.NakWithDelay(retryDelay); err != nil {
		c.logger.Warn().Err(err).Str("job_id", job.JobID).Msg("Nak failed")
	}
}

func (c *Consumer) ack(msg jobMsg, jobID string) {
	if err := msg.Ack(); err != nil {
		c.logger.Warn().Err(err).Str("job_id", jobID).Msg("Ack failed")
	}
}
