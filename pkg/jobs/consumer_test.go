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
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/models"
)

type fakePullConsumer struct {
	err error
}

func (f *fakePullConsumer) Fetch(int, ...jetstream.FetchOpt) (jetstream.MessageBatch, error) {
	if f.err != nil {
		return nil, f.err
	}

	ch := make(chan jetstream.Msg)
	close(ch)

	return &fakeMessageBatch{ch: ch}, nil
}

type fakeMessageBatch struct {
	ch  chan jetstream.Msg
	err error
}

func (f *fakeMessageBatch) Messages() <-chan jetstream.Msg {
	return f.ch
}

func (f *fakeMessageBatch) Error() error {
	return f.err
}

type fakeMsg struct {
	data      []byte
	subject   string
	delivered uint64
	acked     bool
	naks      []time.Duration
}

func (m *fakeMsg) Data() []byte    { return m.data }
func (m *fakeMsg) Subject() string { return m.subject }

func (m *fakeMsg) Ack() error {
	m.acked = true
	return nil
}

func (m *fakeMsg) NakWithDelay(delay time.Duration) error {
	m.naks = append(m.naks, delay)
	return nil
}

func (m *fakeMsg) Metadata() (*jetstream.MsgMetadata, error) {
	return &jetstream.MsgMetadata{NumDelivered: m.delivered}, nil
}

type engineCall struct {
	action models.JobAction
	jobID  string
	ref    models.ObjectRef
	id     uuid.UUID
}

type fakeEngine struct {
	calls []engineCall
	err   error
}

func (f *fakeEngine) Provision(_ context.Context, ref models.ObjectRef, jobID string) (*models.HostConfiguration, error) {
	f.calls = append(f.calls, engineCall{action: models.JobActionProvision, jobID: jobID, ref: ref})
	return nil, f.err
}

func (f *fakeEngine) Reconcile(_ context.Context, id uuid.UUID, jobID string) (*models.HostConfiguration, error) {
	f.calls = append(f.calls, engineCall{action: models.JobActionUpdate, jobID: jobID, id: id})
	return nil, f.err
}

func (f *fakeEngine) Delete(_ context.Context, id uuid.UUID, jobID string) error {
	f.calls = append(f.calls, engineCall{action: models.JobActionDelete, jobID: jobID, id: id})
	return f.err
}

func (f *fakeEngine) Sweep(_ context.Context) (*models.SweepSummary, error) {
	f.calls = append(f.calls, engineCall{action: models.JobActionSweep})
	return nil, f.err
}

func newTestConsumer(engine Orchestrator, pull pullConsumer) *Consumer {
	return &Consumer{
		stream:     "monbridge-jobs",
		durable:    "monbridge-worker",
		consumer:   pull,
		engine:     engine,
		maxDeliver: 5,
		logger:     logger.NewTestLogger(),
	}
}

func encodeJob(t *testing.T, job *models.JobMessage) []byte {
	t.Helper()

	payload, err := json.Marshal(job)
	require.NoError(t, err)

	return payload
}

func TestConsumerRunReturnsFatalError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{
			name: "connection closed",
			err:  nats.ErrConnectionClosed,
		},
		{
			name: "no responders",
			err:  nats.ErrNoResponders,
		},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			c := newTestConsumer(&fakeEngine{}, &fakePullConsumer{err: tc.err})

			err := c.Run(ctx)
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestConsumerRunStopsWhenCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestConsumer(&fakeEngine{}, &fakePullConsumer{})

	require.NoError(t, c.Run(ctx))
}

func TestHandleDispatchesByAction(t *testing.T) {
	t.Parallel()

	ref := models.ObjectRef{Kind: models.KindDevice, ID: 42}
	id := uuid.New()

	tests := []struct {
		name string
		job  models.JobMessage
		want engineCall
	}{
		{
			name: "provision",
			job:  models.JobMessage{JobID: "job-1", Action: models.JobActionProvision, ObjectRef: ref},
			want: engineCall{action: models.JobActionProvision, jobID: "job-1", ref: ref},
		},
		{
			name: "update",
			job:  models.JobMessage{JobID: "job-2", Action: models.JobActionUpdate, HostConfigID: id},
			want: engineCall{action: models.JobActionUpdate, jobID: "job-2", id: id},
		},
		{
			name: "delete",
			job:  models.JobMessage{JobID: "job-3", Action: models.JobActionDelete, HostConfigID: id},
			want: engineCall{action: models.JobActionDelete, jobID: "job-3", id: id},
		},
		{
			name: "sweep",
			job:  models.JobMessage{JobID: "job-4", Action: models.JobActionSweep},
			want: engineCall{action: models.JobActionSweep},
		},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			engine := &fakeEngine{}
			c := newTestConsumer(engine, nil)
			msg := &fakeMsg{data: encodeJob(t, &tc.job), delivered: 1}

			c.handle(context.Background(), msg)

			require.Len(t, engine.calls, 1)
			assert.Equal(t, tc.want, engine.calls[0])
			assert.True(t, msg.acked)
			assert.Empty(t, msg.naks)
		})
	}
}

func TestHandleRedeliversFailedJob(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{err: errors.New("gateway timeout")}
	c := newTestConsumer(engine, nil)
	msg := &fakeMsg{
		data:      encodeJob(t, &models.JobMessage{JobID: "job-1", Action: models.JobActionSweep}),
		delivered: 1,
	}

	c.handle(context.Background(), msg)

	assert.False(t, msg.acked)
	assert.Equal(t, []time.Duration{retryDelay}, msg.naks)
}

func TestHandleDropsExhaustedJob(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{err: errors.New("gateway timeout")}
	c := newTestConsumer(engine, nil)
	msg := &fakeMsg{
		data:      encodeJob(t, &models.JobMessage{JobID: "job-1", Action: models.JobActionSweep}),
		delivered: 5,
	}

	c.handle(context.Background(), msg)

	assert.True(t, msg.acked)
	assert.Empty(t, msg.naks)
}

func TestHandleDropsUndecodableJob(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	c := newTestConsumer(engine, nil)
	msg := &fakeMsg{data: []byte("{"), subject: "jobs.host.provision"}

	c.handle(context.Background(), msg)

	assert.Empty(t, engine.calls)
	assert.True(t, msg.acked)
	assert.Empty(t, msg.naks)
}

func TestHandleDropsInvalidJob(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	c := newTestConsumer(engine, nil)
	msg := &fakeMsg{
		data: encodeJob(t, &models.JobMessage{JobID: "job-1", Action: models.JobAction("explode")}),
	}

	c.handle(context.Background(), msg)

	assert.Empty(t, engine.calls)
	assert.True(t, msg.acked)
}
