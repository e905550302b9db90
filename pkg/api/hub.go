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

package api

import (
	"context"
	"sync"
	"time"

	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/models"
)

// subscriberBuffer bounds the per-client event backlog. A subscriber
// that falls further behind loses events rather than stalling the
// reconciliation path.
const subscriberBuffer = 16

// StreamMessage is one frame of the event stream.
type StreamMessage struct {
	Type      string      `json:"type"` // "data", "error"
	Event     string      `json:"event,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// EventHub fans reconciliation events out to connected stream clients.
// It carries the same sink methods as the audit publisher, so the engine
// feeds both through one composite without knowing either.
type EventHub struct {
	mu     sync.RWMutex
	subs   map[uint64]chan StreamMessage
	nextID uint64
	logger logger.Logger
}

// NewEventHub creates an empty hub.
func NewEventHub(log logger.Logger) *EventHub {
	return &EventHub{
		subs:   make(map[uint64]chan StreamMessage),
		logger: log,
	}
}

// Subscribe registers a stream client and returns its id and channel.
// The channel closes on Unsubscribe.
func (h *EventHub) Subscribe() (uint64, <-chan StreamMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	ch := make(chan StreamMessage, subscriberBuffer)
	h.subs[id] = ch

	return id, ch
}

// Unsubscribe removes a client and closes its channel. Unknown ids are
// ignored.
func (h *EventHub) Unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.subs[id]
	if !ok {
		return
	}

	delete(h.subs, id)
	close(ch)
}

// Subscribers returns the number of connected clients.
func (h *EventHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subs)
}

// LogCreationEvent broadcasts a host creation.
func (h *EventHub) LogCreationEvent(_ context.Context, event *models.HostEventData) {
	h.broadcast("host."+string(event.Action), event)
}

// LogUpdateEvent broadcasts a host update, delete, or import.
func (h *EventHub) LogUpdateEvent(_ context.Context, event *models.HostEventData) {
	h.broadcast("host."+string(event.Action), event)
}

// LogMaintenanceEvent broadcasts a maintenance window transition.
func (h *EventHub) LogMaintenanceEvent(_ context.Context, event *models.MaintenanceEventData) {
	h.broadcast("maintenance."+string(event.Status), event)
}

// LogSweepEvent broadcasts a finished bulk sweep.
func (h *EventHub) LogSweepEvent(_ context.Context, summary *models.SweepSummary) {
	h.broadcast("sweep.completed", summary)
}

// broadcast delivers to every subscriber without blocking; full buffers
// drop the frame.
func (h *EventHub) broadcast(event string, data interface{}) {
	msg := StreamMessage{
		Type:      "data",
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			h.logger.Debug().
				Uint64("subscriber", id).
				Str("event", event).
				Msg("Dropping event for slow stream subscriber")
		}
	}
}
