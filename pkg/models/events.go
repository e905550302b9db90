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

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NATSConfig configures NATS connectivity for the audit stream.
type NATSConfig struct {
	URL      string          `json:"url"`
	Domain   string          `json:"domain,omitempty"`
	Security *SecurityConfig `json:"security,omitempty"`
}

// Validate ensures the NATS configuration is valid.
func (c *NATSConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("nats url is required")
	}

	return nil
}

// EventsConfig configures the audit event publishing system.
type EventsConfig struct {
	Enabled    bool     `json:"enabled"`
	StreamName string   `json:"stream_name"`
	Subjects   []string `json:"subjects"`
}

// Validate ensures the events configuration is valid.
func (c *EventsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.StreamName == "" {
		c.StreamName = "events"
	}

	if len(c.Subjects) == 0 {
		c.Subjects = []string{"events.host.*", "events.maintenance.*", "events.sweep.*"}
	}

	return nil
}

// CloudEvent represents a CloudEvents v1.0 compliant event.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

// HostAction names a host lifecycle event for the audit stream.
type HostAction string

const (
	HostActionCreated  HostAction = "created"
	HostActionUpdated  HostAction = "updated"
	HostActionDeleted  HostAction = "deleted"
	HostActionImported HostAction = "imported"
)

// HostEventData is the payload of host lifecycle audit events.
type HostEventData struct {
	HostConfigID  uuid.UUID  `json:"host_config_id"`
	ObjectRef     ObjectRef  `json:"object_ref"`
	RemoteID      int64      `json:"remote_id,omitempty"`
	Host          string     `json:"host"`
	Action        HostAction `json:"action"`
	ChangedFields []string   `json:"changed_fields,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}

// MaintenanceEventData is the payload of maintenance lifecycle audit events.
type MaintenanceEventData struct {
	WindowID  uuid.UUID         `json:"window_id"`
	RemoteID  int64             `json:"remote_id,omitempty"`
	Name      string            `json:"name"`
	Status    MaintenanceStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
}

// SweepFailure records one failed record of a bulk sweep.
type SweepFailure struct {
	HostConfigID uuid.UUID `json:"host_config_id"`
	Host         string    `json:"host"`
	Error        string    `json:"error"`
}

// SweepSummary accumulates the outcome of a bulk reconciliation sweep.
// Failures never abort a sweep; each record's outcome is independent.
type SweepSummary struct {
	Total     int            `json:"total"`
	Updated   int            `json:"updated"`
	Failed    int            `json:"failed"`
	Skipped   int            `json:"skipped"`
	StartedAt time.Time      `json:"started_at,omitempty"`
	Duration  time.Duration  `json:"duration,omitempty"`
	Failures  []SweepFailure `json:"failures,omitempty"`
}

// RecordFailure counts one failed record and keeps its cause.
func (s *SweepSummary) RecordFailure(hc *HostConfiguration, err error) {
	s.Failed++
	s.Failures = append(s.Failures, SweepFailure{
		HostConfigID: hc.ID,
		Host:         hc.Host,
		Error:        err.Error(),
	})
}
