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

package audit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/monbridge/monbridge/pkg/maintenance"
	"github.com/monbridge/monbridge/pkg/models"
	"github.com/monbridge/monbridge/pkg/reconcile"
)

var (
	_ reconcile.AuditSink   = (*Publisher)(nil)
	_ maintenance.EventSink = (*Publisher)(nil)
	_ reconcile.AuditSink   = Nop{}
	_ maintenance.EventSink = Nop{}
)

func TestEnsureSubjectList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		subjects []string
		subject  string
		want     []string
	}{
		{
			name:     "adds subject when list empty",
			subjects: nil,
			subject:  "events.host.created",
			want:     []string{"events.host.created"},
		},
		{
			name:     "keeps list when wildcard matches",
			subjects: []string{"events.host.*"},
			subject:  "events.host.created",
			want:     []string{"events.host.*"},
		},
		{
			name:     "keeps list when greater wildcard matches",
			subjects: []string{"events.>"},
			subject:  "events.host.created",
			want:     []string{"events.>"},
		},
		{
			name:     "appends when unmatched",
			subjects: []string{"logs.syslog.*"},
			subject:  "events.host.created",
			want:     []string{"logs.syslog.*", "events.host.created"},
		},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			result := ensureSubjectList(append([]string(nil), tc.subjects...), tc.subject)

			if len(result) != len(tc.want) {
				t.Fatalf("expected %d subjects, got %d", len(tc.want), len(result))
			}

			for i := range tc.want {
				if tc.want[i] != result[i] {
					t.Fatalf("result[%d] = %q, want %q", i, result[i], tc.want[i])
				}
			}
		})
	}
}

func TestMatchesSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pattern  string
		subject  string
		expected bool
	}{
		{"exact match", "events.host.created", "events.host.created", true},
		{"single wildcard", "events.*.created", "events.host.created", true},
		{"greater wildcard", "events.>", "events.host.created", true},
		{"no match length", "events.*", "events.host.created", false},
		{"no match tokens", "logs.syslog.*", "events.host.created", false},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := matchesSubject(tc.pattern, tc.subject); got != tc.expected {
				t.Fatalf("matchesSubject(%q, %q) = %t, want %t", tc.pattern, tc.subject, got, tc.expected)
			}
		})
	}
}

func TestDefaultSubjectsCoverEveryPublish(t *testing.T) {
	t.Parallel()

	cfg := &models.EventsConfig{Enabled: true}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate events config: %v", err)
	}

	for _, subject := range publishSubjects() {
		extended := ensureSubjectList(append([]string(nil), cfg.Subjects...), subject)
		if len(extended) != len(cfg.Subjects) {
			t.Fatalf("default subjects do not cover %q", subject)
		}
	}
}

func TestNewEventEnvelope(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 11, 7, 12, 0, 0, 0, time.UTC)
	data := &models.HostEventData{
		HostConfigID: uuid.New(),
		Host:         "web-01",
		Action:       models.HostActionCreated,
		Timestamp:    ts,
	}

	event := newEvent("events.host.created", ts, data)

	if event.SpecVersion != "1.0" {
		t.Fatalf("specversion = %q, want 1.0", event.SpecVersion)
	}

	if event.Type != "com.monbridge.host.created" {
		t.Fatalf("type = %q", event.Type)
	}

	if event.Subject != "events.host.created" {
		t.Fatalf("subject = %q", event.Subject)
	}

	if event.Time == nil || !event.Time.Equal(ts) {
		t.Fatalf("time = %v, want %v", event.Time, ts)
	}

	if _, err := uuid.Parse(event.ID); err != nil {
		t.Fatalf("event id %q is not a uuid: %v", event.ID, err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}

	for _, key := range []string{"specversion", "id", "source", "type", "datacontenttype", "subject", "time", "data"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("marshaled event is missing %q", key)
		}
	}
}
