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
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobAction names the reconciliation action a queued job carries.
type JobAction string

const (
	JobActionProvision JobAction = "provision"
	JobActionUpdate    JobAction = "update"
	JobActionDelete    JobAction = "delete"
	JobActionSweep     JobAction = "sweep"
)

// JobLink associates a queued job with the host configuration it operates
// on, so operators can trace which jobs touched a record.
type JobLink struct {
	JobID        string    `json:"job_id"`
	HostConfigID uuid.UUID `json:"host_config_id"`
	Action       JobAction `json:"action"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// JobMessage is the wire payload of a queued reconciliation job.
type JobMessage struct {
	JobID        string    `json:"job_id"`
	Action       JobAction `json:"action"`
	HostConfigID uuid.UUID `json:"host_config_id,omitempty"`
	ObjectRef    ObjectRef `json:"object_ref,omitempty"`
	EnqueuedAt   time.Time `json:"enqueued_at,omitempty"`
}

var (
	// ErrJobIDMissing is returned when a job carries no identifier.
	ErrJobIDMissing = errors.New("job id is required")

	// ErrJobActionUnknown is returned for an unrecognized job action.
	ErrJobActionUnknown = errors.New("unknown job action")
)

// Validate checks the job message fields.
func (j *JobMessage) Validate() error {
	if j.JobID == "" {
		return ErrJobIDMissing
	}

	switch j.Action {
	case JobActionProvision, JobActionUpdate, JobActionDelete, JobActionSweep:
		return nil
	default:
		return ErrJobActionUnknown
	}
}
