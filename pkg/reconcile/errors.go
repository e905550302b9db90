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

package reconcile

import (
	"errors"
	"fmt"

	"github.com/monbridge/monbridge/pkg/zabbix"
)

var (
	// ErrRemoteUnavailable matches any failed call to the monitoring
	// platform, transport and API errors alike. Use errors.As with
	// *RemoteError to reach the failing operation and cause.
	ErrRemoteUnavailable = errors.New("monitoring platform unavailable")

	// ErrRemoteHostNotFound is returned when a stored remote host ID no
	// longer resolves to a remote host. The engine never recreates such a
	// host on its own; an operator clears the stale ID or deletes the
	// record.
	ErrRemoteHostNotFound = errors.New("remote host no longer exists")

	// ErrMaintenanceConflict is returned when deletion is refused because
	// an active maintenance window covers the host. Neither side is
	// mutated.
	ErrMaintenanceConflict = errors.New("host is under active maintenance")

	// ErrNotProvisioned is returned when an operation requires a remote
	// host but the configuration has no remote ID yet.
	ErrNotProvisioned = errors.New("host configuration has no remote host")

	// errTLSPSKMissing is raised when a payload demands PSK material that
	// neither the configuration nor the secret source can supply.
	errTLSPSKMissing = errors.New("tls psk required but not available")
)

// RemoteError wraps a failed monitoring-platform call with the API
// operation that failed. It matches ErrRemoteUnavailable under errors.Is.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Is reports a match for ErrRemoteUnavailable so callers can classify
// without knowing the operation.
func (e *RemoteError) Is(target error) bool { return target == ErrRemoteUnavailable }

// remoteErr wraps an API error, folding remote "does not exist" responses
// into ErrRemoteHostNotFound. Write calls against a host deleted out from
// under the engine surface the same way as a failed fetch.
func remoteErr(op string, hostID int64, err error) error {
	if zabbix.IsNotFound(err) {
		return fmt.Errorf("%w: hostid %d (%s)", ErrRemoteHostNotFound, hostID, op)
	}

	return &RemoteError{Op: op, Err: err}
}

// PartialProvisionError reports a creation flow that failed after the
// remote host already existed. The orchestrator deletes the remote host
// before returning this; CleanupErr is set when even that delete failed
// and the remote host is orphaned.
type PartialProvisionError struct {
	Host       string
	RemoteID   int64
	Err        error
	CleanupErr error
}

func (e *PartialProvisionError) Error() string {
	if e.CleanupErr != nil {
		return fmt.Sprintf("provisioning %q failed after remote create (hostid %d left behind, cleanup failed: %v): %v",
			e.Host, e.RemoteID, e.CleanupErr, e.Err)
	}

	return fmt.Sprintf("provisioning %q failed after remote create (hostid %d removed again): %v",
		e.Host, e.RemoteID, e.Err)
}

func (e *PartialProvisionError) Unwrap() error { return e.Err }
