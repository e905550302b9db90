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
	"context"

	"github.com/monbridge/monbridge/pkg/models"
)

// AuditSink receives host lifecycle events. Implementations must not fail
// the reconciliation they observe; delivery problems are theirs to log.
type AuditSink interface {
	LogCreationEvent(ctx context.Context, event *models.HostEventData)
	LogUpdateEvent(ctx context.Context, event *models.HostEventData)
}

// SecretSource resolves secret material the payload builder must not read
// from the configuration record, keyed by PSK identity.
type SecretSource interface {
	TLSPSK(identity string) (string, error)
}

// InterfacePreflight probes a monitoring interface before it is created
// remotely. A probe failure downgrades to a warning; unreachable devices
// still get provisioned.
type InterfacePreflight interface {
	CheckInterface(ctx context.Context, ic *models.InterfaceConfiguration) error
}
