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

// MaintenanceStatus is the lifecycle state of a maintenance window. The
// pending/active/expired transitions are purely time-driven; failed is set
// when the remote side rejected the window and is sticky.
type MaintenanceStatus string

const (
	MaintenancePending MaintenanceStatus = "pending"
	MaintenanceActive  MaintenanceStatus = "active"
	MaintenanceExpired MaintenanceStatus = "expired"
	MaintenanceFailed  MaintenanceStatus = "failed"
)

// MaintenanceTargets selects the hosts a maintenance window covers. The
// selector is a union: a host is covered when any one dimension matches.
type MaintenanceTargets struct {
	HostConfigIDs []uuid.UUID `json:"host_config_ids,omitempty"`
	SiteIDs       []int64     `json:"site_ids,omitempty"`
	GroupIDs      []int64     `json:"group_ids,omitempty"`
	ProxyIDs      []int64     `json:"proxy_ids,omitempty"`
	ProxyGroupIDs []int64     `json:"proxy_group_ids,omitempty"`
	ClusterIDs    []int64     `json:"cluster_ids,omitempty"`
}

// Empty reports whether no target dimension is set.
func (t *MaintenanceTargets) Empty() bool {
	return len(t.HostConfigIDs) == 0 &&
		len(t.SiteIDs) == 0 &&
		len(t.GroupIDs) == 0 &&
		len(t.ProxyIDs) == 0 &&
		len(t.ProxyGroupIDs) == 0 &&
		len(t.ClusterIDs) == 0
}

// MaintenanceWindow suppresses alerting (and optionally data collection)
// for its targets during [StartsAt, EndsAt).
type MaintenanceWindow struct {
	ID           uuid.UUID          `json:"id"`
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	StartsAt     time.Time          `json:"starts_at"`
	EndsAt       time.Time          `json:"ends_at"`
	SuppressData bool               `json:"suppress_data"`
	RemoteID     int64              `json:"remote_id,omitempty"`
	Status       MaintenanceStatus  `json:"status"`
	Targets      MaintenanceTargets `json:"targets"`
	CreatedAt    time.Time          `json:"created_at,omitempty"`
	UpdatedAt    time.Time          `json:"updated_at,omitempty"`
}

var (
	// ErrMaintenanceNameMissing is returned when a window has no name.
	ErrMaintenanceNameMissing = errors.New("maintenance window name is required")

	// ErrMaintenanceRange is returned when a window does not end after it
	// starts.
	ErrMaintenanceRange = errors.New("maintenance window must end after it starts")

	// ErrMaintenanceNoTargets is returned when a window selects nothing.
	ErrMaintenanceNoTargets = errors.New("maintenance window requires at least one target")
)

// Validate checks the window invariants.
func (w *MaintenanceWindow) Validate() error {
	if w.Name == "" {
		return ErrMaintenanceNameMissing
	}

	if !w.EndsAt.After(w.StartsAt) {
		return ErrMaintenanceRange
	}

	if w.Targets.Empty() {
		return ErrMaintenanceNoTargets
	}

	return nil
}

// StatusAt derives the time-driven status of the window at the given
// instant. A failed window stays failed.
func (w *MaintenanceWindow) StatusAt(now time.Time) MaintenanceStatus {
	if w.Status == MaintenanceFailed {
		return MaintenanceFailed
	}

	switch {
	case now.Before(w.StartsAt):
		return MaintenancePending
	case now.Before(w.EndsAt):
		return MaintenanceActive
	default:
		return MaintenanceExpired
	}
}

// ActiveAt reports whether the window is in effect at the given instant.
func (w *MaintenanceWindow) ActiveAt(now time.Time) bool {
	return w.StatusAt(now) == MaintenanceActive
}

// Covers reports whether the window's target union selects the given host
// configuration. The inventory object supplies the site and cluster
// dimensions and may be nil when unknown.
func (w *MaintenanceWindow) Covers(hc *HostConfiguration, obj *InventoryObject) bool {
	for _, id := range w.Targets.HostConfigIDs {
		if id == hc.ID {
			return true
		}
	}

	for _, gid := range w.Targets.GroupIDs {
		for _, hg := range hc.GroupIDs {
			if gid == hg {
				return true
			}
		}
	}

	if hc.ProxyID != 0 {
		for _, pid := range w.Targets.ProxyIDs {
			if pid == hc.ProxyID {
				return true
			}
		}
	}

	if hc.ProxyGroupID != 0 {
		for _, pgid := range w.Targets.ProxyGroupIDs {
			if pgid == hc.ProxyGroupID {
				return true
			}
		}
	}

	if obj == nil {
		return false
	}

	if sid := obj.SiteID(); sid != 0 {
		for _, id := range w.Targets.SiteIDs {
			if id == sid {
				return true
			}
		}
	}

	if obj.Cluster != nil {
		for _, id := range w.Targets.ClusterIDs {
			if id == obj.Cluster.ID {
				return true
			}
		}
	}

	return false
}

// Clone returns a deep copy of the window.
func (w *MaintenanceWindow) Clone() *MaintenanceWindow {
	if w == nil {
		return nil
	}

	out := *w

	if w.Targets.HostConfigIDs != nil {
		out.Targets.HostConfigIDs = append([]uuid.UUID(nil), w.Targets.HostConfigIDs...)
	}

	if w.Targets.SiteIDs != nil {
		out.Targets.SiteIDs = append([]int64(nil), w.Targets.SiteIDs...)
	}

	if w.Targets.GroupIDs != nil {
		out.Targets.GroupIDs = append([]int64(nil), w.Targets.GroupIDs...)
	}

	if w.Targets.ProxyIDs != nil {
		out.Targets.ProxyIDs = append([]int64(nil), w.Targets.ProxyIDs...)
	}

	if w.Targets.ProxyGroupIDs != nil {
		out.Targets.ProxyGroupIDs = append([]int64(nil), w.Targets.ProxyGroupIDs...)
	}

	if w.Targets.ClusterIDs != nil {
		out.Targets.ClusterIDs = append([]int64(nil), w.Targets.ClusterIDs...)
	}

	return &out
}
