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

// Package maintenance manages alert-suppression windows: remote
// registration against the monitoring server, the time-driven
// pending/active/expired lifecycle, and the purge of retired windows
// past their retention grace.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/monbridge/monbridge/pkg/db"
	"github.com/monbridge/monbridge/pkg/inventory"
	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/models"
	"github.com/monbridge/monbridge/pkg/zabbix"
)

var (
	errNoStore  = errors.New("store is required")
	errNoRemote = errors.New("remote client is required")
	errNoEngine = errors.New("engine config is required")
	errNoLogger = errors.New("logger is required")
)

// EventSink receives maintenance lifecycle events. The audit stream
// implements this; tests use the no-op.
type EventSink interface {
	LogMaintenanceEvent(ctx context.Context, event *models.MaintenanceEventData)
}

type nopSink struct{}

func (nopSink) LogMaintenanceEvent(context.Context, *models.MaintenanceEventData) {}

// Deps carries the manager's collaborators. Store, Remote, Engine, and
// Logger are required; Inventory enriches site and cluster targeting
// when present, and Events defaults to a no-op sink.
type Deps struct {
	Store     db.Service
	Remote    zabbix.API
	Inventory inventory.Provider
	Events    EventSink
	Engine    *models.EngineConfig
	Logger    logger.Logger
}

// Manager owns the maintenance window lifecycle.
type Manager struct {
	store  db.Service
	remote zabbix.API
	source inventory.Provider
	events EventSink
	cfg    *models.EngineConfig
	logger logger.Logger
	now    func() time.Time
}

// NewManager wires the maintenance manager. The engine config is
// validated and defaulted in place.
func NewManager(deps Deps) (*Manager, error) {
	switch {
	case deps.Store == nil:
		return nil, errNoStore
	case deps.Remote == nil:
		return nil, errNoRemote
	case deps.Engine == nil:
		return nil, errNoEngine
	case deps.Logger == nil:
		return nil, errNoLogger
	}

	if err := deps.Engine.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}

	events := deps.Events
	if events == nil {
		events = nopSink{}
	}

	return &Manager{
		store:  deps.Store,
		remote: deps.Remote,
		source: deps.Inventory,
		events: events,
		cfg:    deps.Engine,
		logger: deps.Logger,
		now:    time.Now,
	}, nil
}

// Create validates and stores a maintenance window and registers it
// remotely for the provisioned hosts its targets currently cover. A
// window covering no provisioned host stays local-only; the deletion
// conflict check still honors it. A rejected remote registration stores
// the window as failed, which is sticky, and returns the error.
func (m *Manager) Create(ctx context.Context, window *models.MaintenanceWindow) (*models.MaintenanceWindow, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	if window.ID == uuid.Nil {
		window.ID = uuid.New()
	}

	now := m.now()
	window.Status = window.StatusAt(now)

	hosts, err := m.coveredHosts(ctx, window)
	if err != nil {
		return nil, err
	}

	if len(hosts) > 0 {
		remoteID, err := m.remote.MaintenanceCreate(ctx, windowParams(window, hosts))
		if err != nil {
			window.Status = models.MaintenanceFailed
			if storeErr := m.store.CreateMaintenance(ctx, window); storeErr != nil {
				m.logger.Error().Err(storeErr).
					Str("window", window.Name).
					Msg("Storing rejected window record failed")
			}

			m.emit(ctx, window, now)

			return nil, fmt.Errorf("register maintenance window %q: %w", window.Name, err)
		}

		window.RemoteID = remoteID
	} else {
		m.logger.Debug().
			Str("window", window.Name).
			Msg("No provisioned host covered; window kept local only")
	}

	if err := m.store.CreateMaintenance(ctx, window); err != nil {
		m.unregister(ctx, window)
		return nil, err
	}

	m.logger.Info().
		Str("window", window.Name).
		Int64("maintenanceid", window.RemoteID).
		Int("hosts", len(hosts)).
		Time("until", window.EndsAt).
		Msg("Maintenance window created")
	m.emit(ctx, window, now)

	return window, nil
}

// Delete removes a maintenance window locally and remotely. A remote
// window that refuses deletion aborts, so alert suppression is never
// silently left behind; a window already gone remotely is tolerated.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	window, err := m.store.GetMaintenance(ctx, id)
	if err != nil {
		return err
	}

	if window.RemoteID != 0 {
		if err := m.remote.MaintenanceDelete(ctx, window.RemoteID); err != nil && !zabbix.IsNotFound(err) {
			return fmt.Errorf("remove remote maintenance %q: %w", window.Name, err)
		}
	}

	if err := m.store.DeleteMaintenance(ctx, id); err != nil {
		return err
	}

	m.logger.Info().
		Str("window", window.Name).
		Int64("maintenanceid", window.RemoteID).
		Msg("Maintenance window deleted")

	return nil
}

// Sweep advances the time-driven window lifecycle: transitions are
// persisted and evented, and expired or failed windows whose end passed
// the retention grace are purged locally and remotely. A failed remote
// purge keeps the window for the next sweep.
func (m *Manager) Sweep(ctx context.Context) error {
	windows, err := m.store.ListMaintenance(ctx)
	if err != nil {
		return err
	}

	now := m.now()
	grace := time.Duration(m.cfg.MaintenanceGrace)

	var transitioned, purged int

	for _, window := range windows {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		status := window.StatusAt(now)
		if status != window.Status {
			window.Status = status
			if err := m.store.UpdateMaintenance(ctx, window); err != nil {
				m.logger.Error().Err(err).
					Str("window", window.Name).
					Msg("Persisting window transition failed")

				continue
			}

			transitioned++
			m.logger.Info().
				Str("window", window.Name).
				Str("status", string(status)).
				Msg("Maintenance window transitioned")
			m.emit(ctx, window, now)
		}

		retired := status == models.MaintenanceExpired || status == models.MaintenanceFailed
		if !retired || now.Sub(window.EndsAt) < grace {
			continue
		}

		if window.RemoteID != 0 {
			if err := m.remote.MaintenanceDelete(ctx, window.RemoteID); err != nil && !zabbix.IsNotFound(err) {
				m.logger.Warn().Err(err).
					Str("window", window.Name).
					Int64("maintenanceid", window.RemoteID).
					Msg("Remote purge failed; keeping window for the next sweep")

				continue
			}
		}

		if err := m.store.DeleteMaintenance(ctx, window.ID); err != nil {
			m.logger.Error().Err(err).
				Str("window", window.Name).
				Msg("Local purge failed")

			continue
		}

		purged++
		m.logger.Info().
			Str("window", window.Name).
			Msg("Purged retired maintenance window")
	}

	if transitioned > 0 || purged > 0 {
		m.logger.Info().
			Int("transitioned", transitioned).
			Int("purged", purged).
			Msg("Maintenance sweep finished")
	}

	return nil
}

// coveredHosts resolves the remote host IDs the window's target union
// currently selects. Site and cluster dimensions need the inventory
// object; a failed lookup skips those dimensions for that host.
func (m *Manager) coveredHosts(ctx context.Context, window *models.MaintenanceWindow) ([]zabbix.HostRef, error) {
	configs, err := m.store.ListHostConfigs(ctx)
	if err != nil {
		return nil, err
	}

	needsObject := m.source != nil &&
		(len(window.Targets.SiteIDs) > 0 || len(window.Targets.ClusterIDs) > 0)

	var hosts []zabbix.HostRef

	for _, hc := range configs {
		if !hc.Provisioned() {
			continue
		}

		var obj *models.InventoryObject

		if needsObject {
			obj, err = m.source.GetObject(ctx, hc.ObjectRef)
			if err != nil {
				m.logger.Warn().Err(err).
					Str("host", hc.Host).
					Msg("Inventory lookup failed; site and cluster targets skipped for host")

				obj = nil
			}
		}

		if window.Covers(hc, obj) {
			hosts = append(hosts, zabbix.HostRef{HostID: zabbix.ID(hc.RemoteID)})
		}
	}

	return hosts, nil
}

// windowParams renders the window into the wire shape: one one-time
// period spanning the whole window, data collection suppressed when
// requested.
func windowParams(window *models.MaintenanceWindow, hosts []zabbix.HostRef) *zabbix.MaintenanceParams {
	params := &zabbix.MaintenanceParams{
		Name:        window.Name,
		Description: window.Description,
		ActiveSince: window.StartsAt.Unix(),
		ActiveTill:  window.EndsAt.Unix(),
		Hosts:       hosts,
		TimePeriods: []zabbix.TimePeriod{{
			Type:      "0",
			StartDate: window.StartsAt.Unix(),
			Period:    int64(window.EndsAt.Sub(window.StartsAt) / time.Second),
		}},
	}

	if window.SuppressData {
		params.MaintenanceType = "1"
	}

	return params
}

// unregister removes the remote window after a failed local store, so a
// retried create does not pile up remote duplicates.
func (m *Manager) unregister(ctx context.Context, window *models.MaintenanceWindow) {
	if window.RemoteID == 0 {
		return
	}

	if err := m.remote.MaintenanceDelete(ctx, window.RemoteID); err != nil && !zabbix.IsNotFound(err) {
		m.logger.Error().Err(err).
			Str("window", window.Name).
			Int64("maintenanceid", window.RemoteID).
			Msg("Cleanup of remote window failed; remote window orphaned")
	}
}

func (m *Manager) emit(ctx context.Context, window *models.MaintenanceWindow, now time.Time) {
	m.events.LogMaintenanceEvent(ctx, &models.MaintenanceEventData{
		WindowID:  window.ID,
		RemoteID:  window.RemoteID,
		Name:      window.Name,
		Status:    window.Status,
		Timestamp: now,
	})
}
