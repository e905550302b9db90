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

package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/monbridge/monbridge/pkg/db"
	"github.com/monbridge/monbridge/pkg/inventory"
	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/models"
	"github.com/monbridge/monbridge/pkg/zabbix"
)

type captureSink struct {
	events []*models.MaintenanceEventData
}

func (s *captureSink) LogMaintenanceEvent(_ context.Context, event *models.MaintenanceEventData) {
	s.events = append(s.events, event)
}

type testManager struct {
	store   *db.MemStore
	api     *zabbix.MockAPI
	source  *inventory.MockProvider
	sink    *captureSink
	manager *Manager
}

func newTestManager(t *testing.T, ctrl *gomock.Controller, now time.Time) *testManager {
	t.Helper()

	store := db.NewMemStore()
	api := zabbix.NewMockAPI(ctrl)
	source := inventory.NewMockProvider(ctrl)
	sink := &captureSink{}

	manager, err := NewManager(Deps{
		Store:     store,
		Remote:    api,
		Inventory: source,
		Events:    sink,
		Engine:    &models.EngineConfig{GraveyardGroupID: 99},
		Logger:    logger.NewTestLogger(),
	})
	require.NoError(t, err)

	manager.now = func() time.Time { return now }

	return &testManager{store: store, api: api, source: source, sink: sink, manager: manager}
}

func seedHost(t *testing.T, store *db.MemStore, name string, objectID, remoteID int64, groups []int64) *models.HostConfiguration {
	t.Helper()

	hc := &models.HostConfiguration{
		ObjectRef: models.ObjectRef{Kind: models.KindDevice, ID: objectID},
		RemoteID:  remoteID,
		Host:      name,
		GroupIDs:  groups,
	}
	require.NoError(t, store.CreateHostConfig(context.Background(), hc))

	return hc
}

func seedWindow(t *testing.T, store *db.MemStore, window *models.MaintenanceWindow) *models.MaintenanceWindow {
	t.Helper()

	window.ID = uuid.New()
	require.NoError(t, store.CreateMaintenance(context.Background(), window))

	return window
}

func TestCreateRegistersCoveredHosts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2025, 11, 7, 12, 0, 0, 0, time.UTC)
	tm := newTestManager(t, ctrl, now)

	seedHost(t, tm.store, "a-web", 41, 501, []int64{5})
	seedHost(t, tm.store, "b-db", 42, 502, []int64{8})
	seedHost(t, tm.store, "c-app", 43, 0, []int64{5})

	window := &models.MaintenanceWindow{
		Name:         "core switch firmware",
		Description:  "rack 12",
		StartsAt:     now.Add(-30 * time.Minute),
		EndsAt:       now.Add(2 * time.Hour),
		SuppressData: true,
		Targets:      models.MaintenanceTargets{GroupIDs: []int64{5}},
	}

	tm.api.EXPECT().
		MaintenanceCreate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params *zabbix.MaintenanceParams) (int64, error) {
			assert.Equal(t, "core switch firmware", params.Name)
			assert.Equal(t, "rack 12", params.Description)
			assert.Equal(t, window.StartsAt.Unix(), params.ActiveSince)
			assert.Equal(t, window.EndsAt.Unix(), params.ActiveTill)
			assert.Equal(t, "1", params.MaintenanceType)
			assert.Equal(t, []zabbix.HostRef{{HostID: zabbix.ID(501)}}, params.Hosts)
			require.Len(t, params.TimePeriods, 1)
			assert.Equal(t, "0", params.TimePeriods[0].Type)
			assert.Equal(t, window.StartsAt.Unix(), params.TimePeriods[0].StartDate)
			assert.Equal(t, int64(9000), params.TimePeriods[0].Period)

			return 77, nil
		})

	created, err := tm.manager.Create(context.Background(), window)
	require.NoError(t, err)

	assert.Equal(t, int64(77), created.RemoteID)
	assert.Equal(t, models.MaintenanceActive, created.Status)

	stored, err := tm.store.GetMaintenance(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(77), stored.RemoteID)
	assert.Equal(t, models.MaintenanceActive, stored.Status)

	require.Len(t, tm.sink.events, 1)
	assert.Equal(t, created.ID, tm.sink.events[0].WindowID)
	assert.Equal(t, int64(77), tm.sink.events[0].RemoteID)
	assert.Equal(t, models.MaintenanceActive, tm.sink.events[0].Status)
	assert.True(t, tm.sink.events[0].Timestamp.Equal(now))
}

func TestCreateKeepsUncoveredWindowLocal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2025, 11, 7, 12, 0, 0, 0, time.UTC)
	tm := newTestManager(t, ctrl, now)

	seedHost(t, tm.store, "b-db", 42, 502, []int64{8})

	created, err := tm.manager.Create(context.Background(), &models.MaintenanceWindow{
		Name:     "storage migration",
		StartsAt: now.Add(time.Hour),
		EndsAt:   now.Add(3 * time.Hour),
		Targets:  models.MaintenanceTargets{GroupIDs: []int64{5}},
	})
	require.NoError(t, err)

	assert.Zero(t, created.RemoteID)
	assert.Equal(t, models.MaintenancePending, created.Status)

	stored, err := tm.store.GetMaintenance(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.RemoteID)

	require.Len(t, tm.sink.events, 1)
	assert.Equal(t, models.MaintenancePending, tm.sink.events[0].Status)
}

func TestCreateRemoteRejectionSticksFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2025, 11, 7, 12, 0, 0, 0, time.UTC)
	tm := newTestManager(t, ctrl, now)

	seedHost(t, tm.store, "a-web", 41, 501, []int64{5})

	tm.api.EXPECT().
		MaintenanceCreate(gomock.Any(), gomock.Any()).
		Return(int64(0), &zabbix.APIError{Code: -32602, Message: "Invalid params.", Data: "Incorrect value for field"})

	_, err := tm.manager.Create(context.Background(), &models.MaintenanceWindow{
		Name:     "core switch firmware",
		StartsAt: now.Add(-30 * time.Minute),
		EndsAt:   now.Add(2 * time.Hour),
		Targets:  models.MaintenanceTargets{GroupIDs: []int64{5}},
	})
	require.ErrorContains(t, err, `register maintenance window "core switch firmware"`)

	windows, err := tm.store.ListMaintenance(context.Background())
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, models.MaintenanceFailed, windows[0].Status)
	assert.Zero(t, windows[0].RemoteID)

	require.Len(t, tm.sink.events, 1)
	assert.Equal(t, models.MaintenanceFailed, tm.sink.events[0].Status)
	assert.Zero(t, tm.sink.events[0].RemoteID)
}

func TestCreateSiteTargetResolvesInventory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2025, 11, 7, 12, 0, 0, 0, time.UTC)
	tm := newTestManager(t, ctrl, now)

	hcA := seedHost(t, tm.store, "a-web", 41, 501, []int64{8})
	hcB := seedHost(t, tm.store, "b-db", 42, 502, []int64{8})

	tm.source.EXPECT().
		GetObject(gomock.Any(), hcA.ObjectRef).
		Return(&models.InventoryObject{
			Ref:  hcA.ObjectRef,
			Name: "a-web",
			Site: &models.Site{ID: 3, Name: "fra1"},
		}, nil)
	tm.source.EXPECT().
		GetObject(gomock.Any(), hcB.ObjectRef).
		Return(nil, errors.New("inventory offline"))

	tm.api.EXPECT().
		MaintenanceCreate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params *zabbix.MaintenanceParams) (int64, error) {
			assert.Equal(t, []zabbix.HostRef{{HostID: zabbix.ID(501)}}, params.Hosts)

			return 78, nil
		})

	created, err := tm.manager.Create(context.Background(), &models.MaintenanceWindow{
		Name:     "site power work",
		StartsAt: now.Add(-time.Minute),
		EndsAt:   now.Add(4 * time.Hour),
		Targets:  models.MaintenanceTargets{SiteIDs: []int64{3}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(78), created.RemoteID)
}

func TestDeleteRemovesRemoteWindow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2025, 11, 7, 12, 0, 0, 0, time.UTC)
	tm := newTestManager(t, ctrl, now)

	window := seedWindow(t, tm.store, &models.MaintenanceWindow{
		Name:     "patch night",
		StartsAt: now.Add(-time.Hour),
		EndsAt:   now.Add(time.Hour),
		RemoteID: 77,
		Status:   models.MaintenanceActive,
		Targets:  models.MaintenanceTargets{HostConfigIDs: []uuid.UUID{uuid.New()}},
	})

	tm.api.EXPECT().MaintenanceDelete(gomock.Any(), int64(77)).Return(nil)

	require.NoError(t, tm.manager.Delete(context.Background(), window.ID))

	_, err := tm.store.GetMaintenance(context.Background(), window.ID)
	require.ErrorIs(t, err, db.ErrMaintenanceNotFound)
}

func TestDeleteToleratesMissingRemoteWindow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2025, 11, 7, 12, 0, 0, 0, time.UTC)
	tm := newTestManager(t, ctrl, now)

	window := seedWindow(t, tm.store, &models.MaintenanceWindow{
		Name:     "patch night",
		StartsAt: now.Add(-time.Hour),
		EndsAt:   now.Add(time.Hour),
		RemoteID: 77,
		Status:   models.MaintenanceActive,
		Targets:  models.MaintenanceTargets{HostConfigIDs: []uuid.UUID{uuid.New()}},
	})

	tm.api.EXPECT().
		MaintenanceDelete(gomock.Any(), int64(77)).
		Return(&zabbix.APIError{Code: -32500, Message: "Application error.", Data: "No permissions to referenced object or it does not exist!"})

	require.NoError(t, tm.manager.Delete(context.Background(), window.ID))

	_, err := tm.store.GetMaintenance(context.Background(), window.ID)
	require.ErrorIs(t, err, db.ErrMaintenanceNotFound)
}

func TestDeleteAbortsWhenRemoteRefuses(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2025, 11, 7, 12, 0, 0, 0, time.UTC)
	tm := newTestManager(t, ctrl, now)

	window := seedWindow(t, tm.store, &models.MaintenanceWindow{
		Name:     "patch night",
		StartsAt: now.Add(-time.Hour),
		EndsAt:   now.Add(time.Hour),
		RemoteID: 77,
		Status:   models.MaintenanceActive,
		Targets:  models.MaintenanceTargets{HostConfigIDs: []uuid.UUID{uuid.New()}},
	})

	tm.api.EXPECT().
		MaintenanceDelete(gomock.Any(), int64(77)).
		Return(errors.New("connection reset"))

	err := tm.manager.Delete(context.Background(), window.ID)
	require.ErrorContains(t, err, `remove remote maintenance "patch night"`)

	_, err = tm.store.GetMaintenance(context.Background(), window.ID)
	require.NoError(t, err)
}

func TestSweepTransitionsAndPurges(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2025, 11, 7, 12, 0, 0, 0, time.UTC)
	tm := newTestManager(t, ctrl, now)

	targets := models.MaintenanceTargets{HostConfigIDs: []uuid.UUID{uuid.New()}}

	started := seedWindow(t, tm.store, &models.MaintenanceWindow{
		Name:     "just started",
		StartsAt: now.Add(-10 * time.Minute),
		EndsAt:   now.Add(time.Hour),
		Status:   models.MaintenancePending,
		Targets:  targets,
	})
	ended := seedWindow(t, tm.store, &models.MaintenanceWindow{
		Name:     "just ended",
		StartsAt: now.Add(-3 * time.Hour),
		EndsAt:   now.Add(-time.Hour),
		Status:   models.MaintenanceActive,
		Targets:  targets,
	})
	stale := seedWindow(t, tm.store, &models.MaintenanceWindow{
		Name:     "long gone",
		StartsAt: now.Add(-50 * time.Hour),
		EndsAt:   now.Add(-25 * time.Hour),
		RemoteID: 91,
		Status:   models.MaintenanceExpired,
		Targets:  targets,
	})

	tm.api.EXPECT().MaintenanceDelete(gomock.Any(), int64(91)).Return(nil)

	require.NoError(t, tm.manager.Sweep(context.Background()))

	storedStarted, err := tm.store.GetMaintenance(context.Background(), started.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceActive, storedStarted.Status)

	storedEnded, err := tm.store.GetMaintenance(context.Background(), ended.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceExpired, storedEnded.Status)

	_, err = tm.store.GetMaintenance(context.Background(), stale.ID)
	require.ErrorIs(t, err, db.ErrMaintenanceNotFound)

	require.Len(t, tm.sink.events, 2)
	assert.Equal(t, "just ended", tm.sink.events[0].Name)
	assert.Equal(t, models.MaintenanceExpired, tm.sink.events[0].Status)
	assert.Equal(t, "just started", tm.sink.events[1].Name)
	assert.Equal(t, models.MaintenanceActive, tm.sink.events[1].Status)
}

func TestSweepRetainsWindowWhenRemotePurgeFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2025, 11, 7, 12, 0, 0, 0, time.UTC)
	tm := newTestManager(t, ctrl, now)

	window := seedWindow(t, tm.store, &models.MaintenanceWindow{
		Name:     "long gone",
		StartsAt: now.Add(-50 * time.Hour),
		EndsAt:   now.Add(-25 * time.Hour),
		RemoteID: 91,
		Status:   models.MaintenanceExpired,
		Targets:  models.MaintenanceTargets{HostConfigIDs: []uuid.UUID{uuid.New()}},
	})

	tm.api.EXPECT().
		MaintenanceDelete(gomock.Any(), int64(91)).
		Return(errors.New("connection refused"))

	require.NoError(t, tm.manager.Sweep(context.Background()))

	_, err := tm.store.GetMaintenance(context.Background(), window.ID)
	require.NoError(t, err)
	assert.Empty(t, tm.sink.events)
}

func TestSweepPurgesFailedWindowWithoutRemote(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2025, 11, 7, 12, 0, 0, 0, time.UTC)
	tm := newTestManager(t, ctrl, now)

	window := seedWindow(t, tm.store, &models.MaintenanceWindow{
		Name:     "never registered",
		StartsAt: now.Add(-50 * time.Hour),
		EndsAt:   now.Add(-25 * time.Hour),
		Status:   models.MaintenanceFailed,
		Targets:  models.MaintenanceTargets{HostConfigIDs: []uuid.UUID{uuid.New()}},
	})

	require.NoError(t, tm.manager.Sweep(context.Background()))

	_, err := tm.store.GetMaintenance(context.Background(), window.ID)
	require.ErrorIs(t, err, db.ErrMaintenanceNotFound)
	assert.Empty(t, tm.sink.events)
}
