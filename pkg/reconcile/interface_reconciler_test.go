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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/models"
	"github.com/monbridge/monbridge/pkg/zabbix"
)

func testInterfaceReconciler(api zabbix.API) *InterfaceReconciler {
	log := logger.NewTestLogger()
	return NewInterfaceReconciler(api, NewPayloadBuilder(nil, log), log)
}

func agentHost(remoteID int64) *models.HostConfiguration {
	return &models.HostConfiguration{
		RemoteID: 55,
		Host:     "sw-01",
		Interfaces: []models.InterfaceConfiguration{{
			Name:       "eth0",
			RemoteID:   remoteID,
			Type:       models.InterfaceTypeAgent,
			Main:       true,
			ConnectVia: models.ConnectViaIP,
			IP:         "10.0.0.5",
			Port:       "10050",
		}},
	}
}

func remoteAgentInterface(id int64) zabbix.Interface {
	return zabbix.Interface{
		InterfaceID: zabbix.ID(id),
		HostID:      55,
		Type:        "1",
		Main:        "1",
		UseIP:       "1",
		IP:          "10.0.0.5",
		DNS:         "",
		Port:        "10050",
	}
}

func TestInterfaceReconcileLinksByAddress(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api := zabbix.NewMockAPI(ctrl)
	api.EXPECT().InterfaceList(gomock.Any(), int64(55)).Return([]zabbix.Interface{
		remoteAgentInterface(9),
		// An interface the engine does not manage stays untouched.
		{InterfaceID: 99, HostID: 55, Type: "2", Main: "1", UseIP: "1", IP: "10.0.9.9", Port: "161"},
	}, nil)

	hc := agentHost(0)

	require.NoError(t, testInterfaceReconciler(api).Reconcile(context.Background(), hc))
	assert.Equal(t, int64(9), hc.Interfaces[0].RemoteID)
}

func TestInterfaceReconcileRelinksVanishedIdentifier(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api := zabbix.NewMockAPI(ctrl)
	api.EXPECT().InterfaceList(gomock.Any(), int64(55)).
		Return([]zabbix.Interface{remoteAgentInterface(9)}, nil)

	// The stored identifier no longer exists remotely; the record relinks
	// to the interface carrying its address.
	hc := agentHost(77)

	require.NoError(t, testInterfaceReconciler(api).Reconcile(context.Background(), hc))
	assert.Equal(t, int64(9), hc.Interfaces[0].RemoteID)
}

func TestInterfaceReconcileCreatesMissing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api := zabbix.NewMockAPI(ctrl)
	api.EXPECT().InterfaceList(gomock.Any(), int64(55)).Return(nil, nil)
	api.EXPECT().InterfaceCreate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, params *zabbix.InterfaceParams) (int64, error) {
			assert.Equal(t, zabbix.ID(55), params.HostID)
			assert.Equal(t, "2", params.Type)
			assert.Equal(t, "161", params.Port)
			require.NotNil(t, params.Details)
			assert.Equal(t, "2", params.Details.Version)

			return 42, nil
		})

	hc := &models.HostConfiguration{
		RemoteID: 55,
		Host:     "sw-01",
		Interfaces: []models.InterfaceConfiguration{{
			Name:       "mgmt0",
			Type:       models.InterfaceTypeSNMP,
			Main:       true,
			ConnectVia: models.ConnectViaIP,
			IP:         "192.168.1.9",
			Port:       "161",
			SNMP:       &models.SNMPDetails{Version: models.SNMPv2c, Bulk: true, Community: "public"},
		}},
	}

	require.NoError(t, testInterfaceReconciler(api).Reconcile(context.Background(), hc))
	assert.Equal(t, int64(42), hc.Interfaces[0].RemoteID)
}

func TestInterfaceReconcileRealignsDrifted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	drifted := remoteAgentInterface(9)
	drifted.Port = "10051"

	api := zabbix.NewMockAPI(ctrl)
	api.EXPECT().InterfaceList(gomock.Any(), int64(55)).
		Return([]zabbix.Interface{drifted}, nil)
	api.EXPECT().InterfaceUpdate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, params *zabbix.InterfaceParams) error {
			assert.Equal(t, zabbix.ID(9), params.InterfaceID)
			assert.Equal(t, "10050", params.Port)

			return nil
		})

	hc := agentHost(9)

	require.NoError(t, testInterfaceReconciler(api).Reconcile(context.Background(), hc))
}

func TestInterfaceReconcileAlignedMakesNoWrites(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api := zabbix.NewMockAPI(ctrl)
	api.EXPECT().InterfaceList(gomock.Any(), int64(55)).
		Return([]zabbix.Interface{remoteAgentInterface(9)}, nil)

	hc := agentHost(9)

	require.NoError(t, testInterfaceReconciler(api).Reconcile(context.Background(), hc))
}

func TestInterfaceReconcileMainSwapRefusedWithUnmanaged(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api := zabbix.NewMockAPI(ctrl)
	api.EXPECT().InterfaceList(gomock.Any(), int64(55)).Return([]zabbix.Interface{
		{InterfaceID: 9, Type: "1", Main: "0", UseIP: "1", IP: "10.0.0.5", Port: "10050"},
		{InterfaceID: 10, Type: "1", Main: "1", UseIP: "1", IP: "10.0.0.6", Port: "10050"},
		// Unmanaged: a full replace would delete this one.
		{InterfaceID: 99, Type: "2", Main: "1", UseIP: "1", IP: "10.0.9.9", Port: "161"},
	}, nil)

	hc := &models.HostConfiguration{
		RemoteID: 55,
		Host:     "sw-01",
		Interfaces: []models.InterfaceConfiguration{
			{Name: "eth0", RemoteID: 9, Type: models.InterfaceTypeAgent, Main: true,
				ConnectVia: models.ConnectViaIP, IP: "10.0.0.5", Port: "10050"},
			{Name: "eth1", RemoteID: 10, Type: models.InterfaceTypeAgent, Main: false,
				ConnectVia: models.ConnectViaIP, IP: "10.0.0.6", Port: "10050"},
		},
	}

	err := testInterfaceReconciler(api).Reconcile(context.Background(), hc)
	require.ErrorIs(t, err, ErrUnmanagedInterfaces)
}

func TestInterfaceReconcileMainSwapReplacesSet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	listed := []zabbix.Interface{
		{InterfaceID: 9, Type: "1", Main: "0", UseIP: "1", IP: "10.0.0.5", Port: "10050"},
		{InterfaceID: 10, Type: "1", Main: "1", UseIP: "1", IP: "10.0.0.6", Port: "10050"},
	}
	relisted := []zabbix.Interface{
		{InterfaceID: 9, Type: "1", Main: "1", UseIP: "1", IP: "10.0.0.5", Port: "10050"},
		{InterfaceID: 10, Type: "1", Main: "0", UseIP: "1", IP: "10.0.0.6", Port: "10050"},
	}

	api := zabbix.NewMockAPI(ctrl)
	gomock.InOrder(
		api.EXPECT().InterfaceList(gomock.Any(), int64(55)).Return(listed, nil),
		api.EXPECT().HostUpdate(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, params *zabbix.HostParams) error {
				assert.Equal(t, zabbix.ID(55), params.HostID)
				require.Len(t, params.Interfaces, 2)
				assert.Equal(t, "1", params.Interfaces[0].Main)
				assert.Equal(t, "0", params.Interfaces[1].Main)

				return nil
			}),
		api.EXPECT().InterfaceList(gomock.Any(), int64(55)).Return(relisted, nil),
	)

	hc := &models.HostConfiguration{
		RemoteID: 55,
		Host:     "sw-01",
		Interfaces: []models.InterfaceConfiguration{
			{Name: "eth0", RemoteID: 9, Type: models.InterfaceTypeAgent, Main: true,
				ConnectVia: models.ConnectViaIP, IP: "10.0.0.5", Port: "10050"},
			{Name: "eth1", RemoteID: 10, Type: models.InterfaceTypeAgent, Main: false,
				ConnectVia: models.ConnectViaIP, IP: "10.0.0.6", Port: "10050"},
		},
	}

	require.NoError(t, testInterfaceReconciler(api).Reconcile(context.Background(), hc))
	assert.Equal(t, int64(9), hc.Interfaces[0].RemoteID)
	assert.Equal(t, int64(10), hc.Interfaces[1].RemoteID)
}

func TestInterfaceReconcileNoInterfaces(t *testing.T) {
	api := zabbix.NewMockAPI(gomock.NewController(t))

	hc := &models.HostConfiguration{RemoteID: 55, Host: "sw-01"}

	require.NoError(t, testInterfaceReconciler(api).Reconcile(context.Background(), hc))
}

func TestInterfaceReconcileUnprovisioned(t *testing.T) {
	api := zabbix.NewMockAPI(gomock.NewController(t))

	hc := agentHost(0)
	hc.RemoteID = 0

	err := testInterfaceReconciler(api).Reconcile(context.Background(), hc)
	require.ErrorIs(t, err, ErrNotProvisioned)
}
