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

package zabbix

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestCatalogCachesGroupList(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAPI := NewMockAPI(ctrl)
	mockAPI.EXPECT().HostGroupList(gomock.Any()).Return([]HostGroup{
		{GroupID: 4, Name: "Linux servers"},
	}, nil).Times(1)

	catalog := NewCatalog(mockAPI, time.Minute)

	for i := 0; i < 3; i++ {
		groups, err := catalog.Groups(context.Background())
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, "Linux servers", groups[0].Name)
	}
}

func TestCatalogExpiresAfterTTL(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAPI := NewMockAPI(ctrl)
	mockAPI.EXPECT().HostGroupList(gomock.Any()).Return([]HostGroup{{GroupID: 4, Name: "Linux servers"}}, nil).Times(2)

	now := time.Now()
	catalog := NewCatalog(mockAPI, time.Minute)
	catalog.now = func() time.Time { return now }

	_, err := catalog.Groups(context.Background())
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)

	_, err = catalog.Groups(context.Background())
	require.NoError(t, err)
}

func TestCatalogGroupIDRefreshesOnMiss(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAPI := NewMockAPI(ctrl)
	gomock.InOrder(
		mockAPI.EXPECT().HostGroupList(gomock.Any()).Return([]HostGroup{{GroupID: 4, Name: "Linux servers"}}, nil),
		mockAPI.EXPECT().HostGroupList(gomock.Any()).Return([]HostGroup{
			{GroupID: 4, Name: "Linux servers"},
			{GroupID: 9, Name: "Edge routers"},
		}, nil),
	)

	catalog := NewCatalog(mockAPI, time.Hour)

	// Warm the cache with the stale list, then resolve a name that only
	// exists server-side.
	_, err := catalog.Groups(context.Background())
	require.NoError(t, err)

	id, err := catalog.GroupID(context.Background(), "Edge routers")
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
}

func TestCatalogGroupIDNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAPI := NewMockAPI(ctrl)
	mockAPI.EXPECT().HostGroupList(gomock.Any()).Return([]HostGroup{{GroupID: 4, Name: "Linux servers"}}, nil).Times(2)

	catalog := NewCatalog(mockAPI, time.Hour)

	_, err := catalog.GroupID(context.Background(), "No such group")
	require.ErrorIs(t, err, ErrNameNotFound)
	assert.Contains(t, err.Error(), "No such group")
}

func TestCatalogTemplateIDMatchesEitherName(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAPI := NewMockAPI(ctrl)
	mockAPI.EXPECT().TemplateList(gomock.Any()).Return([]Template{
		{TemplateID: 10001, Host: "Linux by Zabbix agent", Name: "Linux agent"},
	}, nil).AnyTimes()

	catalog := NewCatalog(mockAPI, time.Hour)

	id, err := catalog.TemplateID(context.Background(), "Linux agent")
	require.NoError(t, err)
	assert.Equal(t, int64(10001), id)

	id, err = catalog.TemplateID(context.Background(), "Linux by Zabbix agent")
	require.NoError(t, err)
	assert.Equal(t, int64(10001), id)
}

func TestCatalogProxyAndProxyGroupLookups(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAPI := NewMockAPI(ctrl)
	mockAPI.EXPECT().ProxyList(gomock.Any()).Return([]Proxy{{ProxyID: 7, Name: "dc1-proxy"}}, nil).Times(1)
	mockAPI.EXPECT().ProxyGroupList(gomock.Any()).Return([]ProxyGroup{{ProxyGroupID: 2, Name: "edge-proxies"}}, nil).Times(1)

	catalog := NewCatalog(mockAPI, time.Hour)

	proxyID, err := catalog.ProxyID(context.Background(), "dc1-proxy")
	require.NoError(t, err)
	assert.Equal(t, int64(7), proxyID)

	groupID, err := catalog.ProxyGroupID(context.Background(), "edge-proxies")
	require.NoError(t, err)
	assert.Equal(t, int64(2), groupID)
}

func TestCatalogInvalidateDropsEverything(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAPI := NewMockAPI(ctrl)
	mockAPI.EXPECT().HostGroupList(gomock.Any()).Return([]HostGroup{{GroupID: 4, Name: "Linux servers"}}, nil).Times(2)

	catalog := NewCatalog(mockAPI, time.Hour)

	_, err := catalog.Groups(context.Background())
	require.NoError(t, err)

	catalog.Invalidate()

	_, err = catalog.Groups(context.Background())
	require.NoError(t, err)
}
