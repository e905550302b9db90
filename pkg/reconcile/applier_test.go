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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/models"
)

func testEngineConfig(t *testing.T) *models.EngineConfig {
	t.Helper()

	cfg := &models.EngineConfig{GraveyardGroupID: 99}
	require.NoError(t, cfg.Validate())

	return cfg
}

func modePtr(m models.MonitoredBy) *models.MonitoredBy { return &m }

func TestApplyMergesGroupsAndTemplates(t *testing.T) {
	a := NewApplier(testEngineConfig(t), logger.NewTestLogger())

	hc := &models.HostConfiguration{GroupIDs: []int64{5, 2}, TemplateIDs: []int64{30}}
	rule := &models.MappingRule{HostGroupIDs: []int64{2, 9}, TemplateIDs: []int64{30, 40}}

	a.Apply(hc, rule, nil)

	assert.Equal(t, []int64{2, 5, 9}, hc.GroupIDs)
	assert.Equal(t, []int64{30, 40}, hc.TemplateIDs)

	// Locally added identifiers survive the next application.
	a.Apply(hc, rule, nil)

	assert.Equal(t, []int64{2, 5, 9}, hc.GroupIDs)
	assert.Equal(t, []int64{30, 40}, hc.TemplateIDs)
}

func TestApplyProxyAssignment(t *testing.T) {
	tests := []struct {
		name      string
		rule      models.MappingRule
		pre       models.HostConfiguration
		override  *models.MonitoredBy
		wantMode  models.MonitoredBy
		wantProxy int64
		wantGroup int64
	}{
		{
			name:     "server rule clears stale proxy",
			rule:     models.MappingRule{},
			pre:      models.HostConfiguration{MonitoredBy: models.MonitoredByProxy, ProxyID: 4},
			wantMode: models.MonitoredByServer,
		},
		{
			name:      "proxy rule assigns proxy",
			rule:      models.MappingRule{ProxyID: 4},
			wantMode:  models.MonitoredByProxy,
			wantProxy: 4,
		},
		{
			name:      "proxy rule replaces stale proxy group",
			rule:      models.MappingRule{ProxyID: 4},
			pre:       models.HostConfiguration{MonitoredBy: models.MonitoredByProxyGroup, ProxyGroupID: 7},
			wantMode:  models.MonitoredByProxy,
			wantProxy: 4,
		},
		{
			name:      "proxy group rule assigns group",
			rule:      models.MappingRule{ProxyGroupID: 7},
			wantMode:  models.MonitoredByProxyGroup,
			wantGroup: 7,
		},
		{
			name:     "override pins server over proxy rule",
			rule:     models.MappingRule{ProxyID: 4},
			override: modePtr(models.MonitoredByServer),
			wantMode: models.MonitoredByServer,
		},
		{
			name:      "override keeps already-set proxy",
			rule:      models.MappingRule{},
			pre:       models.HostConfiguration{ProxyID: 11},
			override:  modePtr(models.MonitoredByProxy),
			wantMode:  models.MonitoredByProxy,
			wantProxy: 11,
		},
		{
			name:      "override without selector falls back to rule",
			rule:      models.MappingRule{ProxyID: 4},
			override:  modePtr(models.MonitoredByProxy),
			wantMode:  models.MonitoredByProxy,
			wantProxy: 4,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := NewApplier(testEngineConfig(t), logger.NewTestLogger())
			hc := tc.pre

			a.Apply(&hc, &tc.rule, tc.override)

			assert.Equal(t, tc.wantMode, hc.MonitoredBy)
			assert.Equal(t, tc.wantProxy, hc.ProxyID)
			assert.Equal(t, tc.wantGroup, hc.ProxyGroupID)
		})
	}
}

func TestProjectTags(t *testing.T) {
	cfg := testEngineConfig(t)
	cfg.DefaultTag = "managed"
	cfg.TagPrefix = "nb/"
	cfg.TagMappings = []models.FieldMapping{
		{Name: "site", Paths: []string{"site.slug"}},
		{Name: "rack", Paths: []string{"custom_fields.rack_id", "custom_fields.rack"}},
	}

	a := NewApplier(cfg, logger.NewTestLogger())

	obj := &models.InventoryObject{
		Ref:          models.ObjectRef{Kind: models.KindDevice, ID: 1},
		Site:         &models.Site{ID: 1, Name: "DC One", Slug: "dc1"},
		CustomFields: map[string]interface{}{"rack": "R12"},
	}

	hc := &models.HostConfiguration{
		Tags: []models.HostTag{
			{Tag: "owner", Value: "netops"},
			{Tag: "nb/site", Value: "stale"},
		},
	}

	a.ProjectMappings(hc, obj)

	assert.Equal(t, []models.HostTag{
		{Tag: "nb/managed", Value: "true"},
		{Tag: "nb/rack", Value: "R12"},
		{Tag: "nb/site", Value: "dc1"},
		{Tag: "owner", Value: "netops"},
	}, hc.Tags)

	// Re-projection is stable.
	a.ProjectMappings(hc, obj)

	assert.Len(t, hc.Tags, 4)
}

func TestProjectTagsEmptyValueClearsOwnedTag(t *testing.T) {
	cfg := testEngineConfig(t)
	cfg.TagPrefix = "nb/"
	cfg.TagMappings = []models.FieldMapping{{Name: "site", Paths: []string{"site.slug"}}}

	a := NewApplier(cfg, logger.NewTestLogger())

	hc := &models.HostConfiguration{Tags: []models.HostTag{{Tag: "nb/site", Value: "dc1"}}}
	obj := &models.InventoryObject{Ref: models.ObjectRef{Kind: models.KindDevice, ID: 1}}

	a.ProjectMappings(hc, obj)

	assert.Nil(t, hc.Tags)
}

func TestProjectTagsNameFormat(t *testing.T) {
	tests := []struct {
		format models.TagNameFormat
		want   string
	}{
		{models.TagFormatKeep, "NB/Managed"},
		{models.TagFormatLower, "nb/managed"},
		{models.TagFormatUpper, "NB/MANAGED"},
	}

	for _, tc := range tests {
		t.Run(string(tc.format), func(t *testing.T) {
			cfg := testEngineConfig(t)
			cfg.DefaultTag = "Managed"
			cfg.TagPrefix = "NB/"
			cfg.TagNameFormat = tc.format

			hc := &models.HostConfiguration{}
			NewApplier(cfg, logger.NewTestLogger()).ProjectMappings(hc, &models.InventoryObject{})

			assert.Equal(t, []models.HostTag{{Tag: tc.want, Value: "true"}}, hc.Tags)
		})
	}
}

func TestProjectInventory(t *testing.T) {
	cfg := testEngineConfig(t)
	cfg.InventoryMappings = []models.FieldMapping{
		{Name: "site_address", Paths: []string{"site.name"}},
		{Name: "serialno_a", Paths: []string{"custom_fields.serial"}},
	}

	a := NewApplier(cfg, logger.NewTestLogger())

	hc := &models.HostConfiguration{
		Inventory: map[string]string{"notes": "hand-entered", "serialno_a": "OLD-123"},
	}
	obj := &models.InventoryObject{
		Ref:  models.ObjectRef{Kind: models.KindDevice, ID: 1},
		Site: &models.Site{ID: 1, Name: "DC One", Slug: "dc1"},
	}

	a.ProjectMappings(hc, obj)

	// The mapped serial resolved empty and cleared its field; the
	// hand-entered key survives.
	assert.Equal(t, map[string]string{
		"notes":        "hand-entered",
		"site_address": "DC One",
	}, hc.Inventory)
}

func TestProjectInventoryWithoutMappingsLeavesMapAlone(t *testing.T) {
	a := NewApplier(testEngineConfig(t), logger.NewTestLogger())

	hc := &models.HostConfiguration{Inventory: map[string]string{"notes": "keep"}}
	a.ProjectMappings(hc, &models.InventoryObject{})

	assert.Equal(t, map[string]string{"notes": "keep"}, hc.Inventory)
}

func TestAssignAddressesPrimaryPolicy(t *testing.T) {
	a := NewApplier(testEngineConfig(t), logger.NewTestLogger())

	obj := &models.InventoryObject{
		Ref:       models.ObjectRef{Kind: models.KindDevice, ID: 1},
		PrimaryIP: &models.IPAddress{ID: 100, Address: "10.0.0.5/24", DNSName: "web-01.example.net"},
		Interfaces: []models.NetworkInterface{{
			ID:   10,
			Name: "eth0",
			Addresses: []models.IPAddress{
				{ID: 101, Address: "10.0.0.6/24"},
				{ID: 100, Address: "10.0.0.5/24", DNSName: "web-01.example.net"},
			},
		}},
	}

	hc := &models.HostConfiguration{Interfaces: []models.InterfaceConfiguration{{
		Name:       "eth0",
		Type:       models.InterfaceTypeAgent,
		Main:       true,
		ConnectVia: models.ConnectViaIP,
		NICID:      10,
	}}}

	a.AssignAddresses(hc, obj)

	ic := hc.Interfaces[0]
	assert.Equal(t, int64(100), ic.IPAddressID)
	assert.Equal(t, "10.0.0.5", ic.IP)
	assert.Equal(t, "web-01.example.net", ic.DNS)
	assert.Equal(t, "10050", ic.Port)
}

func TestAssignAddressesInterfacePolicy(t *testing.T) {
	cfg := testEngineConfig(t)
	cfg.IPAssignment = models.IPAssignInterface

	a := NewApplier(cfg, logger.NewTestLogger())

	obj := &models.InventoryObject{
		Ref:       models.ObjectRef{Kind: models.KindDevice, ID: 1},
		PrimaryIP: &models.IPAddress{ID: 100, Address: "10.0.0.5/24"},
		Interfaces: []models.NetworkInterface{{
			ID:        10,
			Name:      "mgmt0",
			Addresses: []models.IPAddress{{ID: 200, Address: "192.168.1.9/32"}},
		}},
	}

	hc := &models.HostConfiguration{Interfaces: []models.InterfaceConfiguration{{
		Type:       models.InterfaceTypeSNMP,
		Main:       true,
		ConnectVia: models.ConnectViaIP,
		NICID:      10,
		SNMP:       &models.SNMPDetails{Version: models.SNMPv2c, Community: "public"},
	}}}

	a.AssignAddresses(hc, obj)

	ic := hc.Interfaces[0]
	assert.Equal(t, int64(200), ic.IPAddressID)
	assert.Equal(t, "192.168.1.9", ic.IP)
	assert.Equal(t, "161", ic.Port)
}

func TestAssignAddressesExplicitReferenceWins(t *testing.T) {
	a := NewApplier(testEngineConfig(t), logger.NewTestLogger())

	obj := &models.InventoryObject{
		Ref:       models.ObjectRef{Kind: models.KindDevice, ID: 1},
		PrimaryIP: &models.IPAddress{ID: 100, Address: "10.0.0.5/24"},
		Interfaces: []models.NetworkInterface{{
			ID: 10,
			Addresses: []models.IPAddress{
				{ID: 100, Address: "10.0.0.5/24"},
				{ID: 101, Address: "10.0.0.6/24"},
			},
		}},
	}

	hc := &models.HostConfiguration{Interfaces: []models.InterfaceConfiguration{{
		Type:        models.InterfaceTypeAgent,
		Main:        true,
		ConnectVia:  models.ConnectViaIP,
		NICID:       10,
		IPAddressID: 101,
	}}}

	a.AssignAddresses(hc, obj)

	assert.Equal(t, int64(101), hc.Interfaces[0].IPAddressID)
	assert.Equal(t, "10.0.0.6", hc.Interfaces[0].IP)
}

func TestAssignAddressesVanishedNICLeftUntouched(t *testing.T) {
	a := NewApplier(testEngineConfig(t), logger.NewTestLogger())

	obj := &models.InventoryObject{Ref: models.ObjectRef{Kind: models.KindDevice, ID: 1}}

	hc := &models.HostConfiguration{Interfaces: []models.InterfaceConfiguration{{
		Type:       models.InterfaceTypeAgent,
		Main:       true,
		ConnectVia: models.ConnectViaIP,
		NICID:      999,
		Port:       "10099",
	}}}

	a.AssignAddresses(hc, obj)

	ic := hc.Interfaces[0]
	assert.Empty(t, ic.IP)
	assert.Zero(t, ic.IPAddressID)
	assert.Equal(t, "10099", ic.Port)

	require.Error(t, ic.ValidateAgainst(obj))
}
