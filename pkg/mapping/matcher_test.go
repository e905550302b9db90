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

package mapping

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/models"
)

const (
	siteDC1 = int64(1)
	siteDC2 = int64(2)
	roleWeb = int64(10)
	roleDB  = int64(11)
	platNix = int64(20)
)

func testObject(kind models.ObjectKind, site, role, platform int64) *models.InventoryObject {
	obj := &models.InventoryObject{
		Ref:  models.ObjectRef{Kind: kind, ID: 1000},
		Name: "obj",
	}

	if site != 0 {
		obj.Site = &models.Site{ID: site, Name: "site"}
	}

	if role != 0 {
		obj.Role = &models.Role{ID: role, Name: "role"}
	}

	if platform != 0 {
		obj.Platform = &models.Platform{ID: platform, Name: "platform"}
	}

	return obj
}

func namedRule(name string, mutate func(*models.MappingRule)) *models.MappingRule {
	rule := &models.MappingRule{
		ID:           uuid.New(),
		Name:         name,
		HostGroupIDs: []int64{1},
		TemplateIDs:  []int64{1},
	}

	if mutate != nil {
		mutate(rule)
	}

	return rule
}

func defaultRule() *models.MappingRule {
	return namedRule("default", func(r *models.MappingRule) {
		r.Default = true
	})
}

func TestMatchPrefersFilteredRuleOverDefault(t *testing.T) {
	prodWeb := namedRule("Prod-Web", func(r *models.MappingRule) {
		r.SiteIDs = []int64{siteDC1}
		r.RoleIDs = []int64{roleWeb}
	})

	m := NewMatcher([]*models.MappingRule{prodWeb, defaultRule()}, logger.NewTestLogger())

	got, err := m.Match(testObject(models.KindDevice, siteDC1, roleWeb, 0), models.InterfaceFilterAny)
	require.NoError(t, err)
	assert.Equal(t, "Prod-Web", got.Name)

	got, err = m.Match(testObject(models.KindDevice, siteDC2, roleWeb, 0), models.InterfaceFilterAny)
	require.NoError(t, err)
	assert.Equal(t, "default", got.Name)
}

func TestMatchHigherSpecificityWins(t *testing.T) {
	broad := namedRule("dc1", func(r *models.MappingRule) {
		r.SiteIDs = []int64{siteDC1}
	})
	narrow := namedRule("dc1-web-nix", func(r *models.MappingRule) {
		r.SiteIDs = []int64{siteDC1}
		r.RoleIDs = []int64{roleWeb}
		r.PlatformIDs = []int64{platNix}
	})

	m := NewMatcher([]*models.MappingRule{broad, narrow, defaultRule()}, logger.NewTestLogger())

	got, err := m.Match(testObject(models.KindDevice, siteDC1, roleWeb, platNix), models.InterfaceFilterAny)
	require.NoError(t, err)
	assert.Equal(t, "dc1-web-nix", got.Name)

	// The narrow rule no longer matches without the platform.
	got, err = m.Match(testObject(models.KindDevice, siteDC1, roleWeb, 0), models.InterfaceFilterAny)
	require.NoError(t, err)
	assert.Equal(t, "dc1", got.Name)
}

func TestMatchEqualSpecificityIsAmbiguous(t *testing.T) {
	bySite := namedRule("by-site", func(r *models.MappingRule) {
		r.SiteIDs = []int64{siteDC1}
	})
	byRole := namedRule("by-role", func(r *models.MappingRule) {
		r.RoleIDs = []int64{roleWeb}
	})

	m := NewMatcher([]*models.MappingRule{bySite, byRole, defaultRule()}, logger.NewTestLogger())

	_, err := m.Match(testObject(models.KindDevice, siteDC1, roleWeb, 0), models.InterfaceFilterAny)
	require.ErrorIs(t, err, ErrAmbiguousRules)

	// An object matching only one of the pair is not ambiguous.
	got, err := m.Match(testObject(models.KindDevice, siteDC1, roleDB, 0), models.InterfaceFilterAny)
	require.NoError(t, err)
	assert.Equal(t, "by-site", got.Name)
}

func TestMatchNoDefaultRule(t *testing.T) {
	bySite := namedRule("by-site", func(r *models.MappingRule) {
		r.SiteIDs = []int64{siteDC1}
	})

	m := NewMatcher([]*models.MappingRule{bySite}, logger.NewTestLogger())

	_, err := m.Match(testObject(models.KindDevice, siteDC2, 0, 0), models.InterfaceFilterAny)
	require.ErrorIs(t, err, ErrNoDefaultRule)
}

func TestMatchInterfaceFilterGates(t *testing.T) {
	snmpOnly := namedRule("snmp-gear", func(r *models.MappingRule) {
		r.SiteIDs = []int64{siteDC1}
		r.InterfaceFilter = models.InterfaceFilterSNMP
	})

	m := NewMatcher([]*models.MappingRule{snmpOnly, defaultRule()}, logger.NewTestLogger())
	obj := testObject(models.KindDevice, siteDC1, 0, 0)

	got, err := m.Match(obj, models.InterfaceFilterSNMP)
	require.NoError(t, err)
	assert.Equal(t, "snmp-gear", got.Name)

	// An agent request falls through to the default.
	got, err = m.Match(obj, models.InterfaceFilterAgent)
	require.NoError(t, err)
	assert.Equal(t, "default", got.Name)
}

func TestMatchKindScope(t *testing.T) {
	vmRule := namedRule("vm-only", func(r *models.MappingRule) {
		r.Kind = models.KindVirtualMachine
		r.SiteIDs = []int64{siteDC1}
	})

	m := NewMatcher([]*models.MappingRule{vmRule, defaultRule()}, logger.NewTestLogger())

	got, err := m.Match(testObject(models.KindVirtualMachine, siteDC1, 0, 0), models.InterfaceFilterAny)
	require.NoError(t, err)
	assert.Equal(t, "vm-only", got.Name)

	got, err = m.Match(testObject(models.KindDevice, siteDC1, 0, 0), models.InterfaceFilterAny)
	require.NoError(t, err)
	assert.Equal(t, "default", got.Name)
}

func TestMatchDefaultIffNoFilteredRuleMatches(t *testing.T) {
	rules := []*models.MappingRule{
		namedRule("dc1-web", func(r *models.MappingRule) {
			r.SiteIDs = []int64{siteDC1}
			r.RoleIDs = []int64{roleWeb}
		}),
		namedRule("dc2", func(r *models.MappingRule) {
			r.SiteIDs = []int64{siteDC2}
		}),
		defaultRule(),
	}

	m := NewMatcher(rules, logger.NewTestLogger())

	objects := []*models.InventoryObject{
		testObject(models.KindDevice, siteDC1, roleWeb, 0),
		testObject(models.KindDevice, siteDC1, roleDB, 0),
		testObject(models.KindDevice, siteDC2, roleWeb, platNix),
		testObject(models.KindDevice, 0, 0, 0),
	}

	for _, obj := range objects {
		got, err := m.Match(obj, models.InterfaceFilterAny)
		require.NoError(t, err)

		anyFiltered := false

		for _, r := range rules {
			if !r.Default && r.MatchesObject(obj) {
				anyFiltered = true
			}
		}

		if anyFiltered {
			assert.False(t, got.Default, "object %v should not fall to default", obj.Ref)
		} else {
			assert.True(t, got.Default, "object %v should fall to default", obj.Ref)
		}
	}
}

func TestMatchingObjectsPreview(t *testing.T) {
	broad := namedRule("dc1", func(r *models.MappingRule) {
		r.SiteIDs = []int64{siteDC1}
	})
	narrow := namedRule("dc1-web", func(r *models.MappingRule) {
		r.SiteIDs = []int64{siteDC1}
		r.RoleIDs = []int64{roleWeb}
	})

	m := NewMatcher([]*models.MappingRule{broad, narrow, defaultRule()}, logger.NewTestLogger())

	web := testObject(models.KindDevice, siteDC1, roleWeb, 0)
	db := testObject(models.KindDevice, siteDC1, roleDB, 0)
	other := testObject(models.KindDevice, siteDC2, 0, 0)

	all := []*models.InventoryObject{web, db, other}

	assert.Equal(t, []*models.InventoryObject{db}, m.MatchingObjects(broad, all))
	assert.Equal(t, []*models.InventoryObject{web}, m.MatchingObjects(narrow, all))
}

func TestValidateRuleSet(t *testing.T) {
	t.Run("accepts one default per kind", func(t *testing.T) {
		rules := []*models.MappingRule{
			namedRule("dev-default", func(r *models.MappingRule) {
				r.Default = true
				r.Kind = models.KindDevice
			}),
			namedRule("vm-default", func(r *models.MappingRule) {
				r.Default = true
				r.Kind = models.KindVirtualMachine
			}),
		}
		require.NoError(t, ValidateRuleSet(rules))
	})

	t.Run("rejects duplicate defaults", func(t *testing.T) {
		rules := []*models.MappingRule{
			defaultRule(),
			namedRule("another-default", func(r *models.MappingRule) {
				r.Default = true
				r.Kind = models.KindDevice
			}),
		}
		require.ErrorIs(t, ValidateRuleSet(rules), models.ErrDuplicateDefaultRule)
	})

	t.Run("rejects filterless non-default rule", func(t *testing.T) {
		rules := []*models.MappingRule{namedRule("empty", nil)}
		require.ErrorIs(t, ValidateRuleSet(rules), models.ErrRuleWithoutFilters)
	})

	t.Run("rejects default rule carrying filters", func(t *testing.T) {
		rules := []*models.MappingRule{
			namedRule("bad-default", func(r *models.MappingRule) {
				r.Default = true
				r.SiteIDs = []int64{siteDC1}
			}),
		}
		require.ErrorIs(t, ValidateRuleSet(rules), models.ErrDefaultRuleHasFilters)
	})
}
