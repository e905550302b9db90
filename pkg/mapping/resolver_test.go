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

	"github.com/stretchr/testify/assert"

	"github.com/monbridge/monbridge/pkg/models"
)

func resolverObject() *models.InventoryObject {
	return &models.InventoryObject{
		Ref:    models.ObjectRef{Kind: models.KindDevice, ID: 7},
		Name:   "edge-01",
		Status: "active",
		Site: &models.Site{
			ID:   siteDC1,
			Name: "DC1",
			Slug: "dc1",
			Region: &models.Region{
				ID:   5,
				Name: "EMEA",
			},
		},
		PrimaryIP: &models.IPAddress{
			ID:      99,
			Address: "192.0.2.10/24",
			DNSName: "edge-01.example.net",
		},
		CustomFields: map[string]interface{}{
			"env":   "production",
			"tier":  2,
			"owner": map[string]interface{}{"team": "netops"},
			"blank": "",
		},
	}
}

func TestResolveDottedPaths(t *testing.T) {
	obj := resolverObject()

	tests := []struct {
		path string
		want interface{}
	}{
		{"name", "edge-01"},
		{"status", "active"},
		{"site.name", "DC1"},
		{"site.region.name", "EMEA"},
		{"primary_ip.address", "192.0.2.10/24"},
		{"primary_ip.ip", "192.0.2.10"},
		{"primary_ip.dns_name", "edge-01.example.net"},
		{"custom_fields.env", "production"},
		{"custom_fields.tier", 2},
		{"custom_fields.owner.team", "netops"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(obj, tt.path))
		})
	}
}

func TestResolveMissingSegmentsAreNil(t *testing.T) {
	obj := resolverObject()
	obj.Role = nil
	obj.Platform = nil

	paths := []string{
		"role.name",           // nil intermediate
		"platform",            // nil terminal
		"site.region.nope",    // unknown attribute
		"custom_fields.ghost", // absent map key
		"name.deeper",         // descending through a scalar
		"",                    // empty path
	}

	for _, path := range paths {
		assert.Nil(t, Resolve(obj, path), "path %q", path)
	}

	assert.Nil(t, Resolve(nil, "name"))
}

func TestResolveString(t *testing.T) {
	obj := resolverObject()

	assert.Equal(t, "edge-01", ResolveString(obj, "name"))
	assert.Equal(t, "2", ResolveString(obj, "custom_fields.tier"))
	assert.Equal(t, "", ResolveString(obj, "role.name"))
}

func TestFirstNonEmpty(t *testing.T) {
	obj := resolverObject()

	got := FirstNonEmpty(obj, []string{"custom_fields.blank", "role.name", "site.name"})
	assert.Equal(t, "DC1", got)

	got = FirstNonEmpty(obj, []string{"role.name", "platform.name"})
	assert.Equal(t, "", got)

	got = FirstNonEmpty(obj, nil)
	assert.Equal(t, "", got)
}
