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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDMarshalsAsString(t *testing.T) {
	raw, err := json.Marshal(ID(10501))
	require.NoError(t, err)
	assert.Equal(t, `"10501"`, string(raw))

	raw, err = json.Marshal(ID(0))
	require.NoError(t, err)
	assert.Equal(t, `"0"`, string(raw))
}

func TestIDUnmarshalAcceptsStringAndNumber(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ID
		wantErr bool
	}{
		{name: "quoted decimal", input: `"10501"`, want: 10501},
		{name: "bare number", input: `10501`, want: 10501},
		{name: "zero string", input: `"0"`, want: 0},
		{name: "empty string", input: `""`, want: 0},
		{name: "null", input: `null`, want: 0},
		{name: "garbage", input: `"tenthousand"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID

			err := json.Unmarshal([]byte(tt.input), &id)
			if tt.wantErr {
				require.ErrorIs(t, err, errInvalidID)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestInventoryMapToleratesEmptyArray(t *testing.T) {
	var m InventoryMap

	require.NoError(t, json.Unmarshal([]byte(`[]`), &m))
	assert.Nil(t, m)

	require.NoError(t, json.Unmarshal([]byte(`{"os":"linux","location":"dc1"}`), &m))
	assert.Equal(t, InventoryMap{"os": "linux", "location": "dc1"}, m)
}

func TestHostParamsOmitsUnsetFields(t *testing.T) {
	raw, err := json.Marshal(&HostParams{Host: "edge-01", Groups: []GroupRef{{GroupID: 4}}})
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Equal(t, "edge-01", doc["host"])
	assert.NotContains(t, doc, "hostid")
	assert.NotContains(t, doc, "description")
	assert.NotContains(t, doc, "tls_psk")
	assert.NotContains(t, doc, "tls_psk_identity")
	assert.NotContains(t, doc, "proxyid")
	assert.NotContains(t, doc, "interfaces")
}

func TestHostParamsPointerFieldsClearValues(t *testing.T) {
	// A nil pointer omits the property; a pointer to the empty string
	// clears it on the server.
	empty := ""
	raw, err := json.Marshal(&HostParams{HostID: 10501, Description: &empty})
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Equal(t, "10501", doc["hostid"])
	assert.Equal(t, "", doc["description"])
}

func TestInterfaceParamsKeepsAddressKeys(t *testing.T) {
	raw, err := json.Marshal(&InterfaceParams{HostID: 10501, Type: "1", Main: "1", UseIP: "1", IP: "192.0.2.10", Port: "10050"})
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Equal(t, "192.0.2.10", doc["ip"])
	assert.Contains(t, doc, "dns")
	assert.Equal(t, "", doc["dns"])
	assert.NotContains(t, doc, "interfaceid")
	assert.NotContains(t, doc, "details")
}
