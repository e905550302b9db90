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

package snmpcheck

import (
	"context"
	"errors"
	"testing"

	"github.com/gosnmp/gosnmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/models"
	"github.com/monbridge/monbridge/pkg/reconcile"
)

var _ reconcile.InterfacePreflight = (*Checker)(nil)

type fakeConn struct {
	connectErr error
	getErr     error
	packet     *gosnmp.SnmpPacket
	gotOIDs    []string
	closed     bool
}

func (f *fakeConn) Connect() error {
	return f.connectErr
}

func (f *fakeConn) Get(oids []string) (*gosnmp.SnmpPacket, error) {
	f.gotOIDs = append(f.gotOIDs, oids...)

	if f.getErr != nil {
		return nil, f.getErr
	}

	return f.packet, nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func okPacket() *gosnmp.SnmpPacket {
	return &gosnmp.SnmpPacket{
		Variables: []gosnmp.SnmpPDU{{
			Name:  oidSysObjectID,
			Type:  gosnmp.ObjectIdentifier,
			Value: ".1.3.6.1.4.1.8072.3.2.10",
		}},
	}
}

func newFakeChecker(conn *fakeConn, dialErr error) (*Checker, *int) {
	c := New(&models.SNMPCheckConfig{Enabled: true}, logger.NewTestLogger())

	dials := 0
	c.dial = func(context.Context, *models.InterfaceConfiguration) (snmpConn, error) {
		dials++

		if dialErr != nil {
			return nil, dialErr
		}

		return conn, nil
	}

	return c, &dials
}

func snmpInterface() *models.InterfaceConfiguration {
	return &models.InterfaceConfiguration{
		Name:       "mgmt0",
		Type:       models.InterfaceTypeSNMP,
		ConnectVia: models.ConnectViaIP,
		IP:         "10.0.0.5",
		Port:       "161",
		SNMP: &models.SNMPDetails{
			Version:   models.SNMPv2c,
			Community: "public",
		},
	}
}

func TestCheckInterfaceSkipsAgentInterfaces(t *testing.T) {
	t.Parallel()

	c, dials := newFakeChecker(nil, nil)

	err := c.CheckInterface(context.Background(), &models.InterfaceConfiguration{
		Name: "eth0",
		Type: models.InterfaceTypeAgent,
	})
	require.NoError(t, err)
	assert.Zero(t, *dials)
}

func TestCheckInterfaceProbesSysObjectID(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{packet: okPacket()}
	c, dials := newFakeChecker(conn, nil)

	require.NoError(t, c.CheckInterface(context.Background(), snmpInterface()))

	assert.Equal(t, 1, *dials)
	assert.Equal(t, []string{oidSysObjectID}, conn.gotOIDs)
	assert.True(t, conn.closed)
}

func TestCheckInterfaceReportsConnectFailure(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{connectErr: errors.New("no route to host")}
	c, _ := newFakeChecker(conn, nil)

	err := c.CheckInterface(context.Background(), snmpInterface())
	require.ErrorContains(t, err, `connect "mgmt0"`)
	assert.False(t, conn.closed)
}

func TestCheckInterfaceReportsProbeFailure(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{getErr: errors.New("request timeout")}
	c, _ := newFakeChecker(conn, nil)

	err := c.CheckInterface(context.Background(), snmpInterface())
	require.ErrorContains(t, err, "get sysObjectID")
	assert.True(t, conn.closed)
}

func TestCheckInterfaceReportsServerRejection(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{packet: &gosnmp.SnmpPacket{Error: gosnmp.NoSuchName}}
	c, _ := newFakeChecker(conn, nil)

	err := c.CheckInterface(context.Background(), snmpInterface())
	require.ErrorIs(t, err, errProbeRejected)
}

func TestBuildClientCommunityVersions(t *testing.T) {
	t.Parallel()

	ic := snmpInterface()

	client, err := buildClient(context.Background(), ic, defaultTimeout, 1)
	require.NoError(t, err)

	assert.Equal(t, gosnmp.Version2c, client.Version)
	assert.Equal(t, "public", client.Community)
	assert.Equal(t, "10.0.0.5", client.Target)
	assert.Equal(t, uint16(161), client.Port)
}

func TestBuildClientV3AuthPriv(t *testing.T) {
	t.Parallel()

	ic := snmpInterface()
	ic.SNMP = &models.SNMPDetails{
		Version:        models.SNMPv3,
		ContextName:    "edge",
		SecurityName:   "monbridge",
		SecurityLevel:  models.SecurityAuthPriv,
		AuthProtocol:   models.AuthSHA256,
		AuthPassphrase: "auth-pass",
		PrivProtocol:   models.PrivAES128,
		PrivPassphrase: "priv-pass",
	}

	client, err := buildClient(context.Background(), ic, defaultTimeout, 1)
	require.NoError(t, err)

	assert.Equal(t, gosnmp.Version3, client.Version)
	assert.Equal(t, gosnmp.UserSecurityModel, client.SecurityModel)
	assert.Equal(t, "edge", client.ContextName)
	assert.Equal(t, gosnmp.AuthPriv, client.MsgFlags)

	usm, ok := client.SecurityParameters.(*gosnmp.UsmSecurityParameters)
	require.True(t, ok)
	assert.Equal(t, "monbridge", usm.UserName)
	assert.Equal(t, gosnmp.SHA256, usm.AuthenticationProtocol)
	assert.Equal(t, "auth-pass", usm.AuthenticationPassphrase)
	assert.Equal(t, gosnmp.AES, usm.PrivacyProtocol)
	assert.Equal(t, "priv-pass", usm.PrivacyPassphrase)
}

func TestBuildClientUsesDNSTarget(t *testing.T) {
	t.Parallel()

	ic := snmpInterface()
	ic.ConnectVia = models.ConnectViaDNS
	ic.DNS = "web-01.example.com"

	client, err := buildClient(context.Background(), ic, defaultTimeout, 1)
	require.NoError(t, err)
	assert.Equal(t, "web-01.example.com", client.Target)
}

func TestBuildClientRejectsMissingAddress(t *testing.T) {
	t.Parallel()

	ic := snmpInterface()
	ic.IP = ""

	_, err := buildClient(context.Background(), ic, defaultTimeout, 1)
	require.ErrorIs(t, err, models.ErrInterfaceAddressMissing)
}

func TestBuildClientRejectsBadPort(t *testing.T) {
	t.Parallel()

	ic := snmpInterface()
	ic.Port = "striped"

	_, err := buildClient(context.Background(), ic, defaultTimeout, 1)
	require.ErrorContains(t, err, `parse port "striped"`)
}
