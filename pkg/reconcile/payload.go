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
	"errors"
	"fmt"
	"strconv"

	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/models"
	"github.com/monbridge/monbridge/pkg/zabbix"
)

var errNoHostGroups = errors.New("host requires at least one host group")

// PayloadBuilder renders host configurations into remote write payloads.
// Addresses, ports, tags, and inventory fields must already be
// materialized on the configuration; the builder only serializes and
// decides which fields a request carries.
type PayloadBuilder struct {
	secrets SecretSource
	logger  logger.Logger
}

// NewPayloadBuilder builds a payload builder. secrets may be nil, in which
// case PSK material must live on the configuration itself.
func NewPayloadBuilder(secrets SecretSource, log logger.Logger) *PayloadBuilder {
	return &PayloadBuilder{secrets: secrets, logger: log}
}

// BuildHost renders the payload for host.create, or for host.update when
// forUpdate is set. Create payloads carry the interface blocks; updates
// leave interfaces to the interface reconciler. Update payloads carry
// only changed identity fields, keep exactly one proxy selector per
// monitored-by mode, and omit TLS material (including the PSK) while the
// encryption flags match the pre-image.
func (b *PayloadBuilder) BuildHost(hc *models.HostConfiguration, forUpdate bool, preImage *zabbix.Host) (*zabbix.HostParams, error) {
	params := &zabbix.HostParams{
		Status:        itoa(int64(hc.Status)),
		InventoryMode: itoa(int64(hc.InventoryMode)),
	}

	if forUpdate {
		params.HostID = zabbix.ID(hc.RemoteID)
		b.applyIdentity(params, hc, preImage)
		b.applyProxy(params, hc, preImage, true)
	} else {
		if len(hc.GroupIDs) == 0 {
			return nil, fmt.Errorf("%w: %q", errNoHostGroups, hc.Host)
		}

		params.Host = hc.Host
		params.Name = hc.VisibleName

		if hc.Description != "" {
			desc := hc.Description
			params.Description = &desc
		}

		b.applyProxy(params, hc, nil, false)
	}

	if err := b.applyTLS(params, hc, forUpdate, preImage); err != nil {
		return nil, err
	}

	if hc.InventoryMode != models.InventoryModeDisabled && len(hc.Inventory) > 0 {
		params.Inventory = hc.Inventory
	}

	for _, id := range hc.GroupIDs {
		params.Groups = append(params.Groups, zabbix.GroupRef{GroupID: zabbix.ID(id)})
	}

	for _, id := range hc.TemplateIDs {
		params.Templates = append(params.Templates, zabbix.TemplateRef{TemplateID: zabbix.ID(id)})
	}

	for _, tag := range hc.Tags {
		params.Tags = append(params.Tags, zabbix.Tag{Tag: tag.Tag, Value: tag.Value})
	}

	// The macro list replaces the remote set wholesale, so secret macros
	// ride along on every write; dropping one would delete it remotely.
	for _, macro := range hc.Macros {
		params.Macros = append(params.Macros, zabbix.Macro{
			Macro:       macro.Macro,
			Value:       macro.Value,
			Type:        itoa(int64(macro.Type)),
			Description: macro.Description,
		})
	}

	if !forUpdate {
		for i := range hc.Interfaces {
			params.Interfaces = append(params.Interfaces, *b.BuildInterface(hc, &hc.Interfaces[i]))
		}
	}

	return params, nil
}

// applyIdentity emits the naming fields that differ from the pre-image.
func (b *PayloadBuilder) applyIdentity(params *zabbix.HostParams, hc *models.HostConfiguration, preImage *zabbix.Host) {
	if preImage == nil {
		params.Host = hc.Host
		params.Name = visibleName(hc)

		desc := hc.Description
		params.Description = &desc

		return
	}

	if hc.Host != preImage.Host {
		params.Host = hc.Host
	}

	if name := visibleName(hc); name != preImage.Name {
		params.Name = name
	}

	if hc.Description != preImage.Description {
		desc := hc.Description
		params.Description = &desc
	}
}

// applyProxy emits monitored_by and the selector the mode demands. On
// update the stale selector is zeroed when the pre-image still carries it.
func (b *PayloadBuilder) applyProxy(params *zabbix.HostParams, hc *models.HostConfiguration, preImage *zabbix.Host, forUpdate bool) {
	if forUpdate || hc.MonitoredBy != models.MonitoredByServer {
		params.MonitoredBy = itoa(int64(hc.MonitoredBy))
	}

	switch hc.MonitoredBy {
	case models.MonitoredByProxy:
		params.ProxyID = itoa(hc.ProxyID)
	case models.MonitoredByProxyGroup:
		params.ProxyGroupID = itoa(hc.ProxyGroupID)
	case models.MonitoredByServer:
	}

	if !forUpdate || preImage == nil {
		return
	}

	if hc.MonitoredBy != models.MonitoredByProxy && preImage.ProxyID != 0 {
		params.ProxyID = "0"
	}

	if hc.MonitoredBy != models.MonitoredByProxyGroup && preImage.ProxyGroupID != 0 {
		params.ProxyGroupID = "0"
	}
}

// applyTLS emits the encryption fields. On update nothing is emitted while
// the desired flags match the pre-image; the server never returns PSK
// material, so an unchanged mode is the only safe "unchanged" signal.
func (b *PayloadBuilder) applyTLS(params *zabbix.HostParams, hc *models.HostConfiguration, forUpdate bool, preImage *zabbix.Host) error {
	connect := tlsString(hc.TLSConnect)
	accept := tlsString(hc.TLSAccept)

	if forUpdate && preImage != nil &&
		connect == normalizeTLS(preImage.TLSConnect) && accept == normalizeTLS(preImage.TLSAccept) {
		return nil
	}

	if !forUpdate && hc.TLSConnect == 0 && hc.TLSAccept == 0 {
		return nil
	}

	params.TLSConnect = connect
	params.TLSAccept = accept

	if hc.TLSConnect == models.TLSModePSK || hc.TLSAccept&models.TLSModePSK != 0 {
		identity, psk, err := b.resolvePSK(hc)
		if err != nil {
			return err
		}

		params.TLSPSKID = identity
		params.TLSPSK = psk
	}

	certWanted := hc.TLSConnect == models.TLSModeCert || hc.TLSAccept&models.TLSModeCert != 0

	switch {
	case certWanted:
		issuer, subject := hc.TLSIssuer, hc.TLSSubject
		params.TLSIssuer = &issuer
		params.TLSSubject = &subject
	case forUpdate && preImage != nil && (preImage.TLSIssuer != "" || preImage.TLSSubject != ""):
		empty := ""
		params.TLSIssuer = &empty
		params.TLSSubject = &empty
	}

	return nil
}

// resolvePSK returns the PSK identity and key, consulting the secret
// source when the configuration stores only the identity.
func (b *PayloadBuilder) resolvePSK(hc *models.HostConfiguration) (identity, psk string, err error) {
	identity = hc.TLSPSKID
	psk = hc.TLSPSK

	if psk == "" && identity != "" && b.secrets != nil {
		psk, err = b.secrets.TLSPSK(identity)
		if err != nil {
			return "", "", fmt.Errorf("resolve psk %q: %w", identity, err)
		}
	}

	if identity == "" || psk == "" {
		return "", "", fmt.Errorf("%w: host %q", errTLSPSKMissing, hc.Host)
	}

	return identity, psk, nil
}

// BuildInterface renders one monitoring interface. The remote host and
// interface identifiers ride along once known, so the same shape serves
// inline creation, hostinterface.create, and hostinterface.update.
func (b *PayloadBuilder) BuildInterface(hc *models.HostConfiguration, ic *models.InterfaceConfiguration) *zabbix.InterfaceParams {
	params := &zabbix.InterfaceParams{
		InterfaceID: zabbix.ID(ic.RemoteID),
		HostID:      zabbix.ID(hc.RemoteID),
		Type:        itoa(int64(ic.Type)),
		Main:        boolFlag(ic.Main),
		UseIP:       itoa(int64(ic.ConnectVia)),
		IP:          ic.IP,
		DNS:         ic.DNS,
		Port:        ic.Port,
	}

	if ic.SNMP != nil {
		params.Details = buildSNMPDetails(ic.SNMP)
	}

	return params
}

func buildSNMPDetails(d *models.SNMPDetails) *zabbix.SNMPDetails {
	out := &zabbix.SNMPDetails{
		Version: itoa(int64(d.Version)),
		Bulk:    boolFlag(d.Bulk),
	}

	if d.MaxRepetitions > 0 && d.Version != models.SNMPv1 {
		out.MaxRepetitions = itoa(d.MaxRepetitions)
	}

	if d.Version != models.SNMPv3 {
		out.Community = d.Community
		return out
	}

	out.ContextName = d.ContextName
	out.SecurityName = d.SecurityName
	out.SecurityLevel = itoa(int64(d.SecurityLevel))

	if d.SecurityLevel >= models.SecurityAuthNoPriv {
		out.AuthProtocol = itoa(int64(d.AuthProtocol))
		out.AuthPassphrase = d.AuthPassphrase
	}

	if d.SecurityLevel >= models.SecurityAuthPriv {
		out.PrivProtocol = itoa(int64(d.PrivProtocol))
		out.PrivPassphrase = d.PrivPassphrase
	}

	return out
}

// visibleName is the name the remote side displays; it falls back to the
// technical name the same way the server does.
func visibleName(hc *models.HostConfiguration) string {
	if hc.VisibleName != "" {
		return hc.VisibleName
	}

	return hc.Host
}

// tlsString renders a TLS mode; an unset mode means unencrypted.
func tlsString(m models.TLSMode) string {
	if m == 0 {
		return "1"
	}

	return itoa(int64(m))
}

// normalizeTLS maps the server's absent encryption flag to unencrypted.
func normalizeTLS(s string) string {
	if s == "" {
		return "1"
	}

	return s
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}

	return "0"
}
