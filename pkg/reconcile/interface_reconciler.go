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
	"errors"
	"fmt"

	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/models"
	"github.com/monbridge/monbridge/pkg/zabbix"
)

// ErrUnmanagedInterfaces is returned when moving the main flag would
// require replacing the remote interface set while interfaces this engine
// does not manage exist on the host. Replacing would delete them, and
// remote interfaces are never deleted automatically.
var ErrUnmanagedInterfaces = errors.New("unmanaged remote interfaces block main interface change")

// InterfaceReconciler aligns the remote interfaces of a host with the
// local interface configurations. It links remote interfaces to local
// records by protocol family and address, creates missing remote
// interfaces, and realigns drifted ones. Remote interfaces no local
// record claims are left in place.
//
// Reconcile mutates the RemoteID fields of hc.Interfaces; the caller
// persists the record inside its transaction.
type InterfaceReconciler struct {
	api     zabbix.API
	builder *PayloadBuilder
	logger  logger.Logger
}

// NewInterfaceReconciler builds an interface reconciler.
func NewInterfaceReconciler(api zabbix.API, builder *PayloadBuilder, log logger.Logger) *InterfaceReconciler {
	return &InterfaceReconciler{api: api, builder: builder, logger: log}
}

// Reconcile drives the remote interface set toward hc.Interfaces.
func (r *InterfaceReconciler) Reconcile(ctx context.Context, hc *models.HostConfiguration) error {
	if len(hc.Interfaces) == 0 {
		return nil
	}

	if !hc.Provisioned() {
		return fmt.Errorf("%w: %q", ErrNotProvisioned, hc.Host)
	}

	remote, err := r.api.InterfaceList(ctx, hc.RemoteID)
	if err != nil {
		return remoteErr("hostinterface.get", hc.RemoteID, err)
	}

	byID, claimed := r.link(hc, remote)

	if r.mainMoved(hc, byID) {
		return r.replaceAll(ctx, hc, len(remote)-len(claimed))
	}

	for i := range hc.Interfaces {
		ic := &hc.Interfaces[i]

		if ic.RemoteID == 0 {
			id, err := r.api.InterfaceCreate(ctx, r.builder.BuildInterface(hc, ic))
			if err != nil {
				return remoteErr("hostinterface.create", hc.RemoteID, err)
			}

			ic.RemoteID = id

			r.logger.Info().
				Str("host", hc.Host).
				Str("interface", ic.Name).
				Int64("interfaceid", id).
				Msg("Created remote interface")

			continue
		}

		if interfaceAligned(ic, byID[ic.RemoteID]) {
			continue
		}

		if err := r.api.InterfaceUpdate(ctx, r.builder.BuildInterface(hc, ic)); err != nil {
			return remoteErr("hostinterface.update", hc.RemoteID, err)
		}

		r.logger.Debug().
			Str("host", hc.Host).
			Str("interface", ic.Name).
			Int64("interfaceid", ic.RemoteID).
			Msg("Realigned remote interface")
	}

	for i := range remote {
		if id := remote[i].InterfaceID.Int64(); !claimed[id] {
			r.logger.Debug().
				Str("host", hc.Host).
				Int64("interfaceid", id).
				Msg("Remote interface has no local record; leaving it in place")
		}
	}

	return nil
}

// link verifies stored interface links and claims unlinked remote
// interfaces that match a local record by family and address.
func (r *InterfaceReconciler) link(hc *models.HostConfiguration, remote []zabbix.Interface) (map[int64]*zabbix.Interface, map[int64]bool) {
	byID := make(map[int64]*zabbix.Interface, len(remote))
	for i := range remote {
		byID[remote[i].InterfaceID.Int64()] = &remote[i]
	}

	claimed := make(map[int64]bool, len(remote))

	for i := range hc.Interfaces {
		ic := &hc.Interfaces[i]
		if ic.RemoteID == 0 {
			continue
		}

		if _, ok := byID[ic.RemoteID]; !ok {
			r.logger.Warn().
				Str("host", hc.Host).
				Str("interface", ic.Name).
				Int64("interfaceid", ic.RemoteID).
				Msg("Linked remote interface vanished; relinking")

			ic.RemoteID = 0

			continue
		}

		claimed[ic.RemoteID] = true
	}

	for i := range hc.Interfaces {
		ic := &hc.Interfaces[i]
		if ic.RemoteID != 0 {
			continue
		}

		for j := range remote {
			candidate := &remote[j]
			id := candidate.InterfaceID.Int64()

			if claimed[id] || !sameFamilyAndAddress(ic, candidate) {
				continue
			}

			ic.RemoteID = id
			claimed[id] = true

			r.logger.Debug().
				Str("host", hc.Host).
				Str("interface", ic.Name).
				Int64("interfaceid", id).
				Msg("Linked remote interface by address")

			break
		}
	}

	return byID, claimed
}

// mainMoved reports whether any linked interface needs its main flag
// flipped remotely.
func (r *InterfaceReconciler) mainMoved(hc *models.HostConfiguration, byID map[int64]*zabbix.Interface) bool {
	for i := range hc.Interfaces {
		ic := &hc.Interfaces[i]
		if ic.RemoteID == 0 {
			continue
		}

		if cur, ok := byID[ic.RemoteID]; ok && boolFlag(ic.Main) != normalizeNum(cur.Main) {
			return true
		}
	}

	return false
}

// replaceAll pushes the full desired interface set in one host.update.
// The server validates one main per protocol family on every single
// interface write, so moving the flag needs the whole set in one call.
// The call replaces the remote set, deleting anything absent from it, so
// it is refused while unmanaged remote interfaces exist.
func (r *InterfaceReconciler) replaceAll(ctx context.Context, hc *models.HostConfiguration, unmanaged int) error {
	if unmanaged > 0 {
		return fmt.Errorf("%w: host %q has %d", ErrUnmanagedInterfaces, hc.Host, unmanaged)
	}

	params := &zabbix.HostParams{HostID: zabbix.ID(hc.RemoteID)}
	for i := range hc.Interfaces {
		params.Interfaces = append(params.Interfaces, *r.builder.BuildInterface(hc, &hc.Interfaces[i]))
	}

	if err := r.api.HostUpdate(ctx, params); err != nil {
		return remoteErr("host.update", hc.RemoteID, err)
	}

	r.logger.Info().
		Str("host", hc.Host).
		Int("interfaces", len(hc.Interfaces)).
		Msg("Replaced remote interface set to move main flag")

	// Entries that carried no interfaceid were created fresh by the
	// replace; re-list to learn their identifiers.
	remote, err := r.api.InterfaceList(ctx, hc.RemoteID)
	if err != nil {
		return remoteErr("hostinterface.get", hc.RemoteID, err)
	}

	r.link(hc, remote)

	return nil
}

// sameFamilyAndAddress matches a local record to a remote interface by
// protocol family plus either IP or DNS name.
func sameFamilyAndAddress(ic *models.InterfaceConfiguration, remote *zabbix.Interface) bool {
	if itoa(int64(ic.Type)) != normalizeNum(remote.Type) {
		return false
	}

	if ic.IP != "" && ic.IP == remote.IP {
		return true
	}

	return ic.DNS != "" && ic.DNS == remote.DNS
}

// interfaceAligned reports whether the remote interface already matches
// the local record. SNMP passphrases never come back from the server and
// are not compared.
func interfaceAligned(ic *models.InterfaceConfiguration, remote *zabbix.Interface) bool {
	if remote == nil {
		return false
	}

	if boolFlag(ic.Main) != normalizeNum(remote.Main) ||
		itoa(int64(ic.ConnectVia)) != normalizeNum(remote.UseIP) ||
		ic.IP != remote.IP || ic.DNS != remote.DNS || ic.Port != remote.Port {
		return false
	}

	if ic.SNMP == nil {
		return true
	}

	if remote.Details == nil {
		return false
	}

	if itoa(int64(ic.SNMP.Version)) != remote.Details.Version ||
		boolFlag(ic.SNMP.Bulk) != normalizeNum(remote.Details.Bulk) {
		return false
	}

	if ic.SNMP.Version != models.SNMPv3 && ic.SNMP.Community != remote.Details.Community {
		return false
	}

	return true
}
