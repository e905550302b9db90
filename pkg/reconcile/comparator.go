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
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/models"
	"github.com/monbridge/monbridge/pkg/zabbix"
)

// FieldDiff is one divergent field in normalized string form.
type FieldDiff struct {
	Local  string `json:"local"`
	Remote string `json:"remote"`
}

// CompareResult is the outcome of one local-vs-remote comparison.
type CompareResult struct {
	Differences map[string]FieldDiff `json:"differences,omitempty"`
	CheckedAt   time.Time            `json:"checked_at"`
}

// Equal reports whether no managed field diverges.
func (r *CompareResult) Equal() bool {
	return len(r.Differences) == 0
}

// Fields returns the divergent field names in sorted order.
func (r *CompareResult) Fields() []string {
	out := make([]string, 0, len(r.Differences))
	for field := range r.Differences {
		out = append(out, field)
	}

	sort.Strings(out)

	return out
}

// Comparator fetches the remote state of a host and diffs it against the
// local desired state. Both sides are normalized to the wire's string
// conventions before comparison, and neither side is ever mutated.
//
// Collections the local record leaves empty (templates, tags, macros,
// inventory, interfaces) are treated as unmanaged and skipped, matching
// what the payload builder can express on an update.
type Comparator struct {
	api    zabbix.API
	logger logger.Logger
	now    func() time.Time
}

// NewComparator builds a comparator over the given remote client.
func NewComparator(api zabbix.API, log logger.Logger) *Comparator {
	return &Comparator{api: api, logger: log, now: time.Now}
}

// Compare fetches the remote host behind hc.RemoteID and returns the
// field-level differences plus the fetched host as the pre-image for a
// subsequent update. A vanished remote host surfaces as
// ErrRemoteHostNotFound; it is never recreated from here.
func (c *Comparator) Compare(ctx context.Context, hc *models.HostConfiguration) (*CompareResult, *zabbix.Host, error) {
	if !hc.Provisioned() {
		return nil, nil, fmt.Errorf("%w: %q", ErrNotProvisioned, hc.Host)
	}

	remote, err := c.api.HostGet(ctx, hc.RemoteID)
	if err != nil {
		return nil, nil, remoteErr("host.get", hc.RemoteID, err)
	}

	result := &CompareResult{
		Differences: make(map[string]FieldDiff),
		CheckedAt:   c.now(),
	}

	diff := func(field, local, remoteValue string) {
		if local != remoteValue {
			result.Differences[field] = FieldDiff{Local: local, Remote: remoteValue}
		}
	}

	diff("host", hc.Host, remote.Host)
	diff("visible_name", visibleName(hc), remote.Name)
	diff("description", hc.Description, remote.Description)
	diff("status", itoa(int64(hc.Status)), normalizeNum(remote.Status))
	diff("monitored_by", itoa(int64(hc.MonitoredBy)), normalizeNum(remote.MonitoredBy))
	diff("proxy", localProxy(hc), itoa(remote.ProxyID.Int64()))
	diff("proxy_group", localProxyGroup(hc), itoa(remote.ProxyGroupID.Int64()))
	diff("inventory_mode", itoa(int64(hc.InventoryMode)), normalizeNum(remote.InventoryMode))
	diff("tls_connect", tlsString(hc.TLSConnect), normalizeTLS(remote.TLSConnect))
	diff("tls_accept", tlsString(hc.TLSAccept), normalizeTLS(remote.TLSAccept))

	diff("groups", joinIDs(hc.GroupIDs), joinGroupIDs(remote.Groups))

	if len(hc.TemplateIDs) > 0 {
		diff("templates", joinIDs(hc.TemplateIDs), joinTemplateIDs(remote.ParentTemplates))
	}

	if len(hc.Tags) > 0 {
		diff("tags", localTags(hc.Tags), remoteTags(remote.Tags))
	}

	if len(hc.Macros) > 0 {
		diff("macros", localMacros(hc.Macros), remoteMacros(remote.Macros))
	}

	if hc.InventoryMode != models.InventoryModeDisabled && len(hc.Inventory) > 0 {
		diff("inventory", canonicalMap(hc.Inventory), canonicalMap(remote.Inventory))
	}

	if len(hc.Interfaces) > 0 {
		diff("interfaces", localInterfaces(hc.Interfaces), remoteInterfaces(remote.Interfaces))
	}

	if !result.Equal() {
		c.logger.Debug().
			Str("host", hc.Host).
			Int64("hostid", hc.RemoteID).
			Strs("fields", result.Fields()).
			Msg("Host diverged from desired state")
	}

	return result, remote, nil
}

func localProxy(hc *models.HostConfiguration) string {
	if hc.MonitoredBy == models.MonitoredByProxy {
		return itoa(hc.ProxyID)
	}

	return "0"
}

func localProxyGroup(hc *models.HostConfiguration) string {
	if hc.MonitoredBy == models.MonitoredByProxyGroup {
		return itoa(hc.ProxyGroupID)
	}

	return "0"
}

// joinIDs renders an ID list sorted ascending, so ordering differences
// never count as drift.
func joinIDs(ids []int64) string {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = itoa(id)
	}

	return strings.Join(parts, ",")
}

func joinGroupIDs(groups []zabbix.HostGroup) string {
	ids := make([]int64, len(groups))
	for i, g := range groups {
		ids[i] = g.GroupID.Int64()
	}

	return joinIDs(ids)
}

func joinTemplateIDs(templates []zabbix.Template) string {
	ids := make([]int64, len(templates))
	for i, t := range templates {
		ids[i] = t.TemplateID.Int64()
	}

	return joinIDs(ids)
}

func localTags(tags []models.HostTag) string {
	pairs := make([]string, len(tags))
	for i, t := range tags {
		pairs[i] = t.Tag + "=" + t.Value
	}

	return joinSorted(pairs)
}

func remoteTags(tags []zabbix.Tag) string {
	pairs := make([]string, len(tags))
	for i, t := range tags {
		pairs[i] = t.Tag + "=" + t.Value
	}

	return joinSorted(pairs)
}

// Secret macro values never come back from the server, so macros compare
// by name and kind, with values counted for plain text macros only.
func localMacros(macros []models.HostMacro) string {
	pairs := make([]string, len(macros))

	for i, m := range macros {
		if m.Type == models.MacroTypeSecret {
			pairs[i] = m.Macro + ":secret"
		} else {
			pairs[i] = m.Macro + "=" + m.Value
		}
	}

	return joinSorted(pairs)
}

func remoteMacros(macros []zabbix.Macro) string {
	pairs := make([]string, len(macros))

	for i, m := range macros {
		if m.Type == "1" {
			pairs[i] = m.Macro + ":secret"
		} else {
			pairs[i] = m.Macro + "=" + m.Value
		}
	}

	return joinSorted(pairs)
}

// canonicalMap drops empty values: the server pads the inventory object
// with every unset field.
func canonicalMap(m map[string]string) string {
	pairs := make([]string, 0, len(m))

	for k, v := range m {
		if v == "" {
			continue
		}

		pairs = append(pairs, k+"="+v)
	}

	return joinSorted(pairs)
}

func localInterfaces(ifaces []models.InterfaceConfiguration) string {
	sigs := make([]string, len(ifaces))

	for i := range ifaces {
		ic := &ifaces[i]

		addr := ic.DNS
		if ic.ConnectVia == models.ConnectViaIP {
			addr = ic.IP
		}

		sig := fmt.Sprintf("type=%s main=%s useip=%s addr=%s port=%s",
			itoa(int64(ic.Type)), boolFlag(ic.Main), itoa(int64(ic.ConnectVia)), addr, ic.Port)

		if ic.SNMP != nil {
			sig += " snmp=" + itoa(int64(ic.SNMP.Version))
		}

		sigs[i] = sig
	}

	return joinSorted(sigs)
}

func remoteInterfaces(ifaces []zabbix.Interface) string {
	sigs := make([]string, len(ifaces))

	for i := range ifaces {
		iface := &ifaces[i]

		addr := iface.DNS
		if iface.UseIP == "1" {
			addr = iface.IP
		}

		sig := fmt.Sprintf("type=%s main=%s useip=%s addr=%s port=%s",
			normalizeNum(iface.Type), normalizeNum(iface.Main), normalizeNum(iface.UseIP), addr, iface.Port)

		if iface.Details != nil && iface.Details.Version != "" {
			sig += " snmp=" + iface.Details.Version
		}

		sigs[i] = sig
	}

	return joinSorted(sigs)
}

func joinSorted(parts []string) string {
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

func normalizeNum(s string) string {
	if s == "" {
		return "0"
	}

	return s
}
