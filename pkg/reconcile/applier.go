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
	"sort"
	"strings"

	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/mapping"
	"github.com/monbridge/monbridge/pkg/models"
)

// Applier folds a mapping rule and the engine's projection settings into a
// host configuration. It mutates only the local record and never calls the
// remote side; repeated application of the same inputs is a no-op.
type Applier struct {
	cfg    *models.EngineConfig
	logger logger.Logger
}

// NewApplier builds an applier over the given engine settings.
func NewApplier(cfg *models.EngineConfig, log logger.Logger) *Applier {
	return &Applier{cfg: cfg, logger: log}
}

// Apply merges the rule's assignments into the configuration. Group and
// template assignments are additive: identifiers added locally survive a
// re-apply. The proxy assignment follows the rule unless override pins the
// monitored-by mode, in which case an already-set selector is kept.
func (a *Applier) Apply(hc *models.HostConfiguration, rule *models.MappingRule, override *models.MonitoredBy) {
	hc.GroupIDs = mergeIDs(hc.GroupIDs, rule.HostGroupIDs)
	hc.TemplateIDs = mergeIDs(hc.TemplateIDs, rule.TemplateIDs)

	mode := rule.MonitoredByMode()
	if override != nil {
		mode = *override
	}

	switch mode {
	case models.MonitoredByServer:
		hc.MonitoredBy = models.MonitoredByServer
		hc.ProxyID = 0
		hc.ProxyGroupID = 0
	case models.MonitoredByProxy:
		hc.MonitoredBy = models.MonitoredByProxy
		hc.ProxyGroupID = 0

		if override == nil || hc.ProxyID == 0 {
			hc.ProxyID = rule.ProxyID
		}
	case models.MonitoredByProxyGroup:
		hc.MonitoredBy = models.MonitoredByProxyGroup
		hc.ProxyID = 0

		if override == nil || hc.ProxyGroupID == 0 {
			hc.ProxyGroupID = rule.ProxyGroupID
		}
	}
}

// ProjectMappings renders the configured tag and inventory-field mappings
// of the inventory object into the configuration. A projected name owns
// its value: stale projections are replaced. Tags and inventory keys the
// operator added locally under other names survive.
func (a *Applier) ProjectMappings(hc *models.HostConfiguration, obj *models.InventoryObject) {
	a.projectTags(hc, obj)
	a.projectInventory(hc, obj)
}

func (a *Applier) projectTags(hc *models.HostConfiguration, obj *models.InventoryObject) {
	projected := make([]models.HostTag, 0, len(a.cfg.TagMappings)+1)
	owned := make(map[string]struct{}, len(a.cfg.TagMappings)+1)

	if a.cfg.DefaultTag != "" {
		name := a.tagName(a.cfg.DefaultTag)
		owned[name] = struct{}{}
		projected = append(projected, models.HostTag{Tag: name, Value: "true"})
	}

	for _, fm := range a.cfg.TagMappings {
		name := a.tagName(fm.Name)
		owned[name] = struct{}{}

		value := mapping.FirstNonEmpty(obj, fm.Paths)
		if value == "" {
			continue
		}

		projected = append(projected, models.HostTag{Tag: name, Value: value})
	}

	for _, tag := range hc.Tags {
		if _, ok := owned[tag.Tag]; !ok {
			projected = append(projected, tag)
		}
	}

	sort.Slice(projected, func(i, j int) bool {
		if projected[i].Tag != projected[j].Tag {
			return projected[i].Tag < projected[j].Tag
		}

		return projected[i].Value < projected[j].Value
	})

	if len(projected) == 0 {
		projected = nil
	}

	hc.Tags = projected
}

func (a *Applier) projectInventory(hc *models.HostConfiguration, obj *models.InventoryObject) {
	if len(a.cfg.InventoryMappings) == 0 {
		return
	}

	out := make(map[string]string, len(hc.Inventory)+len(a.cfg.InventoryMappings))
	for k, v := range hc.Inventory {
		out[k] = v
	}

	for _, fm := range a.cfg.InventoryMappings {
		value := mapping.FirstNonEmpty(obj, fm.Paths)
		if value == "" {
			// The field is owned by the mapping; an attribute that
			// resolved once and later emptied clears it.
			delete(out, fm.Name)
			continue
		}

		out[fm.Name] = value
	}

	if len(out) == 0 {
		out = nil
	}

	hc.Inventory = out
}

// tagName applies the configured prefix and case format to a tag name.
func (a *Applier) tagName(name string) string {
	full := a.cfg.TagPrefix + name

	switch a.cfg.TagNameFormat {
	case models.TagFormatLower:
		return strings.ToLower(full)
	case models.TagFormatUpper:
		return strings.ToUpper(full)
	default:
		return full
	}
}

// AssignAddresses materializes the connection address and port of every
// interface from the inventory object, honoring the configured IP
// assignment policy. Interfaces referencing a vanished network interface
// are left untouched; validation rejects them afterwards.
func (a *Applier) AssignAddresses(hc *models.HostConfiguration, obj *models.InventoryObject) {
	for i := range hc.Interfaces {
		ic := &hc.Interfaces[i]

		if ic.Port == "" {
			ic.Port = a.defaultPort(ic.Type)
		}

		nic := obj.Interface(ic.NICID)
		if nic == nil {
			continue
		}

		addr := a.pickAddress(ic, nic, obj)
		if addr == nil {
			continue
		}

		ic.IPAddressID = addr.ID
		ic.IP = addr.BareIP()
		ic.DNS = addr.DNSName
	}
}

// pickAddress chooses the address an interface connects to. An explicit
// IP reference on the interface wins; otherwise the primary IP is used
// when the policy prefers it and the NIC carries it, falling back to the
// NIC's first address.
func (a *Applier) pickAddress(ic *models.InterfaceConfiguration, nic *models.NetworkInterface, obj *models.InventoryObject) *models.IPAddress {
	if ic.IPAddressID != 0 {
		for i := range nic.Addresses {
			if nic.Addresses[i].ID == ic.IPAddressID {
				return &nic.Addresses[i]
			}
		}
	}

	if a.cfg.IPAssignment == models.IPAssignPrimary && obj.PrimaryIP != nil && nic.HasAddress(obj.PrimaryIP.ID) {
		return obj.PrimaryIP
	}

	if len(nic.Addresses) > 0 {
		return &nic.Addresses[0]
	}

	return nil
}

func (a *Applier) defaultPort(t models.InterfaceType) string {
	if t == models.InterfaceTypeSNMP {
		return a.cfg.SNMPPort
	}

	return a.cfg.AgentPort
}

// mergeIDs unions two ID lists into a sorted, deduplicated slice. The
// deterministic order keeps repeated merges stable.
func mergeIDs(existing, add []int64) []int64 {
	if len(existing) == 0 && len(add) == 0 {
		return existing
	}

	seen := make(map[int64]struct{}, len(existing)+len(add))
	out := make([]int64, 0, len(existing)+len(add))

	for _, list := range [][]int64{existing, add} {
		for _, id := range list {
			if id == 0 {
				continue
			}

			if _, ok := seen[id]; ok {
				continue
			}

			seen[id] = struct{}{}
			out = append(out, id)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}
