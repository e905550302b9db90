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

// Package reconcile drives monitored hosts toward the desired state
// derived from inventory objects and mapping rules. The orchestrator owns
// the provisioning, update, delete, and import flows. Local state changes
// ride in one store transaction per invocation; remote calls are not
// transactional and are compensated explicitly.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/monbridge/monbridge/pkg/db"
	"github.com/monbridge/monbridge/pkg/inventory"
	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/mapping"
	"github.com/monbridge/monbridge/pkg/models"
	"github.com/monbridge/monbridge/pkg/zabbix"
)

var (
	errNoStore     = errors.New("store is required")
	errNoRemote    = errors.New("remote client is required")
	errNoInventory = errors.New("inventory provider is required")
	errNoEngine    = errors.New("engine config is required")
	errNoLogger    = errors.New("logger is required")
)

// Flow outcomes as recorded against Metrics.
const (
	outcomeCreated  = "created"
	outcomeUpdated  = "updated"
	outcomeSynced   = "synced"
	outcomeSkipped  = "skipped"
	outcomeDeleted  = "deleted"
	outcomeImported = "imported"
	outcomeFailed   = "failed"
)

const statusActive = "active"

// Deps carries the orchestrator's collaborators. Store, Remote,
// Inventory, Engine, and Logger are required; the rest default to no-ops
// (Audit, Metrics) or are skipped when absent (Catalog, Secrets,
// Preflight).
type Deps struct {
	Store     db.Service
	Remote    zabbix.API
	Inventory inventory.Provider
	Catalog   *zabbix.Catalog
	Audit     AuditSink
	Secrets   SecretSource
	Preflight InterfacePreflight
	Metrics   Metrics
	Engine    *models.EngineConfig
	Logger    logger.Logger
}

// Orchestrator coordinates the reconciliation flows. All methods are safe
// for concurrent use; per-record serialization is the job layer's duty.
type Orchestrator struct {
	store     db.Service
	remote    zabbix.API
	source    inventory.Provider
	catalog   *zabbix.Catalog
	audit     AuditSink
	preflight InterfacePreflight
	metrics   Metrics
	cfg       *models.EngineConfig
	applier   *Applier
	builder   *PayloadBuilder
	compare   *Comparator
	ifaces    *InterfaceReconciler
	logger    logger.Logger
	now       func() time.Time
}

// NewOrchestrator wires the reconciliation components. The engine config
// is validated and defaulted in place.
func NewOrchestrator(deps Deps) (*Orchestrator, error) {
	switch {
	case deps.Store == nil:
		return nil, errNoStore
	case deps.Remote == nil:
		return nil, errNoRemote
	case deps.Inventory == nil:
		return nil, errNoInventory
	case deps.Engine == nil:
		return nil, errNoEngine
	case deps.Logger == nil:
		return nil, errNoLogger
	}

	if err := deps.Engine.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}

	audit := deps.Audit
	if audit == nil {
		audit = nopAudit{}
	}

	metrics := deps.Metrics
	if metrics == nil {
		metrics = NoOpMetrics{}
	}

	builder := NewPayloadBuilder(deps.Secrets, deps.Logger)

	return &Orchestrator{
		store:     deps.Store,
		remote:    deps.Remote,
		source:    deps.Inventory,
		catalog:   deps.Catalog,
		audit:     audit,
		preflight: deps.Preflight,
		metrics:   metrics,
		cfg:       deps.Engine,
		applier:   NewApplier(deps.Engine, deps.Logger),
		builder:   builder,
		compare:   NewComparator(deps.Remote, deps.Logger),
		ifaces:    NewInterfaceReconciler(deps.Remote, builder, deps.Logger),
		logger:    deps.Logger,
		now:       time.Now,
	}, nil
}

// Provision creates a host configuration for an inventory object and the
// remote host backing it. An object that is already tracked is reconciled
// instead, and an excluded object returns (nil, nil). When any step after
// the remote create fails, the remote host is deleted again and the local
// transaction rolls back; the returned PartialProvisionError records
// whether that cleanup succeeded.
func (o *Orchestrator) Provision(ctx context.Context, ref models.ObjectRef, jobID string) (*models.HostConfiguration, error) {
	start := o.now()

	obj, err := o.source.GetObject(ctx, ref)
	if err != nil {
		o.metrics.RecordOperation(models.JobActionProvision, outcomeFailed, o.now().Sub(start))
		return nil, fmt.Errorf("fetch inventory object %s: %w", ref, err)
	}

	if o.excluded(obj) {
		o.logger.Info().Str("object", ref.String()).Msg("Object excluded from monitoring; skipping")
		o.metrics.RecordOperation(models.JobActionProvision, outcomeSkipped, o.now().Sub(start))

		return nil, nil
	}

	existing, err := o.store.GetHostConfigByObject(ctx, ref)

	switch {
	case err == nil:
		o.logger.Debug().Str("object", ref.String()).Msg("Object already tracked; reconciling instead")
		return o.Reconcile(ctx, existing.ID, jobID)
	case !errors.Is(err, db.ErrHostConfigNotFound):
		return nil, err
	}

	hc := o.newHostConfig(obj)

	if err := o.desire(ctx, hc, obj, nil); err != nil {
		o.metrics.RecordOperation(models.JobActionProvision, outcomeFailed, o.now().Sub(start))
		return nil, err
	}

	err = o.store.WithTx(ctx, func(tx db.Service) error {
		if err := tx.CreateHostConfig(ctx, hc); err != nil {
			return err
		}

		return o.provisionRemote(ctx, tx, hc, jobID)
	})
	if err != nil {
		o.metrics.RecordOperation(models.JobActionProvision, outcomeFailed, o.now().Sub(start))
		return nil, err
	}

	o.metrics.RecordOperation(models.JobActionProvision, outcomeCreated, o.now().Sub(start))

	return hc, nil
}

// Reconcile drives one tracked record toward its desired state: the
// mapping is re-applied, the remote state compared, and a divergent
// remote host updated. A record without a remote host is provisioned. A
// stale remote ID surfaces as ErrRemoteHostNotFound and is never healed
// by recreating the host.
func (o *Orchestrator) Reconcile(ctx context.Context, id uuid.UUID, jobID string) (*models.HostConfiguration, error) {
	start := o.now()

	hc, err := o.store.GetHostConfig(ctx, id)
	if err != nil {
		return nil, err
	}

	outcome, err := o.reconcileRecord(ctx, hc, jobID)
	if err != nil {
		o.metrics.RecordOperation(models.JobActionUpdate, outcomeFailed, o.now().Sub(start))
		return nil, err
	}

	o.metrics.RecordOperation(models.JobActionUpdate, outcome, o.now().Sub(start))

	return hc, nil
}

func (o *Orchestrator) reconcileRecord(ctx context.Context, hc *models.HostConfiguration, jobID string) (string, error) {
	obj, err := o.source.GetObject(ctx, hc.ObjectRef)
	if err != nil {
		return "", fmt.Errorf("fetch inventory object %s: %w", hc.ObjectRef, err)
	}

	if o.excluded(obj) {
		o.logger.Info().Str("host", hc.Host).Msg("Object excluded from monitoring; leaving record untouched")
		return outcomeSkipped, nil
	}

	if err := o.desire(ctx, hc, obj, nil); err != nil {
		return "", err
	}

	if !hc.Provisioned() {
		err := o.store.WithTx(ctx, func(tx db.Service) error {
			return o.provisionRemote(ctx, tx, hc, jobID)
		})
		if err != nil {
			return "", err
		}

		return outcomeCreated, nil
	}

	result, preImage, err := o.compare.Compare(ctx, hc)
	if err != nil {
		return "", err
	}

	if result.Equal() && !needsInterfaceLink(hc) {
		err := o.store.WithTx(ctx, func(tx db.Service) error {
			hc.InSync = true
			hc.LastSyncCheck = result.CheckedAt

			return tx.UpdateHostConfig(ctx, hc)
		})
		if err != nil {
			return "", err
		}

		return outcomeSynced, nil
	}

	params, err := o.builder.BuildHost(hc, true, preImage)
	if err != nil {
		return "", err
	}

	err = o.store.WithTx(ctx, func(tx db.Service) error {
		if !result.Equal() {
			if err := o.remote.HostUpdate(ctx, params); err != nil {
				return remoteErr("host.update", hc.RemoteID, err)
			}
		}

		if err := o.ifaces.Reconcile(ctx, hc); err != nil {
			return err
		}

		hc.InSync = true
		hc.LastSyncCheck = o.now()

		if err := tx.UpdateHostConfig(ctx, hc); err != nil {
			return err
		}

		if fields := result.Fields(); len(fields) > 0 {
			o.auditEvent(ctx, hc, models.HostActionUpdated, fields)
		}

		return o.linkJob(ctx, tx, hc, jobID, models.JobActionUpdate)
	})
	if err != nil {
		return "", err
	}

	return outcomeUpdated, nil
}

// Delete removes a host configuration and its remote host. An active
// maintenance window covering the host refuses the deletion before
// anything is mutated. Remote removal honors the configured delete mode
// and is best-effort: a remote failure is logged and the local record
// still goes away.
func (o *Orchestrator) Delete(ctx context.Context, id uuid.UUID, jobID string) error {
	start := o.now()

	hc, err := o.store.GetHostConfig(ctx, id)
	if err != nil {
		return err
	}

	obj, err := o.source.GetObject(ctx, hc.ObjectRef)
	if err != nil {
		if !errors.Is(err, inventory.ErrObjectNotFound) {
			return fmt.Errorf("fetch inventory object %s: %w", hc.ObjectRef, err)
		}

		// Decommissioned upstream; maintenance coverage loses only the
		// site and cluster dimensions.
		obj = nil
	}

	windows, err := o.store.ListMaintenance(ctx)
	if err != nil {
		return err
	}

	now := o.now()
	for _, w := range windows {
		if w.ActiveAt(now) && w.Covers(hc, obj) {
			o.metrics.RecordOperation(models.JobActionDelete, outcomeFailed, o.now().Sub(start))

			return fmt.Errorf("%w: host %q, window %q active until %s",
				ErrMaintenanceConflict, hc.Host, w.Name, w.EndsAt.Format(time.RFC3339))
		}
	}

	err = o.store.WithTx(ctx, func(tx db.Service) error {
		o.removeRemote(ctx, hc)

		if err := tx.DeleteHostConfig(ctx, hc.ID); err != nil {
			return err
		}

		o.auditEvent(ctx, hc, models.HostActionDeleted, nil)

		return o.linkJob(ctx, tx, hc, jobID, models.JobActionDelete)
	})
	if err != nil {
		o.metrics.RecordOperation(models.JobActionDelete, outcomeFailed, o.now().Sub(start))
		return err
	}

	o.metrics.RecordOperation(models.JobActionDelete, outcomeDeleted, o.now().Sub(start))

	return nil
}

// removeRemote retires the remote host per the configured delete mode.
// Soft mode renames the host with the graveyard suffix, disables it, and
// moves it to the graveyard group; hard mode deletes it.
func (o *Orchestrator) removeRemote(ctx context.Context, hc *models.HostConfiguration) {
	if !hc.Provisioned() {
		return
	}

	var err error

	if o.cfg.DeleteMode == models.DeleteModeHard {
		err = o.remote.HostDelete(ctx, hc.RemoteID)
	} else {
		err = o.remote.HostUpdate(ctx, &zabbix.HostParams{
			HostID: zabbix.ID(hc.RemoteID),
			Host:   hc.Host + o.cfg.GraveyardSuffix,
			Status: itoa(int64(models.HostStatusDisabled)),
			Groups: []zabbix.GroupRef{{GroupID: zabbix.ID(o.cfg.GraveyardGroupID)}},
		})
	}

	switch {
	case err == nil:
		o.logger.Info().
			Str("host", hc.Host).
			Int64("hostid", hc.RemoteID).
			Str("mode", string(o.cfg.DeleteMode)).
			Msg("Retired remote host")
	case zabbix.IsNotFound(err):
		o.logger.Debug().
			Str("host", hc.Host).
			Int64("hostid", hc.RemoteID).
			Msg("Remote host already gone")
	default:
		o.metrics.RecordRemoteCleanupFailure()
		o.logger.Warn().Err(err).
			Str("host", hc.Host).
			Int64("hostid", hc.RemoteID).
			Msg("Remote removal failed; deleting local record anyway")
	}
}

// ImportHost adopts a pre-existing remote host whose technical name
// matches the inventory object instead of creating a duplicate. Without a
// name match it falls through to Provision. The adopted host predates
// this record, so a failed import rolls back locally but never deletes
// the remote host.
func (o *Orchestrator) ImportHost(ctx context.Context, ref models.ObjectRef, jobID string) (*models.HostConfiguration, error) {
	start := o.now()

	obj, err := o.source.GetObject(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch inventory object %s: %w", ref, err)
	}

	if o.excluded(obj) {
		o.logger.Info().Str("object", ref.String()).Msg("Object excluded from monitoring; skipping")
		o.metrics.RecordOperation(models.JobActionProvision, outcomeSkipped, o.now().Sub(start))

		return nil, nil
	}

	existing, err := o.store.GetHostConfigByObject(ctx, ref)

	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, db.ErrHostConfigNotFound):
		return nil, err
	}

	remoteHost, err := o.remote.HostGetByName(ctx, obj.Name)
	if err != nil {
		if zabbix.IsNotFound(err) {
			o.logger.Debug().Str("object", ref.String()).Msg("No remote host to adopt; provisioning")
			return o.Provision(ctx, ref, jobID)
		}

		o.metrics.RecordOperation(models.JobActionProvision, outcomeFailed, o.now().Sub(start))

		return nil, &RemoteError{Op: "host.get", Err: err}
	}

	hc := o.newHostConfig(obj)
	hc.RemoteID = remoteHost.HostID.Int64()
	adoptRemoteState(hc, remoteHost)

	if err := o.desire(ctx, hc, obj, nil); err != nil {
		o.metrics.RecordOperation(models.JobActionProvision, outcomeFailed, o.now().Sub(start))
		return nil, err
	}

	err = o.store.WithTx(ctx, func(tx db.Service) error {
		if err := tx.CreateHostConfig(ctx, hc); err != nil {
			return err
		}

		if err := o.ifaces.Reconcile(ctx, hc); err != nil {
			return err
		}

		if err := tx.UpdateHostConfig(ctx, hc); err != nil {
			return err
		}

		o.auditEvent(ctx, hc, models.HostActionImported, nil)

		return o.linkJob(ctx, tx, hc, jobID, models.JobActionProvision)
	})
	if err != nil {
		o.metrics.RecordOperation(models.JobActionProvision, outcomeFailed, o.now().Sub(start))
		return nil, err
	}

	o.logger.Info().
		Str("host", hc.Host).
		Int64("hostid", hc.RemoteID).
		Msg("Adopted pre-existing remote host")
	o.metrics.RecordOperation(models.JobActionProvision, outcomeImported, o.now().Sub(start))

	return hc, nil
}

// Compare returns the current local-vs-remote differences of a record
// without mutating either side.
func (o *Orchestrator) Compare(ctx context.Context, id uuid.UUID) (*CompareResult, error) {
	hc, err := o.store.GetHostConfig(ctx, id)
	if err != nil {
		return nil, err
	}

	result, _, err := o.compare.Compare(ctx, hc)

	return result, err
}

// provisionRemote creates the remote host for hc and persists the learned
// identifiers. Runs inside the caller's transaction; the local row for hc
// must already exist. Failures after the remote create unwind it.
func (o *Orchestrator) provisionRemote(ctx context.Context, tx db.Service, hc *models.HostConfiguration, jobID string) error {
	o.runPreflight(ctx, hc)

	params, err := o.builder.BuildHost(hc, false, nil)
	if err != nil {
		return err
	}

	remoteID, err := o.remote.HostCreate(ctx, params)
	if err != nil {
		return &RemoteError{Op: "host.create", Err: err}
	}

	hc.RemoteID = remoteID

	o.logger.Info().
		Str("host", hc.Host).
		Int64("hostid", remoteID).
		Msg("Created remote host")

	if err := o.ifaces.Reconcile(ctx, hc); err != nil {
		return o.unwindCreate(ctx, hc, err)
	}

	hc.InSync = true
	hc.LastSyncCheck = o.now()

	if err := tx.UpdateHostConfig(ctx, hc); err != nil {
		return o.unwindCreate(ctx, hc, err)
	}

	o.auditEvent(ctx, hc, models.HostActionCreated, nil)

	if err := o.linkJob(ctx, tx, hc, jobID, models.JobActionProvision); err != nil {
		return o.unwindCreate(ctx, hc, err)
	}

	return nil
}

// unwindCreate deletes the remote host a failed creation flow left behind
// and wraps the cause. The caller's transaction rolls the local side back.
func (o *Orchestrator) unwindCreate(ctx context.Context, hc *models.HostConfiguration, cause error) error {
	perr := &PartialProvisionError{Host: hc.Host, RemoteID: hc.RemoteID, Err: cause}

	if err := o.remote.HostDelete(ctx, hc.RemoteID); err != nil && !zabbix.IsNotFound(err) {
		perr.CleanupErr = err
		o.metrics.RecordRemoteCleanupFailure()
		o.logger.Error().Err(err).
			Str("host", hc.Host).
			Int64("hostid", hc.RemoteID).
			Msg("Cleanup delete failed; remote host orphaned")
	} else {
		o.logger.Warn().
			Str("host", hc.Host).
			Int64("hostid", hc.RemoteID).
			Msg("Removed remote host after failed provisioning")
	}

	hc.RemoteID = 0

	return perr
}

// desire recomputes the full desired state of hc from the inventory
// object and the stored rule set, then validates it.
func (o *Orchestrator) desire(ctx context.Context, hc *models.HostConfiguration, obj *models.InventoryObject, override *models.MonitoredBy) error {
	rules, err := o.store.ListRules(ctx)
	if err != nil {
		return fmt.Errorf("load mapping rules: %w", err)
	}

	rule, err := mapping.NewMatcher(rules, o.logger).Match(obj, requestFilter(hc))
	if err != nil {
		return err
	}

	o.applier.Apply(hc, rule, override)
	o.applier.ProjectMappings(hc, obj)
	o.applier.AssignAddresses(hc, obj)

	o.warnDanglingRefs(ctx, hc)

	if err := hc.Validate(); err != nil {
		return err
	}

	for i := range hc.Interfaces {
		if err := hc.Interfaces[i].ValidateAgainst(obj); err != nil {
			return err
		}
	}

	return nil
}

// newHostConfig seeds a configuration from an inventory object: technical
// name, lifecycle status, and one main agent interface on the NIC holding
// the primary IP when one exists.
func (o *Orchestrator) newHostConfig(obj *models.InventoryObject) *models.HostConfiguration {
	hc := &models.HostConfiguration{
		ID:            uuid.New(),
		ObjectRef:     obj.Ref,
		Host:          obj.Name,
		Description:   obj.Description,
		InventoryMode: o.cfg.InventoryMode,
	}

	if obj.Status != statusActive {
		hc.Status = models.HostStatusDisabled
	}

	if nic := pickNIC(obj); nic != nil {
		hc.Interfaces = []models.InterfaceConfiguration{{
			ID:           uuid.New(),
			HostConfigID: hc.ID,
			Name:         nic.Name,
			Type:         models.InterfaceTypeAgent,
			Main:         true,
			ConnectVia:   models.ConnectViaIP,
			NICID:        nic.ID,
		}}
	} else {
		o.logger.Debug().
			Str("object", obj.Ref.String()).
			Msg("No usable network interface; provisioning without interfaces")
	}

	return hc
}

// pickNIC prefers the NIC carrying the primary IP, then the first
// non-management NIC with an address.
func pickNIC(obj *models.InventoryObject) *models.NetworkInterface {
	if obj.PrimaryIP != nil {
		for i := range obj.Interfaces {
			if obj.Interfaces[i].HasAddress(obj.PrimaryIP.ID) {
				return &obj.Interfaces[i]
			}
		}
	}

	for i := range obj.Interfaces {
		nic := &obj.Interfaces[i]
		if !nic.MgmtOnly && len(nic.Addresses) > 0 {
			return nic
		}
	}

	return nil
}

// adoptRemoteState folds the adopted host's assignments into a fresh
// configuration. Groups and templates merge additively; the mapping rule
// applied afterwards decides everything else.
func adoptRemoteState(hc *models.HostConfiguration, remote *zabbix.Host) {
	ids := make([]int64, 0, len(remote.Groups))
	for _, g := range remote.Groups {
		ids = append(ids, g.GroupID.Int64())
	}

	hc.GroupIDs = mergeIDs(hc.GroupIDs, ids)

	ids = ids[:0]
	for _, t := range remote.ParentTemplates {
		ids = append(ids, t.TemplateID.Int64())
	}

	hc.TemplateIDs = mergeIDs(hc.TemplateIDs, ids)

	if v, err := strconv.ParseInt(remote.Status, 10, 64); err == nil {
		hc.Status = models.HostStatus(v)
	}

	if remote.Name != "" && remote.Name != remote.Host {
		hc.VisibleName = remote.Name
	}
}

// requestFilter derives the interface filter a rule match runs under from
// the host's main interfaces, preferring SNMP when both families exist.
func requestFilter(hc *models.HostConfiguration) models.InterfaceFilter {
	if hc.MainInterface(models.InterfaceTypeSNMP) != nil {
		return models.InterfaceFilterSNMP
	}

	if hc.MainInterface(models.InterfaceTypeAgent) != nil {
		return models.InterfaceFilterAgent
	}

	return models.InterfaceFilterAny
}

// needsInterfaceLink reports whether any local interface still lacks its
// remote identifier.
func needsInterfaceLink(hc *models.HostConfiguration) bool {
	for i := range hc.Interfaces {
		if hc.Interfaces[i].RemoteID == 0 {
			return true
		}
	}

	return false
}

// excluded honors the configured exclusion custom field on the inventory
// object. Exclusion skips work; it is never an error.
func (o *Orchestrator) excluded(obj *models.InventoryObject) bool {
	if !o.cfg.ExcludeEnabled || o.cfg.ExcludeField == "" {
		return false
	}

	return fieldTruthy(obj.CustomFields[o.cfg.ExcludeField])
}

func fieldTruthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch t {
		case "true", "yes", "on", "1":
			return true
		}

		return false
	case float64:
		return t != 0
	case int64:
		return t != 0
	case int:
		return t != 0
	default:
		return false
	}
}

// warnDanglingRefs logs rule assignments that reference objects the
// remote side does not know. Lookups ride the shared catalog cache; a
// cold catalog that cannot be filled is skipped, the write call will
// surface the real error.
func (o *Orchestrator) warnDanglingRefs(ctx context.Context, hc *models.HostConfiguration) {
	if o.catalog == nil {
		return
	}

	if groups, err := o.catalog.Groups(ctx); err == nil {
		o.warnMissing(hc, "groupid", hc.GroupIDs, groupIDSet(groups))
	}

	if templates, err := o.catalog.Templates(ctx); err == nil {
		o.warnMissing(hc, "templateid", hc.TemplateIDs, templateIDSet(templates))
	}

	if hc.MonitoredBy == models.MonitoredByProxy {
		if proxies, err := o.catalog.Proxies(ctx); err == nil {
			o.warnMissing(hc, "proxyid", []int64{hc.ProxyID}, proxyIDSet(proxies))
		}
	}

	if hc.MonitoredBy == models.MonitoredByProxyGroup {
		if groups, err := o.catalog.ProxyGroups(ctx); err == nil {
			o.warnMissing(hc, "proxy_groupid", []int64{hc.ProxyGroupID}, proxyGroupIDSet(groups))
		}
	}
}

func (o *Orchestrator) warnMissing(hc *models.HostConfiguration, kind string, ids []int64, known map[int64]struct{}) {
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			o.logger.Warn().
				Str("host", hc.Host).
				Int64(kind, id).
				Msg("Assigned identifier does not exist remotely")
		}
	}
}

func groupIDSet(groups []zabbix.HostGroup) map[int64]struct{} {
	out := make(map[int64]struct{}, len(groups))
	for _, g := range groups {
		out[g.GroupID.Int64()] = struct{}{}
	}

	return out
}

func templateIDSet(templates []zabbix.Template) map[int64]struct{} {
	out := make(map[int64]struct{}, len(templates))
	for _, t := range templates {
		out[t.TemplateID.Int64()] = struct{}{}
	}

	return out
}

func proxyIDSet(proxies []zabbix.Proxy) map[int64]struct{} {
	out := make(map[int64]struct{}, len(proxies))
	for _, p := range proxies {
		out[p.ProxyID.Int64()] = struct{}{}
	}

	return out
}

func proxyGroupIDSet(groups []zabbix.ProxyGroup) map[int64]struct{} {
	out := make(map[int64]struct{}, len(groups))
	for _, g := range groups {
		out[g.ProxyGroupID.Int64()] = struct{}{}
	}

	return out
}

// runPreflight probes SNMP interfaces before their remote creation.
// Probe failures warn; unreachable devices still get provisioned.
func (o *Orchestrator) runPreflight(ctx context.Context, hc *models.HostConfiguration) {
	if o.preflight == nil {
		return
	}

	for i := range hc.Interfaces {
		ic := &hc.Interfaces[i]
		if ic.SNMP == nil {
			continue
		}

		if err := o.preflight.CheckInterface(ctx, ic); err != nil {
			o.logger.Warn().Err(err).
				Str("host", hc.Host).
				Str("interface", ic.Name).
				Msg("SNMP preflight failed; provisioning anyway")
		}
	}
}

func (o *Orchestrator) auditEvent(ctx context.Context, hc *models.HostConfiguration, action models.HostAction, fields []string) {
	event := &models.HostEventData{
		HostConfigID:  hc.ID,
		ObjectRef:     hc.ObjectRef,
		RemoteID:      hc.RemoteID,
		Host:          hc.Host,
		Action:        action,
		ChangedFields: fields,
		Timestamp:     o.now(),
	}

	switch action {
	case models.HostActionCreated, models.HostActionImported:
		o.audit.LogCreationEvent(ctx, event)
	default:
		o.audit.LogUpdateEvent(ctx, event)
	}
}

func (o *Orchestrator) linkJob(ctx context.Context, tx db.Service, hc *models.HostConfiguration, jobID string, action models.JobAction) error {
	if jobID == "" {
		return nil
	}

	return tx.LinkJob(ctx, &models.JobLink{JobID: jobID, HostConfigID: hc.ID, Action: action})
}

type nopAudit struct{}

func (nopAudit) LogCreationEvent(context.Context, *models.HostEventData) {}
func (nopAudit) LogUpdateEvent(context.Context, *models.HostEventData)   {}
