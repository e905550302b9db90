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

package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/monbridge/monbridge/pkg/models"
)

// MemStore is an in-memory Service implementation. It backs unit tests and
// single-binary deployments without a Postgres cluster. Records are cloned
// on both read and write so callers never share memory with the store.
type MemStore struct {
	mu       sync.RWMutex
	hosts    map[uuid.UUID]*models.HostConfiguration
	byObject map[models.ObjectRef]uuid.UUID
	rules    map[uuid.UUID]*models.MappingRule
	windows  map[uuid.UUID]*models.MaintenanceWindow
	jobLinks []*models.JobLink

	// txMu serializes transactions; writes outside a transaction are not
	// isolated from a concurrent rollback.
	txMu sync.Mutex
}

var _ Service = (*MemStore)(nil)

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		hosts:    make(map[uuid.UUID]*models.HostConfiguration),
		byObject: make(map[models.ObjectRef]uuid.UUID),
		rules:    make(map[uuid.UUID]*models.MappingRule),
		windows:  make(map[uuid.UUID]*models.MaintenanceWindow),
	}
}

// Close is a no-op for the in-memory store.
func (s *MemStore) Close() {}

// CreateHostConfig inserts a host configuration. A zero ID is assigned.
func (s *MemStore) CreateHostConfig(_ context.Context, hc *models.HostConfiguration) error {
	if hc == nil {
		return ErrHostConfigNil
	}

	if hc.ID == uuid.Nil {
		hc.ID = uuid.New()
	}

	hc.CreatedAt = sanitizeTimestamp(hc.CreatedAt)
	hc.UpdatedAt = sanitizeTimestamp(hc.UpdatedAt)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byObject[hc.ObjectRef]; ok {
		return fmt.Errorf("%w: %s/%d", ErrHostConfigExists, hc.ObjectRef.Kind, hc.ObjectRef.ID)
	}

	if _, ok := s.hosts[hc.ID]; ok {
		return fmt.Errorf("%w: %s", ErrHostConfigExists, hc.ID)
	}

	s.hosts[hc.ID] = hc.Clone()
	s.byObject[hc.ObjectRef] = hc.ID

	return nil
}

// GetHostConfig loads one host configuration by ID.
func (s *MemStore) GetHostConfig(_ context.Context, id uuid.UUID) (*models.HostConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hc, ok := s.hosts[id]
	if !ok {
		return nil, ErrHostConfigNotFound
	}

	return hc.Clone(), nil
}

// GetHostConfigByObject loads the configuration tracking an inventory object.
func (s *MemStore) GetHostConfigByObject(_ context.Context, ref models.ObjectRef) (*models.HostConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byObject[ref]
	if !ok {
		return nil, ErrHostConfigNotFound
	}

	return s.hosts[id].Clone(), nil
}

// GetHostConfigByRemoteID loads the configuration holding a remote host ID.
func (s *MemStore) GetHostConfigByRemoteID(_ context.Context, remoteID int64) (*models.HostConfiguration, error) {
	if remoteID == 0 {
		return nil, ErrHostConfigNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, hc := range s.hosts {
		if hc.RemoteID == remoteID {
			return hc.Clone(), nil
		}
	}

	return nil, ErrHostConfigNotFound
}

// ListHostConfigs returns all host configurations ordered by host name.
func (s *MemStore) ListHostConfigs(_ context.Context) ([]*models.HostConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.HostConfiguration, 0, len(s.hosts))
	for _, hc := range s.hosts {
		out = append(out, hc.Clone())
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Host < out[j].Host })

	return out, nil
}

// UpdateHostConfig persists a host configuration by ID.
func (s *MemStore) UpdateHostConfig(_ context.Context, hc *models.HostConfiguration) error {
	if hc == nil {
		return ErrHostConfigNil
	}

	hc.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.hosts[hc.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrHostConfigNotFound, hc.ID)
	}

	delete(s.byObject, existing.ObjectRef)
	s.hosts[hc.ID] = hc.Clone()
	s.byObject[hc.ObjectRef] = hc.ID

	return nil
}

// DeleteHostConfig removes a host configuration.
func (s *MemStore) DeleteHostConfig(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.hosts[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrHostConfigNotFound, id)
	}

	delete(s.byObject, existing.ObjectRef)
	delete(s.hosts, id)

	return nil
}

// CreateRule inserts a mapping rule. A zero ID is assigned.
func (s *MemStore) CreateRule(_ context.Context, rule *models.MappingRule) error {
	if rule == nil {
		return ErrRuleNil
	}

	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}

	rule.CreatedAt = sanitizeTimestamp(rule.CreatedAt)
	rule.UpdatedAt = sanitizeTimestamp(rule.UpdatedAt)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.rules {
		if existing.Name == rule.Name {
			return fmt.Errorf("%w: %q", ErrRuleNameExists, rule.Name)
		}
	}

	s.rules[rule.ID] = rule.Clone()

	return nil
}

// GetRule loads one mapping rule by ID.
func (s *MemStore) GetRule(_ context.Context, id uuid.UUID) (*models.MappingRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, ok := s.rules[id]
	if !ok {
		return nil, ErrRuleNotFound
	}

	return rule.Clone(), nil
}

// ListRules returns all mapping rules, non-defaults first.
func (s *MemStore) ListRules(_ context.Context) ([]*models.MappingRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.MappingRule, 0, len(s.rules))
	for _, rule := range s.rules {
		out = append(out, rule.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Default != out[j].Default {
			return !out[i].Default
		}

		return out[i].Name < out[j].Name
	})

	return out, nil
}

// UpdateRule persists a mapping rule by ID.
func (s *MemStore) UpdateRule(_ context.Context, rule *models.MappingRule) error {
	if rule == nil {
		return ErrRuleNil
	}

	rule.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[rule.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, rule.ID)
	}

	for id, existing := range s.rules {
		if id != rule.ID && existing.Name == rule.Name {
			return fmt.Errorf("%w: %q", ErrRuleNameExists, rule.Name)
		}
	}

	s.rules[rule.ID] = rule.Clone()

	return nil
}

// DeleteRule removes a mapping rule.
func (s *MemStore) DeleteRule(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[id]; !ok {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}

	delete(s.rules, id)

	return nil
}

// CreateMaintenance inserts a maintenance window. A zero ID is assigned.
func (s *MemStore) CreateMaintenance(_ context.Context, window *models.MaintenanceWindow) error {
	if window == nil {
		return ErrMaintenanceNil
	}

	if window.ID == uuid.Nil {
		window.ID = uuid.New()
	}

	window.CreatedAt = sanitizeTimestamp(window.CreatedAt)
	window.UpdatedAt = sanitizeTimestamp(window.UpdatedAt)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.windows[window.ID] = window.Clone()

	return nil
}

// GetMaintenance loads one maintenance window by ID.
func (s *MemStore) GetMaintenance(_ context.Context, id uuid.UUID) (*models.MaintenanceWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	window, ok := s.windows[id]
	if !ok {
		return nil, ErrMaintenanceNotFound
	}

	return window.Clone(), nil
}

// ListMaintenance returns all maintenance windows ordered by start time.
func (s *MemStore) ListMaintenance(_ context.Context) ([]*models.MaintenanceWindow, error) {
	return s.listMaintenance(""), nil
}

// ListMaintenanceByStatus returns the windows currently in one lifecycle state.
func (s *MemStore) ListMaintenanceByStatus(_ context.Context, status models.MaintenanceStatus) ([]*models.MaintenanceWindow, error) {
	return s.listMaintenance(status), nil
}

func (s *MemStore) listMaintenance(status models.MaintenanceStatus) []*models.MaintenanceWindow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.MaintenanceWindow, 0, len(s.windows))

	for _, window := range s.windows {
		if status != "" && window.Status != status {
			continue
		}

		out = append(out, window.Clone())
	}

	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })

	return out
}

// UpdateMaintenance persists a maintenance window by ID.
func (s *MemStore) UpdateMaintenance(_ context.Context, window *models.MaintenanceWindow) error {
	if window == nil {
		return ErrMaintenanceNil
	}

	window.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.windows[window.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrMaintenanceNotFound, window.ID)
	}

	s.windows[window.ID] = window.Clone()

	return nil
}

// DeleteMaintenance removes a maintenance window.
func (s *MemStore) DeleteMaintenance(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.windows[id]; !ok {
		return fmt.Errorf("%w: %s", ErrMaintenanceNotFound, id)
	}

	delete(s.windows, id)

	return nil
}

// LinkJob records which queued job touched a host configuration.
func (s *MemStore) LinkJob(_ context.Context, link *models.JobLink) error {
	if link == nil {
		return ErrJobLinkNil
	}

	if link.JobID == "" {
		return models.ErrJobIDMissing
	}

	link.CreatedAt = sanitizeTimestamp(link.CreatedAt)
	linked := *link

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.jobLinks {
		if existing.JobID == linked.JobID && existing.HostConfigID == linked.HostConfigID {
			return nil
		}
	}

	s.jobLinks = append(s.jobLinks, &linked)

	return nil
}

// ListJobLinks returns the jobs recorded against a host configuration,
// newest first.
func (s *MemStore) ListJobLinks(_ context.Context, hostConfigID uuid.UUID) ([]*models.JobLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.JobLink

	for _, link := range s.jobLinks {
		if link.HostConfigID == hostConfigID {
			copied := *link
			out = append(out, &copied)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	return out, nil
}

// memTx is the transactional view handed to WithTx callbacks. Nested
// transactions join the outer one.
type memTx struct {
	*MemStore
}

func (t memTx) WithTx(_ context.Context, fn func(Service) error) error {
	return fn(t)
}

// WithTx snapshots the store, runs fn, and restores the snapshot when fn
// fails. Transactions serialize against each other.
func (s *MemStore) WithTx(_ context.Context, fn func(Service) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()

	if err := fn(memTx{s}); err != nil {
		s.restore(snap)
		return err
	}

	return nil
}

type memSnapshot struct {
	hosts    map[uuid.UUID]*models.HostConfiguration
	byObject map[models.ObjectRef]uuid.UUID
	rules    map[uuid.UUID]*models.MappingRule
	windows  map[uuid.UUID]*models.MaintenanceWindow
	jobLinks []*models.JobLink
}

func (s *MemStore) snapshot() *memSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &memSnapshot{
		hosts:    make(map[uuid.UUID]*models.HostConfiguration, len(s.hosts)),
		byObject: make(map[models.ObjectRef]uuid.UUID, len(s.byObject)),
		rules:    make(map[uuid.UUID]*models.MappingRule, len(s.rules)),
		windows:  make(map[uuid.UUID]*models.MaintenanceWindow, len(s.windows)),
		jobLinks: append([]*models.JobLink(nil), s.jobLinks...),
	}

	for id, hc := range s.hosts {
		snap.hosts[id] = hc.Clone()
	}

	for ref, id := range s.byObject {
		snap.byObject[ref] = id
	}

	for id, rule := range s.rules {
		snap.rules[id] = rule.Clone()
	}

	for id, window := range s.windows {
		snap.windows[id] = window.Clone()
	}

	return snap
}

func (s *MemStore) restore(snap *memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hosts = snap.hosts
	s.byObject = snap.byObject
	s.rules = snap.rules
	s.windows = snap.windows
	s.jobLinks = snap.jobLinks
}
