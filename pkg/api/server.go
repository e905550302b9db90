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

// Package api provides the operational HTTP surface of the bridge:
// status, host configuration and rule inspection, rule previews,
// Prometheus metrics, and a live event stream.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/monbridge/monbridge/pkg/db"
	mbHttp "github.com/monbridge/monbridge/pkg/http"
	"github.com/monbridge/monbridge/pkg/inventory"
	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/mapping"
	"github.com/monbridge/monbridge/pkg/models"
	"github.com/monbridge/monbridge/pkg/reconcile"
	"github.com/monbridge/monbridge/pkg/version"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
	defaultTimeout      = 10 * time.Second
	defaultIdleTimeout  = 60 * time.Second
)

// Comparer is the slice of the orchestrator the host detail endpoint
// uses to report local-vs-remote drift.
type Comparer interface {
	Compare(ctx context.Context, id uuid.UUID) (*reconcile.CompareResult, error)
}

// Server is the bridge's HTTP API server.
type Server struct {
	router   *mux.Router
	cors     models.CORSConfig
	store    db.Service
	source   inventory.Provider
	compare  Comparer
	hub      *EventHub
	gatherer prometheus.Gatherer
	apiKey   string
	logger   logger.Logger

	mu            sync.RWMutex
	remoteVersion string
	lastSweep     *models.SweepSummary
	httpSrv       *http.Server

	startedAt time.Time
}

// NewServer creates an API server with the given configuration.
func NewServer(cors models.CORSConfig, log logger.Logger, options ...func(*Server)) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		cors:      cors,
		gatherer:  prometheus.DefaultGatherer,
		logger:    log,
		startedAt: time.Now().UTC(),
	}

	for _, o := range options {
		o(s)
	}

	s.setupRoutes()

	return s
}

// WithStore adds the local state store to the API server.
func WithStore(store db.Service) func(*Server) {
	return func(s *Server) {
		s.store = store
	}
}

// WithInventory adds the inventory provider used by rule previews.
func WithInventory(source inventory.Provider) func(*Server) {
	return func(s *Server) {
		s.source = source
	}
}

// WithComparer adds the drift comparer used by the host detail endpoint.
func WithComparer(c Comparer) func(*Server) {
	return func(s *Server) {
		s.compare = c
	}
}

// WithEventHub adds the live event stream hub.
func WithEventHub(hub *EventHub) func(*Server) {
	return func(s *Server) {
		s.hub = hub
	}
}

// WithMetricsGatherer serves /metrics from the given gatherer instead of
// the default registry.
func WithMetricsGatherer(g prometheus.Gatherer) func(*Server) {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithAPIKey protects the /api/v1 routes with an API key.
func WithAPIKey(key string) func(*Server) {
	return func(s *Server) {
		s.apiKey = key
	}
}

func (s *Server) setupRoutes() {
	s.router.Use(func(next http.Handler) http.Handler {
		return mbHttp.CommonMiddleware(next, s.cors, s.logger)
	})

	s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()

	if s.apiKey != "" {
		api.Use(mbHttp.APIKeyMiddleware(s.apiKey, s.logger))
	}

	api.HandleFunc("/status", s.getStatus).Methods("GET")
	api.HandleFunc("/hosts", s.getHosts).Methods("GET")
	api.HandleFunc("/hosts/{id}", s.getHost).Methods("GET")
	api.HandleFunc("/rules", s.getRules).Methods("GET")
	api.HandleFunc("/rules/{id}/preview", s.previewRule).Methods("POST")
	api.HandleFunc("/events/ws", s.handleEventStream).Methods("GET")
}

// ServeHTTP makes the server mountable and testable as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RecordSweep publishes the latest sweep summary to the status endpoint.
func (s *Server) RecordSweep(summary *models.SweepSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSweep = summary
}

// SetRemoteVersion records the monitoring server version learned at
// startup.
func (s *Server) SetRemoteVersion(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remoteVersion = v
}

// SystemStatus is the payload of the status endpoint.
type SystemStatus struct {
	Status             string               `json:"status"`
	Version            string               `json:"version"`
	RemoteVersion      string               `json:"remote_version,omitempty"`
	StartedAt          time.Time            `json:"started_at"`
	Hosts              int                  `json:"hosts"`
	HostsProvisioned   int                  `json:"hosts_provisioned"`
	HostsInSync        int                  `json:"hosts_in_sync"`
	MaintenanceWindows int                  `json:"maintenance_windows"`
	ActiveWindows      int                  `json:"active_maintenance_windows"`
	LastSweep          *models.SweepSummary `json:"last_sweep,omitempty"`
	Timestamp          time.Time            `json:"timestamp"`
}

// HostDetail is a host configuration plus its current drift.
type HostDetail struct {
	*models.HostConfiguration
	Diff      map[string]reconcile.FieldDiff `json:"diff,omitempty"`
	DiffError string                         `json:"diff_error,omitempty"`
}

// RulePreview is the outcome of a rule preview: the objects the rule
// would win against the full rule set.
type RulePreview struct {
	Rule       *models.MappingRule       `json:"rule"`
	Candidates int                       `json:"candidates"`
	Matches    []*models.InventoryObject `json:"matches"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, "Store not configured", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaultTimeout)
	defer cancel()

	hosts, err := s.store.ListHostConfigs(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Listing host configurations failed")
		writeError(w, "Internal server error", http.StatusInternalServerError)

		return
	}

	windows, err := s.store.ListMaintenance(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Listing maintenance windows failed")
		writeError(w, "Internal server error", http.StatusInternalServerError)

		return
	}

	now := time.Now().UTC()

	status := SystemStatus{
		Status:             "ok",
		Version:            version.GetVersion(),
		StartedAt:          s.startedAt,
		Hosts:              len(hosts),
		MaintenanceWindows: len(windows),
		Timestamp:          now,
	}

	for _, hc := range hosts {
		if hc.Provisioned() {
			status.HostsProvisioned++
		}

		if hc.InSync {
			status.HostsInSync++
		}
	}

	for _, win := range windows {
		if win.ActiveAt(now) {
			status.ActiveWindows++
		}
	}

	s.mu.RLock()
	status.RemoteVersion = s.remoteVersion
	status.LastSweep = s.lastSweep
	s.mu.RUnlock()

	if err := s.encodeJSONResponse(w, status); err != nil {
		s.logger.Error().Err(err).Msg("Encoding status response failed")
	}
}

func (s *Server) getHosts(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, "Store not configured", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaultTimeout)
	defer cancel()

	hosts, err := s.store.ListHostConfigs(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Listing host configurations failed")
		writeError(w, "Internal server error", http.StatusInternalServerError)

		return
	}

	if hosts == nil {
		hosts = []*models.HostConfiguration{}
	}

	if err := s.encodeJSONResponse(w, hosts); err != nil {
		s.logger.Error().Err(err).Msg("Encoding host list failed")
	}
}

func (s *Server) getHost(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, "Store not configured", http.StatusInternalServerError)
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, "Invalid host configuration ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaultTimeout)
	defer cancel()

	hc, err := s.store.GetHostConfig(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrHostConfigNotFound) {
			writeError(w, "Host configuration not found", http.StatusNotFound)
			return
		}

		s.logger.Error().Err(err).Str("id", id.String()).Msg("Loading host configuration failed")
		writeError(w, "Internal server error", http.StatusInternalServerError)

		return
	}

	detail := HostDetail{HostConfiguration: hc}

	// Drift is best effort: a remote outage must not hide the record.
	if s.compare != nil && hc.Provisioned() {
		if result, cmpErr := s.compare.Compare(ctx, id); cmpErr != nil {
			detail.DiffError = cmpErr.Error()
		} else {
			detail.Diff = result.Differences
		}
	}

	if err := s.encodeJSONResponse(w, detail); err != nil {
		s.logger.Error().Err(err).Str("id", id.String()).Msg("Encoding host detail failed")
	}
}

func (s *Server) getRules(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, "Store not configured", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaultTimeout)
	defer cancel()

	rules, err := s.store.ListRules(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Listing mapping rules failed")
		writeError(w, "Internal server error", http.StatusInternalServerError)

		return
	}

	if rules == nil {
		rules = []*models.MappingRule{}
	}

	if err := s.encodeJSONResponse(w, rules); err != nil {
		s.logger.Error().Err(err).Msg("Encoding rule list failed")
	}
}

func (s *Server) previewRule(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, "Store not configured", http.StatusInternalServerError)
		return
	}

	if s.source == nil {
		writeError(w, "Inventory not configured", http.StatusInternalServerError)
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, "Invalid rule ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaultTimeout)
	defer cancel()

	rule, err := s.store.GetRule(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrRuleNotFound) {
			writeError(w, "Mapping rule not found", http.StatusNotFound)
			return
		}

		s.logger.Error().Err(err).Str("id", id.String()).Msg("Loading mapping rule failed")
		writeError(w, "Internal server error", http.StatusInternalServerError)

		return
	}

	rules, err := s.store.ListRules(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Listing mapping rules failed")
		writeError(w, "Internal server error", http.StatusInternalServerError)

		return
	}

	objs, err := s.previewCandidates(ctx, rule)
	if err != nil {
		s.logger.Error().Err(err).Str("rule", rule.Name).Msg("Listing inventory objects failed")
		writeError(w, "Inventory query failed", http.StatusBadGateway)

		return
	}

	// The preview ranks against the full rule set, so the answer matches
	// what provisioning would decide.
	matches := mapping.NewMatcher(rules, s.logger).MatchingObjects(rule, objs)
	if matches == nil {
		matches = []*models.InventoryObject{}
	}

	preview := RulePreview{
		Rule:       rule,
		Candidates: len(objs),
		Matches:    matches,
	}

	if err := s.encodeJSONResponse(w, preview); err != nil {
		s.logger.Error().Err(err).Str("rule", rule.Name).Msg("Encoding rule preview failed")
	}
}

// previewCandidates lists the inventory objects a rule could apply to.
func (s *Server) previewCandidates(ctx context.Context, rule *models.MappingRule) ([]*models.InventoryObject, error) {
	kinds := []models.ObjectKind{models.KindDevice, models.KindVirtualMachine}
	if rule.Kind != "" {
		kinds = []models.ObjectKind{rule.Kind}
	}

	var objs []*models.InventoryObject

	for _, kind := range kinds {
		list, err := s.source.ListObjects(ctx, kind)
		if err != nil {
			return nil, err
		}

		objs = append(objs, list...)
	}

	return objs, nil
}

// Start serves the API on the given address until Shutdown.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()

	s.logger.Info().Str("addr", addr).Msg("API server listening")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown stops the API server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.httpSrv
	s.mu.RUnlock()

	if srv == nil {
		return nil
	}

	return srv.Shutdown(ctx)
}

func (s *Server) encodeJSONResponse(w http.ResponseWriter, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")

	return json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := ErrorResponse{
		Message: message,
		Status:  statusCode,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
