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

// Package syncer assembles and runs the bridge service: the
// reconciliation engine with its scheduled sweeps, the job consumer, the
// HTTP API, and the gRPC health endpoint.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/monbridge/monbridge/pkg/api"
	"github.com/monbridge/monbridge/pkg/audit"
	"github.com/monbridge/monbridge/pkg/db"
	"github.com/monbridge/monbridge/pkg/grpc"
	"github.com/monbridge/monbridge/pkg/inventory"
	"github.com/monbridge/monbridge/pkg/jobs"
	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/maintenance"
	"github.com/monbridge/monbridge/pkg/models"
	"github.com/monbridge/monbridge/pkg/reconcile"
	"github.com/monbridge/monbridge/pkg/snmpcheck"
	"github.com/monbridge/monbridge/pkg/zabbix"
)

const (
	catalogTTL     = 5 * time.Minute
	versionTimeout = 15 * time.Second
	stopTimeout    = 30 * time.Second
)

var (
	errNoConfig       = errors.New("config is required")
	errNoStore        = errors.New("store is required")
	errNoRemote       = errors.New("remote client is required")
	errNoInventory    = errors.New("inventory provider is required")
	errNoLogger       = errors.New("logger is required")
	errJobsNeedNATS   = errors.New("jobs consumer requires a nats connection")
	errAlreadyStarted = errors.New("service already started")
)

// Deps carries the infrastructure the service is assembled from. Config,
// Store, Remote, Inventory, and Logger are required. NATS enables the
// audit stream and the job consumer; Secrets enables token and PSK
// lookups in the payload builder.
type Deps struct {
	Config    *models.BridgeConfig
	Store     db.Service
	Remote    zabbix.API
	Inventory inventory.Provider
	Secrets   reconcile.SecretSource
	NATS      *nats.Conn
	Logger    logger.Logger
}

// Service owns the assembled components and their lifecycle.
type Service struct {
	cfg      *models.BridgeConfig
	store    db.Service
	remote   zabbix.API
	engine   *reconcile.Orchestrator
	windows  *maintenance.Manager
	consumer *jobs.Consumer
	apiSrv   *api.Server
	hub      *api.EventHub
	health   *grpc.Server
	cron     *cron.Cron
	events   EventSink
	logger   logger.Logger

	mu     sync.Mutex
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	errCh  chan error
}

// sweepNotifier routes the job runner's sweep action through the
// service, so job-triggered sweeps feed the status page and the event
// stream the same way scheduled ones do.
type sweepNotifier struct {
	*reconcile.Orchestrator
	service *Service
}

func (n sweepNotifier) Sweep(ctx context.Context) (*models.SweepSummary, error) {
	return n.service.sweep(ctx)
}

// New assembles the service. The configuration is validated and
// defaulted in place.
func New(ctx context.Context, deps Deps) (*Service, error) {
	switch {
	case deps.Config == nil:
		return nil, errNoConfig
	case deps.Store == nil:
		return nil, errNoStore
	case deps.Remote == nil:
		return nil, errNoRemote
	case deps.Inventory == nil:
		return nil, errNoInventory
	case deps.Logger == nil:
		return nil, errNoLogger
	}

	cfg := deps.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log := deps.Logger

	registry := prometheus.NewRegistry()
	metrics := reconcile.NewPrometheusMetrics(registry)

	hub := api.NewEventHub(log)
	sinks := []EventSink{hub}

	if deps.NATS != nil && cfg.Events != nil && cfg.Events.Enabled {
		publisher, err := audit.New(ctx, deps.NATS, natsDomain(cfg), cfg.Events, log)
		if err != nil {
			return nil, fmt.Errorf("audit publisher: %w", err)
		}

		sinks = append(sinks, publisher)
	}

	events := Fanout(sinks...)

	var preflight reconcile.InterfacePreflight
	if cfg.SNMPCheck != nil && cfg.SNMPCheck.Enabled {
		preflight = snmpcheck.New(cfg.SNMPCheck, log)
	}

	engine, err := reconcile.NewOrchestrator(reconcile.Deps{
		Store:     deps.Store,
		Remote:    deps.Remote,
		Inventory: deps.Inventory,
		Catalog:   zabbix.NewCatalog(deps.Remote, catalogTTL),
		Audit:     events,
		Secrets:   deps.Secrets,
		Preflight: preflight,
		Metrics:   metrics,
		Engine:    &cfg.Engine,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}

	windows, err := maintenance.NewManager(maintenance.Deps{
		Store:     deps.Store,
		Remote:    deps.Remote,
		Inventory: deps.Inventory,
		Events:    events,
		Engine:    &cfg.Engine,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}

	apiSrv := api.NewServer(cfg.CORS, log,
		api.WithStore(deps.Store),
		api.WithInventory(deps.Inventory),
		api.WithComparer(engine),
		api.WithEventHub(hub),
		api.WithMetricsGatherer(registry),
		api.WithAPIKey(os.Getenv("API_KEY")),
	)

	s := &Service{
		cfg:     cfg,
		store:   deps.Store,
		remote:  deps.Remote,
		engine:  engine,
		windows: windows,
		apiSrv:  apiSrv,
		hub:     hub,
		events:  events,
		logger:  log,
		errCh:   make(chan error, 1),
	}

	if cfg.Jobs != nil && cfg.Jobs.Enabled {
		if deps.NATS == nil {
			return nil, errJobsNeedNATS
		}

		js, err := jetstreamContext(deps.NATS, cfg)
		if err != nil {
			return nil, fmt.Errorf("jetstream context: %w", err)
		}

		consumer, err := jobs.NewConsumer(ctx, js, cfg.Jobs, sweepNotifier{engine, s}, log)
		if err != nil {
			return nil, fmt.Errorf("job consumer: %w", err)
		}

		s.consumer = consumer
	}

	if cfg.GrpcAddr != "" {
		s.health = grpc.NewServer(cfg.GrpcAddr, log)
	}

	if err := s.schedule(); err != nil {
		return nil, err
	}

	return s, nil
}

func natsDomain(cfg *models.BridgeConfig) string {
	if cfg.NATS == nil {
		return ""
	}

	return cfg.NATS.Domain
}

func jetstreamContext(nc *nats.Conn, cfg *models.BridgeConfig) (jetstream.JetStream, error) {
	if domain := natsDomain(cfg); domain != "" {
		return jetstream.NewWithDomain(nc, domain)
	}

	return jetstream.New(nc)
}

// schedule registers the recurring sweeps. A job still running when its
// next firing comes up skips that firing instead of stacking.
func (s *Service) schedule() error {
	cronLog := &cronLogger{logger: s.logger}
	s.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLog), cron.Recover(cronLog)))

	if _, err := s.cron.AddFunc(s.cfg.Schedules.Reconcile, s.runSweep); err != nil {
		return fmt.Errorf("reconcile schedule %q: %w", s.cfg.Schedules.Reconcile, err)
	}

	if _, err := s.cron.AddFunc(s.cfg.Schedules.MaintenancePurge, s.runPurge); err != nil {
		return fmt.Errorf("maintenance purge schedule %q: %w", s.cfg.Schedules.MaintenancePurge, err)
	}

	if s.cfg.Schedules.ImportInventory != "" {
		if _, err := s.cron.AddFunc(s.cfg.Schedules.ImportInventory, s.runImport); err != nil {
			return fmt.Errorf("import schedule %q: %w", s.cfg.Schedules.ImportInventory, err)
		}
	}

	return nil
}

// Start launches the servers, the consumer, and the schedules. It does
// not block; Stop tears everything down.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return errAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.base = runCtx
	s.cancel = cancel
	s.mu.Unlock()

	s.logger.Info().
		Str("listen_addr", s.cfg.ListenAddr).
		Msg("Starting bridge service")

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		s.checkRemote(runCtx)
	}()

	if s.health != nil {
		s.wg.Add(1)

		go func() {
			defer s.wg.Done()

			if err := s.health.Start(); err != nil {
				s.fail(fmt.Errorf("health server: %w", err))
			}
		}()

		s.health.SetServing("")
	}

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		if err := s.apiSrv.Start(s.cfg.ListenAddr); err != nil {
			s.fail(fmt.Errorf("api server: %w", err))
		}
	}()

	if s.consumer != nil {
		s.wg.Add(1)

		go func() {
			defer s.wg.Done()

			if err := s.consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				s.fail(fmt.Errorf("job consumer: %w", err))
			}
		}()
	}

	s.cron.Start()

	return nil
}

// Stop halts the schedules, drains the servers, and waits for the
// background work, all bounded by ctx. Stopping a service that never
// started is a no-op.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}

	s.logger.Info().Msg("Stopping bridge service")

	running := s.cron.Stop()

	select {
	case <-running.Done():
	case <-ctx.Done():
		s.logger.Warn().Msg("Timed out waiting for scheduled jobs")
	}

	if err := s.apiSrv.Shutdown(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("API server shutdown failed")
	}

	if s.health != nil {
		s.health.Stop(ctx)
	}

	cancel()

	done := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Bridge service stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("Shutdown timed out")
		return ctx.Err()
	}
}

// Run starts the service and blocks until ctx is canceled or a component
// fails, then stops with a fresh shutdown deadline.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	var cause error

	select {
	case <-ctx.Done():
	case cause = <-s.errCh:
	}

	stopCtx, stop := context.WithTimeout(context.Background(), stopTimeout)
	defer stop()

	if err := s.Stop(stopCtx); err != nil && cause == nil {
		cause = err
	}

	return cause
}

// Err exposes the first fatal component failure.
func (s *Service) Err() <-chan error {
	return s.errCh
}

// sweep runs a full reconciliation pass and, on success, pushes the
// summary to the status page and the event sinks.
func (s *Service) sweep(ctx context.Context) (*models.SweepSummary, error) {
	summary, err := s.engine.Sweep(ctx)
	if err != nil {
		return summary, err
	}

	s.apiSrv.RecordSweep(summary)
	s.events.LogSweepEvent(ctx, summary)

	return summary, nil
}

func (s *Service) runSweep() {
	ctx := s.runContext()

	if _, err := s.sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error().Err(err).Msg("Scheduled sweep failed")
	}
}

func (s *Service) runPurge() {
	ctx := s.runContext()

	if err := s.windows.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error().Err(err).Msg("Scheduled maintenance purge failed")
	}
}

func (s *Service) runImport() {
	ctx := s.runContext()

	if err := s.engine.ImportInventory(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error().Err(err).Msg("Scheduled inventory import failed")
	}
}

func (s *Service) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.base != nil {
		return s.base
	}

	return context.Background()
}

// checkRemote probes the monitoring server once at startup. An
// unreachable remote is logged, not fatal; the schedules keep trying.
func (s *Service) checkRemote(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	v, err := s.remote.Version(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Monitoring server unreachable at startup")
		return
	}

	s.logger.Info().Str("version", v).Msg("Connected to monitoring server")
	s.apiSrv.SetRemoteVersion(v)
}

func (s *Service) fail(err error) {
	s.logger.Error().Err(err).Msg("Service component failed")

	select {
	case s.errCh <- err:
	default:
	}
}

// cronLogger adapts the service logger to the scheduler's interface.
type cronLogger struct {
	logger logger.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info().Fields(keysAndValues).Msg(msg)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
