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
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/monbridge/monbridge/pkg/models"
)

// Metrics receives reconciliation outcome signals. The orchestrator calls
// it on every flow; implementations must be safe for concurrent use.
type Metrics interface {
	// RecordOperation counts one finished flow by action
	// (provision/update/delete/import) and outcome (created/updated/
	// synced/skipped/failed), with its wall-clock duration.
	RecordOperation(action models.JobAction, outcome string, elapsed time.Duration)

	// RecordRemoteCleanupFailure counts a best-effort remote removal that
	// failed, leaving a remote host behind.
	RecordRemoteCleanupFailure()

	// RecordSweep publishes the summary of one bulk sweep.
	RecordSweep(summary *models.SweepSummary)
}

// NoOpMetrics discards all signals.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordOperation(models.JobAction, string, time.Duration) {}
func (NoOpMetrics) RecordRemoteCleanupFailure()                            {}
func (NoOpMetrics) RecordSweep(*models.SweepSummary)                       {}

// Metric naming follows Prometheus conventions: monbridge_ prefix,
// _total suffix for counters, _seconds suffix for durations.

// PrometheusMetrics implements Metrics on a prometheus registry.
type PrometheusMetrics struct {
	operations      *prometheus.CounterVec
	durations       *prometheus.HistogramVec
	cleanupFailures prometheus.Counter
	sweepRecords    *prometheus.CounterVec
	sweepDuration   prometheus.Histogram
}

var _ Metrics = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics builds the metric set and registers it with reg.
// Registering the same set twice on one registry panics, as usual for
// prometheus collectors.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monbridge_operations_total",
				Help: "Total reconciliation flows by action and outcome.",
			},
			[]string{"action", "outcome"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "monbridge_operation_duration_seconds",
				Help:    "Duration of reconciliation flows by action.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"action"},
		),
		cleanupFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "monbridge_remote_cleanup_failures_total",
				Help: "Best-effort remote host removals that failed.",
			},
		),
		sweepRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monbridge_sweep_records_total",
				Help: "Records processed by bulk sweeps, by result.",
			},
			[]string{"result"},
		),
		sweepDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "monbridge_sweep_duration_seconds",
				Help:    "Duration of full reconciliation sweeps.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
		),
	}

	reg.MustRegister(m.operations, m.durations, m.cleanupFailures, m.sweepRecords, m.sweepDuration)

	return m
}

// RecordOperation implements Metrics.
func (m *PrometheusMetrics) RecordOperation(action models.JobAction, outcome string, elapsed time.Duration) {
	m.operations.WithLabelValues(string(action), outcome).Inc()
	m.durations.WithLabelValues(string(action)).Observe(elapsed.Seconds())
}

// RecordRemoteCleanupFailure implements Metrics.
func (m *PrometheusMetrics) RecordRemoteCleanupFailure() {
	m.cleanupFailures.Inc()
}

// RecordSweep implements Metrics.
func (m *PrometheusMetrics) RecordSweep(summary *models.SweepSummary) {
	m.sweepRecords.WithLabelValues("updated").Add(float64(summary.Updated))
	m.sweepRecords.WithLabelValues("failed").Add(float64(summary.Failed))
	m.sweepRecords.WithLabelValues("skipped").Add(float64(summary.Skipped))
	m.sweepDuration.Observe(summary.Duration.Seconds())
}
