// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recording path
	MarksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollcall_marks_total",
			Help: "Total attendance marks processed, by recorder outcome",
		},
		[]string{"outcome"},
	)

	MarkDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rollcall_mark_duration_seconds",
			Help:    "Duration of a single mark recording in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
	)

	BatchResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollcall_batch_results_total",
			Help: "Batch synchronization results per person (written, present, error)",
		},
		[]string{"result"},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rollcall_batch_duration_seconds",
			Help:    "Duration of one batch synchronization in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Backend
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollcall_backend_requests_total",
			Help: "Durable backend queries by status (ok, absent, error, or HTTP code class)",
		},
		[]string{"status"},
	)

	BackendRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rollcall_backend_request_duration_seconds",
			Help:    "Durable backend query latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Storage and degraded mode
	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollcall_store_errors_total",
			Help: "Local cache store errors by kind",
		},
		[]string{"kind"},
	)

	SessionTerminationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollcall_session_terminations_total",
			Help: "Session termination hook invocations by storage error kind",
		},
		[]string{"kind"},
	)

	// Snapshots
	SnapshotPollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollcall_snapshot_polls_total",
			Help: "Ephemeral-tier snapshot deliveries by result (ok, empty, error)",
		},
		[]string{"source", "result"},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rollcall_api_requests_total",
			Help: "Local API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rollcall_api_request_duration_seconds",
			Help:    "Local API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordMark records one recorder outcome and its duration.
func RecordMark(outcome string, duration time.Duration) {
	MarksTotal.WithLabelValues(outcome).Inc()
	MarkDuration.Observe(duration.Seconds())
}

// RecordBatch records the per-person results of one batch.
func RecordBatch(written, present, errs int, duration time.Duration) {
	BatchResultsTotal.WithLabelValues("written").Add(float64(written))
	BatchResultsTotal.WithLabelValues("present").Add(float64(present))
	BatchResultsTotal.WithLabelValues("error").Add(float64(errs))
	BatchDuration.Observe(duration.Seconds())
}

// RecordBackendRequest records a backend query. status is "ok", "absent",
// "error" or an HTTP status code.
func RecordBackendRequest(status string, duration time.Duration) {
	BackendRequestsTotal.WithLabelValues(status).Inc()
	BackendRequestDuration.Observe(duration.Seconds())
}

// RecordBackendStatus records a backend query by HTTP status code.
func RecordBackendStatus(code int, duration time.Duration) {
	RecordBackendRequest(strconv.Itoa(code), duration)
}

// RecordStoreError counts a classified storage error.
func RecordStoreError(kind string) {
	StoreErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordSessionTermination counts a termination hook invocation.
func RecordSessionTermination(kind string) {
	SessionTerminationsTotal.WithLabelValues(kind).Inc()
}

// RecordSnapshotPoll counts one snapshot delivery attempt.
func RecordSnapshotPoll(source, result string) {
	SnapshotPollsTotal.WithLabelValues(source, result).Inc()
}

// RecordAPIRequest records a local API request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
