// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

/*
Package metrics provides Prometheus instrumentation for Rollcall.

All collectors are registered with the default registry through promauto and
exposed by the API at /metrics:

	curl http://localhost:8420/metrics

# Available Metrics

Recording path:

	rollcall_marks_total{outcome}                  Marks by recorder outcome
	rollcall_mark_duration_seconds                 Time spent recording one mark
	rollcall_batch_results_total{result}           Batch results (written, present, error)
	rollcall_batch_duration_seconds                Duration of one batch synchronization

Backend:

	rollcall_backend_requests_total{status}        Backend queries by status class
	rollcall_backend_request_duration_seconds      Backend query latency

Circuit breaker:

	circuit_breaker_state{name}                    0=closed, 1=half-open, 2=open
	circuit_breaker_requests_total{name,result}    success, failure, rejected
	circuit_breaker_consecutive_failures{name}
	circuit_breaker_state_transitions_total{name,from_state,to_state}

Storage and degraded mode:

	rollcall_store_errors_total{kind}              StorageError by kind
	rollcall_session_terminations_total{kind}      Termination hook invocations

Snapshots:

	rollcall_snapshot_polls_total{source,result}   Deliveries by source (http, nats, api)

API:

	rollcall_api_requests_total{method,route,status}
	rollcall_api_request_duration_seconds{method,route}
*/
package metrics
