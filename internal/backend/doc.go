// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

/*
Package backend is the HTTP client for the durable attendance backend.

The only query is the monthly attendance of one person:

	GET {base}/personnel/monthly-attendance?role=&personId=&month=

The response is wrapped as {success, data, message, errorType}.

# Absent versus unreachable

FetchMonthly distinguishes "nothing yet" from "backend unreachable":

  - HTTP 404, errorType NO_DATA_AVAILABLE, or success with null data: (nil, nil)
  - transport errors, deadlines, cancellation, 5xx and other unexpected
    answers: *NetworkError
  - circuit breaker open: *NetworkError wrapping ErrCircuitOpen

# Resilience

  - Outbound token bucket (golang.org/x/time/rate)
  - HTTP 429 exponential backoff honoring Retry-After
  - Circuit breaker (sony/gobreaker) with prometheus state metrics
  - Response bodies capped at 10MB, error bodies at 64KB
*/
package backend
