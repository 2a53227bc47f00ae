// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

/*
Package middleware provides the HTTP middleware shared by the local API.

  - RequestID: UUID request ids propagated into the logging context
  - PrometheusMetrics: request counts and latency keyed by chi route pattern

Both have the http.Handler shape so they plug straight into chi's r.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
