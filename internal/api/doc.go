// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

/*
Package api is the local operator HTTP API.

Routes (all JSON, wrapped in APIResponse):

	POST /api/v1/marks                                  record one mark
	POST /api/v1/sync                                   replay a snapshot
	GET  /api/v1/attendance/{role}/{person}             monthly records (?month=)
	POST /api/v1/attendance/{role}/{person}/refresh     drop local copy and re-fetch (?month=)
	GET  /api/v1/attendance/{role}/{person}/today       has-marked-today (?direction=)
	GET  /api/v1/records                                cached records of one collection
	                                                    (?category=&direction=&month=)
	GET  /api/v1/health, /health/live, /health/ready
	GET  /metrics                                       Prometheus

Errors map onto stable codes: VALIDATION_ERROR and INVALID_ROLE (400),
BACKEND_UNAVAILABLE (502), STORAGE_ERROR (503, retryable), TIMEOUT (504)
and INTERNAL_ERROR (500). A batch sync always answers 200 with its counts.
*/
package api
