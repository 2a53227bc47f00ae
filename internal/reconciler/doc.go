// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

// Package reconciler materializes the durable backend's monthly attendance in
// the local cache.
//
// Normalize resolves the backend's nullable {timestamp, offsetSeconds} pairs
// into DailyMarks. Persist writes the non-empty directions concurrently; a
// month with only entries never creates an empty exits record. Monthly and
// ForceRefresh add the read path used by the local API.
package reconciler
