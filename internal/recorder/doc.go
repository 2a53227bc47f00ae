// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

/*
Package recorder is the write path for a single attendance mark.

Every mark ends in exactly one models.MarkOutcome:

	updated_local     a cached record received the day
	reconciled        the backend's records were persisted, then the day applied
	deferred          too early in the month; dropped, no record created
	staged            too early in the month; held in the staging tier
	awaiting_backend  the backend has nothing yet (or is unreachable); dropped

The school day is computed once per call by the injected calendar.Counter.
Writers are serialized per (category, person, month) through the
reconciler's lock, which refreshes also take, so a collection never holds two
records for the same person and month and a refresh never overwrites a mark.

Storage faults and invalid roles are returned to the caller. Backend network
faults degrade to awaiting_backend and are only logged.
*/
package recorder
