// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

/*
Package models defines the attendance domain types shared by every Rollcall
component.

Key types:

  - MonthlyRecord: persisted per (person, category, direction, month) with a
    day-keyed map of DailyMark values and the backend-assigned RemoteID.
  - DailyMark: a single day's mark. Status is always derived from the offset
    and direction, never set independently.
  - CompleteMonthlyRecord: the durable backend's wire shape holding both
    directions for one person and month, with independently nullable fields.
  - Snapshot: a same-day batch delivered from the ephemeral tier.
  - MarkEvent: the single-mark input of the recorder.
  - SyncStats: per-batch counters, never persisted.

Roles and categories:

Upstream roles collapse onto four closed categories. CategoryForRole is total
over the known roles and returns ErrInvalidRole for anything else; there is no
default category.

	cat, err := models.CategoryForRole("TUTOR") // CategorySecondary

Status derivation:

	tol := models.NewTolerances(5, 15)
	models.DetermineStatus(120, models.DirectionEntry, tol)  // StatusOnTime
	models.DetermineStatus(-1200, models.DirectionExit, tol) // StatusEarlyDeparture
*/
package models
