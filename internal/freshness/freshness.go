// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

// Package freshness decides whether cached monthly records must be refetched
// from the durable backend.
//
// Only the current calendar month is ever evaluated. Past months cannot change
// once they have ended, so a cached past month is always trusted.
package freshness

import (
	"time"

	"github.com/tomtom215/rollcall/internal/models"
)

// Slack is the number of missing trailing days tolerated before the cache is
// considered stale.
const Slack = 1

// HighestDay returns the largest day present across both directions, or 0
// when neither record exists.
func HighestDay(entry, exit *models.MonthlyRecord) int {
	return max(entry.HighestDay(), exit.HighestDay())
}

// IsStale reports whether the cached records lag behind currentDay by more
// than Slack days.
func IsStale(entry, exit *models.MonthlyRecord, currentDay int) bool {
	return HighestDay(entry, exit) < currentDay-Slack
}

// NeedsCheck reports whether month is the current calendar month in loc.
func NeedsCheck(month int, now time.Time, loc *time.Location) bool {
	if loc != nil {
		now = now.In(loc)
	}
	return int(now.Month()) == month
}

// Evaluator binds a location so callers only supply the records and clock.
type Evaluator struct {
	loc *time.Location
}

// NewEvaluator creates an Evaluator for loc. A nil loc means time.Local.
func NewEvaluator(loc *time.Location) *Evaluator {
	if loc == nil {
		loc = time.Local
	}
	return &Evaluator{loc: loc}
}

// Location returns the evaluator's time zone.
func (e *Evaluator) Location() *time.Location {
	return e.loc
}

// Stale combines NeedsCheck and IsStale: it is true only for the current month
// when the cached days lag behind today's day-of-month.
func (e *Evaluator) Stale(entry, exit *models.MonthlyRecord, month int, now time.Time) bool {
	if !NeedsCheck(month, now, e.loc) {
		return false
	}
	return IsStale(entry, exit, now.In(e.loc).Day())
}
