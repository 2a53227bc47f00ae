// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

// Package calendar provides the school-day counter used by the recorder to
// decide whether the durable backend can already hold this month's records.
package calendar

import (
	"time"
)

// Clock returns the current time. Tests inject a fixed clock.
type Clock func() time.Time

// Counter computes the school day of the month for an instant.
type Counter interface {
	SchoolDay(now time.Time) int
}

// WeekdayCounter counts Monday to Friday from the 1st of the month through
// the given day, inclusive, in Location. Dates listed in holidays are skipped.
type WeekdayCounter struct {
	loc      *time.Location
	holidays map[string]struct{}
}

// NewWeekdayCounter creates a counter in loc (time.Local if nil). Holidays
// are "YYYY-MM-DD" dates that do not count as school days.
func NewWeekdayCounter(loc *time.Location, holidays ...string) *WeekdayCounter {
	if loc == nil {
		loc = time.Local
	}
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[h] = struct{}{}
	}
	return &WeekdayCounter{loc: loc, holidays: set}
}

// SchoolDay implements Counter. A month starting on a weekend returns 0 until
// the first Monday.
func (c *WeekdayCounter) SchoolDay(now time.Time) int {
	local := now.In(c.loc)
	year, month, today := local.Date()

	count := 0
	for day := 1; day <= today; day++ {
		d := time.Date(year, month, day, 12, 0, 0, 0, c.loc)
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if _, skip := c.holidays[d.Format(time.DateOnly)]; skip {
			continue
		}
		count++
	}
	return count
}

// Location returns the counter's time zone.
func (c *WeekdayCounter) Location() *time.Location {
	return c.loc
}

// Fixed is a Counter that always returns the same value.
type Fixed int

// SchoolDay implements Counter.
func (f Fixed) SchoolDay(time.Time) int {
	return int(f)
}
