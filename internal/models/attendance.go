// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package models

import (
	"sort"
	"strconv"
	"time"
)

// DailyMark is the mark of a single day inside a MonthlyRecord.
type DailyMark struct {
	// Timestamp is the mark time in epoch milliseconds; 0 when unknown.
	Timestamp int64 `json:"timestamp"`
	// OffsetSeconds is actual minus expected time. Sign convention depends on direction.
	OffsetSeconds int64  `json:"offsetSeconds"`
	Status        Status `json:"status"`
}

// NewDailyMark builds a mark whose status is derived from the offset.
func NewDailyMark(timestamp, offsetSeconds int64, direction Direction, tol Tolerances) DailyMark {
	return DailyMark{
		Timestamp:     timestamp,
		OffsetSeconds: offsetSeconds,
		Status:        DetermineStatus(offsetSeconds, direction, tol),
	}
}

// MonthlyRecord is the persisted attendance of one person, in one category and
// direction, for one month. RemoteID is assigned by the durable backend and
// never changes once set.
type MonthlyRecord struct {
	RemoteID   int64                `json:"remoteId"`
	Category   Category             `json:"category"`
	Direction  Direction            `json:"direction"`
	PersonID   string               `json:"personId"`
	Month      int                  `json:"month"`
	DailyMarks map[string]DailyMark `json:"dailyMarks"`
	UpdatedAt  time.Time            `json:"updatedAt"`
}

// DayKey renders a day-of-month as the DailyMarks map key.
func DayKey(day int) string {
	return strconv.Itoa(day)
}

// SetMark stores (or replaces) the mark for day.
func (r *MonthlyRecord) SetMark(day int, mark DailyMark) {
	if r.DailyMarks == nil {
		r.DailyMarks = make(map[string]DailyMark)
	}
	r.DailyMarks[DayKey(day)] = mark
}

// Mark returns the mark for day, if any.
func (r *MonthlyRecord) Mark(day int) (DailyMark, bool) {
	if r == nil {
		return DailyMark{}, false
	}
	m, ok := r.DailyMarks[DayKey(day)]
	return m, ok
}

// HasDay reports whether the record holds a mark for day.
func (r *MonthlyRecord) HasDay(day int) bool {
	_, ok := r.Mark(day)
	return ok
}

// HighestDay returns the largest day number present, or 0 for a nil or empty
// record. Keys that are not integers are ignored.
func (r *MonthlyRecord) HighestDay() int {
	if r == nil {
		return 0
	}
	highest := 0
	for key := range r.DailyMarks {
		day, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		if day > highest {
			highest = day
		}
	}
	return highest
}

// Days returns the recorded day numbers in ascending order.
func (r *MonthlyRecord) Days() []int {
	if r == nil {
		return nil
	}
	days := make([]int, 0, len(r.DailyMarks))
	for key := range r.DailyMarks {
		if day, err := strconv.Atoi(key); err == nil {
			days = append(days, day)
		}
	}
	sort.Ints(days)
	return days
}

// RawMark is a backend day entry; both fields are independently nullable.
type RawMark struct {
	Timestamp     *int64 `json:"timestamp"`
	OffsetSeconds *int64 `json:"offsetSeconds"`
}

// CompleteMonthlyRecord is the durable backend's view of one person and month
// with entries and exits together.
type CompleteMonthlyRecord struct {
	EntryRecordID int64               `json:"entryRecordId"`
	ExitRecordID  int64               `json:"exitRecordId"`
	PersonID      string              `json:"personId"`
	Role          string              `json:"role"`
	Names         string              `json:"names"`
	Surnames      string              `json:"surnames"`
	Gender        string              `json:"gender"`
	Month         int                 `json:"month"`
	Entries       map[string]*RawMark `json:"entries"`
	Exits         map[string]*RawMark `json:"exits"`
}

// RecordID returns the backend identifier assigned to the given direction.
func (c *CompleteMonthlyRecord) RecordID(direction Direction) int64 {
	if direction == DirectionEntry {
		return c.EntryRecordID
	}
	return c.ExitRecordID
}

// Raw returns the day map of the given direction.
func (c *CompleteMonthlyRecord) Raw(direction Direction) map[string]*RawMark {
	if direction == DirectionEntry {
		return c.Entries
	}
	return c.Exits
}

// MarkEvent is one attendance mark to be recorded.
type MarkEvent struct {
	Direction     Direction `json:"direction" validate:"required,direction"`
	PersonID      string    `json:"personId" validate:"required,max=32"`
	Role          string    `json:"role" validate:"required"`
	Day           int       `json:"day" validate:"required,min=1,max=31"`
	Timestamp     int64     `json:"timestamp" validate:"required,gt=0"`
	OffsetSeconds int64     `json:"offsetSeconds"`
}

// MonthIn returns the calendar month of the event's timestamp in loc.
func (e *MarkEvent) MonthIn(loc *time.Location) int {
	return MonthOf(e.Timestamp, loc)
}

// MonthOf returns the month (1-12) of an epoch-millisecond timestamp in loc.
func MonthOf(timestampMillis int64, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	return int(time.UnixMilli(timestampMillis).In(loc).Month())
}

// MarkDetail is the ephemeral tier's view of a person's mark.
type MarkDetail struct {
	Timestamp     int64 `json:"timestamp"`
	OffsetSeconds int64 `json:"offsetSeconds"`
}

// SnapshotResult is one person's entry in a Snapshot. Detail is nil when the
// ephemeral tier lists the person without mark data.
type SnapshotResult struct {
	PersonID string      `json:"personId" validate:"required"`
	Detail   *MarkDetail `json:"detail"`
}

// Snapshot is a same-day batch of marks for one actor and direction.
type Snapshot struct {
	Actor     string           `json:"actor" validate:"required,role"`
	Direction Direction        `json:"direction" validate:"required,direction"`
	Month     int              `json:"month" validate:"required,min=1,max=12"`
	Day       int              `json:"day" validate:"min=0,max=31"`
	Results   []SnapshotResult `json:"results" validate:"dive"`
}

// SyncStats summarizes one batch synchronization.
type SyncStats struct {
	Total          int `json:"total"`
	NewlyWritten   int `json:"newlyWritten"`
	AlreadyPresent int `json:"alreadyPresent"`
	Errors         int `json:"errors"`
}

// MarkOutcome names the recorder branch a mark ended in.
type MarkOutcome string

const (
	// OutcomeUpdatedLocal means an existing local record received the day.
	OutcomeUpdatedLocal MarkOutcome = "updated_local"
	// OutcomeReconciled means the record was fetched from the backend, persisted, then updated.
	OutcomeReconciled MarkOutcome = "reconciled"
	// OutcomeDeferred means the mark was dropped because the backend cannot have identifiers yet.
	OutcomeDeferred MarkOutcome = "deferred"
	// OutcomeStaged means the mark was held in the staging tier.
	OutcomeStaged MarkOutcome = "staged"
	// OutcomeAwaitingBackend means the backend had no data (or was unreachable); the mark was dropped.
	OutcomeAwaitingBackend MarkOutcome = "awaiting_backend"
)

// Persisted reports whether the outcome wrote a MonthlyRecord.
func (o MarkOutcome) Persisted() bool {
	return o == OutcomeUpdatedLocal || o == OutcomeReconciled
}

// MarkResult is returned by the recorder for a single event.
type MarkResult struct {
	Outcome   MarkOutcome `json:"outcome"`
	Category  Category    `json:"category"`
	Month     int         `json:"month"`
	SchoolDay int         `json:"schoolDay"`
	Mark      DailyMark   `json:"mark"`
}

// StagedMark is an early-month mark held until the backend assigns identifiers.
type StagedMark struct {
	Category  Category  `json:"category"`
	Direction Direction `json:"direction"`
	PersonID  string    `json:"personId"`
	Month     int       `json:"month"`
	Day       int       `json:"day"`
	Mark      DailyMark `json:"mark"`
	StagedAt  time.Time `json:"stagedAt"`
}

// MarkStatus answers "has this person marked today".
type MarkStatus struct {
	Marked        bool   `json:"marked"`
	Timestamp     int64  `json:"timestamp,omitempty"`
	OffsetSeconds int64  `json:"offsetSeconds,omitempty"`
	Status        Status `json:"status,omitempty"`
}
