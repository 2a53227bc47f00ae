// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package freshness

import (
	"testing"
	"time"

	"github.com/tomtom215/rollcall/internal/models"
)

func recordWithDays(days ...int) *models.MonthlyRecord {
	rec := &models.MonthlyRecord{}
	for _, d := range days {
		rec.SetMark(d, models.DailyMark{})
	}
	return rec
}

func TestIsStaleBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		highest int
		want    bool
	}{
		{"two days behind", 8, true},
		{"one day behind", 9, false},
		{"up to date", 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsStale(recordWithDays(1, tt.highest), nil, 10); got != tt.want {
				t.Errorf("IsStale(highest=%d, current=10) = %v, want %v", tt.highest, got, tt.want)
			}
		})
	}
}

func TestIsStaleUsesBothDirections(t *testing.T) {
	t.Parallel()

	entry := recordWithDays(1, 2, 3)
	exit := recordWithDays(1, 9)
	if IsStale(entry, exit, 10) {
		t.Error("exit day 9 should keep the pair fresh")
	}
	if !IsStale(nil, nil, 3) {
		t.Error("missing records on day 3 should be stale")
	}
	if IsStale(nil, nil, 1) {
		t.Error("missing records on day 1 are within slack")
	}
}

func TestIsStaleIgnoresMalformedKeys(t *testing.T) {
	t.Parallel()

	rec := &models.MonthlyRecord{DailyMarks: map[string]models.DailyMark{
		"4":   {},
		"xx":  {},
		"31a": {},
	}}
	if HighestDay(rec, nil) != 4 {
		t.Errorf("expected highest day 4, got %d", HighestDay(rec, nil))
	}
}

func TestNeedsCheck(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 31, 23, 30, 0, 0, time.UTC)
	if !NeedsCheck(3, now, time.UTC) {
		t.Error("current month must be checked")
	}
	if NeedsCheck(2, now, time.UTC) {
		t.Error("past month must not be checked")
	}

	// 23:30 UTC on March 31 is already April 1 at UTC+2.
	plus2 := time.FixedZone("UTC+2", 2*3600)
	if !NeedsCheck(4, now, plus2) {
		t.Error("month must be computed in the configured location")
	}
}

func TestEvaluatorStale(t *testing.T) {
	t.Parallel()

	e := NewEvaluator(time.UTC)
	now := time.Date(2026, time.May, 10, 9, 0, 0, 0, time.UTC)

	if !e.Stale(recordWithDays(8), nil, 5, now) {
		t.Error("current month, highest 8 on day 10 should be stale")
	}
	if e.Stale(recordWithDays(8), nil, 4, now) {
		t.Error("past months are never stale")
	}
}
