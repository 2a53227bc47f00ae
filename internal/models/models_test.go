// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package models

import (
	"errors"
	"testing"
	"time"
)

func TestCategoryForRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role    string
		want    Category
		wantErr bool
	}{
		{RolePrimaryTeacher, CategoryPrimary, false},
		{RoleSecondaryTeacher, CategorySecondary, false},
		{RoleTutor, CategorySecondary, false},
		{RoleAuxiliary, CategoryAuxiliary, false},
		{RoleAdministrative, CategoryAdministrative, false},
		{"tutor", CategorySecondary, false},
		{" auxiliary ", CategoryAuxiliary, false},
		{"STUDENT", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			t.Parallel()
			got, err := CategoryForRole(tt.role)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRole) {
					t.Fatalf("expected ErrInvalidRole, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CategoryForRole(%q) failed: %v", tt.role, err)
			}
			if got != tt.want {
				t.Errorf("CategoryForRole(%q) = %s, want %s", tt.role, got, tt.want)
			}
		})
	}
}

func TestCategoryForRoleCoversEveryRole(t *testing.T) {
	t.Parallel()

	reached := make(map[Category]bool)
	for _, role := range Roles() {
		cat, err := CategoryForRole(role)
		if err != nil {
			t.Fatalf("role %s is not mapped: %v", role, err)
		}
		if !cat.Valid() {
			t.Errorf("role %s mapped to invalid category %q", role, cat)
		}
		reached[cat] = true
	}
	for _, cat := range Categories() {
		if !reached[cat] {
			t.Errorf("no role maps to category %q", cat)
		}
	}
}

func TestDetermineStatus(t *testing.T) {
	t.Parallel()

	tol := NewTolerances(5, 15)

	tests := []struct {
		name      string
		offset    int64
		direction Direction
		want      Status
	}{
		{"entry early", -600, DirectionEntry, StatusOnTime},
		{"entry exact", 0, DirectionEntry, StatusOnTime},
		{"entry within tolerance", 300, DirectionEntry, StatusOnTime},
		{"entry just late", 301, DirectionEntry, StatusLate},
		{"entry very late", 7200, DirectionEntry, StatusLate},
		{"exit late", 600, DirectionExit, StatusCompleted},
		{"exit exact", 0, DirectionExit, StatusCompleted},
		{"exit within tolerance", -900, DirectionExit, StatusCompleted},
		{"exit just early", -901, DirectionExit, StatusEarlyDeparture},
		{"unknown direction", 0, Direction("sideways"), StatusUnregistered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := DetermineStatus(tt.offset, tt.direction, tol)
			if got != tt.want {
				t.Errorf("DetermineStatus(%d, %s) = %s, want %s", tt.offset, tt.direction, got, tt.want)
			}
			if again := DetermineStatus(tt.offset, tt.direction, tol); again != got {
				t.Errorf("DetermineStatus is not deterministic: %s then %s", got, again)
			}
		})
	}
}

func TestDetermineStatusTotal(t *testing.T) {
	t.Parallel()

	tol := NewTolerances(5, 15)
	allowed := map[DirectionStatusPair]bool{
		{DirectionEntry, StatusOnTime}:        true,
		{DirectionEntry, StatusLate}:          true,
		{DirectionExit, StatusCompleted}:      true,
		{DirectionExit, StatusEarlyDeparture}: true,
	}

	for offset := int64(-3600); offset <= 3600; offset += 7 {
		for _, dir := range Directions() {
			got := DetermineStatus(offset, dir, tol)
			if !allowed[DirectionStatusPair{dir, got}] {
				t.Fatalf("offset %d direction %s produced unexpected status %s", offset, dir, got)
			}
		}
	}
}

type DirectionStatusPair struct {
	Direction Direction
	Status    Status
}

func TestMonthlyRecordDays(t *testing.T) {
	t.Parallel()

	var nilRecord *MonthlyRecord
	if nilRecord.HighestDay() != 0 {
		t.Error("expected 0 for nil record")
	}

	rec := &MonthlyRecord{}
	rec.SetMark(3, DailyMark{Status: StatusOnTime})
	rec.SetMark(12, DailyMark{Status: StatusLate})
	rec.SetMark(3, DailyMark{Status: StatusLate})
	rec.DailyMarks["bogus"] = DailyMark{}

	if got := rec.HighestDay(); got != 12 {
		t.Errorf("HighestDay = %d, want 12", got)
	}
	if len(rec.Days()) != 2 {
		t.Errorf("expected 2 parsed days, got %v", rec.Days())
	}
	if m, _ := rec.Mark(3); m.Status != StatusLate {
		t.Errorf("expected day 3 replaced with Tarde, got %s", m.Status)
	}
	if rec.HasDay(4) {
		t.Error("day 4 should be absent")
	}
}

func TestMonthOf(t *testing.T) {
	t.Parallel()

	lima, err := time.LoadLocation("America/Lima")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	// 2026-04-01 03:00 UTC is still March 31 in Lima.
	ts := time.Date(2026, 4, 1, 3, 0, 0, 0, time.UTC).UnixMilli()
	if got := MonthOf(ts, lima); got != 3 {
		t.Errorf("MonthOf in Lima = %d, want 3", got)
	}
	if got := MonthOf(ts, time.UTC); got != 4 {
		t.Errorf("MonthOf in UTC = %d, want 4", got)
	}
}

func TestParseDirection(t *testing.T) {
	t.Parallel()

	if d, err := ParseDirection("ENTRY"); err != nil || d != DirectionEntry {
		t.Errorf("ParseDirection(ENTRY) = %s, %v", d, err)
	}
	if _, err := ParseDirection("in"); err == nil {
		t.Error("expected error for unknown direction")
	}
}
