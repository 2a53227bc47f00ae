// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package batchsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/rollcall/internal/calendar"
	"github.com/tomtom215/rollcall/internal/models"
	"github.com/tomtom215/rollcall/internal/reconciler"
	"github.com/tomtom215/rollcall/internal/recorder"
	"github.com/tomtom215/rollcall/internal/store"
)

var tol = models.NewTolerances(5, 15)

// fetcher hands out a distinct record per person so every person gets ids.
type fetcher struct {
	absent map[string]bool
}

func (f *fetcher) FetchMonthly(_ context.Context, role, person string, month int) (*models.CompleteMonthlyRecord, error) {
	if f.absent[person] {
		return nil, nil
	}
	var id int64
	for _, c := range person {
		id = id*31 + int64(c)
	}
	return &models.CompleteMonthlyRecord{
		EntryRecordID: id,
		ExitRecordID:  id + 1,
		PersonID:      person,
		Role:          role,
		Month:         month,
	}, nil
}

func setup(t *testing.T, f *fetcher) (*Synchronizer, *store.Store) {
	t.Helper()
	s, err := store.Open(store.InMemoryConfig())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	rc := reconciler.New(f, s, tol, time.UTC)
	rec := recorder.New(s, rc, calendar.Fixed(6), recorder.Options{
		Tolerances: tol,
		Location:   time.UTC,
	})
	return New(s, rec, time.UTC), s
}

func detail(day int) *models.MarkDetail {
	return &models.MarkDetail{
		Timestamp:     time.Date(2026, time.June, day, 7, 58, 0, 0, time.UTC).UnixMilli(),
		OffsetSeconds: -120,
	}
}

func snapshot(day int, people ...string) *models.Snapshot {
	snap := &models.Snapshot{
		Actor:     "SECONDARY_TEACHER",
		Direction: models.DirectionEntry,
		Month:     6,
		Day:       day,
	}
	for _, p := range people {
		snap.Results = append(snap.Results, models.SnapshotResult{PersonID: p, Detail: detail(8)})
	}
	return snap
}

func TestSyncWritesNewMarks(t *testing.T) {
	t.Parallel()
	sync, s := setup(t, &fetcher{})

	stats := sync.Sync(context.Background(), snapshot(8, "a", "b", "c"))
	want := models.SyncStats{Total: 3, NewlyWritten: 3}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}

	ok, err := s.ExistsOnDay(context.Background(), models.CategorySecondary, models.DirectionEntry, "b", 6, 8)
	if err != nil || !ok {
		t.Errorf("expected day 8 recorded for b, ok=%v err=%v", ok, err)
	}
}

func TestSyncIdempotentReplay(t *testing.T) {
	t.Parallel()
	sync, _ := setup(t, &fetcher{})
	snap := snapshot(8, "a", "b", "c", "d")

	first := sync.Sync(context.Background(), snap)
	if first.NewlyWritten != 4 {
		t.Fatalf("first run stats = %+v", first)
	}

	second := sync.Sync(context.Background(), snap)
	want := models.SyncStats{Total: 4, NewlyWritten: 0, AlreadyPresent: 4}
	if second != want {
		t.Errorf("replay stats = %+v, want %+v", second, want)
	}
}

func TestSyncPartialFailureIsolation(t *testing.T) {
	t.Parallel()
	sync, s := setup(t, &fetcher{})

	snap := snapshot(8, "a", "c")
	snap.Results = append(snap.Results[:1], append([]models.SnapshotResult{{PersonID: "b"}}, snap.Results[1:]...)...)

	stats := sync.Sync(context.Background(), snap)
	want := models.SyncStats{Total: 3, NewlyWritten: 2, Errors: 1}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
	ok, _ := s.ExistsOnDay(context.Background(), models.CategorySecondary, models.DirectionEntry, "c", 6, 8)
	if !ok {
		t.Error("a failure for b must not stop c")
	}
}

func TestSyncDayFromDetail(t *testing.T) {
	t.Parallel()
	sync, s := setup(t, &fetcher{})

	stats := sync.Sync(context.Background(), snapshot(0, "a"))
	if stats.NewlyWritten != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	ok, _ := s.ExistsOnDay(context.Background(), models.CategorySecondary, models.DirectionEntry, "a", 6, 8)
	if !ok {
		t.Error("day should be derived from the detail timestamp")
	}
}

func TestSyncUnresolvableDay(t *testing.T) {
	t.Parallel()
	sync, s := setup(t, &fetcher{})

	snap := &models.Snapshot{
		Actor:     "TUTOR",
		Direction: models.DirectionExit,
		Month:     6,
		Results:   []models.SnapshotResult{{PersonID: "a"}, {PersonID: "b"}},
	}
	stats := sync.Sync(context.Background(), snap)
	want := models.SyncStats{Total: 2, Errors: 2}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
	list, _ := s.ListMonth(context.Background(), models.CategorySecondary, models.DirectionExit, 6)
	if len(list) != 0 {
		t.Error("nothing may be written when the day is unknown")
	}
}

func TestSyncInvalidActor(t *testing.T) {
	t.Parallel()
	sync, _ := setup(t, &fetcher{})

	snap := snapshot(8, "a", "b")
	snap.Actor = "GARDENER"
	stats := sync.Sync(context.Background(), snap)
	if stats.Errors != 2 || stats.NewlyWritten != 0 {
		t.Errorf("stats = %+v, want all errors", stats)
	}
}

func TestSyncCountsAwaitingAsWritten(t *testing.T) {
	t.Parallel()
	sync, _ := setup(t, &fetcher{absent: map[string]bool{"late": true}})

	stats := sync.Sync(context.Background(), snapshot(8, "late"))
	if stats.NewlyWritten != 1 || stats.Errors != 0 {
		t.Errorf("stats = %+v", stats)
	}
	// Not persisted, so a replay tries again.
	again := sync.Sync(context.Background(), snapshot(8, "late"))
	if again.AlreadyPresent != 0 {
		t.Errorf("unpersisted person must not be present on replay: %+v", again)
	}
}

type failingRecorder struct{}

func (failingRecorder) Record(context.Context, models.MarkEvent) (*models.MarkResult, error) {
	return nil, errors.New("disk full")
}

type emptyChecker struct{}

func (emptyChecker) ExistsOnDay(context.Context, models.Category, models.Direction, string, int, int) (bool, error) {
	return false, nil
}

func TestSyncRecorderErrors(t *testing.T) {
	t.Parallel()
	sync := New(emptyChecker{}, failingRecorder{}, time.UTC)

	stats := sync.Sync(context.Background(), snapshot(8, "a", "b"))
	want := models.SyncStats{Total: 2, Errors: 2}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestSyncRejectsUnusableDetail(t *testing.T) {
	t.Parallel()
	may := time.Date(2026, time.May, 29, 7, 58, 0, 0, time.UTC).UnixMilli()

	tests := []struct {
		name   string
		detail *models.MarkDetail
		want   error
	}{
		{"zero timestamp", &models.MarkDetail{Timestamp: 0, OffsetSeconds: -120}, ErrMissingDetail},
		{"negative timestamp", &models.MarkDetail{Timestamp: -1}, ErrMissingDetail},
		{"other month", &models.MarkDetail{Timestamp: may}, ErrMonthMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sync, s := setup(t, &fetcher{})
			ctx := context.Background()
			snap := &models.Snapshot{
				Actor:     "SECONDARY_TEACHER",
				Direction: models.DirectionEntry,
				Month:     6,
				Day:       8,
				Results:   []models.SnapshotResult{{PersonID: "a", Detail: tt.detail}},
			}

			if _, err := sync.syncOne(ctx, models.CategorySecondary, snap, 8, snap.Results[0]); !errors.Is(err, tt.want) {
				t.Errorf("syncOne() = %v, want %v", err, tt.want)
			}
			for run := 0; run < 2; run++ {
				stats := sync.Sync(ctx, snap)
				want := models.SyncStats{Total: 1, Errors: 1}
				if stats != want {
					t.Fatalf("run %d stats = %+v, want %+v", run, stats, want)
				}
			}
			for _, month := range []int{1, 5, 6} {
				if list, _ := s.ListMonth(ctx, models.CategorySecondary, models.DirectionEntry, month); len(list) != 0 {
					t.Errorf("month %d: nothing may be written, got %d records", month, len(list))
				}
			}
		})
	}
}
