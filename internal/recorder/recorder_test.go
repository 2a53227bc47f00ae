// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package recorder

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/rollcall/internal/backend"
	"github.com/tomtom215/rollcall/internal/calendar"
	"github.com/tomtom215/rollcall/internal/models"
	"github.com/tomtom215/rollcall/internal/reconciler"
	"github.com/tomtom215/rollcall/internal/store"
)

const person = "12345678"

var (
	tol   = models.NewTolerances(5, 15)
	today = time.Date(2026, time.June, 5, 8, 0, 0, 0, time.UTC)
)

type fakeFetcher struct {
	calls atomic.Int32
	rec   *models.CompleteMonthlyRecord
	err   error
}

func (f *fakeFetcher) FetchMonthly(context.Context, string, string, int) (*models.CompleteMonthlyRecord, error) {
	f.calls.Add(1)
	return f.rec, f.err
}

func ptr(v int64) *int64 { return &v }

func backendRecord(entryDays, exitDays []int) *models.CompleteMonthlyRecord {
	c := &models.CompleteMonthlyRecord{
		EntryRecordID: 501,
		ExitRecordID:  502,
		PersonID:      person,
		Role:          "PRIMARY_TEACHER",
		Month:         6,
		Entries:       map[string]*models.RawMark{},
		Exits:         map[string]*models.RawMark{},
	}
	for _, d := range entryDays {
		ts := time.Date(2026, time.June, d, 7, 55, 0, 0, time.UTC).UnixMilli()
		c.Entries[models.DayKey(d)] = &models.RawMark{Timestamp: ptr(ts), OffsetSeconds: ptr(-300)}
	}
	for _, d := range exitDays {
		ts := time.Date(2026, time.June, d, 14, 0, 0, 0, time.UTC).UnixMilli()
		c.Exits[models.DayKey(d)] = &models.RawMark{Timestamp: ptr(ts), OffsetSeconds: ptr(0)}
	}
	return c
}

type harness struct {
	store   *store.Store
	fetcher *fakeFetcher
	rc      *reconciler.Reconciler
	rec     *Recorder
}

func newHarness(t *testing.T, schoolDay int, staging bool) *harness {
	t.Helper()
	s, err := store.Open(store.InMemoryConfig())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	f := &fakeFetcher{}
	rc := reconciler.New(f, s, tol, time.UTC)
	r := New(s, rc, calendar.Fixed(schoolDay), Options{
		Tolerances:     tol,
		StagingEnabled: staging,
		Location:       time.UTC,
		Clock:          func() time.Time { return today },
	})
	return &harness{store: s, fetcher: f, rc: rc, rec: r}
}

func event(dir models.Direction, day int, offset int64) models.MarkEvent {
	return models.MarkEvent{
		Direction:     dir,
		PersonID:      person,
		Role:          "PRIMARY_TEACHER",
		Day:           day,
		Timestamp:     time.Date(2026, time.June, day, 8, 0, 0, 0, time.UTC).UnixMilli(),
		OffsetSeconds: offset,
	}
}

func (h *harness) get(t *testing.T, dir models.Direction) *models.MonthlyRecord {
	t.Helper()
	rec, err := h.store.Get(context.Background(), models.CategoryPrimary, dir, person, 6, 0)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	return rec
}

func TestColdStartMidMonth(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 5, false)
	h.fetcher.rec = backendRecord([]int{1, 2, 3, 4}, []int{1, 2, 3, 4})

	res, err := h.rec.Record(context.Background(), event(models.DirectionEntry, 5, 0))
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if res.Outcome != models.OutcomeReconciled {
		t.Fatalf("outcome = %s, want reconciled", res.Outcome)
	}

	entry := h.get(t, models.DirectionEntry)
	if entry == nil {
		t.Fatal("entry record not persisted")
	}
	days := entry.Days()
	if len(days) != 5 {
		t.Fatalf("expected days 1-5, got %v", days)
	}
	for i, d := range days {
		if d != i+1 {
			t.Errorf("days = %v, want [1 2 3 4 5]", days)
			break
		}
	}
	if entry.RemoteID != 501 {
		t.Errorf("entry remote id = %d, want 501", entry.RemoteID)
	}

	exit := h.get(t, models.DirectionExit)
	if exit == nil || len(exit.DailyMarks) != 4 {
		t.Errorf("expected exit record with 4 days, got %+v", exit)
	}
}

func TestEarlyMonthGuard(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 1, false)
	h.fetcher.rec = backendRecord([]int{1}, nil)

	res, err := h.rec.Record(context.Background(), event(models.DirectionEntry, 1, 0))
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if res.Outcome != models.OutcomeDeferred {
		t.Errorf("outcome = %s, want deferred", res.Outcome)
	}
	if h.get(t, models.DirectionEntry) != nil {
		t.Error("no record may be created on the first school day")
	}
	if h.fetcher.calls.Load() != 0 {
		t.Error("backend must not be consulted on the first school day")
	}
}

func TestBackendNotCaughtUp(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 3, false)

	res, err := h.rec.Record(context.Background(), event(models.DirectionEntry, 3, 0))
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if res.Outcome != models.OutcomeAwaitingBackend {
		t.Errorf("outcome = %s, want awaiting_backend", res.Outcome)
	}
	if h.get(t, models.DirectionEntry) != nil {
		t.Error("no record may be created without backend data")
	}
}

func TestNetworkFaultDegradesToAwaiting(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 3, false)
	h.fetcher.err = &backend.NetworkError{Op: "request", Err: context.DeadlineExceeded}

	res, err := h.rec.Record(context.Background(), event(models.DirectionExit, 3, 0))
	if err != nil {
		t.Fatalf("network faults must not propagate, got %v", err)
	}
	if res.Outcome != models.OutcomeAwaitingBackend {
		t.Errorf("outcome = %s, want awaiting_backend", res.Outcome)
	}
}

func TestLocalFastPath(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 5, false)
	h.fetcher.rec = backendRecord([]int{1, 2}, nil)
	ctx := context.Background()

	if _, err := h.rec.Record(ctx, event(models.DirectionEntry, 3, 0)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	res, err := h.rec.Record(ctx, event(models.DirectionEntry, 4, 600))
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if res.Outcome != models.OutcomeUpdatedLocal {
		t.Errorf("outcome = %s, want updated_local", res.Outcome)
	}
	if res.Mark.Status != models.StatusLate {
		t.Errorf("600s late entry status = %s, want Tarde", res.Mark.Status)
	}
	if h.fetcher.calls.Load() != 1 {
		t.Errorf("backend calls = %d, want 1", h.fetcher.calls.Load())
	}
}

func TestNoDuplicateMarks(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 5, false)
	h.fetcher.rec = backendRecord([]int{1, 2, 3, 4}, nil)
	ctx := context.Background()

	for _, offset := range []int64{0, 400, -120} {
		if _, err := h.rec.Record(ctx, event(models.DirectionEntry, 5, offset)); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	entry := h.get(t, models.DirectionEntry)
	if len(entry.DailyMarks) != 5 {
		t.Errorf("expected 5 days, got %d", len(entry.DailyMarks))
	}
	m, _ := entry.Mark(5)
	if m.OffsetSeconds != -120 || m.Status != models.StatusOnTime {
		t.Errorf("day 5 must hold the last write, got %+v", m)
	}
}

func TestConcurrentMarksSamePerson(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 5, false)
	h.fetcher.rec = backendRecord([]int{1}, []int{1})

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for day := 2; day <= 21; day++ {
		for _, dir := range models.Directions() {
			wg.Add(1)
			go func(dir models.Direction, day int) {
				defer wg.Done()
				_, err := h.rec.Record(context.Background(), event(dir, day, 0))
				errs <- err
			}(dir, day)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	for _, dir := range models.Directions() {
		rec := h.get(t, dir)
		if rec == nil || len(rec.DailyMarks) != 21 {
			t.Errorf("%s: expected 21 days, got %+v", dir, rec)
		}
	}
	list, _ := h.store.ListMonth(context.Background(), models.CategoryPrimary, models.DirectionEntry, 6)
	if len(list) != 1 {
		t.Errorf("expected one entry record, got %d", len(list))
	}

	// Every lock was released.
	release := h.rc.Lock(models.CategoryPrimary, person, 6)
	release()
}

// gatedFetcher blocks FetchMonthly until release is closed.
type gatedFetcher struct {
	entered chan struct{}
	release chan struct{}
	rec     *models.CompleteMonthlyRecord
}

func (f *gatedFetcher) FetchMonthly(context.Context, string, string, int) (*models.CompleteMonthlyRecord, error) {
	select {
	case f.entered <- struct{}{}:
	default:
	}
	<-f.release
	return f.rec, nil
}

func TestMarkDuringRefreshIsKept(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2026, time.June, 10, 9, 0, 0, 0, time.UTC)

	s, err := store.Open(store.InMemoryConfig())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	f := &gatedFetcher{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
		rec:     backendRecord([]int{1, 2, 3, 4, 5, 6, 7, 8}, nil),
	}
	rc := reconciler.New(f, s, tol, time.UTC)
	r := New(s, rc, calendar.Fixed(8), Options{
		Tolerances: tol,
		Location:   time.UTC,
		Clock:      func() time.Time { return now },
	})

	if _, err := rc.Persist(ctx, models.CategoryPrimary, person, 6, backendRecord([]int{1, 2, 3, 4, 5, 6, 7}, nil), nil); err != nil {
		t.Fatal(err)
	}

	refreshed := make(chan error, 1)
	go func() {
		_, err := rc.Monthly(ctx, "PRIMARY_TEACHER", person, 6, now)
		refreshed <- err
	}()
	select {
	case <-f.entered:
	case <-time.After(time.Second):
		t.Fatal("refresh never reached the backend")
	}

	type outcome struct {
		res *models.MarkResult
		err error
	}
	recorded := make(chan outcome, 1)
	go func() {
		res, err := r.Record(ctx, event(models.DirectionEntry, 10, 0))
		recorded <- outcome{res, err}
	}()

	select {
	case <-recorded:
		t.Fatal("mark was written while a refresh held the key")
	case <-time.After(50 * time.Millisecond):
	}
	close(f.release)

	if err := <-refreshed; err != nil {
		t.Fatalf("Monthly failed: %v", err)
	}
	got := <-recorded
	if got.err != nil {
		t.Fatalf("Record failed: %v", got.err)
	}
	if got.res.Outcome != models.OutcomeUpdatedLocal {
		t.Errorf("outcome = %s, want updated_local", got.res.Outcome)
	}

	entry, err := s.Get(ctx, models.CategoryPrimary, models.DirectionEntry, person, 6, 0)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !entry.HasDay(8) || !entry.HasDay(10) {
		t.Errorf("expected backend day 8 and local day 10, got %v", entry.Days())
	}
}

func TestReconcileKeepsSiblingLocalDays(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 5, false)
	ctx := context.Background()

	if _, err := h.rc.Persist(ctx, models.CategoryPrimary, person, 6, backendRecord(nil, []int{1, 2, 3}), nil); err != nil {
		t.Fatal(err)
	}
	h.fetcher.rec = backendRecord([]int{1, 2, 3, 4}, []int{1, 2})

	res, err := h.rec.Record(ctx, event(models.DirectionEntry, 5, 0))
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if res.Outcome != models.OutcomeReconciled {
		t.Fatalf("outcome = %s, want reconciled", res.Outcome)
	}

	exit := h.get(t, models.DirectionExit)
	if got := exit.Days(); len(got) != 3 || got[2] != 3 {
		t.Errorf("exit days = %v, want [1 2 3]", got)
	}
	if m, _ := exit.Mark(1); m.Timestamp != time.Date(2026, time.June, 1, 14, 0, 0, 0, time.UTC).UnixMilli() {
		t.Errorf("backend day 1 should win, got %+v", m)
	}
}

func TestEmptyDirectionWithIdentifier(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 4, false)
	h.fetcher.rec = backendRecord([]int{1, 2, 3}, nil)

	res, err := h.rec.Record(context.Background(), event(models.DirectionExit, 4, 0))
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if res.Outcome != models.OutcomeReconciled {
		t.Fatalf("outcome = %s, want reconciled", res.Outcome)
	}
	exit := h.get(t, models.DirectionExit)
	if exit == nil || exit.RemoteID != 502 || len(exit.DailyMarks) != 1 {
		t.Errorf("expected exit record 502 with one day, got %+v", exit)
	}
}

func TestInvalidRole(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 5, false)

	ev := event(models.DirectionEntry, 5, 0)
	ev.Role = "VISITOR"
	_, err := h.rec.Record(context.Background(), ev)
	if !errors.Is(err, models.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestStorageFaultPropagates(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 5, false)
	if err := h.store.Close(); err != nil {
		t.Fatal(err)
	}

	_, err := h.rec.Record(context.Background(), event(models.DirectionEntry, 5, 0))
	var se *store.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected *store.StorageError, got %v", err)
	}
}

func TestStagingTier(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 1, true)
	ctx := context.Background()

	res, err := h.rec.Record(ctx, event(models.DirectionEntry, 1, 30))
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if res.Outcome != models.OutcomeStaged {
		t.Fatalf("outcome = %s, want staged", res.Outcome)
	}
	if h.get(t, models.DirectionEntry) != nil {
		t.Fatal("staging must not create a monthly record")
	}

	status, err := h.rec.HasMarkedToday(ctx, models.DirectionEntry, "PRIMARY_TEACHER", person,
		time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC))
	if err != nil || !status.Marked {
		t.Fatalf("staged mark should count as marked today: %+v err=%v", status, err)
	}

	// Next school day: the backend knows the person but has not absorbed day 1.
	h.rec.counter = calendar.Fixed(2)
	h.fetcher.rec = backendRecord(nil, nil)
	h.fetcher.rec.Entries = map[string]*models.RawMark{}

	res, err = h.rec.Record(ctx, event(models.DirectionEntry, 2, 0))
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if res.Outcome != models.OutcomeReconciled {
		t.Fatalf("outcome = %s, want reconciled", res.Outcome)
	}

	entry := h.get(t, models.DirectionEntry)
	if !entry.HasDay(1) || !entry.HasDay(2) {
		t.Errorf("expected staged day 1 drained alongside day 2, got %v", entry.Days())
	}
	n, _ := h.store.CountStaged(ctx)
	if n != 0 {
		t.Errorf("staged marks should be cleared after draining, %d left", n)
	}
}

func TestStagedMarkLosesToBackend(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 1, true)
	ctx := context.Background()

	if _, err := h.rec.Record(ctx, event(models.DirectionEntry, 1, 900)); err != nil {
		t.Fatal(err)
	}

	h.rec.counter = calendar.Fixed(2)
	h.fetcher.rec = backendRecord([]int{1}, nil)
	if _, err := h.rec.Record(ctx, event(models.DirectionEntry, 2, 0)); err != nil {
		t.Fatal(err)
	}

	m, _ := h.get(t, models.DirectionEntry).Mark(1)
	if m.OffsetSeconds != -300 {
		t.Errorf("backend day 1 must win over the staged mark, got %+v", m)
	}
}

func TestHasMarkedToday(t *testing.T) {
	t.Parallel()
	h := newHarness(t, 5, false)
	h.fetcher.rec = backendRecord([]int{1, 2, 3, 4}, nil)
	ctx := context.Background()

	status, err := h.rec.HasMarkedToday(ctx, models.DirectionEntry, "PRIMARY_TEACHER", person, today)
	if err != nil || status.Marked {
		t.Fatalf("expected not marked, got %+v err=%v", status, err)
	}

	if _, err := h.rec.Record(ctx, event(models.DirectionEntry, 5, 0)); err != nil {
		t.Fatal(err)
	}
	status, err = h.rec.HasMarkedToday(ctx, models.DirectionEntry, "PRIMARY_TEACHER", person, today)
	if err != nil || !status.Marked || status.Status != models.StatusOnTime {
		t.Fatalf("expected marked on time, got %+v err=%v", status, err)
	}
}
