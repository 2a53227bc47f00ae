// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/rollcall/internal/calendar"
	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/metrics"
	"github.com/tomtom215/rollcall/internal/models"
	"github.com/tomtom215/rollcall/internal/reconciler"
)

// DefaultMinSchoolDayToConsult is the first school day on which the backend
// is asked for a missing record.
const DefaultMinSchoolDayToConsult = 2

// Cache is the subset of the local store the recorder writes through.
type Cache interface {
	Get(ctx context.Context, cat models.Category, dir models.Direction, person string, month int, knownRemoteID int64) (*models.MonthlyRecord, error)
	Put(ctx context.Context, rec *models.MonthlyRecord) error
	ApplyMark(ctx context.Context, cat models.Category, dir models.Direction, person string, month, day int, mark models.DailyMark) (*models.MonthlyRecord, error)
	Stage(ctx context.Context, mark *models.StagedMark) error
	StagedFor(ctx context.Context, cat models.Category, dir models.Direction, person string, month int) ([]models.StagedMark, error)
	ClearStaged(ctx context.Context, cat models.Category, dir models.Direction, person string, month int) error
}

// Remote fetches and persists backend records and owns the per-key writer
// lock. *reconciler.Reconciler implements it.
type Remote interface {
	Lock(cat models.Category, person string, month int) (release func())
	Fetch(ctx context.Context, role, person string, month int) (*models.CompleteMonthlyRecord, error)
	Persist(ctx context.Context, cat models.Category, person string, month int, complete *models.CompleteMonthlyRecord, only *models.Direction) (reconciler.Persisted, error)
}

// Options tunes the recorder.
type Options struct {
	Tolerances            models.Tolerances
	MinSchoolDayToConsult int
	StagingEnabled        bool
	Location              *time.Location
	Clock                 calendar.Clock
}

// Recorder is the write path for single attendance marks.
type Recorder struct {
	cache   Cache
	remote  Remote
	counter calendar.Counter
	opts    Options
	log     *logging.AttendanceLogger
}

// New creates a Recorder.
func New(cache Cache, remote Remote, counter calendar.Counter, opts Options) *Recorder {
	if opts.MinSchoolDayToConsult < DefaultMinSchoolDayToConsult {
		opts.MinSchoolDayToConsult = DefaultMinSchoolDayToConsult
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Recorder{
		cache:   cache,
		remote:  remote,
		counter: counter,
		opts:    opts,
		log:     logging.NewAttendanceLogger("recorder"),
	}
}

// Location returns the time zone used to derive month and day.
func (r *Recorder) Location() *time.Location {
	return r.opts.Location
}

// Now returns the recorder's clock reading.
func (r *Recorder) Now() time.Time {
	return r.opts.Clock()
}

// Record classifies one mark and routes it. States, first match wins:
//
//  1. a local record exists: set the day and persist
//  2. school day below the consult threshold: defer (or stage)
//  3. otherwise ask the backend; on data persist both directions and then
//     apply the mark, on no data (or network fault) wait for the backend
//
// Storage faults and invalid roles are returned. Network faults are not.
func (r *Recorder) Record(ctx context.Context, ev models.MarkEvent) (*models.MarkResult, error) {
	start := time.Now()

	res, err := r.record(ctx, ev)
	if err != nil {
		metrics.RecordMark("error", time.Since(start))
		r.log.LogMarkFailed(ctx, string(ev.Direction), ev.PersonID, ev.Role, ev.Day, err)
		return nil, err
	}

	metrics.RecordMark(string(res.Outcome), time.Since(start))
	r.log.LogMarkOutcome(ctx, string(res.Category), string(ev.Direction), ev.PersonID, res.Month, ev.Day, string(res.Outcome), string(res.Mark.Status))
	return res, nil
}

func (r *Recorder) record(ctx context.Context, ev models.MarkEvent) (*models.MarkResult, error) {
	cat, err := models.CategoryForRole(ev.Role)
	if err != nil {
		return nil, err
	}
	if !ev.Direction.Valid() {
		return nil, fmt.Errorf("invalid direction %q", ev.Direction)
	}
	if ev.Day < 1 || ev.Day > 31 {
		return nil, fmt.Errorf("invalid day %d", ev.Day)
	}

	month := ev.MonthIn(r.opts.Location)
	mark := models.NewDailyMark(ev.Timestamp, ev.OffsetSeconds, ev.Direction, r.opts.Tolerances)
	schoolDay := r.counter.SchoolDay(r.opts.Clock())

	res := &models.MarkResult{Category: cat, Month: month, SchoolDay: schoolDay, Mark: mark}

	release := r.remote.Lock(cat, ev.PersonID, month)
	defer release()

	// 1. Local record: fast path, no network.
	rec, err := r.cache.ApplyMark(ctx, cat, ev.Direction, ev.PersonID, month, ev.Day, mark)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		res.Outcome = models.OutcomeUpdatedLocal
		return res, nil
	}

	// 2. Too early in the month for the backend to hold identifiers.
	if schoolDay < r.opts.MinSchoolDayToConsult {
		if !r.opts.StagingEnabled {
			res.Outcome = models.OutcomeDeferred
			return res, nil
		}
		err := r.cache.Stage(ctx, &models.StagedMark{
			Category:  cat,
			Direction: ev.Direction,
			PersonID:  ev.PersonID,
			Month:     month,
			Day:       ev.Day,
			Mark:      mark,
		})
		if err != nil {
			return nil, err
		}
		res.Outcome = models.OutcomeStaged
		return res, nil
	}

	// 3. Ask the backend.
	complete, err := r.remote.Fetch(ctx, ev.Role, ev.PersonID, month)
	if err != nil {
		if errors.Is(err, models.ErrInvalidRole) {
			return nil, err
		}
		r.log.LogBackendFallback(ctx, ev.Role, ev.PersonID, month, err)
		res.Outcome = models.OutcomeAwaitingBackend
		return res, nil
	}
	if complete == nil {
		res.Outcome = models.OutcomeAwaitingBackend
		return res, nil
	}

	opposite := ev.Direction.Opposite()
	sibling, err := r.cache.Get(ctx, cat, opposite, ev.PersonID, month, 0)
	if err != nil {
		return nil, err
	}

	persisted, err := r.remote.Persist(ctx, cat, ev.PersonID, month, complete, nil)
	if err != nil {
		return nil, err
	}
	if err := r.keepLocalDays(ctx, persisted.Record(opposite), sibling); err != nil {
		return nil, err
	}

	rec = persisted.Record(ev.Direction)
	if rec == nil {
		// The backend assigned an identifier but has no days for this direction yet.
		id := complete.RecordID(ev.Direction)
		if id <= 0 {
			res.Outcome = models.OutcomeAwaitingBackend
			return res, nil
		}
		rec = &models.MonthlyRecord{
			RemoteID:  id,
			Category:  cat,
			Direction: ev.Direction,
			PersonID:  ev.PersonID,
			Month:     month,
		}
	}

	drained, err := r.drainStaged(ctx, rec)
	if err != nil {
		return nil, err
	}

	rec.SetMark(ev.Day, mark)
	rec.UpdatedAt = r.opts.Clock().UTC()
	if err := r.cache.Put(ctx, rec); err != nil {
		return nil, err
	}
	if drained {
		if err := r.cache.ClearStaged(ctx, cat, ev.Direction, ev.PersonID, month); err != nil {
			return nil, err
		}
	}

	res.Outcome = models.OutcomeReconciled
	return res, nil
}

// keepLocalDays copies days of the previous local record that the backend
// has not absorbed yet into the freshly persisted one. Backend days win.
func (r *Recorder) keepLocalDays(ctx context.Context, fresh, previous *models.MonthlyRecord) error {
	if fresh == nil || previous == nil {
		return nil
	}
	kept := 0
	for _, day := range previous.Days() {
		if fresh.HasDay(day) {
			continue
		}
		m, _ := previous.Mark(day)
		fresh.SetMark(day, m)
		kept++
	}
	if kept == 0 {
		return nil
	}
	return r.cache.Put(ctx, fresh)
}

// drainStaged copies staged marks into days the backend did not supply.
func (r *Recorder) drainStaged(ctx context.Context, rec *models.MonthlyRecord) (bool, error) {
	if !r.opts.StagingEnabled {
		return false, nil
	}
	staged, err := r.cache.StagedFor(ctx, rec.Category, rec.Direction, rec.PersonID, rec.Month)
	if err != nil {
		return false, err
	}
	for _, m := range staged {
		if !rec.HasDay(m.Day) {
			rec.SetMark(m.Day, m.Mark)
		}
	}
	return len(staged) > 0, nil
}

// HasMarkedToday reports whether person has a mark for today's date in the
// given direction. Staged marks count when staging is enabled.
func (r *Recorder) HasMarkedToday(ctx context.Context, dir models.Direction, role, person string, now time.Time) (*models.MarkStatus, error) {
	cat, err := models.CategoryForRole(role)
	if err != nil {
		return nil, err
	}
	local := now.In(r.opts.Location)
	month, day := int(local.Month()), local.Day()

	rec, err := r.cache.Get(ctx, cat, dir, person, month, 0)
	if err != nil {
		return nil, err
	}
	if m, ok := rec.Mark(day); ok {
		return statusFromMark(m), nil
	}

	if r.opts.StagingEnabled {
		staged, err := r.cache.StagedFor(ctx, cat, dir, person, month)
		if err != nil {
			return nil, err
		}
		for _, s := range staged {
			if s.Day == day {
				return statusFromMark(s.Mark), nil
			}
		}
	}
	return &models.MarkStatus{}, nil
}

func statusFromMark(m models.DailyMark) *models.MarkStatus {
	return &models.MarkStatus{
		Marked:        true,
		Timestamp:     m.Timestamp,
		OffsetSeconds: m.OffsetSeconds,
		Status:        m.Status,
	}
}
