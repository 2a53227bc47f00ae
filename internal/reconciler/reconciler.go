// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package reconciler

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/rollcall/internal/backend"
	"github.com/tomtom215/rollcall/internal/freshness"
	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/models"
)

// Cache is the subset of the local store used here. *store.Store implements it.
type Cache interface {
	Get(ctx context.Context, cat models.Category, dir models.Direction, person string, month int, knownRemoteID int64) (*models.MonthlyRecord, error)
	Put(ctx context.Context, rec *models.MonthlyRecord) error
	Delete(ctx context.Context, cat models.Category, dir models.Direction, person string, month int) error
	ListMonth(ctx context.Context, cat models.Category, dir models.Direction, month int) ([]*models.MonthlyRecord, error)
}

// Source says where a MonthlyResult came from.
type Source string

const (
	SourceLocal     Source = "local"
	SourceRefreshed Source = "refreshed"
	SourceBackend   Source = "backend"
	SourceNone      Source = "none"
)

// MonthlyResult is the pair of records for one person and month.
type MonthlyResult struct {
	Entry  *models.MonthlyRecord `json:"entry"`
	Exit   *models.MonthlyRecord `json:"exit"`
	Found  bool                  `json:"found"`
	Source Source                `json:"source"`
}

// Record returns the record of the given direction.
func (r *MonthlyResult) Record(dir models.Direction) *models.MonthlyRecord {
	if dir == models.DirectionEntry {
		return r.Entry
	}
	return r.Exit
}

// Persisted holds the records written by Persist, indexed by direction.
type Persisted struct {
	Entry *models.MonthlyRecord
	Exit  *models.MonthlyRecord
}

// Record returns the persisted record of the given direction, or nil.
func (p Persisted) Record(dir models.Direction) *models.MonthlyRecord {
	if dir == models.DirectionEntry {
		return p.Entry
	}
	return p.Exit
}

// Reconciler fetches monthly attendance from the durable backend and
// materializes it in the local cache.
type Reconciler struct {
	fetcher   backend.Fetcher
	cache     Cache
	tol       models.Tolerances
	freshness *freshness.Evaluator
	locks     *keyLocks
	log       *logging.AttendanceLogger
	now       func() time.Time
}

// New creates a Reconciler.
func New(fetcher backend.Fetcher, cache Cache, tol models.Tolerances, loc *time.Location) *Reconciler {
	return &Reconciler{
		fetcher:   fetcher,
		cache:     cache,
		tol:       tol,
		freshness: freshness.NewEvaluator(loc),
		locks:     newKeyLocks(),
		log:       logging.NewAttendanceLogger("reconciler"),
		now:       time.Now,
	}
}

// Tolerances returns the status tolerances used for normalization.
func (r *Reconciler) Tolerances() models.Tolerances {
	return r.tol
}

// Location returns the time zone used for month arithmetic.
func (r *Reconciler) Location() *time.Location {
	return r.freshness.Location()
}

// Fetch returns the backend's complete record, or nil when it has none.
// Network faults are returned to the caller.
func (r *Reconciler) Fetch(ctx context.Context, role, person string, month int) (*models.CompleteMonthlyRecord, error) {
	complete, err := r.fetcher.FetchMonthly(ctx, role, person, month)
	if err != nil {
		return nil, fmt.Errorf("fetch monthly attendance: %w", err)
	}
	return complete, nil
}

// Persist writes the non-empty directions of complete. When only is non-nil,
// just that direction is considered. Both directions are written concurrently.
// A direction without a backend identifier is skipped. Callers outside this
// package must hold Lock for the key.
func (r *Reconciler) Persist(ctx context.Context, cat models.Category, person string, month int, complete *models.CompleteMonthlyRecord, only *models.Direction) (Persisted, error) {
	var out Persisted
	if complete == nil {
		return out, nil
	}

	results := make([]*models.MonthlyRecord, 2)
	g, gctx := errgroup.WithContext(ctx)
	for i, dir := range models.Directions() {
		if only != nil && *only != dir {
			continue
		}
		g.Go(func() error {
			rec, err := r.persistDirection(gctx, cat, dir, person, month, complete)
			results[i] = rec
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}

	out.Entry, out.Exit = results[0], results[1]
	return out, nil
}

func (r *Reconciler) persistDirection(ctx context.Context, cat models.Category, dir models.Direction, person string, month int, complete *models.CompleteMonthlyRecord) (*models.MonthlyRecord, error) {
	marks := Normalize(complete.Raw(dir), dir, r.tol)
	if len(marks) == 0 {
		return nil, nil
	}

	id := complete.RecordID(dir)
	if id <= 0 {
		l := r.log.Logger(ctx)
		l.Warn().
			Str("category", string(cat)).
			Str("direction", string(dir)).
			Str("person_id", person).
			Int("month", month).
			Int("days", len(marks)).
			Msg("Backend returned marks without a record identifier, skipping")
		return nil, nil
	}

	rec := &models.MonthlyRecord{
		RemoteID:   id,
		Category:   cat,
		Direction:  dir,
		PersonID:   person,
		Month:      month,
		DailyMarks: marks,
		UpdatedAt:  r.now().UTC(),
	}
	if err := r.cache.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist %s record: %w", dir, err)
	}
	return rec, nil
}

// Monthly returns the entry and exit records of one person and month.
//
// Local data is served first. For the current month, stale local data is
// refetched; if the backend has something newer the local pair is replaced,
// otherwise the local copy is kept. Without local data the backend is asked
// once, unless the month lies in the future. The key's writer lock is held
// from the local read until the refreshed pair is persisted.
func (r *Reconciler) Monthly(ctx context.Context, role, person string, month int, now time.Time) (*MonthlyResult, error) {
	cat, err := models.CategoryForRole(role)
	if err != nil {
		return nil, err
	}
	release := r.Lock(cat, person, month)
	defer release()
	return r.monthly(ctx, cat, role, person, month, now)
}

func (r *Reconciler) monthly(ctx context.Context, cat models.Category, role, person string, month int, now time.Time) (*MonthlyResult, error) {
	entry, exit, err := r.local(ctx, cat, person, month)
	if err != nil {
		return nil, err
	}

	if entry != nil || exit != nil {
		local := &MonthlyResult{Entry: entry, Exit: exit, Found: true, Source: SourceLocal}
		if !r.freshness.Stale(entry, exit, month, now) {
			return local, nil
		}

		complete, err := r.Fetch(ctx, role, person, month)
		if err != nil {
			// Offline: keep serving what we have.
			r.log.LogBackendFallback(ctx, role, person, month, err)
			return local, nil
		}
		if complete == nil {
			return local, nil
		}
		if err := r.deleteBoth(ctx, cat, person, month); err != nil {
			return nil, err
		}
		persisted, err := r.Persist(ctx, cat, person, month, complete, nil)
		if err != nil {
			return nil, err
		}
		return resultFrom(persisted, SourceRefreshed), nil
	}

	if month > int(now.In(r.Location()).Month()) {
		return &MonthlyResult{Source: SourceNone}, nil
	}

	complete, err := r.Fetch(ctx, role, person, month)
	if err != nil {
		return nil, err
	}
	if complete == nil {
		return &MonthlyResult{Source: SourceNone}, nil
	}
	persisted, err := r.Persist(ctx, cat, person, month, complete, nil)
	if err != nil {
		return nil, err
	}
	return resultFrom(persisted, SourceBackend), nil
}

// ForceRefresh drops the local pair and then behaves like Monthly.
func (r *Reconciler) ForceRefresh(ctx context.Context, role, person string, month int, now time.Time) (*MonthlyResult, error) {
	cat, err := models.CategoryForRole(role)
	if err != nil {
		return nil, err
	}
	release := r.Lock(cat, person, month)
	defer release()

	if err := r.deleteBoth(ctx, cat, person, month); err != nil {
		return nil, err
	}
	return r.monthly(ctx, cat, role, person, month, now)
}

// ListMonth returns every cached record of a collection for month.
func (r *Reconciler) ListMonth(ctx context.Context, cat models.Category, dir models.Direction, month int) ([]*models.MonthlyRecord, error) {
	return r.cache.ListMonth(ctx, cat, dir, month)
}

func (r *Reconciler) local(ctx context.Context, cat models.Category, person string, month int) (entry, exit *models.MonthlyRecord, err error) {
	entry, err = r.cache.Get(ctx, cat, models.DirectionEntry, person, month, 0)
	if err != nil {
		return nil, nil, err
	}
	exit, err = r.cache.Get(ctx, cat, models.DirectionExit, person, month, 0)
	if err != nil {
		return nil, nil, err
	}
	return entry, exit, nil
}

func (r *Reconciler) deleteBoth(ctx context.Context, cat models.Category, person string, month int) error {
	for _, dir := range models.Directions() {
		if err := r.cache.Delete(ctx, cat, dir, person, month); err != nil {
			return err
		}
	}
	return nil
}

func resultFrom(p Persisted, source Source) *MonthlyResult {
	res := &MonthlyResult{Entry: p.Entry, Exit: p.Exit, Source: source}
	res.Found = res.Entry != nil || res.Exit != nil
	if !res.Found {
		res.Source = SourceNone
	}
	return res
}
