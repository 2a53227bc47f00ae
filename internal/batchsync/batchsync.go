// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

// Package batchsync replays same-day snapshots from the ephemeral tier
// through the recorder, skipping people whose day is already cached.
package batchsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/metrics"
	"github.com/tomtom215/rollcall/internal/models"
)

var (
	// ErrUnresolvableDay means the snapshot carries no day and no detail to derive it from.
	ErrUnresolvableDay = errors.New("snapshot day cannot be determined")

	// ErrMissingDetail means a result lists a person without a usable mark
	// timestamp.
	ErrMissingDetail = errors.New("snapshot result has no detail")

	// ErrMonthMismatch means a detail timestamp falls outside the snapshot month.
	ErrMonthMismatch = errors.New("detail timestamp is outside the snapshot month")
)

// Checker answers whether a day is already cached.
type Checker interface {
	ExistsOnDay(ctx context.Context, cat models.Category, dir models.Direction, person string, month, day int) (bool, error)
}

// Recorder records a single mark. *recorder.Recorder implements it.
type Recorder interface {
	Record(ctx context.Context, ev models.MarkEvent) (*models.MarkResult, error)
}

// Synchronizer replays snapshots.
type Synchronizer struct {
	checker  Checker
	recorder Recorder
	loc      *time.Location
	log      *logging.AttendanceLogger
}

// New creates a Synchronizer. loc is used to derive the day from detail
// timestamps when the snapshot does not carry one.
func New(checker Checker, recorder Recorder, loc *time.Location) *Synchronizer {
	if loc == nil {
		loc = time.Local
	}
	return &Synchronizer{
		checker:  checker,
		recorder: recorder,
		loc:      loc,
		log:      logging.NewAttendanceLogger("batchsync"),
	}
}

// Sync replays every result of snap. One person's failure never aborts the
// batch; it is counted in Errors. An unresolvable day or an unknown actor
// counts every result as an error without writing anything.
func (s *Synchronizer) Sync(ctx context.Context, snap *models.Snapshot) models.SyncStats {
	start := time.Now()
	stats := models.SyncStats{Total: len(snap.Results)}
	defer func() {
		metrics.RecordBatch(stats.NewlyWritten, stats.AlreadyPresent, stats.Errors, time.Since(start))
	}()

	day, err := s.resolveDay(snap)
	if err == nil {
		_, err = models.CategoryForRole(snap.Actor)
	}
	if err != nil {
		stats.Errors = stats.Total
		l := s.log.Logger(ctx)
		l.Error().Err(err).
			Str("actor", snap.Actor).
			Str("direction", string(snap.Direction)).
			Int("results", stats.Total).
			Msg("Snapshot rejected")
		return stats
	}
	cat, _ := models.CategoryForRole(snap.Actor)

	for _, result := range snap.Results {
		if ctx.Err() != nil {
			stats.Errors++
			continue
		}
		present, err := s.syncOne(ctx, cat, snap, day, result)
		switch {
		case err != nil:
			stats.Errors++
			l := s.log.Logger(ctx)
			l.Warn().Err(err).
				Str("person_id", result.PersonID).
				Str("direction", string(snap.Direction)).
				Int("day", day).
				Msg("Snapshot result failed")
		case present:
			stats.AlreadyPresent++
		default:
			stats.NewlyWritten++
		}
	}

	s.log.LogBatchCompleted(ctx, snap.Actor, string(snap.Direction), snap.Month, day,
		stats.Total, stats.NewlyWritten, stats.AlreadyPresent, stats.Errors, time.Since(start))
	return stats
}

func (s *Synchronizer) syncOne(ctx context.Context, cat models.Category, snap *models.Snapshot, day int, result models.SnapshotResult) (bool, error) {
	exists, err := s.checker.ExistsOnDay(ctx, cat, snap.Direction, result.PersonID, snap.Month, day)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}
	if result.Detail == nil || result.Detail.Timestamp <= 0 {
		return false, fmt.Errorf("%s: %w", result.PersonID, ErrMissingDetail)
	}
	// The recorder files marks under the timestamp's month.
	if m := models.MonthOf(result.Detail.Timestamp, s.loc); m != snap.Month {
		return false, fmt.Errorf("%s: month %d, snapshot %d: %w", result.PersonID, m, snap.Month, ErrMonthMismatch)
	}

	_, err = s.recorder.Record(ctx, models.MarkEvent{
		Direction:     snap.Direction,
		PersonID:      result.PersonID,
		Role:          snap.Actor,
		Day:           day,
		Timestamp:     result.Detail.Timestamp,
		OffsetSeconds: result.Detail.OffsetSeconds,
	})
	return false, err
}

// resolveDay takes the snapshot's day, or the day of the first detail
// timestamp in the configured location.
func (s *Synchronizer) resolveDay(snap *models.Snapshot) (int, error) {
	if snap.Day > 0 && snap.Day <= 31 {
		return snap.Day, nil
	}
	for _, r := range snap.Results {
		if r.Detail != nil && r.Detail.Timestamp > 0 {
			return time.UnixMilli(r.Detail.Timestamp).In(s.loc).Day(), nil
		}
	}
	return 0, ErrUnresolvableDay
}
