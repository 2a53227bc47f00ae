// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package logging

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// AttendanceLogger provides event helpers shared by the recorder, the
// reconciler and the batch synchronizer so that the same facts are always
// logged under the same field names.
type AttendanceLogger struct {
	logger zerolog.Logger
}

// NewAttendanceLogger creates a logger tagged with the given component.
func NewAttendanceLogger(component string) *AttendanceLogger {
	return &AttendanceLogger{logger: WithComponent(component)}
}

// NewAttendanceLoggerWithLogger wraps an existing logger. Used in tests.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewAttendanceLoggerWithLogger(logger zerolog.Logger) *AttendanceLogger {
	return &AttendanceLogger{logger: logger}
}

func (a *AttendanceLogger) withContext(ctx context.Context) zerolog.Logger {
	l := a.logger.With()
	if id := CorrelationIDFromContext(ctx); id != "" {
		l = l.Str("correlation_id", id)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		l = l.Str("request_id", id)
	}
	return l.Logger()
}

// Logger returns a context-enriched zerolog logger for ad-hoc events.
func (a *AttendanceLogger) Logger(ctx context.Context) zerolog.Logger {
	return a.withContext(ctx)
}

// LogMarkOutcome logs the state-machine branch a single mark ended in.
func (a *AttendanceLogger) LogMarkOutcome(ctx context.Context, category, direction, personID string, month, day int, outcome, status string) {
	l := a.withContext(ctx)
	l.Info().
		Str("category", category).
		Str("direction", direction).
		Str("person_id", personID).
		Int("month", month).
		Int("day", day).
		Str("outcome", outcome).
		Str("status", status).
		Msg("Mark processed")
}

// LogMarkFailed logs a mark that returned an error to the caller.
func (a *AttendanceLogger) LogMarkFailed(ctx context.Context, direction, personID, role string, day int, err error) {
	l := a.withContext(ctx)
	l.Error().
		Err(err).
		Str("direction", direction).
		Str("person_id", personID).
		Str("role", role).
		Int("day", day).
		Msg("Mark failed")
}

// LogBackendFallback logs a backend fault that was degraded to "no data".
func (a *AttendanceLogger) LogBackendFallback(ctx context.Context, role, personID string, month int, err error) {
	l := a.withContext(ctx)
	l.Warn().
		Err(err).
		Str("role", role).
		Str("person_id", personID).
		Int("month", month).
		Msg("Backend unavailable, treating as no data")
}

// LogStorageFault logs a storage error with its classified kind.
func (a *AttendanceLogger) LogStorageFault(ctx context.Context, op, kind string, err error) {
	l := a.withContext(ctx)
	l.Error().
		Err(err).
		Str("op", op).
		Str("kind", kind).
		Msg("Storage fault")
}

// LogBatchCompleted logs the statistics of one batch synchronization.
func (a *AttendanceLogger) LogBatchCompleted(ctx context.Context, actor, direction string, month, day, total, written, present, errs int, elapsed time.Duration) {
	l := a.withContext(ctx)
	event := l.Info()
	if errs > 0 {
		event = l.Warn()
	}
	event.
		Str("actor", actor).
		Str("direction", direction).
		Int("month", month).
		Int("day", day).
		Int("total", total).
		Int("newly_written", written).
		Int("already_present", present).
		Int("errors", errs).
		Dur("elapsed", elapsed).
		Msg("Batch synchronization completed")
}
