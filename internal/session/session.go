// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

// Package session defines the session-termination hook invoked when the local
// cache hits an unrecoverable storage fault. Authentication itself lives
// outside Rollcall; this package only carries the narrow contract.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/metrics"
)

// ComponentCode identifies this engine in termination reports.
const ComponentCode = "CLN01"

// Report describes why a session is being terminated.
type Report struct {
	Origin    string         `json:"origin"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Context   map[string]any `json:"context,omitempty"`
	Component string         `json:"component"`
	// Kind is the storage error class that triggered the report.
	Kind string `json:"kind"`
}

// Terminator is notified of unrecoverable storage faults. Implementations must
// not block for long; the caller still returns the original error.
type Terminator interface {
	Terminate(ctx context.Context, report Report)
}

// TerminatorFunc adapts a function to Terminator.
type TerminatorFunc func(ctx context.Context, report Report)

// Terminate calls f.
func (f TerminatorFunc) Terminate(ctx context.Context, report Report) {
	f(ctx, report)
}

// LogTerminator logs the report at error level and counts it.
type LogTerminator struct {
	logger zerolog.Logger
}

// NewLogTerminator creates a LogTerminator on the "session" component logger.
func NewLogTerminator() *LogTerminator {
	return &LogTerminator{logger: logging.WithComponent("session")}
}

// Terminate implements Terminator.
func (t *LogTerminator) Terminate(ctx context.Context, report Report) {
	metrics.RecordSessionTermination(report.Kind)

	event := t.logger.Error().
		Str("origin", report.Origin).
		Str("kind", report.Kind).
		Str("terminated_component", report.Component).
		Time("reported_at", report.Timestamp)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		event = event.Str("correlation_id", id)
	}
	if len(report.Context) > 0 {
		event = event.Interface("context", report.Context)
	}
	event.Msg(report.Message)
}

// Chain fans a report out to several terminators in order.
type Chain []Terminator

// Terminate implements Terminator.
func (c Chain) Terminate(ctx context.Context, report Report) {
	for _, t := range c {
		if t != nil {
			t.Terminate(ctx, report)
		}
	}
}

// CapturingTerminator records every report. It is intended for tests.
type CapturingTerminator struct {
	mu      sync.Mutex
	reports []Report
}

// Terminate implements Terminator.
func (c *CapturingTerminator) Terminate(_ context.Context, report Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, report)
}

// Reports returns a copy of the captured reports.
func (c *CapturingTerminator) Reports() []Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Report, len(c.reports))
	copy(out, c.reports)
	return out
}
