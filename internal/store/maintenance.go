// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package store

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/rollcall/internal/logging"
)

// Maintainer runs periodic value-log GC and expires staged marks older
// than the retention window.
type Maintainer struct {
	store     *Store
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

// NewMaintainer creates a maintenance service for s. A zero retention
// keeps staged marks forever.
func NewMaintainer(s *Store, interval, retention time.Duration) *Maintainer {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Maintainer{
		store:     s,
		interval:  interval,
		retention: retention,
		now:       s.now,
		logger:    logging.WithComponent("store-maintenance"),
	}
}

// Serve implements suture.Service.
func (m *Maintainer) Serve(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := m.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Warn().Err(err).Msg("Store maintenance failed")
			}
		}
	}
}

// String implements fmt.Stringer for suture logs.
func (m *Maintainer) String() string {
	return "store-maintenance"
}

// RunOnce purges expired staged marks, then runs GC.
func (m *Maintainer) RunOnce(ctx context.Context) error {
	if m.retention > 0 {
		n, err := m.store.PurgeStagedBefore(ctx, m.now().Add(-m.retention))
		if err != nil {
			return err
		}
		if n > 0 {
			m.logger.Info().Int("purged", n).Dur("retention", m.retention).Msg("Expired staged marks purged")
		}
	}
	return m.store.RunGC(ctx)
}
