// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package snapshot

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/rollcall/internal/calendar"
	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/metrics"
	"github.com/tomtom215/rollcall/internal/models"
	"github.com/tomtom215/rollcall/internal/validation"
)

// Poll results reported to metrics.
const (
	resultOK      = "ok"
	resultError   = "error"
	resultInvalid = "invalid"
)

// Pair is one (actor, direction) combination polled each tick.
type Pair struct {
	Actor     string
	Direction models.Direction
}

// Pairs expands actors and directions into every combination, actors outermost.
func Pairs(actors []string, dirs []models.Direction) []Pair {
	pairs := make([]Pair, 0, len(actors)*len(dirs))
	for _, a := range actors {
		for _, d := range dirs {
			pairs = append(pairs, Pair{Actor: a, Direction: d})
		}
	}
	return pairs
}

// Poller periodically pulls snapshots and replays them.
type Poller struct {
	source   Source
	syncer   Syncer
	pairs    []Pair
	interval time.Duration
	loc      *time.Location
	clock    calendar.Clock
	logger   zerolog.Logger
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithLocation sets the time zone used to fill a missing snapshot month.
func WithLocation(loc *time.Location) PollerOption {
	return func(p *Poller) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// WithPollerClock overrides time.Now.
func WithPollerClock(c calendar.Clock) PollerOption {
	return func(p *Poller) {
		if c != nil {
			p.clock = c
		}
	}
}

// NewPoller creates a poller. A non-positive interval defaults to one minute.
func NewPoller(source Source, syncer Syncer, pairs []Pair, interval time.Duration, opts ...PollerOption) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	p := &Poller{
		source:   source,
		syncer:   syncer,
		pairs:    pairs,
		interval: interval,
		loc:      time.Local,
		clock:    time.Now,
		logger:   logging.WithComponent("snapshot-poller"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Serve implements suture.Service. It polls once immediately, then on
// every tick until ctx is canceled.
func (p *Poller) Serve(ctx context.Context) error {
	p.logger.Info().
		Int("pairs", len(p.pairs)).
		Dur("interval", p.interval).
		Msg("Snapshot poller started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.PollOnce(ctx)
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("Snapshot poller stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// String implements fmt.Stringer for suture logs.
func (p *Poller) String() string {
	return "snapshot-poller"
}

// PollOnce fetches and replays every pair once and returns the combined
// stats. A failing pair is logged and skipped.
func (p *Poller) PollOnce(ctx context.Context) models.SyncStats {
	var total models.SyncStats
	for _, pair := range p.pairs {
		if ctx.Err() != nil {
			break
		}
		stats, ok := p.pollPair(ctx, pair)
		if !ok {
			continue
		}
		total.Total += stats.Total
		total.NewlyWritten += stats.NewlyWritten
		total.AlreadyPresent += stats.AlreadyPresent
		total.Errors += stats.Errors
	}
	return total
}

func (p *Poller) pollPair(ctx context.Context, pair Pair) (models.SyncStats, bool) {
	ctx = logging.ContextWithNewCorrelationID(ctx)

	snap, err := p.source.Fetch(ctx, pair.Actor, pair.Direction)
	if err != nil {
		metrics.RecordSnapshotPoll("http", resultError)
		p.logger.Warn().Err(err).
			Str("actor", pair.Actor).
			Str("direction", string(pair.Direction)).
			Msg("Snapshot fetch failed")
		return models.SyncStats{}, false
	}
	if snap.Month == 0 {
		snap.Month = int(p.clock().In(p.loc).Month())
	}
	if verr := validation.ValidateStruct(snap); verr != nil {
		metrics.RecordSnapshotPoll("http", resultInvalid)
		p.logger.Warn().Err(verr).
			Str("actor", pair.Actor).
			Str("direction", string(pair.Direction)).
			Msg("Snapshot rejected")
		return models.SyncStats{}, false
	}

	metrics.RecordSnapshotPoll("http", resultOK)
	return p.syncer.Sync(ctx, snap), true
}
