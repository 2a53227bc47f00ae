// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package main

import (
	"fmt"
	"time"

	"github.com/tomtom215/rollcall/internal/batchsync"
	"github.com/tomtom215/rollcall/internal/config"
	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/models"
	"github.com/tomtom215/rollcall/internal/snapshot"
	"github.com/tomtom215/rollcall/internal/supervisor"
	"github.com/tomtom215/rollcall/internal/supervisor/services"
)

// addIngestServices registers the snapshot poller and the NATS push path.
// Both feed the same synchronizer.
func addIngestServices(tree *supervisor.SupervisorTree, cfg *config.Config, batches *batchsync.Synchronizer, loc *time.Location) error {
	sc := cfg.Snapshot

	natsURL := sc.NATSURL
	if sc.NATSEmbedded {
		ns, err := snapshot.NewEmbeddedServer("127.0.0.1", sc.NATSPort, 10*time.Second)
		if err != nil {
			return fmt.Errorf("embedded NATS: %w", err)
		}
		natsURL = ns.ClientURL()
		tree.AddIngestService(services.NewNATSServerService(ns))
		logging.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	}

	if sc.NATSEnabled {
		tree.AddIngestService(snapshot.NewSubscriber(natsURL, sc.NATSSubject, batches, snapshot.WithSubscriberLocation(loc)))
		logging.Info().Str("subject", sc.NATSSubject).Msg("Snapshot subscriber enabled")
	}

	if sc.Enabled {
		dirs := make([]models.Direction, 0, len(sc.Directions))
		for _, d := range sc.Directions {
			dir, err := models.ParseDirection(d)
			if err != nil {
				return fmt.Errorf("snapshot directions: %w", err)
			}
			dirs = append(dirs, dir)
		}
		pairs := snapshot.Pairs(sc.Actors, dirs)
		source := snapshot.NewHTTPSource(sc.URL, sc.Timeout)
		tree.AddIngestService(snapshot.NewPoller(source, batches, pairs, sc.Interval, snapshot.WithLocation(loc)))
		logging.Info().Int("pairs", len(pairs)).Dur("interval", sc.Interval).Msg("Snapshot poller enabled")
	}
	return nil
}
