// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

// Package main runs the Rollcall attendance cache.
//
// Startup order:
//
//  1. Configuration (koanf: defaults, config.yaml, environment)
//  2. Local store (badger) with a logging terminator for storage faults
//  3. Backend client behind a circuit breaker
//  4. Reconciler, recorder and batch synchronizer
//  5. Supervisor tree: store maintenance, snapshot ingest, HTTP API
//
// SIGINT and SIGTERM cancel the tree. The store is closed after every
// service has stopped.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/tomtom215/rollcall/internal/api"
	"github.com/tomtom215/rollcall/internal/backend"
	"github.com/tomtom215/rollcall/internal/batchsync"
	"github.com/tomtom215/rollcall/internal/calendar"
	"github.com/tomtom215/rollcall/internal/config"
	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/reconciler"
	"github.com/tomtom215/rollcall/internal/recorder"
	"github.com/tomtom215/rollcall/internal/session"
	"github.com/tomtom215/rollcall/internal/store"
	"github.com/tomtom215/rollcall/internal/supervisor"
	"github.com/tomtom215/rollcall/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	logging.Info().Str("addr", cfg.Server.Addr()).Msg("Starting Rollcall")

	loc, err := cfg.Attendance.Location()
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid timezone")
	}

	st, err := openStore(&cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open local store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing local store")
		}
	}()

	breaker := backend.NewCircuitBreakerClient(&cfg.Backend)
	tol := cfg.Attendance.Tolerances()

	rc := reconciler.New(breaker, st, tol, loc)
	rec := recorder.New(st, rc, calendar.NewWeekdayCounter(loc, cfg.Attendance.Holidays...), recorder.Options{
		Tolerances:            tol,
		MinSchoolDayToConsult: cfg.Attendance.MinSchoolDayToConsult,
		StagingEnabled:        cfg.Attendance.StagingEnabled,
		Location:              loc,
	})
	batches := batchsync.New(st, rec, loc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddStorageService(store.NewMaintainer(st, cfg.Store.GCInterval, cfg.Attendance.StagingRetention))

	if err := addIngestServices(tree, cfg, batches, loc); err != nil {
		logging.Fatal().Err(err).Msg("Failed to set up snapshot ingest")
	}

	handler := api.NewHandler(rec, batches, rc, st,
		api.WithBreaker(breaker),
		api.WithLocation(loc),
	)
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(handler, &cfg.Server).SetupChi(),
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Timeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	// The channel receives exactly one value and is never closed.
	if err := <-tree.ServeBackground(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	logging.Info().Msg("Rollcall stopped")
}

func openStore(cfg *config.StoreConfig) (*store.Store, error) {
	version, err := config.ParseSchemaVersion(cfg.SchemaVersion)
	if err != nil {
		return nil, err
	}

	scfg := store.DefaultConfig(cfg.Path)
	scfg.SchemaVersion = version
	scfg.SyncWrites = cfg.SyncWrites
	if cfg.MemTableSize > 0 {
		scfg.MemTableSize = cfg.MemTableSize
	}
	if cfg.NumCompactors > 0 {
		scfg.NumCompactors = cfg.NumCompactors
	}
	if cfg.GCDiscardRatio > 0 {
		scfg.GCDiscardRatio = cfg.GCDiscardRatio
	}
	if cfg.CloseTimeout > 0 {
		scfg.CloseTimeout = cfg.CloseTimeout
	}

	st, err := store.Open(scfg, store.WithTerminator(session.NewLogTerminator()))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Path, err)
	}
	return st, nil
}
