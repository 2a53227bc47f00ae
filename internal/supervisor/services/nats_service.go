// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package services

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/rollcall/internal/logging"
)

// ErrNATSServerDown is returned when the embedded server is no longer running.
var ErrNATSServerDown = errors.New("embedded NATS server is not running")

// NATSServer is the lifecycle of *snapshot.EmbeddedServer.
type NATSServer interface {
	IsRunning() bool
	Shutdown(ctx context.Context) error
}

// NATSServerService keeps an already started embedded NATS server under
// supervision. It checks the server on every healthInterval tick and
// returns ErrNATSServerDown if it has stopped, so the failure is visible
// to the ingest layer. The server is shut down when the context ends.
type NATSServerService struct {
	server          NATSServer
	healthInterval  time.Duration
	shutdownTimeout time.Duration
	name            string
}

// NewNATSServerService wraps server with a 5s health check and a 10s
// shutdown bound.
func NewNATSServerService(server NATSServer) *NATSServerService {
	return &NATSServerService{
		server:          server,
		healthInterval:  5 * time.Second,
		shutdownTimeout: 10 * time.Second,
		name:            "nats-server",
	}
}

// Serve implements suture.Service.
func (s *NATSServerService) Serve(ctx context.Context) error {
	if !s.server.IsRunning() {
		return ErrNATSServerDown
	}

	ticker := time.NewTicker(s.healthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !s.server.IsRunning() {
				logging.Error().Str("service", s.name).Msg("Embedded NATS server stopped unexpectedly")
				return ErrNATSServerDown
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			if err := s.server.Shutdown(shutdownCtx); err != nil {
				logging.Warn().Err(err).Str("service", s.name).Msg("Embedded NATS server shutdown incomplete")
			}
			return ctx.Err()
		}
	}
}

func (s *NATSServerService) String() string {
	return s.name
}
