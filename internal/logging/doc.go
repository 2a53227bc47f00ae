// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

// Package logging provides zerolog-based structured logging for Rollcall.
//
// A single global logger is configured once at startup from the logging
// section of the configuration and is safe for concurrent use afterwards.
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("person_id", id).Msg("Mark recorded")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Backend unavailable")
//
// # Configuration
//
//	LOG_LEVEL   - trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - json, console (default: json)
//	LOG_CALLER  - include caller file:line (default: false)
//
// # Context
//
// Ctx returns a logger carrying the correlation and request IDs stored in the
// context by the API middleware, so a single mark can be followed from the
// HTTP handler down to the storage layer.
//
// # Attendance events
//
// AttendanceLogger wraps a component logger with helpers for the events the
// engine emits repeatedly (mark outcomes, batch summaries, storage faults),
// keeping field names consistent across packages.
//
// # slog
//
// NewSlogLogger adapts the global logger to log/slog for suture.
package logging
