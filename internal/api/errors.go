// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/rollcall/internal/backend"
	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/models"
	"github.com/tomtom215/rollcall/internal/store"
)

// ErrMalformedBody is returned when a request body is not valid JSON.
var ErrMalformedBody = errors.New("malformed request body")

// ServiceError maps an engine error onto a status and code and writes it.
func (rw *ResponseWriter) ServiceError(err error) {
	log := logging.Ctx(rw.r.Context())
	var se *store.StorageError
	switch {
	case errors.Is(err, models.ErrInvalidRole):
		rw.Error(http.StatusBadRequest, ErrCodeInvalidRole, err.Error())
	case errors.As(err, &se):
		log.Error().Err(err).Str("kind", string(se.Kind)).Msg("Storage fault")
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeStorageError, "Local storage is unavailable",
			map[string]any{"kind": se.Kind, "retryable": true})
	case backend.IsNetworkError(err):
		log.Warn().Err(err).Msg("Backend unavailable")
		details := map[string]any{"circuitOpen": errors.Is(err, backend.ErrCircuitOpen)}
		rw.ErrorWithDetails(http.StatusBadGateway, ErrCodeBackendUnavailable, "Attendance backend is unavailable", details)
	case errors.Is(err, context.DeadlineExceeded):
		rw.Error(http.StatusGatewayTimeout, ErrCodeTimeout, "Request timed out")
	default:
		log.Error().Err(err).Msg("Unhandled service error")
		rw.InternalError("An internal error occurred")
	}
}
