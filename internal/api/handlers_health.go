// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status         string  `json:"status"`
	StoreAvailable bool    `json:"storeAvailable"`
	BackendCircuit string  `json:"backendCircuit,omitempty"`
	Uptime         float64 `json:"uptimeSeconds"`
}

// Health reports overall status. The store is required; an open backend
// breaker only degrades, since marks still land locally.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	storeOK := h.store != nil && h.store.Ping(r.Context()) == nil

	health := HealthStatus{
		Status:         "healthy",
		StoreAvailable: storeOK,
		Uptime:         h.now().Sub(h.startTime).Seconds(),
	}
	if h.breaker != nil {
		health.BackendCircuit = h.breaker.State()
		if health.BackendCircuit == "open" {
			health.Status = "degraded"
		}
	}
	if !storeOK {
		health.Status = "unhealthy"
	}

	NewResponseWriter(w, r).Success(health)
}

// HealthLive answers 200 while the process runs.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady answers 200 only when the local store is readable.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.store == nil || h.store.Ping(r.Context()) != nil {
		rw.ServiceUnavailable("Local store is not ready", map[string]interface{}{"ready": false})
		return
	}
	rw.Success(map[string]interface{}{"ready": true})
}
