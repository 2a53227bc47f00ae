// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/rollcall/internal/metrics"
)

func TestPrometheusMetrics(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Get("/probe/{person}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "person") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"implicit 200", "/probe/p-1", http.StatusOK},
		{"second person same route", "/probe/p-2", http.StatusOK},
		{"explicit status", "/probe/missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}

	ok := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/probe/{person}", "200"))
	if ok != 2 {
		t.Errorf("200 count = %v, want 2 (labeled by route pattern)", ok)
	}
	notFound := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/probe/{person}", "404"))
	if notFound != 1 {
		t.Errorf("404 count = %v, want 1", notFound)
	}
}

func TestPrometheusMetrics_OutsideRouter(t *testing.T) {
	handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/anything", nil))

	got := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(http.MethodPut, unmatchedRoute, "418"))
	if got != 1 {
		t.Errorf("unmatched count = %v, want 1", got)
	}
}
