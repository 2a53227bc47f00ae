// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordMark(t *testing.T) {
	before := testutil.ToFloat64(MarksTotal.WithLabelValues("updated_local"))
	RecordMark("updated_local", 3*time.Millisecond)
	RecordMark("updated_local", 5*time.Millisecond)

	if got := testutil.ToFloat64(MarksTotal.WithLabelValues("updated_local")) - before; got != 2 {
		t.Errorf("expected 2 marks recorded, got %v", got)
	}
}

func TestRecordBatch(t *testing.T) {
	written := testutil.ToFloat64(BatchResultsTotal.WithLabelValues("written"))
	present := testutil.ToFloat64(BatchResultsTotal.WithLabelValues("present"))
	errs := testutil.ToFloat64(BatchResultsTotal.WithLabelValues("error"))

	RecordBatch(3, 2, 1, time.Second)

	if d := testutil.ToFloat64(BatchResultsTotal.WithLabelValues("written")) - written; d != 3 {
		t.Errorf("written delta = %v, want 3", d)
	}
	if d := testutil.ToFloat64(BatchResultsTotal.WithLabelValues("present")) - present; d != 2 {
		t.Errorf("present delta = %v, want 2", d)
	}
	if d := testutil.ToFloat64(BatchResultsTotal.WithLabelValues("error")) - errs; d != 1 {
		t.Errorf("error delta = %v, want 1", d)
	}
}

func TestRecordBackendStatus(t *testing.T) {
	before := testutil.ToFloat64(BackendRequestsTotal.WithLabelValues("503"))
	RecordBackendStatus(503, 10*time.Millisecond)
	if d := testutil.ToFloat64(BackendRequestsTotal.WithLabelValues("503")) - before; d != 1 {
		t.Errorf("expected one 503 recorded, got %v", d)
	}
}

func TestRecordStoreErrorAndTermination(t *testing.T) {
	storeBefore := testutil.ToFloat64(StoreErrorsTotal.WithLabelValues("quota"))
	termBefore := testutil.ToFloat64(SessionTerminationsTotal.WithLabelValues("quota"))

	RecordStoreError("quota")
	RecordSessionTermination("quota")

	if d := testutil.ToFloat64(StoreErrorsTotal.WithLabelValues("quota")) - storeBefore; d != 1 {
		t.Errorf("store error delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(SessionTerminationsTotal.WithLabelValues("quota")) - termBefore; d != 1 {
		t.Errorf("termination delta = %v, want 1", d)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/marks", "200"))
	RecordAPIRequest("POST", "/api/v1/marks", 200, time.Millisecond)
	if d := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/marks", "200")) - before; d != 1 {
		t.Errorf("api request delta = %v, want 1", d)
	}
}
