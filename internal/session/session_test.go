// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package session

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/metrics"
)

func TestLogTerminator(t *testing.T) {
	var buf bytes.Buffer
	term := &LogTerminator{logger: logging.NewTestLogger(&buf)}
	before := testutil.ToFloat64(metrics.SessionTerminationsTotal.WithLabelValues("corruption"))

	term.Terminate(context.Background(), Report{
		Origin:    "store.Put",
		Message:   "record could not be decoded",
		Timestamp: time.Now(),
		Context:   map[string]any{"person_id": "12345678"},
		Component: ComponentCode,
		Kind:      "corruption",
	})

	out := buf.String()
	for _, want := range []string{`"origin":"store.Put"`, `"terminated_component":"CLN01"`, `"person_id":"12345678"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log to contain %s, got: %s", want, out)
		}
	}
	if d := testutil.ToFloat64(metrics.SessionTerminationsTotal.WithLabelValues("corruption")) - before; d != 1 {
		t.Errorf("expected termination counted once, got %v", d)
	}
}

func TestChainAndCapture(t *testing.T) {
	t.Parallel()

	capture := &CapturingTerminator{}
	calls := 0
	chain := Chain{capture, nil, TerminatorFunc(func(context.Context, Report) { calls++ })}

	chain.Terminate(context.Background(), Report{Origin: "a", Kind: "quota"})
	chain.Terminate(context.Background(), Report{Origin: "b", Kind: "transaction"})

	reports := capture.Reports()
	if len(reports) != 2 || reports[1].Origin != "b" {
		t.Fatalf("unexpected captured reports: %+v", reports)
	}
	if calls != 2 {
		t.Errorf("func terminator called %d times, want 2", calls)
	}
}
