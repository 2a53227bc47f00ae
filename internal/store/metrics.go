// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dbSizeBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rollcall_store_db_size_bytes",
		Help: "Size of the local cache on disk (LSM plus value log)",
	})

	gcRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_store_gc_runs_total",
		Help: "Value log garbage collection cycles",
	})

	stagedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_store_staged_marks_total",
		Help: "Early-month marks written to the staging tier",
	})

	stagedPurgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_store_staged_purged_total",
		Help: "Staged marks removed after exceeding retention",
	})
)
