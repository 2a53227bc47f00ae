// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package models

// Status is the derived state of a daily mark.
type Status string

const (
	StatusOnTime         Status = "En_Tiempo"
	StatusLate           Status = "Tarde"
	StatusCompleted      Status = "Cumplido"
	StatusEarlyDeparture Status = "Salida_Anticipada"
	StatusAbsent         Status = "Falta"
	StatusInactive       Status = "Inactivo"
	StatusUnregistered   Status = "Sin_Registro"
)

// Tolerances are the grace windows, in seconds, applied by DetermineStatus.
type Tolerances struct {
	// EntrySeconds is how late an entry may be and still count as on time.
	EntrySeconds int64
	// ExitSeconds is how early an exit may be and still count as completed.
	ExitSeconds int64
}

// NewTolerances converts minute-based configuration into Tolerances.
func NewTolerances(entryMinutes, exitMinutes int) Tolerances {
	return Tolerances{
		EntrySeconds: int64(entryMinutes) * 60,
		ExitSeconds:  int64(exitMinutes) * 60,
	}
}

// DetermineStatus derives the status of a mark from its offset (actual minus
// expected, in seconds). The same inputs always give the same status. An
// unknown direction yields StatusUnregistered.
func DetermineStatus(offsetSeconds int64, direction Direction, tol Tolerances) Status {
	switch direction {
	case DirectionEntry:
		if offsetSeconds <= tol.EntrySeconds {
			return StatusOnTime
		}
		return StatusLate
	case DirectionExit:
		if offsetSeconds >= -tol.ExitSeconds {
			return StatusCompleted
		}
		return StatusEarlyDeparture
	default:
		return StatusUnregistered
	}
}
