// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package reconciler

import (
	"strconv"
	"strings"

	"github.com/tomtom215/rollcall/internal/models"
)

// Normalize converts a backend day map into DailyMarks. It is pure and total:
//
//	entry null                      -> Inactivo
//	timestamp null, offset null     -> Falta
//	timestamp null, offset known    -> Inactivo (offset dropped)
//	timestamp known, offset null    -> Sin_Registro (timestamp kept)
//	both known                      -> tolerance rule
//
// Numeric day keys are canonicalized ("05" becomes "5").
func Normalize(raw map[string]*models.RawMark, dir models.Direction, tol models.Tolerances) map[string]models.DailyMark {
	out := make(map[string]models.DailyMark, len(raw))
	for key, mark := range raw {
		out[canonicalDay(key)] = normalizeMark(mark, dir, tol)
	}
	return out
}

func normalizeMark(mark *models.RawMark, dir models.Direction, tol models.Tolerances) models.DailyMark {
	if mark == nil {
		return models.DailyMark{Status: models.StatusInactive}
	}
	switch {
	case mark.Timestamp == nil && mark.OffsetSeconds == nil:
		return models.DailyMark{Status: models.StatusAbsent}
	case mark.Timestamp == nil:
		return models.DailyMark{Status: models.StatusInactive}
	case mark.OffsetSeconds == nil:
		return models.DailyMark{Timestamp: *mark.Timestamp, Status: models.StatusUnregistered}
	default:
		return models.NewDailyMark(*mark.Timestamp, *mark.OffsetSeconds, dir, tol)
	}
}

func canonicalDay(key string) string {
	day, err := strconv.Atoi(strings.TrimSpace(key))
	if err != nil || day < 1 || day > 31 {
		return key
	}
	return models.DayKey(day)
}
