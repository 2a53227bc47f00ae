// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSchemaVersion converts a "major.minor.patch" version into the integer
// persisted by the store: major*10000 + minor*100 + patch. Minor and patch must
// stay below 100 so the encoding is monotonic.
func ParseSchemaVersion(version string) (int, error) {
	parts := strings.Split(strings.TrimPrefix(strings.TrimSpace(version), "v"), ".")
	if len(parts) != 3 {
		return 0, fmt.Errorf("schema version %q must be major.minor.patch", version)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("schema version %q has invalid component %q", version, p)
		}
		if i > 0 && n > 99 {
			return 0, fmt.Errorf("schema version %q component %q exceeds 99", version, p)
		}
		nums[i] = n
	}
	return nums[0]*10000 + nums[1]*100 + nums[2], nil
}
