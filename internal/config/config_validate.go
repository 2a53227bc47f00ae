// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/rollcall/internal/models"
)

// Validate checks that required configuration is present and coherent.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateStore,
		c.validateBackend,
		c.validateSnapshot,
		c.validateAttendance,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &ConfigError{Field: "HTTP_PORT", Message: "must be between 1 and 65535"}
	}
	if !c.Server.RateLimitDisabled && c.Server.RateLimitReqs <= 0 {
		return &ConfigError{Field: "RATE_LIMIT_REQUESTS", Message: "must be positive unless DISABLE_RATE_LIMIT=true"}
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.Path == "" {
		return &ConfigError{Field: "STORE_PATH", Message: "is required"}
	}
	if _, err := ParseSchemaVersion(c.Store.SchemaVersion); err != nil {
		return &ConfigError{Field: "STORE_SCHEMA_VERSION", Message: err.Error()}
	}
	if c.Store.GCDiscardRatio <= 0 || c.Store.GCDiscardRatio >= 1 {
		return &ConfigError{Field: "STORE_GC_DISCARD_RATIO", Message: "must be between 0 and 1 (exclusive)"}
	}
	return nil
}

func (c *Config) validateBackend() error {
	if c.Backend.URL == "" {
		return &ConfigError{Field: "BACKEND_URL", Message: "is required"}
	}
	if err := validateHTTPURL(c.Backend.URL); err != nil {
		return &ConfigError{Field: "BACKEND_URL", Message: err.Error()}
	}
	if c.Backend.Timeout <= 0 {
		return &ConfigError{Field: "BACKEND_TIMEOUT", Message: "must be positive"}
	}
	if c.Backend.RequestsPerSecond < 0 {
		return &ConfigError{Field: "BACKEND_RATE_LIMIT", Message: "must not be negative"}
	}
	cb := c.Backend.CircuitBreaker
	if cb.FailureRatio <= 0 || cb.FailureRatio > 1 {
		return &ConfigError{Field: "BACKEND_CB_FAILURE_RATIO", Message: "must be in (0, 1]"}
	}
	return nil
}

func (c *Config) validateSnapshot() error {
	s := c.Snapshot
	if s.Enabled {
		if s.URL == "" {
			return &ConfigError{Field: "SNAPSHOT_URL", Message: "is required when SNAPSHOT_ENABLED=true"}
		}
		if err := validateHTTPURL(s.URL); err != nil {
			return &ConfigError{Field: "SNAPSHOT_URL", Message: err.Error()}
		}
		if s.Interval <= 0 {
			return &ConfigError{Field: "SNAPSHOT_INTERVAL", Message: "must be positive"}
		}
	}
	for _, actor := range s.Actors {
		if _, err := models.CategoryForRole(actor); err != nil {
			return &ConfigError{Field: "SNAPSHOT_ACTORS", Message: err.Error()}
		}
	}
	for _, dir := range s.Directions {
		if _, err := models.ParseDirection(dir); err != nil {
			return &ConfigError{Field: "SNAPSHOT_DIRECTIONS", Message: err.Error()}
		}
	}
	if s.NATSEnabled && s.NATSSubject == "" {
		return &ConfigError{Field: "NATS_SUBJECT", Message: "is required when NATS_ENABLED=true"}
	}
	return nil
}

func (c *Config) validateAttendance() error {
	a := c.Attendance
	if a.EntryToleranceMinutes < 0 {
		return &ConfigError{Field: "ENTRY_TOLERANCE_MINUTES", Message: "must not be negative"}
	}
	if a.ExitToleranceMinutes < 0 {
		return &ConfigError{Field: "EXIT_TOLERANCE_MINUTES", Message: "must not be negative"}
	}
	if a.MinSchoolDayToConsult < 2 {
		return &ConfigError{Field: "MIN_SCHOOL_DAY_TO_CONSULT", Message: "must be at least 2"}
	}
	if _, err := a.Location(); err != nil {
		return &ConfigError{Field: "TIMEZONE", Message: err.Error()}
	}
	for _, h := range a.Holidays {
		if _, err := time.Parse(time.DateOnly, h); err != nil {
			return &ConfigError{Field: "HOLIDAYS", Message: fmt.Sprintf("%q is not a YYYY-MM-DD date", h)}
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return &ConfigError{Field: "LOG_LEVEL", Message: "must be one of trace, debug, info, warn, error"}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return &ConfigError{Field: "LOG_FORMAT", Message: "must be json or console"}
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ConfigError{Field: "url", Message: "scheme must be http or https"}
	}
	if u.Host == "" {
		return &ConfigError{Field: "url", Message: "host is required"}
	}
	return nil
}
