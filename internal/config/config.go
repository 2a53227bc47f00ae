// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/rollcall/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Store      StoreConfig      `koanf:"store"`
	Backend    BackendConfig    `koanf:"backend"`
	Snapshot   SnapshotConfig   `koanf:"snapshot"`
	Attendance AttendanceConfig `koanf:"attendance"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig configures the local operator API.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StoreConfig configures the badger-backed local cache.
type StoreConfig struct {
	// Path is the badger directory.
	Path string `koanf:"path"`

	// SchemaVersion is a semantic version; its numeric form is persisted and
	// checked on open.
	SchemaVersion string `koanf:"schema_version"`

	SyncWrites    bool  `koanf:"sync_writes"`
	MemTableSize  int64 `koanf:"memtable_size"`
	NumCompactors int   `koanf:"num_compactors"`

	GCInterval     time.Duration `koanf:"gc_interval"`
	GCDiscardRatio float64       `koanf:"gc_discard_ratio"`
	CloseTimeout   time.Duration `koanf:"close_timeout"`
}

// BackendConfig configures the durable backend client.
type BackendConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond limits outbound calls; 0 disables limiting.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`

	// MaxRetries bounds retries on HTTP 429 only.
	MaxRetries int `koanf:"max_retries"`

	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
}

// CircuitBreakerConfig tunes the gobreaker wrapper around the backend client.
type CircuitBreakerConfig struct {
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
}

// SnapshotConfig configures delivery of ephemeral-tier snapshots.
type SnapshotConfig struct {
	// Enabled turns on the periodic HTTP poller.
	Enabled  bool          `koanf:"enabled"`
	URL      string        `koanf:"url"`
	Interval time.Duration `koanf:"interval"`
	Timeout  time.Duration `koanf:"timeout"`

	// Actors and Directions define the (actor, direction) pairs polled each tick.
	Actors     []string `koanf:"actors"`
	Directions []string `koanf:"directions"`

	NATSEnabled  bool   `koanf:"nats_enabled"`
	NATSURL      string `koanf:"nats_url"`
	NATSSubject  string `koanf:"nats_subject"`
	NATSEmbedded bool   `koanf:"nats_embedded"`
	NATSPort     int    `koanf:"nats_port"`
}

// AttendanceConfig holds the attendance rules.
type AttendanceConfig struct {
	EntryToleranceMinutes int `koanf:"entry_tolerance_minutes"`
	ExitToleranceMinutes  int `koanf:"exit_tolerance_minutes"`

	// MinSchoolDayToConsult is the first school day of the month on which the
	// durable backend is queried for missing records.
	MinSchoolDayToConsult int `koanf:"min_school_day_to_consult"`

	// StagingEnabled holds early-month marks instead of dropping them.
	StagingEnabled   bool          `koanf:"staging_enabled"`
	StagingRetention time.Duration `koanf:"staging_retention"`

	// Timezone is an IANA name used to derive month and day from timestamps.
	Timezone string `koanf:"timezone"`

	// Holidays are weekdays (YYYY-MM-DD) that do not count as school days.
	Holidays []string `koanf:"holidays"`
}

// Tolerances converts the configured minutes into status tolerances.
func (a AttendanceConfig) Tolerances() models.Tolerances {
	return models.NewTolerances(a.EntryToleranceMinutes, a.ExitToleranceMinutes)
}

// Location resolves Timezone. An empty value means time.Local.
func (a AttendanceConfig) Location() (*time.Location, error) {
	if a.Timezone == "" || a.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", a.Timezone, err)
	}
	return loc, nil
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller includes file:line in log output.
	Caller bool `koanf:"caller"`
}

// ConfigError describes one invalid configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Message)
}

// Load reads configuration from defaults, an optional config file and the
// environment, in that order of precedence.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
