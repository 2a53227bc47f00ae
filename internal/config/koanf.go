// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/rollcall/internal/models"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/rollcall/config.yaml",
	"/etc/rollcall/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8420,
			Timeout:         30 * time.Second,
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Store: StoreConfig{
			Path:           "/data/rollcall",
			SchemaVersion:  "1.0.0",
			SyncWrites:     true,
			MemTableSize:   16 << 20,
			NumCompactors:  2,
			GCInterval:     10 * time.Minute,
			GCDiscardRatio: 0.5,
			CloseTimeout:   30 * time.Second,
		},
		Backend: BackendConfig{
			URL:               "",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 10,
			Burst:             20,
			MaxRetries:        3,
			CircuitBreaker: CircuitBreakerConfig{
				MaxRequests:  3,
				Interval:     time.Minute,
				Timeout:      2 * time.Minute,
				MinRequests:  10,
				FailureRatio: 0.6,
			},
		},
		Snapshot: SnapshotConfig{
			Enabled:     false,
			URL:         "",
			Interval:    time.Minute,
			Timeout:     15 * time.Second,
			Actors:      models.Roles(),
			Directions:  []string{string(models.DirectionEntry), string(models.DirectionExit)},
			NATSEnabled: false,
			NATSURL:     "nats://127.0.0.1:4222",
			NATSSubject: "attendance.snapshots",
			NATSPort:    4222,
		},
		Attendance: AttendanceConfig{
			EntryToleranceMinutes: 5,
			ExitToleranceMinutes:  15,
			MinSchoolDayToConsult: 2,
			StagingEnabled:        false,
			StagingRetention:      72 * time.Hour,
			Timezone:              "America/Lima",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration through the defaults, file and env layers.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths accept comma-separated strings from the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"snapshot.actors",
	"snapshot.directions",
	"attendance.holidays",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"http_host":           "server.host",
	"http_port":           "server.port",
	"http_timeout":        "server.timeout",
	"rate_limit_requests": "server.rate_limit_reqs",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",
	"cors_origins":        "server.cors_origins",

	"store_path":             "store.path",
	"store_schema_version":   "store.schema_version",
	"store_sync_writes":      "store.sync_writes",
	"store_gc_interval":      "store.gc_interval",
	"store_gc_discard_ratio": "store.gc_discard_ratio",

	"backend_url":              "backend.url",
	"backend_timeout":          "backend.timeout",
	"backend_rate_limit":       "backend.requests_per_second",
	"backend_burst":            "backend.burst",
	"backend_max_retries":      "backend.max_retries",
	"backend_cb_failure_ratio": "backend.circuit_breaker.failure_ratio",
	"backend_cb_timeout":       "backend.circuit_breaker.timeout",

	"snapshot_enabled":    "snapshot.enabled",
	"snapshot_url":        "snapshot.url",
	"snapshot_interval":   "snapshot.interval",
	"snapshot_timeout":    "snapshot.timeout",
	"snapshot_actors":     "snapshot.actors",
	"snapshot_directions": "snapshot.directions",
	"nats_enabled":        "snapshot.nats_enabled",
	"nats_url":            "snapshot.nats_url",
	"nats_subject":        "snapshot.nats_subject",
	"nats_embedded":       "snapshot.nats_embedded",
	"nats_port":           "snapshot.nats_port",

	"entry_tolerance_minutes":   "attendance.entry_tolerance_minutes",
	"exit_tolerance_minutes":    "attendance.exit_tolerance_minutes",
	"min_school_day_to_consult": "attendance.min_school_day_to_consult",
	"staging_enabled":           "attendance.staging_enabled",
	"staging_retention":         "attendance.staging_retention",
	"timezone":                  "attendance.timezone",
	"holidays":                  "attendance.holidays",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps known environment variables onto config paths.
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
