// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

/*
Package config provides layered configuration for Rollcall.

Configuration is loaded with Koanf v2 in three layers, later layers overriding
earlier ones:

 1. Built-in defaults (structs provider)
 2. A YAML file: CONFIG_PATH, or the first of config.yaml, config.yml,
    /etc/rollcall/config.yaml
 3. Environment variables, through an explicit mapping table

# Sections

  - server: local operator API (host, port, rate limiting, CORS)
  - store: badger local cache (path, schema version, GC)
  - backend: durable backend client (URL, timeout, limiter, circuit breaker)
  - snapshot: ephemeral-tier delivery (HTTP poller, NATS subscriber)
  - attendance: tolerance windows, consult threshold, staging tier, timezone
  - logging: zerolog level and format

# Environment Variables

	HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT
	RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT, CORS_ORIGINS
	STORE_PATH, STORE_SCHEMA_VERSION, STORE_SYNC_WRITES, STORE_GC_INTERVAL
	BACKEND_URL, BACKEND_TIMEOUT, BACKEND_RATE_LIMIT, BACKEND_MAX_RETRIES
	SNAPSHOT_ENABLED, SNAPSHOT_URL, SNAPSHOT_INTERVAL, SNAPSHOT_ACTORS, SNAPSHOT_DIRECTIONS
	NATS_ENABLED, NATS_URL, NATS_SUBJECT, NATS_EMBEDDED, NATS_PORT
	ENTRY_TOLERANCE_MINUTES, EXIT_TOLERANCE_MINUTES, MIN_SCHOOL_DAY_TO_CONSULT
	STAGING_ENABLED, STAGING_RETENTION, TIMEZONE
	LOG_LEVEL, LOG_FORMAT, LOG_CALLER

List values (CORS_ORIGINS, SNAPSHOT_ACTORS, SNAPSHOT_DIRECTIONS) accept
comma-separated strings.

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	loc, _ := cfg.Attendance.Location()
*/
package config
