// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/rollcall/internal/logging"
	"github.com/tomtom215/rollcall/internal/session"
)

// Config holds BadgerDB settings for the local cache.
type Config struct {
	Path string

	// InMemory keeps all data in memory. Path is ignored.
	InMemory bool

	// SchemaVersion is the numeric schema (major*10000 + minor*100 + patch).
	SchemaVersion int

	SyncWrites       bool
	MemTableSize     int64
	ValueLogFileSize int64
	NumCompactors    int

	GCDiscardRatio float64
	CloseTimeout   time.Duration
}

// DefaultConfig returns production defaults for a store at path.
func DefaultConfig(path string) Config {
	return Config{
		Path:             path,
		SchemaVersion:    10000,
		SyncWrites:       true,
		MemTableSize:     16 << 20,
		ValueLogFileSize: 64 << 20,
		NumCompactors:    2,
		GCDiscardRatio:   0.5,
		CloseTimeout:     30 * time.Second,
	}
}

// InMemoryConfig returns a configuration for a throwaway in-memory store.
func InMemoryConfig() Config {
	cfg := DefaultConfig("")
	cfg.InMemory = true
	cfg.SyncWrites = false
	cfg.ValueLogFileSize = 16 << 20
	cfg.CloseTimeout = 5 * time.Second
	return cfg
}

// Validate checks BadgerDB minimums.
func (c *Config) Validate() error {
	if c.Path == "" && !c.InMemory {
		return errors.New("store path is required")
	}
	if c.SchemaVersion <= 0 {
		return errors.New("schema version must be positive")
	}
	if c.MemTableSize < 1<<20 {
		return errors.New("memtable size must be at least 1MB")
	}
	if c.ValueLogFileSize < 1<<20 {
		return errors.New("value log file size must be at least 1MB")
	}
	if c.NumCompactors < 2 {
		return errors.New("num compactors must be at least 2 (BadgerDB requirement)")
	}
	if c.GCDiscardRatio <= 0 || c.GCDiscardRatio >= 1 {
		return errors.New("gc discard ratio must be between 0 and 1")
	}
	return nil
}

// Store is the badger-backed local cache. It is safe for concurrent use;
// each operation runs in its own badger transaction.
type Store struct {
	db         *badger.DB
	cfg        Config
	terminator session.Terminator
	log        *logging.AttendanceLogger
	now        func() time.Time

	mu     sync.RWMutex
	closed bool
}

// Option configures a Store.
type Option func(*Store)

// WithTerminator sets the hook invoked on unrecoverable faults.
func WithTerminator(t session.Terminator) Option {
	return func(s *Store) { s.terminator = t }
}

// WithClock overrides the clock used for UpdatedAt and StagedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens (or creates) the store and checks its schema version.
func Open(cfg Config, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}

	bopts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.SyncWrites = cfg.SyncWrites
	bopts.MemTableSize = cfg.MemTableSize
	bopts.ValueLogFileSize = cfg.ValueLogFileSize
	bopts.NumCompactors = cfg.NumCompactors
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	s := &Store{
		db:         db,
		cfg:        cfg,
		terminator: session.NewLogTerminator(),
		log:        logging.NewAttendanceLogger("store"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.checkSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Int("schema_version", cfg.SchemaVersion).
		Msg("Local cache opened")
	return s, nil
}

// checkSchema stamps a fresh store and rejects stores written by a newer binary.
func (s *Store) checkSchema() error {
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(schemaVersionKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return txn.Set([]byte(schemaVersionKey), []byte(strconv.Itoa(s.cfg.SchemaVersion)))
		}
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}

		var stored int
		if err := item.Value(func(val []byte) error {
			v, perr := strconv.Atoi(string(val))
			stored = v
			return perr
		}); err != nil {
			return fmt.Errorf("decode schema version: %w", err)
		}

		switch {
		case stored > s.cfg.SchemaVersion:
			return fmt.Errorf("%w: disk=%d binary=%d", ErrSchemaTooNew, stored, s.cfg.SchemaVersion)
		case stored < s.cfg.SchemaVersion:
			logging.Info().Int("from", stored).Int("to", s.cfg.SchemaVersion).Msg("Upgrading local cache schema")
			return txn.Set([]byte(schemaVersionKey), []byte(strconv.Itoa(s.cfg.SchemaVersion)))
		}
		return nil
	})
}

// SchemaVersion returns the persisted schema version.
func (s *Store) SchemaVersion() (int, error) {
	var version int
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(schemaVersionKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			v, perr := strconv.Atoi(string(val))
			version = v
			return perr
		})
	})
	return version, err
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// update runs fn in a read-write transaction after checking ctx and the closed flag.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.Update(fn)
}

// view runs fn in a read-only transaction after checking ctx and the closed flag.
func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.View(fn)
}

// RunGC runs value-log garbage collection until nothing is left to rewrite.
func (s *Store) RunGC(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.cfg.InMemory {
		return nil
	}
	defer gcRunsTotal.Inc()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.RunValueLogGC(s.cfg.GCDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			break
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
	s.updateSizeMetrics()
	return nil
}

func (s *Store) updateSizeMetrics() {
	lsm, vlog := s.db.Size()
	dbSizeBytes.Set(float64(lsm + vlog))
}

// Ping reports whether the store is open and readable.
func (s *Store) Ping(ctx context.Context) error {
	return s.view(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(schemaVersionKey))
		return err
	})
}

// Close closes the database, bounded by Config.CloseTimeout.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	timeout := s.cfg.CloseTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- s.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close BadgerDB: %w", err)
		}
		logging.Info().Msg("Local cache closed")
		return nil
	case <-time.After(timeout):
		logging.Warn().Dur("timeout", timeout).Msg("BadgerDB close timed out")
		return fmt.Errorf("badgerdb close timeout after %v", timeout)
	}
}
