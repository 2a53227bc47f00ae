// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package store

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/rollcall/internal/metrics"
	"github.com/tomtom215/rollcall/internal/session"
)

// Kind classifies a storage failure.
type Kind string

const (
	KindQuota       Kind = "quota"
	KindTransaction Kind = "transaction"
	KindNotFound    Kind = "not_found"
	KindConstraint  Kind = "constraint"
	KindCorruption  Kind = "corruption"
	KindUnknown     Kind = "unknown"
)

// terminates reports whether a fault of this kind ends the session.
func (k Kind) terminates() bool {
	return k == KindQuota || k == KindTransaction || k == KindCorruption
}

var (
	// ErrStoreClosed is returned by operations on a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrSchemaTooNew is returned when the on-disk schema is newer than the binary.
	ErrSchemaTooNew = errors.New("on-disk schema is newer than supported")

	// errCorrupt marks values that could not be decoded.
	errCorrupt = errors.New("corrupt value")

	// errConstraint marks writes that would break a collection invariant.
	errConstraint = errors.New("constraint violated")
)

// StorageError is the single error type returned by the store.
type StorageError struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a *StorageError of the given kind.
func IsKind(err error, kind Kind) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Kind == kind
}

// classify maps a native error onto a Kind.
func classify(err error) Kind {
	switch {
	case errors.Is(err, errCorrupt):
		return KindCorruption
	case errors.Is(err, errConstraint), errors.Is(err, badger.ErrEmptyKey), errors.Is(err, badger.ErrInvalidKey):
		return KindConstraint
	case errors.Is(err, badger.ErrKeyNotFound):
		return KindNotFound
	case errors.Is(err, badger.ErrTxnTooBig), errors.Is(err, syscall.ENOSPC):
		return KindQuota
	case errors.Is(err, badger.ErrConflict),
		errors.Is(err, badger.ErrDiscardedTxn),
		errors.Is(err, badger.ErrBlockedWrites),
		errors.Is(err, badger.ErrDBClosed),
		errors.Is(err, ErrStoreClosed):
		return KindTransaction
	default:
		return KindUnknown
	}
}

// fault wraps err as a *StorageError, records it and, for terminating kinds,
// invokes the session terminator. Context cancellation is returned unwrapped.
func (s *Store) fault(ctx context.Context, op string, err error, fields map[string]any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var existing *StorageError
	if errors.As(err, &existing) {
		return existing
	}

	se := &StorageError{Op: op, Kind: classify(err), Err: err}
	metrics.RecordStoreError(string(se.Kind))
	s.log.LogStorageFault(ctx, op, string(se.Kind), err)

	if se.Kind.terminates() && s.terminator != nil {
		s.terminator.Terminate(ctx, session.Report{
			Origin:    "store." + op,
			Message:   se.Error(),
			Timestamp: time.Now(),
			Context:   fields,
			Component: session.ComponentCode,
			Kind:      string(se.Kind),
		})
	}
	return se
}
