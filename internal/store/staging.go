// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/rollcall/internal/models"
)

// Stage holds an early-month mark until the backend has assigned identifiers.
// A later mark for the same day replaces the earlier one.
func (s *Store) Stage(ctx context.Context, mark *models.StagedMark) error {
	if mark == nil || !mark.Category.Valid() || !mark.Direction.Valid() || mark.PersonID == "" {
		return s.fault(ctx, "stage", fmt.Errorf("%w: invalid staged mark", errConstraint), nil)
	}
	if mark.StagedAt.IsZero() {
		mark.StagedAt = s.now().UTC()
	}

	data, err := json.Marshal(mark)
	if err != nil {
		return s.fault(ctx, "stage", fmt.Errorf("marshal staged mark: %w", err), nil)
	}

	key := stagedKey(mark.Category, mark.Direction, mark.PersonID, mark.Month, mark.Day)
	err = s.update(ctx, func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		fields := recordFields(mark.Category, mark.Direction, mark.PersonID, mark.Month)
		fields["day"] = mark.Day
		return s.fault(ctx, "stage", err, fields)
	}
	stagedTotal.Inc()
	return nil
}

// StagedFor returns the staged marks of one person and month in day order.
func (s *Store) StagedFor(ctx context.Context, cat models.Category, dir models.Direction, person string, month int) ([]models.StagedMark, error) {
	var marks []models.StagedMark
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		marks, err = scanStaged(txn, stagedPrefix(cat, dir, person, month))
		return err
	})
	if err != nil {
		return nil, s.fault(ctx, "staged_for", err, recordFields(cat, dir, person, month))
	}
	return marks, nil
}

// ClearStaged removes every staged mark of one person and month.
func (s *Store) ClearStaged(ctx context.Context, cat models.Category, dir models.Direction, person string, month int) error {
	prefix := stagedPrefix(cat, dir, person, month)
	err := s.update(ctx, func(txn *badger.Txn) error {
		keys := collectKeys(txn, prefix)
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return s.fault(ctx, "clear_staged", err, recordFields(cat, dir, person, month))
	}
	return nil
}

// PurgeStagedBefore deletes staged marks staged before cutoff and returns how
// many were removed.
func (s *Store) PurgeStagedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	var expired [][]byte
	err := s.view(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(stagedKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var m models.StagedMark
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			})
			// Undecodable entries are purged as well.
			if err != nil || m.StagedAt.Before(cutoff) {
				expired = append(expired, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, s.fault(ctx, "purge_staged", err, nil)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range expired {
		if err := wb.Delete(k); err != nil {
			return 0, s.fault(ctx, "purge_staged", err, nil)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, s.fault(ctx, "purge_staged", err, nil)
	}
	stagedPurgedTotal.Add(float64(len(expired)))
	return len(expired), nil
}

// CountStaged returns the number of staged marks across all collections.
func (s *Store) CountStaged(ctx context.Context) (int, error) {
	count := 0
	err := s.view(ctx, func(txn *badger.Txn) error {
		count = len(collectKeys(txn, []byte(stagedKeyPrefix)))
		return nil
	})
	if err != nil {
		return 0, s.fault(ctx, "count_staged", err, nil)
	}
	return count, nil
}

func scanStaged(txn *badger.Txn, prefix []byte) ([]models.StagedMark, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var marks []models.StagedMark
	for it.Rewind(); it.Valid(); it.Next() {
		var m models.StagedMark
		err := it.Item().Value(func(val []byte) error {
			if uerr := json.Unmarshal(val, &m); uerr != nil {
				return fmt.Errorf("%w: staged mark %q: %v", errCorrupt, it.Item().Key(), uerr)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		marks = append(marks, m)
	}
	return marks, nil
}

func collectKeys(txn *badger.Txn, prefix []byte) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}
