// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/rollcall/internal/models"
)

func recordFields(cat models.Category, dir models.Direction, person string, month int) map[string]any {
	return map[string]any{
		"category":  string(cat),
		"direction": string(dir),
		"person_id": person,
		"month":     month,
	}
}

// Get returns the record for (person, month) in the given collection, or nil
// when none exists. A non-zero knownRemoteID reads the record key directly;
// the returned record must still match person and month.
func (s *Store) Get(ctx context.Context, cat models.Category, dir models.Direction, person string, month int, knownRemoteID int64) (*models.MonthlyRecord, error) {
	var rec *models.MonthlyRecord
	err := s.view(ctx, func(txn *badger.Txn) error {
		id := knownRemoteID
		if id == 0 {
			found, ok, err := lookupIndex(txn, cat, dir, person, month)
			if err != nil || !ok {
				return err
			}
			id = found
		}

		r, err := readRecord(txn, cat, dir, id)
		if err != nil || r == nil {
			return err
		}
		if r.PersonID != person || r.Month != month {
			return nil
		}
		rec = r
		return nil
	})
	if err != nil {
		return nil, s.fault(ctx, "get", err, recordFields(cat, dir, person, month))
	}
	return rec, nil
}

// Put upserts rec keyed by its RemoteID. Any other record indexed under the
// same (person, month) is removed in the same transaction.
func (s *Store) Put(ctx context.Context, rec *models.MonthlyRecord) error {
	if rec == nil {
		return s.fault(ctx, "put", fmt.Errorf("%w: nil record", errConstraint), nil)
	}
	fields := recordFields(rec.Category, rec.Direction, rec.PersonID, rec.Month)
	if err := validateRecord(rec); err != nil {
		return s.fault(ctx, "put", err, fields)
	}

	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = s.now().UTC()
	}

	err := s.update(ctx, func(txn *badger.Txn) error {
		return putRecord(txn, rec)
	})
	if err != nil {
		return s.fault(ctx, "put", err, fields)
	}
	return nil
}

// Delete removes the record for (person, month). A missing record is not an error.
func (s *Store) Delete(ctx context.Context, cat models.Category, dir models.Direction, person string, month int) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		id, ok, err := lookupIndex(txn, cat, dir, person, month)
		if err != nil || !ok {
			return err
		}
		if err := deleteRecord(txn, cat, dir, id, month); err != nil {
			return err
		}
		return txn.Delete(personMonthKey(cat, dir, person, month))
	})
	if err != nil {
		return s.fault(ctx, "delete", err, recordFields(cat, dir, person, month))
	}
	return nil
}

// ExistsOnDay reports whether a record exists for (person, month) and holds day.
func (s *Store) ExistsOnDay(ctx context.Context, cat models.Category, dir models.Direction, person string, month, day int) (bool, error) {
	rec, err := s.Get(ctx, cat, dir, person, month, 0)
	if err != nil {
		return false, err
	}
	return rec.HasDay(day), nil
}

// ApplyMark sets day on the existing record for (person, month) within one
// transaction. It returns nil, without writing, when no record exists.
func (s *Store) ApplyMark(ctx context.Context, cat models.Category, dir models.Direction, person string, month, day int, mark models.DailyMark) (*models.MonthlyRecord, error) {
	var updated *models.MonthlyRecord
	err := s.update(ctx, func(txn *badger.Txn) error {
		id, ok, err := lookupIndex(txn, cat, dir, person, month)
		if err != nil || !ok {
			return err
		}
		rec, err := readRecord(txn, cat, dir, id)
		if err != nil || rec == nil {
			return err
		}
		rec.SetMark(day, mark)
		rec.UpdatedAt = s.now().UTC()
		if err := writeRecord(txn, rec); err != nil {
			return err
		}
		updated = rec
		return nil
	})
	if err != nil {
		fields := recordFields(cat, dir, person, month)
		fields["day"] = day
		return nil, s.fault(ctx, "apply_mark", err, fields)
	}
	return updated, nil
}

// ListMonth returns every record of a collection for month, ordered by RemoteID.
func (s *Store) ListMonth(ctx context.Context, cat models.Category, dir models.Direction, month int) ([]*models.MonthlyRecord, error) {
	var records []*models.MonthlyRecord
	err := s.view(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = monthIndexPrefix(cat, dir, month)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			id, err := remoteIDFromMonthKey(it.Item().KeyCopy(nil))
			if err != nil {
				return err
			}
			rec, err := readRecord(txn, cat, dir, id)
			if err != nil {
				return err
			}
			if rec != nil {
				records = append(records, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.fault(ctx, "list_month", err, map[string]any{
			"category":  string(cat),
			"direction": string(dir),
			"month":     month,
		})
	}
	return records, nil
}

func validateRecord(rec *models.MonthlyRecord) error {
	switch {
	case rec.RemoteID <= 0:
		return fmt.Errorf("%w: record has no remote identifier", errConstraint)
	case !rec.Category.Valid():
		return fmt.Errorf("%w: invalid category %q", errConstraint, rec.Category)
	case !rec.Direction.Valid():
		return fmt.Errorf("%w: invalid direction %q", errConstraint, rec.Direction)
	case rec.PersonID == "":
		return fmt.Errorf("%w: empty person id", errConstraint)
	case rec.Month < 1 || rec.Month > 12:
		return fmt.Errorf("%w: month %d out of range", errConstraint, rec.Month)
	}
	return nil
}

func lookupIndex(txn *badger.Txn, cat models.Category, dir models.Direction, person string, month int) (int64, bool, error) {
	item, err := txn.Get(personMonthKey(cat, dir, person, month))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	var id int64
	err = item.Value(func(val []byte) error {
		var derr error
		id, derr = decodeID(val)
		return derr
	})
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func readRecord(txn *badger.Txn, cat models.Category, dir models.Direction, id int64) (*models.MonthlyRecord, error) {
	item, err := txn.Get(recordKey(cat, dir, id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec models.MonthlyRecord
	err = item.Value(func(val []byte) error {
		if uerr := json.Unmarshal(val, &rec); uerr != nil {
			return fmt.Errorf("%w: record %d: %v", errCorrupt, id, uerr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func writeRecord(txn *badger.Txn, rec *models.MonthlyRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return txn.Set(recordKey(rec.Category, rec.Direction, rec.RemoteID), data)
}

// putRecord writes rec and its indexes, replacing whatever was indexed before.
func putRecord(txn *badger.Txn, rec *models.MonthlyRecord) error {
	cat, dir := rec.Category, rec.Direction

	// Another identifier already owns this (person, month): delete and recreate.
	if prevID, ok, err := lookupIndex(txn, cat, dir, rec.PersonID, rec.Month); err != nil {
		return err
	} else if ok && prevID != rec.RemoteID {
		if err := deleteRecord(txn, cat, dir, prevID, rec.Month); err != nil {
			return err
		}
	}

	// The same identifier previously stored under another (person, month).
	prev, err := readRecord(txn, cat, dir, rec.RemoteID)
	if err != nil && !errors.Is(err, errCorrupt) {
		return err
	}
	if prev != nil && (prev.PersonID != rec.PersonID || prev.Month != rec.Month) {
		if err := dropIndexIfOwned(txn, prev); err != nil {
			return err
		}
		if err := txn.Delete(monthIndexKey(cat, dir, prev.Month, prev.RemoteID)); err != nil {
			return err
		}
	}

	if err := writeRecord(txn, rec); err != nil {
		return err
	}
	if err := txn.Set(personMonthKey(cat, dir, rec.PersonID, rec.Month), encodeID(rec.RemoteID)); err != nil {
		return err
	}
	return txn.Set(monthIndexKey(cat, dir, rec.Month, rec.RemoteID), nil)
}

func dropIndexIfOwned(txn *badger.Txn, rec *models.MonthlyRecord) error {
	id, ok, err := lookupIndex(txn, rec.Category, rec.Direction, rec.PersonID, rec.Month)
	if err != nil || !ok || id != rec.RemoteID {
		return err
	}
	return txn.Delete(personMonthKey(rec.Category, rec.Direction, rec.PersonID, rec.Month))
}

func deleteRecord(txn *badger.Txn, cat models.Category, dir models.Direction, id int64, month int) error {
	if err := txn.Delete(recordKey(cat, dir, id)); err != nil {
		return err
	}
	return txn.Delete(monthIndexKey(cat, dir, month, id))
}
