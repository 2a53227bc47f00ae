// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

/*
Package store implements the local cache of monthly attendance records on
BadgerDB.

# Collections

There is one logical collection per (category, direction) pair, eight in all.
Each collection is a key prefix rather than a separate database:

	rec:<category>:<direction>:<remoteID>              JSON MonthlyRecord
	idx:pm:<category>:<direction>:<person>:<month>     remoteID (unique per person and month)
	idx:m:<category>:<direction>:<month>:<remoteID>    empty (bulk reads by month)
	stg:<category>:<direction>:<person>:<month>:<day>  JSON StagedMark
	meta:schema_version                                numeric schema version

Records are keyed by the identifier assigned by the durable backend. Writing a
record whose (person, month) is already indexed under a different identifier
replaces the old record in the same transaction, so a collection never holds
two records for the same person and month.

# Errors

Every failure is returned as a *StorageError carrying a Kind mapped from
badger's native errors. Quota, transaction and corruption faults additionally
invoke the configured session.Terminator before the error is returned.

# Usage

	s, err := store.Open(store.DefaultConfig("/data/rollcall"), store.WithTerminator(t))
	if err != nil {
	    return err
	}
	defer s.Close()

	rec, err := s.Get(ctx, models.CategoryPrimary, models.DirectionEntry, "12345678", 3, 0)
*/
package store
