// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package store

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tomtom215/rollcall/internal/models"
)

// Key prefixes for BadgerDB storage
const (
	recordKeyPrefix      = "rec:"
	personMonthKeyPrefix = "idx:pm:"
	monthKeyPrefix       = "idx:m:"
	stagedKeyPrefix      = "stg:"
	schemaVersionKey     = "meta:schema_version"
)

// personPart escapes the person ID so it can never contain the ':' separator.
func personPart(person string) string {
	return url.QueryEscape(person)
}

func collection(cat models.Category, dir models.Direction) string {
	return string(cat) + ":" + string(dir)
}

func recordKey(cat models.Category, dir models.Direction, remoteID int64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", recordKeyPrefix, collection(cat, dir), remoteID))
}

func personMonthKey(cat models.Category, dir models.Direction, person string, month int) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:%02d", personMonthKeyPrefix, collection(cat, dir), personPart(person), month))
}

func monthIndexPrefix(cat models.Category, dir models.Direction, month int) []byte {
	return []byte(fmt.Sprintf("%s%s:%02d:", monthKeyPrefix, collection(cat, dir), month))
}

func monthIndexKey(cat models.Category, dir models.Direction, month int, remoteID int64) []byte {
	return append(monthIndexPrefix(cat, dir, month), []byte(fmt.Sprintf("%020d", remoteID))...)
}

func stagedPrefix(cat models.Category, dir models.Direction, person string, month int) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:%02d:", stagedKeyPrefix, collection(cat, dir), personPart(person), month))
}

func stagedKey(cat models.Category, dir models.Direction, person string, month, day int) []byte {
	return append(stagedPrefix(cat, dir, person, month), []byte(fmt.Sprintf("%02d", day))...)
}

// remoteIDFromMonthKey extracts the trailing identifier of a month index key.
func remoteIDFromMonthKey(key []byte) (int64, error) {
	s := string(key)
	idx := strings.LastIndexByte(s, ':')
	if idx < 0 {
		return 0, fmt.Errorf("%w: malformed month index key %q", errCorrupt, s)
	}
	id, err := strconv.ParseInt(s[idx+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed month index key %q", errCorrupt, s)
	}
	return id, nil
}

func encodeID(id int64) []byte {
	return []byte(strconv.FormatInt(id, 10))
}

func decodeID(val []byte) (int64, error) {
	id, err := strconv.ParseInt(string(val), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: index value %q", errCorrupt, val)
	}
	return id, nil
}
