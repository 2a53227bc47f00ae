// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRole is returned when a role or actor cannot be mapped to a category.
// It signals a programming or configuration error and is never swallowed.
var ErrInvalidRole = errors.New("invalid role")

// Category is one of the four staff groupings that own a storage collection.
type Category string

const (
	CategoryPrimary        Category = "primary"
	CategorySecondary      Category = "secondary"
	CategoryAuxiliary      Category = "auxiliary"
	CategoryAdministrative Category = "administrative"
)

// Categories returns every category in storage order.
func Categories() []Category {
	return []Category{CategoryPrimary, CategorySecondary, CategoryAuxiliary, CategoryAdministrative}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryPrimary, CategorySecondary, CategoryAuxiliary, CategoryAdministrative:
		return true
	}
	return false
}

// Upstream role identifiers. Secondary teachers and tutors share a category.
const (
	RolePrimaryTeacher   = "PRIMARY_TEACHER"
	RoleSecondaryTeacher = "SECONDARY_TEACHER"
	RoleTutor            = "TUTOR"
	RoleAuxiliary        = "AUXILIARY"
	RoleAdministrative   = "ADMINISTRATIVE"
)

// Roles returns every recognized upstream role.
func Roles() []string {
	return []string{RolePrimaryTeacher, RoleSecondaryTeacher, RoleTutor, RoleAuxiliary, RoleAdministrative}
}

// CategoryForRole maps an upstream role (or snapshot actor) onto its category.
// Matching is case-insensitive; unknown values wrap ErrInvalidRole.
func CategoryForRole(role string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(role)) {
	case RolePrimaryTeacher:
		return CategoryPrimary, nil
	case RoleSecondaryTeacher, RoleTutor:
		return CategorySecondary, nil
	case RoleAuxiliary:
		return CategoryAuxiliary, nil
	case RoleAdministrative:
		return CategoryAdministrative, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
}

// Direction is the kind of mark: Entry or Exit.
type Direction string

const (
	DirectionEntry Direction = "entry"
	DirectionExit  Direction = "exit"
)

// Directions returns both directions, entries first.
func Directions() []Direction {
	return []Direction{DirectionEntry, DirectionExit}
}

// Valid reports whether d is Entry or Exit.
func (d Direction) Valid() bool {
	return d == DirectionEntry || d == DirectionExit
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == DirectionEntry {
		return DirectionExit
	}
	return DirectionEntry
}

// ParseDirection accepts "entry" or "exit" in any case.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("invalid direction %q", s)
	}
	return d, nil
}
