// Package service implements the enrollment and selection engines on
// top of the repository layer.  Services own the transaction: each
// mutating operation is a single read-validate-write sequence that
// either commits atomically or fails fast with one of the errors
// below.  Not-found, duplicate and stale-version failures are the
// repository sentinels passed through unchanged; this file adds the
// business-state errors the repositories cannot know about.
package service

import (
	"errors"
	"fmt"
)

// ErrMatchNotAvailable is returned when the match is not in the
// AVAILABLE state, so the requested operation is not permitted
// regardless of numeric remaining capacity.
var ErrMatchNotAvailable = errors.New("match is not open for enrollment")

// ErrMatchFull is returned by selection operations when the referenced
// match has no remaining capacity at all.
var ErrMatchFull = errors.New("match is full")

// ErrCapacityExceeded is returned by Enroll when the match has zero
// remaining capacity.  Distinct from ErrMatchFull so callers can
// present enrollment and cart failures differently.
var ErrCapacityExceeded = errors.New("match capacity exceeded")

// ErrInvalidQuantity is returned when a selection operation receives a
// quantity that must be positive but is not.
var ErrInvalidQuantity = errors.New("quantity must be a positive integer")

// InsufficientCapacityError is returned when a requested selection
// quantity does not fit into the match's remaining capacity.  It
// carries the actual remaining figure so callers can report it.
type InsufficientCapacityError struct {
	Remaining uint32 // slots still free on the match
	Requested uint32 // total quantity the line would have held
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("requested %d slots but only %d remain", e.Requested, e.Remaining)
}
