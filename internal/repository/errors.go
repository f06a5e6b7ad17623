// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting driver-specific errors.  The most
// important one is ErrVersionConflict: every conditional write in this
// package compares an expected version stamp, and a stale stamp
// surfaces as this value rather than as a silent lost update.
package repository

import "errors"

// ErrMatchNotFound indicates that a match was not located in the DB.
var ErrMatchNotFound = errors.New("match not found")

// ErrParticipantNotFound indicates that a participant row does not
// exist or does not belong to the match it was addressed through.
var ErrParticipantNotFound = errors.New("participant not found")

// ErrSelectionNotFound indicates that the user has no selection row.
var ErrSelectionNotFound = errors.New("selection not found")

// ErrLineNotFound indicates that a selection line does not exist
// within the addressed selection.
var ErrLineNotFound = errors.New("selection line not found")

// ErrDuplicateParticipant is returned when the (match, display name)
// uniqueness constraint rejects an insert.
var ErrDuplicateParticipant = errors.New("participant already enrolled")

// ErrVersionConflict is returned when a conditional write found the
// row's version stamp different from the one the caller read.  The
// aggregate was modified concurrently; callers must re-read and decide
// whether to retry.  No partial mutation is visible when this is
// returned.
var ErrVersionConflict = errors.New("version conflict")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers should translate this into an
// HTTP 403 response.
var ErrForbidden = errors.New("forbidden")
