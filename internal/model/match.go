package model

import "time"

// Match statuses.  AVAILABLE and FULL are derived from the participant
// count; CANCELLED and CLOSED are terminal states set by an organizer
// and reject any further capacity consumption regardless of the
// numeric remaining capacity.
const (
	MatchAvailable = "AVAILABLE"
	MatchFull      = "FULL"
	MatchCancelled = "CANCELLED"
	MatchClosed    = "CLOSED"
)

// Match represents a scheduled capacity-limited event that users
// enroll in.  The participant count is the single source of truth for
// derived state: both status and remaining capacity are recomputed
// from it, never stored independently and trusted.
//
// Fields:
//  ID                      – primary key identifier.
//  Title                   – short name of the match.
//  Description             – free-form description.
//  ScheduledAt             – when the match takes place.
//  MaxCapacity             – participant ceiling; immutable once set.
//  CurrentParticipantCount – number of enrolled participants,
//                            0 ≤ count ≤ MaxCapacity at all times.
//  Status                  – AVAILABLE, FULL, CANCELLED or CLOSED.
//  Version                 – write stamp advanced on every committed
//                            mutation; used for optimistic-conflict
//                            detection.
//  CreatedBy               – organizer who created the match.
//  CreatedAt               – creation timestamp.
//  UpdatedAt               – last update timestamp.
type Match struct {
	ID                      uint64    // matches.id
	Title                   string    // matches.title
	Description             string    // matches.description
	ScheduledAt             time.Time // matches.scheduled_at
	MaxCapacity             uint32    // matches.max_capacity
	CurrentParticipantCount uint32    // matches.current_participant_count
	Status                  string    // matches.status
	Version                 uint64    // matches.version
	CreatedBy               uint64    // matches.created_by
	CreatedAt               time.Time // matches.created_at
	UpdatedAt               time.Time // matches.updated_at
}

// RemainingCapacity returns MaxCapacity minus the current participant
// count.  The count may never exceed the ceiling, so the result is
// clamped at zero to keep the invariant visible even on corrupt data.
func (m *Match) RemainingCapacity() uint32 {
	if m.CurrentParticipantCount >= m.MaxCapacity {
		return 0
	}
	return m.MaxCapacity - m.CurrentParticipantCount
}

// IsFull reports whether the match has no remaining capacity.  It is a
// pure predicate over the count, not a stored flag that can drift.
func (m *Match) IsFull() bool {
	return m.RemainingCapacity() == 0
}

// IsTerminal reports whether the match is in a state that permanently
// rejects new enrollments.
func (m *Match) IsTerminal() bool {
	return m.Status == MatchCancelled || m.Status == MatchClosed
}

// DeriveStatus computes the status implied by a participant count.
// Terminal states are sticky; otherwise the match is FULL exactly when
// the count reaches the ceiling and AVAILABLE below it.
func (m *Match) DeriveStatus(count uint32) string {
	if m.IsTerminal() {
		return m.Status
	}
	if count >= m.MaxCapacity {
		return MatchFull
	}
	return MatchAvailable
}
