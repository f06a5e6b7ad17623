package model

import "time"

// Participant is a committed occupant of one capacity slot in a match.
// A participant entry belongs to exactly one match; the (match,
// display name) pair is unique within a match.  Rows are created on
// successful enrollment and destroyed on unenrollment.
//
// Fields:
//  ID          – primary key identifier.
//  MatchID     – match the slot belongs to.
//  UserID      – account that performed the enrollment.
//  DisplayName – name shown on the roster; unique per match.
//  JoinedAt    – when the enrollment was committed.
type Participant struct {
	ID          uint64    // participants.id
	MatchID     uint64    // participants.match_id
	UserID      uint64    // participants.user_id
	DisplayName string    // participants.display_name
	JoinedAt    time.Time // participants.joined_at
}
