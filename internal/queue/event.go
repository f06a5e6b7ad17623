// Package queue defines message payloads exchanged over the message broker
// and the background consumer that processes them.
package queue

// EnrollmentConfirmedEvent is published after an enrollment commit
// succeeds.  It contains enough information for downstream consumers
// to log, notify, or trigger analytics without querying the primary
// database.
type EnrollmentConfirmedEvent struct {
	MatchID           uint64 `json:"match_id"`
	MatchTitle        string `json:"match_title"`
	ScheduledAt       string `json:"scheduled_at"`
	ParticipantID     uint64 `json:"participant_id"`
	ParticipantName   string `json:"participant_name"`
	UserID            uint64 `json:"user_id"`
	ParticipantCount  uint32 `json:"participant_count"`
	RemainingCapacity uint32 `json:"remaining_capacity"`
	ConfirmedAt       string `json:"confirmed_at"`
}
