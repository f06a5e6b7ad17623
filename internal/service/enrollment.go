package service

import (
	"context"
	"database/sql"
	"log"
	"time"

	"matchday/internal/model"
	"matchday/internal/queue"
	"matchday/internal/repository"
)

// EventPublisher publishes domain events after a successful commit.
// Publishing is best-effort; a broker failure never fails the request.
type EventPublisher interface {
	PublishEnrollmentConfirmed(ctx context.Context, ev queue.EnrollmentConfirmedEvent) error
}

// EnrollmentService is the only path that durably commits capacity
// consumption.  Every mutation reads the match snapshot (including its
// version stamp), validates against it, writes the participant row and
// the new count in one transaction, and conditions the count update on
// the version still being current.  A stale version surfaces as
// repository.ErrVersionConflict with no partial mutation visible; the
// service itself never retries on the caller's behalf.
type EnrollmentService struct {
	db           *sql.DB
	matches      *repository.MatchRepo
	participants *repository.ParticipantRepo
	events       EventPublisher // may be nil
}

// NewEnrollmentService constructs an EnrollmentService.  events may be
// nil when no broker is configured.
func NewEnrollmentService(db *sql.DB, matches *repository.MatchRepo, participants *repository.ParticipantRepo, events EventPublisher) *EnrollmentService {
	if db == nil || matches == nil || participants == nil {
		panic("nil dependency passed to NewEnrollmentService")
	}
	return &EnrollmentService{db: db, matches: matches, participants: participants, events: events}
}

// Enroll adds a named participant to a match.  Failure modes, in
// order: repository.ErrMatchNotFound when the match does not exist,
// ErrMatchNotAvailable when it was cancelled or closed,
// ErrCapacityExceeded when no capacity remains,
// repository.ErrDuplicateParticipant when the name is already on the
// roster, and repository.ErrVersionConflict when the match was
// modified between our read and commit.  On success the refreshed
// match view and the created participant are returned.
func (s *EnrollmentService) Enroll(ctx context.Context, matchID, userID uint64, displayName string) (*model.Match, *model.Participant, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	m, err := s.matches.GetTx(ctx, tx, matchID)
	if err != nil {
		return nil, nil, err
	}
	if m.IsTerminal() {
		return nil, nil, ErrMatchNotAvailable
	}
	if m.RemainingCapacity() == 0 {
		// Fullness is a capacity condition, not a lifecycle state.  The
		// count decides, whether the stored status says FULL or lags
		// behind as AVAILABLE.
		return nil, nil, ErrCapacityExceeded
	}

	p := &model.Participant{MatchID: matchID, UserID: userID, DisplayName: displayName}
	if err := s.participants.CreateTx(ctx, tx, p); err != nil {
		return nil, nil, err
	}

	newCount := m.CurrentParticipantCount + 1
	newStatus := m.DeriveStatus(newCount)
	if err := s.matches.CommitCountTx(ctx, tx, matchID, newCount, newStatus, m.Version); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	committed = true

	m.CurrentParticipantCount = newCount
	m.Status = newStatus
	m.Version++
	s.publishConfirmed(ctx, m, p)
	return m, p, nil
}

// Unenroll removes a participant from a match and frees their slot.
// The participant must belong to the addressed match and, unless
// requesterID is zero, must have been created by the requester.  A
// FULL match transitions back to AVAILABLE when a slot frees.
func (s *EnrollmentService) Unenroll(ctx context.Context, matchID, participantID, requesterID uint64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	m, err := s.matches.GetTx(ctx, tx, matchID)
	if err != nil {
		return err
	}
	p, err := s.participants.GetByMatchTx(ctx, tx, matchID, participantID)
	if err != nil {
		return err
	}
	if requesterID != 0 && p.UserID != requesterID {
		return repository.ErrForbidden
	}
	if err := s.participants.DeleteTx(ctx, tx, p.ID); err != nil {
		return err
	}

	newCount := m.CurrentParticipantCount
	if newCount > 0 {
		newCount--
	}
	newStatus := m.DeriveStatus(newCount)
	if err := s.matches.CommitCountTx(ctx, tx, matchID, newCount, newStatus, m.Version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Roster returns the match and its enrolled participants.
func (s *EnrollmentService) Roster(ctx context.Context, matchID uint64) (*model.Match, []model.Participant, error) {
	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	list, err := s.participants.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	return m, list, nil
}

func (s *EnrollmentService) publishConfirmed(ctx context.Context, m *model.Match, p *model.Participant) {
	if s.events == nil {
		return
	}
	ev := queue.EnrollmentConfirmedEvent{
		MatchID:           m.ID,
		MatchTitle:        m.Title,
		ScheduledAt:       m.ScheduledAt.UTC().Format(time.RFC3339),
		ParticipantID:     p.ID,
		ParticipantName:   p.DisplayName,
		UserID:            p.UserID,
		ParticipantCount:  m.CurrentParticipantCount,
		RemainingCapacity: m.RemainingCapacity(),
		ConfirmedAt:       time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.events.PublishEnrollmentConfirmed(ctx, ev); err != nil {
		log.Printf("enrollment: publish confirmed event failed: %v", err)
	}
}
