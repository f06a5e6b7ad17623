package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"matchday/internal/model"
	"matchday/internal/repository"
)

// maxCapacityCeiling bounds how large a match may be.  The ceiling is
// a business rule, not a technical limit.
const maxCapacityCeiling = 500

// ErrInvalidCapacity is returned when a match is created with a
// non-positive or out-of-bounds participant ceiling.
var ErrInvalidCapacity = errors.New("max capacity must be between 1 and 500")

// ErrInvalidStatus is returned when a lifecycle transition names a
// status the organizer cannot set directly.
var ErrInvalidStatus = errors.New("status must be CANCELLED or CLOSED")

// MatchService covers the organizer-facing match lifecycle: creation
// and the external transitions to the terminal CANCELLED and CLOSED
// states.  AVAILABLE and FULL are never set here; they are derived
// from the participant count by the enrollment engine.
type MatchService struct {
	db      *sql.DB
	matches *repository.MatchRepo
}

// NewMatchService constructs a MatchService.
func NewMatchService(db *sql.DB, matches *repository.MatchRepo) *MatchService {
	if db == nil || matches == nil {
		panic("nil dependency passed to NewMatchService")
	}
	return &MatchService{db: db, matches: matches}
}

// Create inserts a new match owned by the organizer.  The capacity
// ceiling is immutable after this point.
func (s *MatchService) Create(ctx context.Context, organizerID uint64, title, description string, scheduledAt time.Time, maxCapacity uint32) (*model.Match, error) {
	if maxCapacity == 0 || maxCapacity > maxCapacityCeiling {
		return nil, ErrInvalidCapacity
	}
	m := &model.Match{
		Title:       title,
		Description: description,
		ScheduledAt: scheduledAt,
		MaxCapacity: maxCapacity,
		CreatedBy:   organizerID,
	}
	if err := s.matches.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// SetStatus transitions a match to CANCELLED or CLOSED.  Both states
// are terminal: once entered, the match rejects enrollment and cart
// operations permanently, and no further transition is accepted.  The
// write is conditioned on the version read here, so a transition that
// races with an enrollment commit fails with
// repository.ErrVersionConflict rather than overwriting it.
func (s *MatchService) SetStatus(ctx context.Context, organizerID, matchID uint64, status string) (*model.Match, error) {
	if status != model.MatchCancelled && status != model.MatchClosed {
		return nil, ErrInvalidStatus
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	m, err := s.matches.GetTx(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}
	if m.CreatedBy != organizerID {
		return nil, repository.ErrForbidden
	}
	if m.IsTerminal() {
		return nil, ErrMatchNotAvailable
	}
	if err := s.matches.CommitStatusTx(ctx, tx, matchID, status, m.Version); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	m.Status = status
	m.Version++
	return m, nil
}

// Get loads a single match.
func (s *MatchService) Get(ctx context.Context, matchID uint64) (*model.Match, error) {
	return s.matches.GetByID(ctx, matchID)
}

// ListOpen returns all matches still accepting attention from players.
func (s *MatchService) ListOpen(ctx context.Context) ([]model.Match, error) {
	return s.matches.ListOpen(ctx)
}

// ListByCreator returns the organizer's own matches.
func (s *MatchService) ListByCreator(ctx context.Context, organizerID uint64) ([]model.Match, error) {
	return s.matches.ListByCreator(ctx, organizerID)
}
