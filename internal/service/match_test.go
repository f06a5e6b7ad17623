package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"matchday/internal/repository"
)

func newMatchService(t *testing.T) (*MatchService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewMatchService(db, repository.NewMatchRepo(db)), mock
}

func TestCreate_CapacityBounds(t *testing.T) {
	svc, _ := newMatchService(t)
	ctx := context.Background()
	when := time.Now().Add(24 * time.Hour)

	for _, capacity := range []uint32{0, 501} {
		_, err := svc.Create(ctx, 1, "Sunday League", "", when, capacity)
		if !errors.Is(err, ErrInvalidCapacity) {
			t.Errorf("capacity %d: expected ErrInvalidCapacity, got %v", capacity, err)
		}
	}
}

func TestCreate_NewMatchStartsEmpty(t *testing.T) {
	svc, mock := newMatchService(t)
	ctx := context.Background()
	when := time.Now().Add(24 * time.Hour)

	mock.ExpectExec("INSERT INTO matches").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("SELECT (.+) FROM matches WHERE id").
		WillReturnRows(matchRow(7, 18, 0, "AVAILABLE", 1))

	m, err := svc.Create(ctx, 1, "Sunday League", "", when, 18)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if m.ID != 7 {
		t.Errorf("expected id 7, got %d", m.ID)
	}
	if m.CurrentParticipantCount != 0 || m.Status != "AVAILABLE" || m.Version != 1 {
		t.Errorf("expected fresh match (0, AVAILABLE, v1), got (%d, %s, v%d)",
			m.CurrentParticipantCount, m.Status, m.Version)
	}
}

func TestSetStatus_CancelByOwner(t *testing.T) {
	svc, mock := newMatchService(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM matches WHERE id").
		WillReturnRows(matchRow(7, 10, 4, "AVAILABLE", 3))
	mock.ExpectExec("UPDATE matches").
		WithArgs("CANCELLED", 7, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m, err := svc.SetStatus(ctx, 1, 7, "CANCELLED")
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if m.Status != "CANCELLED" {
		t.Errorf("expected CANCELLED, got %s", m.Status)
	}
	if m.Version != 4 {
		t.Errorf("expected version 4 after commit, got %d", m.Version)
	}
}

func TestSetStatus_OnlyTerminalStatesAccepted(t *testing.T) {
	svc, _ := newMatchService(t)
	ctx := context.Background()

	for _, status := range []string{"AVAILABLE", "FULL", "OPEN", ""} {
		_, err := svc.SetStatus(ctx, 1, 7, status)
		if !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("status %q: expected ErrInvalidStatus, got %v", status, err)
		}
	}
}

func TestSetStatus_NonOwnerForbidden(t *testing.T) {
	svc, mock := newMatchService(t)
	ctx := context.Background()

	// matchRow stamps created_by 1; user 2 must be rejected.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM matches WHERE id").
		WillReturnRows(matchRow(7, 10, 4, "AVAILABLE", 3))
	mock.ExpectRollback()

	_, err := svc.SetStatus(ctx, 2, 7, "CLOSED")
	if !errors.Is(err, repository.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestSetStatus_TerminalIsSticky(t *testing.T) {
	svc, mock := newMatchService(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM matches WHERE id").
		WillReturnRows(matchRow(7, 10, 4, "CANCELLED", 5))
	mock.ExpectRollback()

	_, err := svc.SetStatus(ctx, 1, 7, "CLOSED")
	if !errors.Is(err, ErrMatchNotAvailable) {
		t.Errorf("expected ErrMatchNotAvailable, got %v", err)
	}
}

func TestSetStatus_LosesRaceAgainstEnrollment(t *testing.T) {
	svc, mock := newMatchService(t)
	ctx := context.Background()

	// An enrollment commit advanced the version between our read and
	// the conditional status write.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM matches WHERE id").
		WillReturnRows(matchRow(7, 10, 4, "AVAILABLE", 3))
	mock.ExpectExec("UPDATE matches").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM matches WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()

	_, err := svc.SetStatus(ctx, 1, 7, "CLOSED")
	if !errors.Is(err, repository.ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict, got %v", err)
	}
}
