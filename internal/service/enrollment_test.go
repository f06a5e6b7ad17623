package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"matchday/internal/repository"
)

var matchCols = []string{
	"id", "title", "description", "scheduled_at", "max_capacity",
	"current_participant_count", "status", "version", "created_by",
	"created_at", "updated_at",
}

func newEnrollmentService(t *testing.T) (*EnrollmentService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	svc := NewEnrollmentService(db, repository.NewMatchRepo(db), repository.NewParticipantRepo(db), nil)
	return svc, mock
}

func matchRow(id uint64, maxCap, count uint32, status string, version uint64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(matchCols).AddRow(
		id, "Friday Night 5-a-side", "", now.Add(48*time.Hour), maxCap,
		count, status, version, 1, now, now,
	)
}

func TestEnroll_LastSlotMarksFull(t *testing.T) {
	svc, mock := newEnrollmentService(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM matches WHERE id").
		WillReturnRows(matchRow(7, 10, 9, "AVAILABLE", 3))
	mock.ExpectExec("INSERT INTO participants").
		WillReturnResult(sqlmock.NewResult(55, 1))
	mock.ExpectQuery("SELECT joined_at FROM participants WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{"joined_at"}).AddRow(time.Now()))
	mock.ExpectExec("UPDATE matches").
		WithArgs(10, "FULL", 7, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m, p, err := svc.Enroll(ctx, 7, 42, "Dana")
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	if m.CurrentParticipantCount != 10 {
		t.Errorf("expected count 10, got %d", m.CurrentParticipantCount)
	}
	if m.Status != "FULL" {
		t.Errorf("expected status FULL, got %s", m.Status)
	}
	if m.Version != 4 {
		t.Errorf("expected version 4 after commit, got %d", m.Version)
	}
	if m.RemainingCapacity() != 0 {
		t.Errorf("expected remaining 0, got %d", m.RemainingCapacity())
	}
	if p.ID != 55 {
		t.Errorf("expected participant id 55, got %d", p.ID)
	}
}

func TestEnroll_MatchNotFound(t *testing.T) {
	svc, mock := newEnrollmentService(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM matches WHERE id").
		WillReturnRows(sqlmock.NewRows(matchCols))
	mock.ExpectRollback()

	_, _, err := svc.Enroll(ctx, 999, 42, "Dana")
	if !errors.Is(err, repository.ErrMatchNotFound) {
		t.Errorf("expected ErrMatchNotFound, got %v", err)
	}
}

func TestEnroll_FullMatchRejected(t *testing.T) {
	svc, mock := newEnrollmentService(t)
	ctx := context.Background()

	// The last slot is gone and the status already reads FULL.  This is
	// a capacity failure, not a lifecycle one.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM matches WHERE id").
		WillReturnRows(matchRow(7, 10, 10, "FULL", 5))
	mock.ExpectRollback()

	_, _, err := svc.Enroll(ctx, 7, 42, "Beto")
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("expected ErrCapacityExceeded, got %v", err)
	}
}

func TestEnroll_TerminalMatchRejected(t *testing.T) {
	svc, mock := newEnrollmentService(t)
	ctx := context.Background()

	for _, status := range []string{"CANCELLED", "CLOSED"} {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM matches WHERE id").
			WillReturnRows(matchRow(7, 10, 2, status, 5))
		mock.ExpectRollback()

		_, _, err := svc.Enroll(ctx, 7, 42, "Dana")
		if !errors.Is(err, ErrMatchNotAvailable) {
			t.Errorf("status %s: expected ErrMatchNotAvailable, got %v", status, err)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected writes: %v", err)
	}
}

func TestEnroll_CapacityGuardEvenWhenStatusStale(t *testing.T) {
	svc, mock := newEnrollmentService(t)
	ctx := context.Background()

	// The stored status lags behind the count.  The count guard must
	// still refuse; no participant insert may happen.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM matches WHERE id").
		WillReturnRows(matchRow(7, 10, 10, "AVAILABLE", 5))
	mock.ExpectRollback()

	_, _, err := svc.Enroll(ctx, 7, 42, "Dana")
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("expected ErrCapacityExceeded, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected writes: %v", err)
	}
}

func TestEnroll_VersionConflict(t *testing.T) {
	svc, mock := newEnrollmentService(t)
	ctx := context.Background()

	// The conditional count update matches no row but the match still
	// exists, meaning another writer advanced the version first.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM matches WHERE id").
		WillReturnRows(matchRow(7, 10, 4, "AVAILABLE", 8))
	mock.ExpectExec("INSERT INTO participants").
		WillReturnResult(sqlmock.NewResult(56, 1))
	mock.ExpectQuery("SELECT joined_at FROM participants WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{"joined_at"}).AddRow(time.Now()))
	mock.ExpectExec("UPDATE matches").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM matches WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()

	_, _, err := svc.Enroll(ctx, 7, 42, "Dana")
	if !errors.Is(err, repository.ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict, got %v", err)
	}
}

func TestEnroll_DuplicateName(t *testing.T) {
	svc, mock := newEnrollmentService(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM matches WHERE id").
		WillReturnRows(matchRow(7, 10, 4, "AVAILABLE", 8))
	mock.ExpectExec("INSERT INTO participants").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'Dana' for key 'uq_participants_match_name'"))
	mock.ExpectRollback()

	_, _, err := svc.Enroll(ctx, 7, 42, "Dana")
	if !errors.Is(err, repository.ErrDuplicateParticipant) {
		t.Errorf("expected ErrDuplicateParticipant, got %v", err)
	}
}

func TestUnenroll_FreesSlotAndReopens(t *testing.T) {
	svc, mock := newEnrollmentService(t)
	ctx := context.Background()

	// A FULL match drops back to AVAILABLE when a slot frees.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM matches WHERE id").
		WillReturnRows(matchRow(7, 10, 10, "FULL", 5))
	mock.ExpectQuery("FROM participants WHERE id = (.+) AND match_id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "match_id", "user_id", "display_name", "joined_at"}).
			AddRow(55, 7, 42, "Dana", time.Now()))
	mock.ExpectExec("DELETE FROM participants WHERE id").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE matches").
		WithArgs(9, "AVAILABLE", 7, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := svc.Unenroll(ctx, 7, 55, 42); err != nil {
		t.Fatalf("Unenroll failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUnenroll_ForeignEnrollmentForbidden(t *testing.T) {
	svc, mock := newEnrollmentService(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM matches WHERE id").
		WillReturnRows(matchRow(7, 10, 3, "AVAILABLE", 2))
	mock.ExpectQuery("FROM participants WHERE id = (.+) AND match_id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "match_id", "user_id", "display_name", "joined_at"}).
			AddRow(55, 7, 99, "Sam", time.Now()))
	mock.ExpectRollback()

	err := svc.Unenroll(ctx, 7, 55, 42)
	if !errors.Is(err, repository.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestUnenroll_ParticipantFromOtherMatch(t *testing.T) {
	svc, mock := newEnrollmentService(t)
	ctx := context.Background()

	// The participant exists but under another match; the scoped read
	// reports not-found rather than leaking it.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM matches WHERE id").
		WillReturnRows(matchRow(7, 10, 3, "AVAILABLE", 2))
	mock.ExpectQuery("FROM participants WHERE id = (.+) AND match_id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "match_id", "user_id", "display_name", "joined_at"}))
	mock.ExpectRollback()

	err := svc.Unenroll(ctx, 7, 55, 42)
	if !errors.Is(err, repository.ErrParticipantNotFound) {
		t.Errorf("expected ErrParticipantNotFound, got %v", err)
	}
}
