package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"matchday/internal/repository"
)

var (
	selectionCols = []string{"id", "user_id", "version", "created_at", "updated_at"}
	lineCols      = []string{"id", "selection_id", "match_id", "quantity", "created_at", "updated_at"}
)

func newSelectionService(t *testing.T) (*SelectionService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	svc := NewSelectionService(db, repository.NewSelectionRepo(db), repository.NewMatchRepo(db))
	return svc, mock
}

func selectionRow(id, userID, version uint64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(selectionCols).AddRow(id, userID, version, now, now)
}

func lineRow(id, selectionID, matchID uint64, qty uint32) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(lineCols).AddRow(id, selectionID, matchID, qty, now, now)
}

func TestAddOrIncrease_MergesIntoExistingLine(t *testing.T) {
	svc, mock := newSelectionService(t)
	ctx := context.Background()

	// The cart already holds 2 slots for this match; adding 3 more
	// merges into a single line of 5, which exactly fits the remaining
	// capacity (10 - 5).
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM selections WHERE user_id").
		WillReturnRows(selectionRow(1, 42, 2))
	mock.ExpectQuery("SELECT (.+) FROM matches WHERE id").
		WillReturnRows(matchRow(7, 10, 5, "AVAILABLE", 4))
	mock.ExpectQuery("SELECT (.+) FROM selection_lines WHERE selection_id = (.+) AND match_id").
		WillReturnRows(lineRow(3, 1, 7, 2))
	mock.ExpectExec("UPDATE selection_lines SET quantity").
		WithArgs(5, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE selections SET version").
		WithArgs(1, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	line, err := svc.AddOrIncrease(ctx, 42, 7, 3)
	if err != nil {
		t.Fatalf("AddOrIncrease failed: %v", err)
	}
	if line.Quantity != 5 {
		t.Errorf("expected merged quantity 5, got %d", line.Quantity)
	}
	if line.ID != 3 {
		t.Errorf("expected existing line 3, got %d", line.ID)
	}
}

func TestAddOrIncrease_FirstTouchCreatesSelection(t *testing.T) {
	svc, mock := newSelectionService(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM selections WHERE user_id").
		WillReturnRows(sqlmock.NewRows(selectionCols))
	mock.ExpectExec("INSERT INTO selections").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("SELECT (.+) FROM selections WHERE id").
		WillReturnRows(selectionRow(11, 42, 1))
	mock.ExpectQuery("SELECT (.+) FROM matches WHERE id").
		WillReturnRows(matchRow(7, 10, 0, "AVAILABLE", 1))
	mock.ExpectQuery("SELECT (.+) FROM selection_lines WHERE selection_id = (.+) AND match_id").
		WillReturnRows(sqlmock.NewRows(lineCols))
	mock.ExpectExec("INSERT INTO selection_lines").
		WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectExec("UPDATE selections SET version").
		WithArgs(11, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	line, err := svc.AddOrIncrease(ctx, 42, 7, 2)
	if err != nil {
		t.Fatalf("AddOrIncrease failed: %v", err)
	}
	if line.ID != 21 {
		t.Errorf("expected new line id 21, got %d", line.ID)
	}
	if line.Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", line.Quantity)
	}
}

func TestAddOrIncrease_RejectsNonPositiveQuantity(t *testing.T) {
	svc, _ := newSelectionService(t)

	for _, qty := range []int{0, -1} {
		_, err := svc.AddOrIncrease(context.Background(), 42, 7, qty)
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("quantity %d: expected ErrInvalidQuantity, got %v", qty, err)
		}
	}
}

func TestAddOrIncrease_MergedTotalOverRemaining(t *testing.T) {
	svc, mock := newSelectionService(t)
	ctx := context.Background()

	// 5 of 10 slots remain, the cart holds 3 and the user asks for 4
	// more.  The merged total of 7 does not fit; the existing line must
	// stay at 3.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM selections WHERE user_id").
		WillReturnRows(selectionRow(1, 42, 2))
	mock.ExpectQuery("SELECT (.+) FROM matches WHERE id").
		WillReturnRows(matchRow(7, 10, 5, "AVAILABLE", 4))
	mock.ExpectQuery("SELECT (.+) FROM selection_lines WHERE selection_id = (.+) AND match_id").
		WillReturnRows(lineRow(3, 1, 7, 3))
	mock.ExpectRollback()

	_, err := svc.AddOrIncrease(ctx, 42, 7, 4)
	var insufficient *InsufficientCapacityError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientCapacityError, got %v", err)
	}
	if insufficient.Remaining != 5 {
		t.Errorf("expected remaining 5, got %d", insufficient.Remaining)
	}
	if insufficient.Requested != 7 {
		t.Errorf("expected requested 7, got %d", insufficient.Requested)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected writes: %v", err)
	}
}

func TestAddOrIncrease_FullMatch(t *testing.T) {
	svc, mock := newSelectionService(t)
	ctx := context.Background()

	// Fullness wins over the stored status string: the match reads FULL
	// and the failure is reported as a capacity condition.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM selections WHERE user_id").
		WillReturnRows(selectionRow(1, 42, 2))
	mock.ExpectQuery("SELECT (.+) FROM matches WHERE id").
		WillReturnRows(matchRow(7, 10, 10, "FULL", 4))
	mock.ExpectRollback()

	_, err := svc.AddOrIncrease(ctx, 42, 7, 1)
	if !errors.Is(err, ErrMatchFull) {
		t.Errorf("expected ErrMatchFull, got %v", err)
	}
}

func TestAddOrIncrease_CancelledMatch(t *testing.T) {
	svc, mock := newSelectionService(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM selections WHERE user_id").
		WillReturnRows(selectionRow(1, 42, 2))
	mock.ExpectQuery("SELECT (.+) FROM matches WHERE id").
		WillReturnRows(matchRow(7, 10, 2, "CANCELLED", 4))
	mock.ExpectRollback()

	_, err := svc.AddOrIncrease(ctx, 42, 7, 1)
	if !errors.Is(err, ErrMatchNotAvailable) {
		t.Errorf("expected ErrMatchNotAvailable, got %v", err)
	}
}

func TestSetQuantity_ZeroDeletesLine(t *testing.T) {
	svc, mock := newSelectionService(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM selections WHERE user_id").
		WillReturnRows(selectionRow(1, 42, 6))
	mock.ExpectExec("DELETE FROM selection_lines WHERE id").
		WithArgs(3, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE selections SET version").
		WithArgs(1, 6).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := svc.SetQuantity(ctx, 42, 3, 0); err != nil {
		t.Fatalf("SetQuantity failed: %v", err)
	}
}

func TestSetQuantity_DeleteAbsentLineIsNoop(t *testing.T) {
	svc, mock := newSelectionService(t)
	ctx := context.Background()

	// Nothing was deleted, so the version must not advance.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM selections WHERE user_id").
		WillReturnRows(selectionRow(1, 42, 6))
	mock.ExpectExec("DELETE FROM selection_lines WHERE id").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := svc.SetQuantity(ctx, 42, 999, 0); err != nil {
		t.Fatalf("SetQuantity failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected version bump: %v", err)
	}
}

func TestSetQuantity_ReplacementSemantics(t *testing.T) {
	svc, mock := newSelectionService(t)
	ctx := context.Background()

	// Replacing 2 with 5 against 5 remaining slots is allowed: the
	// line's current quantity is not added on top of the request.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM selections WHERE user_id").
		WillReturnRows(selectionRow(1, 42, 6))
	mock.ExpectQuery("SELECT (.+) FROM selection_lines WHERE id").
		WillReturnRows(lineRow(3, 1, 7, 2))
	mock.ExpectQuery("SELECT (.+) FROM matches WHERE id").
		WillReturnRows(matchRow(7, 10, 5, "AVAILABLE", 4))
	mock.ExpectExec("UPDATE selection_lines SET quantity").
		WithArgs(5, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE selections SET version").
		WithArgs(1, 6).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := svc.SetQuantity(ctx, 42, 3, 5); err != nil {
		t.Fatalf("SetQuantity failed: %v", err)
	}
}

func TestSetQuantity_FullMatchHasZeroRemaining(t *testing.T) {
	svc, mock := newSelectionService(t)
	ctx := context.Background()

	// The match filled up after the line was created.  Raising the
	// quantity fails on capacity, reporting zero remaining slots.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM selections WHERE user_id").
		WillReturnRows(selectionRow(1, 42, 6))
	mock.ExpectQuery("SELECT (.+) FROM selection_lines WHERE id").
		WillReturnRows(lineRow(3, 1, 7, 2))
	mock.ExpectQuery("SELECT (.+) FROM matches WHERE id").
		WillReturnRows(matchRow(7, 10, 10, "FULL", 9))
	mock.ExpectRollback()

	err := svc.SetQuantity(ctx, 42, 3, 4)
	var insufficient *InsufficientCapacityError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientCapacityError, got %v", err)
	}
	if insufficient.Remaining != 0 {
		t.Errorf("expected remaining 0, got %d", insufficient.Remaining)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected writes: %v", err)
	}
}

func TestSetQuantity_UnknownLine(t *testing.T) {
	svc, mock := newSelectionService(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM selections WHERE user_id").
		WillReturnRows(selectionRow(1, 42, 6))
	mock.ExpectQuery("SELECT (.+) FROM selection_lines WHERE id").
		WillReturnRows(sqlmock.NewRows(lineCols))
	mock.ExpectRollback()

	err := svc.SetQuantity(ctx, 42, 999, 5)
	if !errors.Is(err, repository.ErrLineNotFound) {
		t.Errorf("expected ErrLineNotFound, got %v", err)
	}
}

func TestSetQuantity_ConcurrentSelfConflict(t *testing.T) {
	svc, mock := newSelectionService(t)
	ctx := context.Background()

	// The version bump loses the race against another request of the
	// same user.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM selections WHERE user_id").
		WillReturnRows(selectionRow(1, 42, 6))
	mock.ExpectExec("DELETE FROM selection_lines WHERE id").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE selections SET version").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM selections WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()

	err := svc.SetQuantity(ctx, 42, 3, 0)
	if !errors.Is(err, repository.ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict, got %v", err)
	}
}

func TestClear_RemovesAllLines(t *testing.T) {
	svc, mock := newSelectionService(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM selections WHERE user_id").
		WillReturnRows(selectionRow(1, 42, 6))
	mock.ExpectExec("DELETE FROM selection_lines WHERE selection_id").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("UPDATE selections SET version").
		WithArgs(1, 6).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := svc.Clear(ctx, 42); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
}

func TestClear_NoSelection(t *testing.T) {
	svc, mock := newSelectionService(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM selections WHERE user_id").
		WillReturnRows(sqlmock.NewRows(selectionCols))
	mock.ExpectRollback()

	err := svc.Clear(ctx, 42)
	if !errors.Is(err, repository.ErrSelectionNotFound) {
		t.Errorf("expected ErrSelectionNotFound, got %v", err)
	}
}

func TestView_SynthesizesEmptySelection(t *testing.T) {
	svc, mock := newSelectionService(t)
	ctx := context.Background()

	// A user who never touched their cart gets an empty view; no row is
	// created by reading.
	mock.ExpectQuery("SELECT (.+) FROM selections WHERE user_id").
		WillReturnRows(sqlmock.NewRows(selectionCols))

	view, err := svc.View(ctx, 42)
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if view.TotalLines != 0 || len(view.Lines) != 0 {
		t.Errorf("expected empty view, got %d lines", len(view.Lines))
	}
	if view.Selection.UserID != 42 {
		t.Errorf("expected synthesized selection for user 42, got %d", view.Selection.UserID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected writes: %v", err)
	}
}

func TestView_ReturnsLinesInInsertionOrder(t *testing.T) {
	svc, mock := newSelectionService(t)
	ctx := context.Background()

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM selections WHERE user_id").
		WillReturnRows(selectionRow(1, 42, 6))
	mock.ExpectQuery("SELECT (.+) FROM selection_lines WHERE selection_id = (.+) ORDER BY id").
		WillReturnRows(sqlmock.NewRows(lineCols).
			AddRow(3, 1, 7, 2, now, now).
			AddRow(4, 1, 9, 1, now, now))

	view, err := svc.View(ctx, 42)
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if view.TotalLines != 2 {
		t.Fatalf("expected 2 lines, got %d", view.TotalLines)
	}
	if view.Lines[0].ID != 3 || view.Lines[1].ID != 4 {
		t.Errorf("expected lines in insertion order, got %d then %d", view.Lines[0].ID, view.Lines[1].ID)
	}
}
