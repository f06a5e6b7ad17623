package service

import (
	"context"
	"database/sql"
	"errors"

	"matchday/internal/model"
	"matchday/internal/repository"
)

// SelectionService implements the per-user cart.  All operations are
// scoped to the calling user's selection, which is created lazily on
// first write.  Lines soft-hold nothing: validation runs against the
// match's remaining capacity as currently enrolled, and other users'
// carts are not counted against that figure.  The final enrollment
// commit stays the sole authoritative capacity check.
type SelectionService struct {
	db         *sql.DB
	selections *repository.SelectionRepo
	matches    *repository.MatchRepo
}

// NewSelectionService constructs a SelectionService.
func NewSelectionService(db *sql.DB, selections *repository.SelectionRepo, matches *repository.MatchRepo) *SelectionService {
	if db == nil || selections == nil || matches == nil {
		panic("nil dependency passed to NewSelectionService")
	}
	return &SelectionService{db: db, selections: selections, matches: matches}
}

// SelectionView is the read model returned by View: the selection (a
// synthesized empty one when the user never touched their cart), its
// lines and a computed line count.
type SelectionView struct {
	Selection  model.Selection
	Lines      []model.SelectionLine
	TotalLines int
}

// AddOrIncrease adds quantity slots of a match to the user's
// selection, merging into the existing line for that match when one is
// present.  The merged total must fit into the match's remaining
// capacity; otherwise an InsufficientCapacityError reporting the
// actual remaining figure is returned and the existing line is left
// untouched.
func (s *SelectionService) AddOrIncrease(ctx context.Context, userID, matchID uint64, quantity int) (*model.SelectionLine, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
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

	sel, err := s.selections.GetOrCreateTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	m, err := s.matches.GetTx(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}
	if m.IsTerminal() {
		return nil, ErrMatchNotAvailable
	}
	remaining := m.RemainingCapacity()
	if remaining == 0 {
		// A match at capacity is reported as full regardless of its
		// stored status string.
		return nil, ErrMatchFull
	}

	line, err := s.selections.GetLineByMatchTx(ctx, tx, sel.ID, matchID)
	if err != nil && !errors.Is(err, repository.ErrLineNotFound) {
		return nil, err
	}
	var existing uint32
	if line != nil {
		existing = line.Quantity
	}
	total := existing + uint32(quantity)
	if total > remaining {
		return nil, &InsufficientCapacityError{Remaining: remaining, Requested: total}
	}

	if line == nil {
		line = &model.SelectionLine{SelectionID: sel.ID, MatchID: matchID, Quantity: total}
		if err := s.selections.InsertLineTx(ctx, tx, line); err != nil {
			return nil, err
		}
	} else {
		if err := s.selections.UpdateLineQuantityTx(ctx, tx, line.ID, total); err != nil {
			return nil, err
		}
		line.Quantity = total
	}
	if err := s.selections.BumpVersionTx(ctx, tx, sel.ID, sel.Version); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return line, nil
}

// SetQuantity replaces a line's quantity.  Zero or negative deletes
// the line; deleting an already-absent line is a no-op, and
// repository.ErrSelectionNotFound surfaces only when the selection
// itself was never created.  Positive quantities are revalidated
// against the match's remaining capacity with replacement semantics:
// the line's current quantity is not added on top.
func (s *SelectionService) SetQuantity(ctx context.Context, userID, lineID uint64, quantity int) error {
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

	sel, err := s.selections.GetByUserTx(ctx, tx, userID)
	if err != nil {
		return err
	}

	if quantity <= 0 {
		deleted, err := s.selections.DeleteLineTx(ctx, tx, sel.ID, lineID)
		if err != nil {
			return err
		}
		if deleted {
			if err := s.selections.BumpVersionTx(ctx, tx, sel.ID, sel.Version); err != nil {
				return err
			}
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		committed = true
		return nil
	}

	line, err := s.selections.GetLineByIDTx(ctx, tx, sel.ID, lineID)
	if err != nil {
		return err
	}
	m, err := s.matches.GetTx(ctx, tx, line.MatchID)
	if err != nil {
		return err
	}
	if m.IsTerminal() {
		return ErrMatchNotAvailable
	}
	if uint32(quantity) > m.RemainingCapacity() {
		return &InsufficientCapacityError{Remaining: m.RemainingCapacity(), Requested: uint32(quantity)}
	}
	if err := s.selections.UpdateLineQuantityTx(ctx, tx, line.ID, uint32(quantity)); err != nil {
		return err
	}
	if err := s.selections.BumpVersionTx(ctx, tx, sel.ID, sel.Version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// RemoveLine deletes the named line.  Absent lines are ignored;
// repository.ErrSelectionNotFound surfaces only when the selection
// itself does not exist.
func (s *SelectionService) RemoveLine(ctx context.Context, userID, lineID uint64) error {
	return s.SetQuantity(ctx, userID, lineID, 0)
}

// Clear removes all lines from the user's selection.  Callers that
// treat "no selection yet" as an empty selection should ignore
// repository.ErrSelectionNotFound.
func (s *SelectionService) Clear(ctx context.Context, userID uint64) error {
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

	sel, err := s.selections.GetByUserTx(ctx, tx, userID)
	if err != nil {
		return err
	}
	if _, err := s.selections.DeleteAllLinesTx(ctx, tx, sel.ID); err != nil {
		return err
	}
	if err := s.selections.BumpVersionTx(ctx, tx, sel.ID, sel.Version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// View returns the user's selection with all lines and a computed line
// count.  It is a pure read: when no selection exists it returns a
// synthesized empty one instead of creating state.
func (s *SelectionService) View(ctx context.Context, userID uint64) (*SelectionView, error) {
	sel, err := s.selections.GetByUser(ctx, userID)
	if errors.Is(err, repository.ErrSelectionNotFound) {
		return &SelectionView{
			Selection: model.Selection{UserID: userID},
			Lines:     []model.SelectionLine{},
		}, nil
	}
	if err != nil {
		return nil, err
	}
	lines, err := s.selections.ListLines(ctx, sel.ID)
	if err != nil {
		return nil, err
	}
	return &SelectionView{Selection: *sel, Lines: lines, TotalLines: len(lines)}, nil
}
