package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"matchday/internal/model"
)

// SelectionRepo provides data access to the selections and
// selection_lines tables.  A selection is created lazily on first
// write and the UNIQUE index on user_id guarantees at most one live
// selection per user even when two first-touch requests race.  Line
// mutations always travel together with a version bump on the owning
// selection row, which serializes overlapping requests from the same
// user the same way match writes are serialized.
type SelectionRepo struct {
	db *sql.DB
}

// NewSelectionRepo returns a SelectionRepo bound to the given database.
func NewSelectionRepo(db *sql.DB) *SelectionRepo { return &SelectionRepo{db: db} }

const selectionColumns = `id, user_id, version, created_at, updated_at`

// GetByUser loads the user's selection.  Returns ErrSelectionNotFound
// when the user never touched their cart.
func (r *SelectionRepo) GetByUser(ctx context.Context, userID uint64) (*model.Selection, error) {
	const q = `SELECT ` + selectionColumns + ` FROM selections WHERE user_id = ?`
	return scanSelection(r.db.QueryRowContext(ctx, q, userID))
}

// GetByUserTx is GetByUser inside the caller's transaction.
func (r *SelectionRepo) GetByUserTx(ctx context.Context, tx *sql.Tx, userID uint64) (*model.Selection, error) {
	const q = `SELECT ` + selectionColumns + ` FROM selections WHERE user_id = ?`
	return scanSelection(tx.QueryRowContext(ctx, q, userID))
}

// GetOrCreateTx returns the user's selection, creating it when absent.
// A duplicate-key rejection on the insert means another request of the
// same user created the row between our read and write; the fresh row
// is re-read in that case instead of failing.
func (r *SelectionRepo) GetOrCreateTx(ctx context.Context, tx *sql.Tx, userID uint64) (*model.Selection, error) {
	sel, err := r.GetByUserTx(ctx, tx, userID)
	if err == nil {
		return sel, nil
	}
	if !errors.Is(err, ErrSelectionNotFound) {
		return nil, err
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO selections (user_id) VALUES (?)`, userID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return r.GetByUserTx(ctx, tx, userID)
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	const sel2 = `SELECT ` + selectionColumns + ` FROM selections WHERE id = ?`
	return scanSelection(tx.QueryRowContext(ctx, sel2, id))
}

// BumpVersionTx advances the selection's version stamp, but only if
// the stored version still equals expectedVersion.  Every line
// mutation calls this before commit so that two overlapping writes
// against the same snapshot cannot both land.
func (r *SelectionRepo) BumpVersionTx(ctx context.Context, tx *sql.Tx, selectionID, expectedVersion uint64) error {
	const q = `UPDATE selections SET version = version + 1 WHERE id = ? AND version = ?`
	res, err := tx.ExecContext(ctx, q, selectionID, expectedVersion)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM selections WHERE id = ?`, selectionID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSelectionNotFound
	}
	if err != nil {
		return err
	}
	return ErrVersionConflict
}

const lineColumns = `id, selection_id, match_id, quantity, created_at, updated_at`

// GetLineByMatchTx loads the line referencing a match within a
// selection.  At most one such line exists per (selection, match)
// pair.  Returns ErrLineNotFound when absent.
func (r *SelectionRepo) GetLineByMatchTx(ctx context.Context, tx *sql.Tx, selectionID, matchID uint64) (*model.SelectionLine, error) {
	const q = `SELECT ` + lineColumns + ` FROM selection_lines WHERE selection_id = ? AND match_id = ?`
	return scanLine(tx.QueryRowContext(ctx, q, selectionID, matchID))
}

// GetLineByIDTx loads a line by ID, restricted to the given selection
// so that a user can never address another user's line.
func (r *SelectionRepo) GetLineByIDTx(ctx context.Context, tx *sql.Tx, selectionID, lineID uint64) (*model.SelectionLine, error) {
	const q = `SELECT ` + lineColumns + ` FROM selection_lines WHERE id = ? AND selection_id = ?`
	return scanLine(tx.QueryRowContext(ctx, q, lineID, selectionID))
}

// InsertLineTx creates a new line and populates its generated ID.
func (r *SelectionRepo) InsertLineTx(ctx context.Context, tx *sql.Tx, line *model.SelectionLine) error {
	const q = `INSERT INTO selection_lines (selection_id, match_id, quantity) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, line.SelectionID, line.MatchID, line.Quantity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	line.ID = uint64(id)
	return nil
}

// UpdateLineQuantityTx replaces a line's quantity.
func (r *SelectionRepo) UpdateLineQuantityTx(ctx context.Context, tx *sql.Tx, lineID uint64, quantity uint32) error {
	_, err := tx.ExecContext(ctx, `UPDATE selection_lines SET quantity = ? WHERE id = ?`, quantity, lineID)
	return err
}

// DeleteLineTx removes a line within the selection.  It reports
// whether a row was actually deleted; deleting an absent line is not
// an error at this layer.
func (r *SelectionRepo) DeleteLineTx(ctx context.Context, tx *sql.Tx, selectionID, lineID uint64) (bool, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM selection_lines WHERE id = ? AND selection_id = ?`, lineID, selectionID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteAllLinesTx removes every line of a selection and returns the
// number of lines removed.
func (r *SelectionRepo) DeleteAllLinesTx(ctx context.Context, tx *sql.Tx, selectionID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM selection_lines WHERE selection_id = ?`, selectionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListLines returns all lines of a selection in insertion order.
func (r *SelectionRepo) ListLines(ctx context.Context, selectionID uint64) ([]model.SelectionLine, error) {
	const q = `SELECT ` + lineColumns + ` FROM selection_lines WHERE selection_id = ? ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, q, selectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := make([]model.SelectionLine, 0)
	for rows.Next() {
		var l model.SelectionLine
		if err := rows.Scan(&l.ID, &l.SelectionID, &l.MatchID, &l.Quantity, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func scanSelection(row *sql.Row) (*model.Selection, error) {
	var s model.Selection
	err := row.Scan(&s.ID, &s.UserID, &s.Version, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSelectionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanLine(row *sql.Row) (*model.SelectionLine, error) {
	var l model.SelectionLine
	err := row.Scan(&l.ID, &l.SelectionID, &l.MatchID, &l.Quantity, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLineNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}
