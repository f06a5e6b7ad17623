package repository

import (
	"context"
	"database/sql"
	"errors"

	"matchday/internal/model"
)

// matchColumns lists the columns scanned into a model.Match.  Keep in
// sync with scanMatch.
const matchColumns = `id, title, description, scheduled_at, max_capacity, current_participant_count, status, version, created_by, created_at, updated_at`

// MatchRepo manages persistence for matches.  A match row carries the
// participant ceiling, the canonical participant count and a version
// stamp.  All mutations of count or status go through the CommitXxxTx
// methods, which perform a compare-and-swap on the version column so
// that two writers holding the same snapshot can never both win.
type MatchRepo struct {
	db *sql.DB
}

// NewMatchRepo constructs a MatchRepo with the given DB handle.
func NewMatchRepo(db *sql.DB) *MatchRepo {
	return &MatchRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *MatchRepo) DB() *sql.DB {
	return r.db
}

// Create inserts a new match and populates the generated ID and
// DB-default fields (count, status, version, timestamps) back onto the
// given struct.  MaxCapacity must be positive; the ceiling is
// immutable once the row exists.
func (r *MatchRepo) Create(ctx context.Context, m *model.Match) error {
	const q = `INSERT INTO matches (title, description, scheduled_at, max_capacity, created_by) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.Description, m.ScheduledAt.UTC(), m.MaxCapacity, m.CreatedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	// Query the inserted row back to obtain defaults (count=0,
	// status=AVAILABLE, version=1, timestamps).
	const sel = `SELECT ` + matchColumns + ` FROM matches WHERE id = ?`
	got, err := scanMatch(r.db.QueryRowContext(ctx, sel, m.ID))
	if err != nil {
		return err
	}
	*m = *got
	return nil
}

// GetByID loads a single match.  Returns ErrMatchNotFound when no row
// exists.
func (r *MatchRepo) GetByID(ctx context.Context, id uint64) (*model.Match, error) {
	const q = `SELECT ` + matchColumns + ` FROM matches WHERE id = ?`
	m, err := scanMatch(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	return m, err
}

// GetTx is GetByID executed inside the caller's transaction.  The read
// is a plain snapshot read; no row lock is taken.  Consistency is
// enforced later by the version check in CommitCountTx/CommitStatusTx,
// not by blocking other readers.
func (r *MatchRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Match, error) {
	const q = `SELECT ` + matchColumns + ` FROM matches WHERE id = ?`
	m, err := scanMatch(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	return m, err
}

// ListOpen returns all matches that have not been cancelled or closed,
// soonest first.  FULL matches are included so that clients can render
// them as sold out.
func (r *MatchRepo) ListOpen(ctx context.Context) ([]model.Match, error) {
	const q = `SELECT ` + matchColumns + ` FROM matches
               WHERE status IN ('AVAILABLE', 'FULL')
               ORDER BY scheduled_at ASC`
	return r.queryMatches(ctx, q)
}

// ListByCreator returns all matches created by the given organizer,
// newest first.
func (r *MatchRepo) ListByCreator(ctx context.Context, userID uint64) ([]model.Match, error) {
	const q = `SELECT ` + matchColumns + ` FROM matches
               WHERE created_by = ?
               ORDER BY created_at DESC`
	return r.queryMatches(ctx, q, userID)
}

// CommitCountTx writes a new participant count and status, advancing
// the version stamp, but only if the stored version still equals
// expectedVersion.  When the conditional update matches no row the
// method distinguishes a concurrent modification (ErrVersionConflict)
// from a vanished match (ErrMatchNotFound) by re-checking existence.
func (r *MatchRepo) CommitCountTx(ctx context.Context, tx *sql.Tx, id uint64, count uint32, status string, expectedVersion uint64) error {
	const q = `UPDATE matches
               SET current_participant_count = ?, status = ?, version = version + 1
               WHERE id = ? AND version = ?`
	res, err := tx.ExecContext(ctx, q, count, status, id, expectedVersion)
	if err != nil {
		return err
	}
	return casOutcome(ctx, tx, res, id)
}

// CommitStatusTx transitions the match status (e.g. to CANCELLED or
// CLOSED) under the same compare-and-swap contract as CommitCountTx.
func (r *MatchRepo) CommitStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string, expectedVersion uint64) error {
	const q = `UPDATE matches
               SET status = ?, version = version + 1
               WHERE id = ? AND version = ?`
	res, err := tx.ExecContext(ctx, q, status, id, expectedVersion)
	if err != nil {
		return err
	}
	return casOutcome(ctx, tx, res, id)
}

// casOutcome interprets the result of a conditional UPDATE on the
// matches table.  One affected row is success; zero rows means either
// the version moved or the match is gone.
func casOutcome(ctx context.Context, tx *sql.Tx, res sql.Result, id uint64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM matches WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMatchNotFound
	}
	if err != nil {
		return err
	}
	return ErrVersionConflict
}

func (r *MatchRepo) queryMatches(ctx context.Context, q string, args ...interface{}) ([]model.Match, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	matches := make([]model.Match, 0)
	for rows.Next() {
		var m model.Match
		if err := rows.Scan(
			&m.ID, &m.Title, &m.Description, &m.ScheduledAt,
			&m.MaxCapacity, &m.CurrentParticipantCount, &m.Status,
			&m.Version, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func scanMatch(row *sql.Row) (*model.Match, error) {
	var m model.Match
	err := row.Scan(
		&m.ID, &m.Title, &m.Description, &m.ScheduledAt,
		&m.MaxCapacity, &m.CurrentParticipantCount, &m.Status,
		&m.Version, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
