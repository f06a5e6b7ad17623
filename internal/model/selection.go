package model

import "time"

// Selection is a user's working set of intended match quantities, not
// yet converted to enrollment.  Each user has at most one live
// selection, created lazily on first use and enforced by a uniqueness
// constraint on the owning user.  Lines hold soft intentions only:
// they never reserve capacity on the referenced match, which may
// change status or fill up out from under an existing line.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owning user (unique).
//  Version   – write stamp advanced on every committed mutation; the
//              same optimistic-conflict mechanism used for matches
//              covers overlapping requests from a single user.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Selection struct {
	ID        uint64    // selections.id
	UserID    uint64    // selections.user_id
	Version   uint64    // selections.version
	CreatedAt time.Time // selections.created_at
	UpdatedAt time.Time // selections.updated_at
}

// SelectionLine is one match+quantity entry within a Selection.  At
// most one line exists per (selection, match) pair; adding the same
// match again merges into the existing line.  A line is removed when
// its quantity drops to zero or below, when explicitly deleted, or
// when the selection is cleared.
type SelectionLine struct {
	ID          uint64    // selection_lines.id
	SelectionID uint64    // selection_lines.selection_id
	MatchID     uint64    // selection_lines.match_id
	Quantity    uint32    // selection_lines.quantity (always > 0 when stored)
	CreatedAt   time.Time // selection_lines.created_at
	UpdatedAt   time.Time // selection_lines.updated_at
}
