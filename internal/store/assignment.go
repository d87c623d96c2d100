package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/fairshare/internal/errvalues"
	"github.com/dukerupert/fairshare/internal/model"
)

type AssignmentStore struct {
	db *sql.DB
}

func NewAssignmentStore(db *sql.DB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

const assignmentCols = `id, household_id, chore_id, chore_title, chore_weight, assignee_id, assignee_name, day, run_id,
	completed, completed_at, skipped, skipped_at, skipped_by, swapped, swapped_at, swapped_with, created_at`

func scanAssignment(scanner interface{ Scan(...any) error }) (*model.Assignment, error) {
	var a model.Assignment
	var completedAt, skippedAt, swappedAt sql.NullTime
	var skippedBy sql.NullInt64
	err := scanner.Scan(
		&a.ID, &a.HouseholdID, &a.ChoreID, &a.ChoreTitle, &a.ChoreWeight, &a.AssigneeID, &a.AssigneeName, &a.Day, &a.RunID,
		&a.Completed, &completedAt, &a.Skipped, &skippedAt, &skippedBy, &a.Swapped, &swappedAt, &a.SwappedWith, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.CompletedAt = timePtr(completedAt)
	a.SkippedAt = timePtr(skippedAt)
	a.SwappedAt = timePtr(swappedAt)
	if skippedBy.Valid {
		a.SkippedBy = &skippedBy.Int64
	}
	return &a, nil
}

func getAssignment(ctx context.Context, q querier, id int64) (*model.Assignment, error) {
	row := q.QueryRowContext(ctx, `SELECT `+assignmentCols+` FROM assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

func queryAssignments(ctx context.Context, q querier, query string, args ...any) ([]model.Assignment, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *AssignmentStore) GetByID(ctx context.Context, id int64) (*model.Assignment, error) {
	return getAssignment(ctx, s.db, id)
}

// ListByDay returns a household's assignments for one day key, skipped ones
// included.
func (s *AssignmentStore) ListByDay(ctx context.Context, householdID int64, day string) ([]model.Assignment, error) {
	return queryAssignments(ctx, s.db,
		`SELECT `+assignmentCols+` FROM assignments WHERE household_id = ? AND day = ? ORDER BY id ASC`,
		householdID, day,
	)
}

// ListRange returns assignments with from <= day <= to.
func (s *AssignmentStore) ListRange(ctx context.Context, householdID int64, from, to string) ([]model.Assignment, error) {
	return queryAssignments(ctx, s.db,
		`SELECT `+assignmentCols+` FROM assignments WHERE household_id = ? AND day >= ? AND day <= ? ORDER BY day ASC, id ASC`,
		householdID, from, to,
	)
}

// ListSince returns assignments on or after the given day key. It feeds the
// due-chore evaluation.
func (s *AssignmentStore) ListSince(ctx context.Context, householdID int64, since string) ([]model.Assignment, error) {
	return listAssignmentsSince(ctx, s.db, householdID, since)
}

func listAssignmentsSince(ctx context.Context, q querier, householdID int64, since string) ([]model.Assignment, error) {
	return queryAssignments(ctx, q,
		`SELECT `+assignmentCols+` FROM assignments WHERE household_id = ? AND day >= ? ORDER BY day ASC, id ASC`,
		householdID, since,
	)
}

// Complete marks an open assignment done. Only the assignee may complete it.
func (s *AssignmentStore) Complete(ctx context.Context, id, memberID int64, now time.Time) (*model.Assignment, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("assignment %d: %w", id, errvalues.ErrNotFound)
	}
	if a.AssigneeID != memberID {
		return nil, fmt.Errorf("assignment %d: %w", id, errvalues.ErrNotAssignee)
	}
	if !a.Open() {
		return nil, fmt.Errorf("assignment %d: %w", id, errvalues.ErrAlreadyResolved)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE assignments SET completed = 1, completed_at = ?
		 WHERE id = ? AND assignee_id = ? AND completed = 0 AND skipped = 0`,
		now.UTC(), id, memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("complete assignment: %w", mapErr(err))
	}
	if err := expectOne(res, "complete assignment"); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (t *Tx) GetAssignment(ctx context.Context, id int64) (*model.Assignment, error) {
	return getAssignment(ctx, t.tx, id)
}

func (t *Tx) ListAssignmentsSince(ctx context.Context, householdID int64, since string) ([]model.Assignment, error) {
	return listAssignmentsSince(ctx, t.tx, householdID, since)
}

// InsertAssignment stores a and fills in its id. A second non-skipped
// assignment for the same chore and day fails with errvalues.ErrConflict.
func (t *Tx) InsertAssignment(ctx context.Context, a *model.Assignment) error {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO assignments (household_id, chore_id, chore_title, chore_weight, assignee_id, assignee_name, day, run_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.HouseholdID, a.ChoreID, a.ChoreTitle, a.ChoreWeight, a.AssigneeID, a.AssigneeName, a.Day, a.RunID, a.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert assignment: %w", mapErr(err))
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	return nil
}

// MarkSkipped flips an open assignment owned by memberID to skipped.
func (t *Tx) MarkSkipped(ctx context.Context, id, memberID int64, now time.Time) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE assignments SET skipped = 1, skipped_at = ?, skipped_by = ?
		 WHERE id = ? AND assignee_id = ? AND completed = 0 AND skipped = 0`,
		now.UTC(), memberID, id, memberID,
	)
	if err != nil {
		return fmt.Errorf("mark skipped: %w", mapErr(err))
	}
	return expectOne(res, "mark skipped")
}

// Reassign hands a skipped assignment to a new owner and makes it
// authoritative again, clearing its skip.
func (t *Tx) Reassign(ctx context.Context, id, assigneeID int64, assigneeName string) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE assignments SET assignee_id = ?, assignee_name = ?, skipped = 0, skipped_at = NULL, skipped_by = NULL
		 WHERE id = ? AND skipped = 1 AND completed = 0`,
		assigneeID, assigneeName, id,
	)
	if err != nil {
		return fmt.Errorf("reassign assignment: %w", mapErr(err))
	}
	return expectOne(res, "reassign assignment")
}

// SwapAssignee moves an open assignment from its expected owner to a new
// one and flags it as swapped with partnerName.
func (t *Tx) SwapAssignee(ctx context.Context, id, fromID, toID int64, toName, partnerName string, now time.Time) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE assignments SET assignee_id = ?, assignee_name = ?, swapped = 1, swapped_at = ?, swapped_with = ?
		 WHERE id = ? AND assignee_id = ? AND skipped = 0 AND completed = 0`,
		toID, toName, now.UTC(), partnerName, id, fromID,
	)
	if err != nil {
		return fmt.Errorf("swap assignee: %w", mapErr(err))
	}
	return expectOne(res, "swap assignee")
}
