package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/fairshare/internal/model"
)

type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

const memberCols = `id, household_id, name, role, on_vacation, vacation_end, pin IS NOT NULL, joined_at`

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	var vacationEnd sql.NullTime
	err := scanner.Scan(&m.ID, &m.HouseholdID, &m.Name, &m.Role, &m.OnVacation, &vacationEnd, &m.HasPIN, &m.JoinedAt)
	if err != nil {
		return nil, err
	}
	m.VacationEnd = timePtr(vacationEnd)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func getMember(ctx context.Context, q querier, id int64) (*model.Member, error) {
	row := q.QueryRowContext(ctx, `SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func listMembers(ctx context.Context, q querier, householdID int64) ([]model.Member, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+memberCols+` FROM members WHERE household_id = ? ORDER BY id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *MemberStore) Create(ctx context.Context, householdID int64, name, role string) (*model.Member, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO members (household_id, name, role) VALUES (?, ?, ?)`,
		householdID, name, role,
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", mapErr(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *MemberStore) GetByID(ctx context.Context, id int64) (*model.Member, error) {
	return getMember(ctx, s.db, id)
}

func (s *MemberStore) ListByHousehold(ctx context.Context, householdID int64) ([]model.Member, error) {
	return listMembers(ctx, s.db, householdID)
}

// ListIDs returns the ids of every member of a household, vacationing or
// not, in id order.
func (s *MemberStore) ListIDs(ctx context.Context, householdID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM members WHERE household_id = ? ORDER BY id`, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list member ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetVacation marks a member as away. A nil end keeps the member away until
// the flag is cleared.
func (s *MemberStore) SetVacation(ctx context.Context, id int64, onVacation bool, end *time.Time) (*model.Member, error) {
	var endVal sql.NullTime
	if onVacation && end != nil {
		endVal = sql.NullTime{Time: *end, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE members SET on_vacation = ?, vacation_end = ? WHERE id = ?`,
		onVacation, endVal, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set vacation: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *MemberStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

func (s *MemberStore) SetPIN(ctx context.Context, id int64, hashedPIN string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE members SET pin = ? WHERE id = ?`, hashedPIN, id)
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

func (s *MemberStore) ClearPIN(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE members SET pin = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("clear pin: %w", err)
	}
	return nil
}

// GetPINHash returns "" when the member has no PIN set.
func (s *MemberStore) GetPINHash(ctx context.Context, id int64) (string, error) {
	var pin sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT pin FROM members WHERE id = ?`, id).Scan(&pin)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("member not found")
	}
	if err != nil {
		return "", fmt.Errorf("query pin: %w", err)
	}
	if !pin.Valid {
		return "", nil
	}
	return pin.String, nil
}

func (t *Tx) GetMember(ctx context.Context, id int64) (*model.Member, error) {
	return getMember(ctx, t.tx, id)
}

func (t *Tx) ListMembers(ctx context.Context, householdID int64) ([]model.Member, error) {
	return listMembers(ctx, t.tx, householdID)
}
