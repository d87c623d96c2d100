package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/fairshare/internal/model"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

const choreCols = `id, household_id, title, weight, frequency, created_at, updated_at`

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	var freq string
	err := scanner.Scan(&c.ID, &c.HouseholdID, &c.Title, &c.Weight, &freq, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Frequency = model.Frequency(freq)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func listChores(ctx context.Context, q querier, householdID int64) ([]model.Chore, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+choreCols+` FROM chores WHERE household_id = ? ORDER BY id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) Create(ctx context.Context, householdID int64, title string, weight int, freq model.Frequency) (*model.Chore, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO chores (household_id, title, weight, frequency) VALUES (?, ?, ?, ?)`,
		householdID, title, weight, string(freq),
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ChoreStore) GetByID(ctx context.Context, id int64) (*model.Chore, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

func (s *ChoreStore) ListByHousehold(ctx context.Context, householdID int64) ([]model.Chore, error) {
	return listChores(ctx, s.db, householdID)
}

func (s *ChoreStore) Update(ctx context.Context, id int64, title string, weight int, freq model.Frequency) (*model.Chore, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chores SET title = ?, weight = ?, frequency = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, weight, string(freq), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ChoreStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}

func (t *Tx) ListChores(ctx context.Context, householdID int64) ([]model.Chore, error) {
	return listChores(ctx, t.tx, householdID)
}
