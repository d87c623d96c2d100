package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/fairshare/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	err := scanner.Scan(&h.ID, &h.Name, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const householdCols = `id, name, created_at`

// Create inserts a household together with its first member, who becomes
// the admin.
func (s *HouseholdStore) Create(ctx context.Context, name, adminName string) (*model.Household, *model.Member, error) {
	var hID, mID int64
	err := RunInTx(ctx, s.db, func(tx *Tx) error {
		res, err := tx.tx.ExecContext(ctx, `INSERT INTO households (name) VALUES (?)`, name)
		if err != nil {
			return fmt.Errorf("insert household: %w", err)
		}
		if hID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		res, err = tx.tx.ExecContext(ctx,
			`INSERT INTO members (household_id, name, role) VALUES (?, ?, ?)`,
			hID, adminName, model.RoleAdmin,
		)
		if err != nil {
			return fmt.Errorf("insert admin member: %w", mapErr(err))
		}
		if mID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	h, err := s.GetByID(ctx, hID)
	if err != nil {
		return nil, nil, err
	}
	m, err := getMember(ctx, s.db, mID)
	if err != nil {
		return nil, nil, err
	}
	return h, m, nil
}

func (s *HouseholdStore) GetByID(ctx context.Context, id int64) (*model.Household, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) List(ctx context.Context) ([]model.Household, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+householdCols+` FROM households ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list households: %w", err)
	}
	defer rows.Close()

	var households []model.Household
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		households = append(households, *h)
	}
	return households, rows.Err()
}

func (s *HouseholdStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM households WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete household: %w", err)
	}
	return nil
}
