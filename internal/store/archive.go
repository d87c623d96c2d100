package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/fairshare/internal/model"
)

type ArchiveStore struct {
	db *sql.DB
}

func NewArchiveStore(db *sql.DB) *ArchiveStore {
	return &ArchiveStore{db: db}
}

func (s *ArchiveStore) Get(ctx context.Context, householdID int64, period string) (*model.PeriodArchive, error) {
	var a model.PeriodArchive
	err := s.db.QueryRowContext(ctx,
		`SELECT household_id, period, object_key, archived_at FROM period_archives WHERE household_id = ? AND period = ?`,
		householdID, period,
	).Scan(&a.HouseholdID, &a.Period, &a.ObjectKey, &a.ArchivedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get period archive: %w", err)
	}
	return &a, nil
}

// Record notes that a period was archived. Archiving the same period again
// replaces the object key.
func (s *ArchiveStore) Record(ctx context.Context, householdID int64, period, objectKey string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO period_archives (household_id, period, object_key) VALUES (?, ?, ?)
		 ON CONFLICT(household_id, period) DO UPDATE SET object_key = excluded.object_key, archived_at = CURRENT_TIMESTAMP`,
		householdID, period, objectKey,
	)
	if err != nil {
		return fmt.Errorf("record period archive: %w", err)
	}
	return nil
}
