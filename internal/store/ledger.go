package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/fairshare/internal/model"
)

type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

const scoreCols = `household_id, member_id, period, score, assigned_count, cumulative_weight, updated_at`

func scanScore(scanner interface{ Scan(...any) error }) (*model.FairnessScore, error) {
	var sc model.FairnessScore
	err := scanner.Scan(&sc.HouseholdID, &sc.MemberID, &sc.Period, &sc.Score, &sc.AssignedCount, &sc.CumulativeWeight, &sc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if sc.Score < 0 || sc.CumulativeWeight < 0 {
		return nil, fmt.Errorf("score for member %d in %s is negative", sc.MemberID, sc.Period)
	}
	return &sc, nil
}

func listScores(ctx context.Context, q querier, householdID int64, period string) ([]model.FairnessScore, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+scoreCols+` FROM fairness_scores WHERE household_id = ? AND period = ? ORDER BY member_id ASC`,
		householdID, period,
	)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	var out []model.FairnessScore
	for rows.Next() {
		sc, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		out = append(out, *sc)
	}
	return out, rows.Err()
}

func (s *LedgerStore) ListByPeriod(ctx context.Context, householdID int64, period string) ([]model.FairnessScore, error) {
	return listScores(ctx, s.db, householdID, period)
}

// Scores maps member id to score for one period. Members without a record
// are absent and count as 0.
func (s *LedgerStore) Scores(ctx context.Context, householdID int64, period string) (map[int64]float64, error) {
	records, err := s.ListByPeriod(ctx, householdID, period)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]float64, len(records))
	for _, r := range records {
		out[r.MemberID] = r.Score
	}
	return out, nil
}

// ResetPeriod deletes every score row of one period and reports how many
// were removed.
func (s *LedgerStore) ResetPeriod(ctx context.Context, householdID int64, period string) (int64, error) {
	var n int64
	err := RunInTx(ctx, s.db, func(tx *Tx) error {
		res, err := tx.tx.ExecContext(ctx,
			`DELETE FROM fairness_scores WHERE household_id = ? AND period = ?`,
			householdID, period,
		)
		if err != nil {
			return fmt.Errorf("reset period: %w", mapErr(err))
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

func (t *Tx) ListScores(ctx context.Context, householdID int64, period string) ([]model.FairnessScore, error) {
	return listScores(ctx, t.tx, householdID, period)
}

// GetScore returns the member's record for the period, or a zero record if
// none exists yet.
func (t *Tx) GetScore(ctx context.Context, householdID, memberID int64, period string) (*model.FairnessScore, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+scoreCols+` FROM fairness_scores WHERE household_id = ? AND member_id = ? AND period = ?`,
		householdID, memberID, period,
	)
	sc, err := scanScore(row)
	if err == sql.ErrNoRows {
		return &model.FairnessScore{HouseholdID: householdID, MemberID: memberID, Period: period}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get score: %w", err)
	}
	return sc, nil
}

func (t *Tx) SaveScore(ctx context.Context, sc *model.FairnessScore, now time.Time) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO fairness_scores (household_id, member_id, period, score, assigned_count, cumulative_weight, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(household_id, member_id, period) DO UPDATE SET
		   score = excluded.score,
		   assigned_count = excluded.assigned_count,
		   cumulative_weight = excluded.cumulative_weight,
		   updated_at = excluded.updated_at`,
		sc.HouseholdID, sc.MemberID, sc.Period, sc.Score, sc.AssignedCount, sc.CumulativeWeight, now.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save score: %w", mapErr(err))
	}
	sc.UpdatedAt = now
	return nil
}
