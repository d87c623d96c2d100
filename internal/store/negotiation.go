package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/fairshare/internal/model"
)

// NegotiationStore reads skip records, offers and swap requests. Writes go
// through Tx so they share a transaction with the assignment and ledger
// changes they imply.
type NegotiationStore struct {
	db *sql.DB
}

func NewNegotiationStore(db *sql.DB) *NegotiationStore {
	return &NegotiationStore{db: db}
}

// --- Skip records ---

const skipCols = `id, household_id, assignment_id, member_id, day, penalty, status, created_at, resolved_at`

func scanSkip(scanner interface{ Scan(...any) error }) (*model.SkipRecord, error) {
	var s model.SkipRecord
	var status string
	var resolvedAt sql.NullTime
	err := scanner.Scan(&s.ID, &s.HouseholdID, &s.AssignmentID, &s.MemberID, &s.Day, &s.Penalty, &status, &s.CreatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	if s.Status, err = model.ParseSkipStatus(status); err != nil {
		return nil, err
	}
	s.ResolvedAt = timePtr(resolvedAt)
	return &s, nil
}

func getSkip(ctx context.Context, q querier, id int64) (*model.SkipRecord, error) {
	row := q.QueryRowContext(ctx, `SELECT `+skipCols+` FROM skip_records WHERE id = ?`, id)
	s, err := scanSkip(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get skip record: %w", err)
	}
	return s, nil
}

func (t *Tx) GetSkip(ctx context.Context, id int64) (*model.SkipRecord, error) {
	return getSkip(ctx, t.tx, id)
}

func (t *Tx) InsertSkip(ctx context.Context, rec *model.SkipRecord) error {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO skip_records (household_id, assignment_id, member_id, day, penalty, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.HouseholdID, rec.AssignmentID, rec.MemberID, rec.Day, rec.Penalty, string(rec.Status), rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert skip record: %w", mapErr(err))
	}
	if rec.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	return nil
}

// ResolveSkip moves a pending skip record to status.
func (t *Tx) ResolveSkip(ctx context.Context, id int64, status model.SkipStatus, now time.Time) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE skip_records SET status = ?, resolved_at = ? WHERE id = ? AND status = ?`,
		string(status), now.UTC(), id, string(model.SkipPending),
	)
	if err != nil {
		return fmt.Errorf("resolve skip record: %w", mapErr(err))
	}
	return expectOne(res, "resolve skip record")
}

// --- Offers ---

const offerCols = `id, household_id, skip_id, assignment_id, member_id, day, bonus, status, created_at, responded_at`

func scanOffer(scanner interface{ Scan(...any) error }) (*model.Offer, error) {
	var o model.Offer
	var status string
	var respondedAt sql.NullTime
	err := scanner.Scan(&o.ID, &o.HouseholdID, &o.SkipID, &o.AssignmentID, &o.MemberID, &o.Day, &o.Bonus, &status, &o.CreatedAt, &respondedAt)
	if err != nil {
		return nil, err
	}
	if o.Status, err = model.ParseOfferStatus(status); err != nil {
		return nil, err
	}
	o.RespondedAt = timePtr(respondedAt)
	return &o, nil
}

func getOffer(ctx context.Context, q querier, id int64) (*model.Offer, error) {
	row := q.QueryRowContext(ctx, `SELECT `+offerCols+` FROM offers WHERE id = ?`, id)
	o, err := scanOffer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get offer: %w", err)
	}
	return o, nil
}

func (s *NegotiationStore) queryOffers(ctx context.Context, query string, args ...any) ([]model.Offer, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	var out []model.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (s *NegotiationStore) ListPendingOffers(ctx context.Context, memberID int64) ([]model.Offer, error) {
	return s.queryOffers(ctx,
		`SELECT `+offerCols+` FROM offers WHERE member_id = ? AND status = ? ORDER BY id ASC`,
		memberID, string(model.OfferPending),
	)
}

func (t *Tx) GetOffer(ctx context.Context, id int64) (*model.Offer, error) {
	return getOffer(ctx, t.tx, id)
}

func (t *Tx) InsertOffer(ctx context.Context, o *model.Offer) error {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO offers (household_id, skip_id, assignment_id, member_id, day, bonus, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.HouseholdID, o.SkipID, o.AssignmentID, o.MemberID, o.Day, o.Bonus, string(o.Status), o.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert offer: %w", mapErr(err))
	}
	if o.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	return nil
}

// RespondOffer moves a pending offer to status.
func (t *Tx) RespondOffer(ctx context.Context, id int64, status model.OfferStatus, now time.Time) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE offers SET status = ?, responded_at = ? WHERE id = ? AND status = ?`,
		string(status), now.UTC(), id, string(model.OfferPending),
	)
	if err != nil {
		return fmt.Errorf("respond offer: %w", mapErr(err))
	}
	return expectOne(res, "respond offer")
}

// ExpireBefore marks pending skips and offers from days before day as
// expired and returns how many rows changed.
func (t *Tx) ExpireBefore(ctx context.Context, householdID int64, day string, now time.Time) (int, error) {
	var total int64
	for _, table := range []string{"offers", "skip_records"} {
		col := "responded_at"
		if table == "skip_records" {
			col = "resolved_at"
		}
		res, err := t.tx.ExecContext(ctx,
			`UPDATE `+table+` SET status = 'expired', `+col+` = ?
			 WHERE household_id = ? AND status = 'pending' AND day < ?`,
			now.UTC(), householdID, day,
		)
		if err != nil {
			return 0, fmt.Errorf("expire %s: %w", table, mapErr(err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("expire %s: rows affected: %w", table, err)
		}
		total += n
	}
	return int(total), nil
}

// --- Swap requests ---

const swapCols = `id, household_id, day, offered_assignment_id, requested_assignment_id, requester_id, recipient_id,
	message, status, created_at, responded_at`

func scanSwap(scanner interface{ Scan(...any) error }) (*model.SwapRequest, error) {
	var r model.SwapRequest
	var status string
	var respondedAt sql.NullTime
	err := scanner.Scan(
		&r.ID, &r.HouseholdID, &r.Day, &r.OfferedAssignmentID, &r.RequestedAssignmentID, &r.RequesterID, &r.RecipientID,
		&r.Message, &status, &r.CreatedAt, &respondedAt,
	)
	if err != nil {
		return nil, err
	}
	if r.Status, err = model.ParseSwapStatus(status); err != nil {
		return nil, err
	}
	r.RespondedAt = timePtr(respondedAt)
	return &r, nil
}

func getSwap(ctx context.Context, q querier, id int64) (*model.SwapRequest, error) {
	row := q.QueryRowContext(ctx, `SELECT `+swapCols+` FROM swap_requests WHERE id = ?`, id)
	r, err := scanSwap(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get swap request: %w", err)
	}
	return r, nil
}

// ListPendingSwaps returns requests waiting on memberID, as recipient or
// requester.
func (s *NegotiationStore) ListPendingSwaps(ctx context.Context, memberID int64) ([]model.SwapRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+swapCols+` FROM swap_requests
		 WHERE (recipient_id = ? OR requester_id = ?) AND status = ? ORDER BY id ASC`,
		memberID, memberID, string(model.SwapPending),
	)
	if err != nil {
		return nil, fmt.Errorf("list swap requests: %w", err)
	}
	defer rows.Close()

	var out []model.SwapRequest
	for rows.Next() {
		r, err := scanSwap(rows)
		if err != nil {
			return nil, fmt.Errorf("scan swap request: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (t *Tx) GetSwap(ctx context.Context, id int64) (*model.SwapRequest, error) {
	return getSwap(ctx, t.tx, id)
}

// HasPendingSwap reports whether an identical request is still open.
func (t *Tx) HasPendingSwap(ctx context.Context, offeredID, requestedID int64) (bool, error) {
	var n int
	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM swap_requests
		 WHERE offered_assignment_id = ? AND requested_assignment_id = ? AND status = ?`,
		offeredID, requestedID, string(model.SwapPending),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check pending swap: %w", err)
	}
	return n > 0, nil
}

func (t *Tx) InsertSwap(ctx context.Context, r *model.SwapRequest) error {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO swap_requests (household_id, day, offered_assignment_id, requested_assignment_id, requester_id, recipient_id, message, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.HouseholdID, r.Day, r.OfferedAssignmentID, r.RequestedAssignmentID, r.RequesterID, r.RecipientID, r.Message, string(r.Status), r.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert swap request: %w", mapErr(err))
	}
	if r.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	return nil
}

// RespondSwap moves a pending swap request to status.
func (t *Tx) RespondSwap(ctx context.Context, id int64, status model.SwapStatus, now time.Time) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE swap_requests SET status = ?, responded_at = ? WHERE id = ? AND status = ?`,
		string(status), now.UTC(), id, string(model.SwapPending),
	)
	if err != nil {
		return fmt.Errorf("respond swap request: %w", mapErr(err))
	}
	return expectOne(res, "respond swap request")
}
