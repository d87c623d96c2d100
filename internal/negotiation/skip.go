package negotiation

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/fairshare/internal/clock"
	"github.com/dukerupert/fairshare/internal/distribution"
	"github.com/dukerupert/fairshare/internal/errvalues"
	"github.com/dukerupert/fairshare/internal/ledger"
	"github.com/dukerupert/fairshare/internal/model"
	"github.com/dukerupert/fairshare/internal/push"
	"github.com/dukerupert/fairshare/internal/store"
	"github.com/dukerupert/fairshare/internal/websocket"
)

// SkipResult is what a successful skip produced.
type SkipResult struct {
	Assignment *model.Assignment `json:"assignment"`
	Skip       *model.SkipRecord `json:"skip"`
	Offers     []model.Offer     `json:"offers"`
}

// Skip forfeits an assignment. The assignee is penalized and every other
// eligible member receives an offer to take the chore over for a bonus.
func (s *Service) Skip(ctx context.Context, assignmentID, memberID int64) (*SkipResult, error) {
	now := s.clock.Now()
	period := clock.PeriodKey(now)
	res := &SkipResult{Offers: []model.Offer{}}

	err := store.RunInTx(ctx, s.db, func(tx *store.Tx) error {
		a, err := tx.GetAssignment(ctx, assignmentID)
		if err != nil {
			return err
		}
		if a == nil {
			return fmt.Errorf("assignment %d: %w", assignmentID, errvalues.ErrNotFound)
		}
		if a.AssigneeID != memberID {
			return fmt.Errorf("assignment %d: %w", assignmentID, errvalues.ErrNotAssignee)
		}
		if !a.Open() {
			return fmt.Errorf("assignment %d: %w", assignmentID, errvalues.ErrAlreadyResolved)
		}

		if err := tx.MarkSkipped(ctx, a.ID, memberID, now); err != nil {
			return err
		}

		sc, err := tx.GetScore(ctx, a.HouseholdID, memberID, period)
		if err != nil {
			return err
		}
		ledger.Debit(sc, s.skipPenalty, float64(a.ChoreWeight))
		if err := tx.SaveScore(ctx, sc, now); err != nil {
			return err
		}

		skip := &model.SkipRecord{
			HouseholdID:  a.HouseholdID,
			AssignmentID: a.ID,
			MemberID:     memberID,
			Day:          a.Day,
			Penalty:      s.skipPenalty,
			Status:       model.SkipPending,
			CreatedAt:    now,
		}
		if err := tx.InsertSkip(ctx, skip); err != nil {
			return err
		}
		res.Skip = skip

		members, err := tx.ListMembers(ctx, a.HouseholdID)
		if err != nil {
			return err
		}
		day, err := clock.ParseDay(a.Day, now.Location())
		if err != nil {
			return err
		}
		for _, m := range distribution.Eligible(members, day) {
			if m.ID == memberID {
				continue
			}
			o := model.Offer{
				HouseholdID:  a.HouseholdID,
				SkipID:       skip.ID,
				AssignmentID: a.ID,
				MemberID:     m.ID,
				Day:          a.Day,
				Bonus:        s.offerBonus,
				Status:       model.OfferPending,
				CreatedAt:    now,
			}
			if err := tx.InsertOffer(ctx, &o); err != nil {
				return err
			}
			res.Offers = append(res.Offers, o)
		}

		res.Assignment, err = tx.GetAssignment(ctx, a.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	a := res.Assignment
	s.logger.Info("assignment skipped", "assignment_id", a.ID, "member_id", memberID, "offers", len(res.Offers))
	s.hub.Broadcast(a.HouseholdID, websocket.NewMessage("assignment", "skipped", a.ID, map[string]any{"skip_id": res.Skip.ID}))
	for _, o := range res.Offers {
		s.hub.Broadcast(a.HouseholdID, websocket.NewMessage("offer", "created", o.ID, map[string]any{"member_id": o.MemberID}))
		s.notifier.NotifyMember(ctx, o.MemberID, push.OfferPayload(a, o))
	}
	return res, nil
}

// offerState rejects an offer that is not pending, mapping its status to
// the matching error.
func offerState(o *model.Offer) error {
	switch o.Status {
	case model.OfferPending:
		return nil
	case model.OfferExpired:
		return fmt.Errorf("offer %d: %w", o.ID, errvalues.ErrExpired)
	default:
		return fmt.Errorf("offer %d is %s: %w", o.ID, o.Status, errvalues.ErrAlreadyResolved)
	}
}

func (s *Service) loadOffer(ctx context.Context, tx *store.Tx, offerID, memberID int64) (*model.Offer, error) {
	o, err := tx.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("offer %d: %w", offerID, errvalues.ErrNotFound)
	}
	if o.MemberID != memberID {
		return nil, fmt.Errorf("offer %d: %w", offerID, errvalues.ErrNotOfferTarget)
	}
	if err := offerState(o); err != nil {
		return nil, err
	}
	return o, nil
}

// AcceptOffer hands the skipped assignment to the offer's target and
// credits them the bonus plus the chore weight. Only the first acceptance
// of a skip wins; later ones fail with errvalues.ErrConflict.
func (s *Service) AcceptOffer(ctx context.Context, offerID, memberID int64) (*model.Assignment, error) {
	now := s.clock.Now()
	period := clock.PeriodKey(now)

	var a *model.Assignment
	err := store.RunInTx(ctx, s.db, func(tx *store.Tx) error {
		o, err := s.loadOffer(ctx, tx, offerID, memberID)
		if err != nil {
			return err
		}

		skip, err := tx.GetSkip(ctx, o.SkipID)
		if err != nil {
			return err
		}
		switch {
		case skip == nil:
			return fmt.Errorf("skip %d: %w", o.SkipID, errvalues.ErrNotFound)
		case skip.Status == model.SkipExpired:
			return fmt.Errorf("skip %d: %w", skip.ID, errvalues.ErrExpired)
		case skip.Status != model.SkipPending:
			return fmt.Errorf("skip %d already taken: %w", skip.ID, errvalues.ErrConflict)
		}

		current, err := tx.GetAssignment(ctx, o.AssignmentID)
		if err != nil {
			return err
		}
		if current == nil || !current.Skipped || current.Completed {
			return fmt.Errorf("assignment %d no longer open for takeover: %w", o.AssignmentID, errvalues.ErrConflict)
		}

		m, err := tx.GetMember(ctx, memberID)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("member %d: %w", memberID, errvalues.ErrNotFound)
		}

		if err := tx.Reassign(ctx, current.ID, m.ID, m.Name); err != nil {
			return err
		}

		sc, err := tx.GetScore(ctx, current.HouseholdID, m.ID, period)
		if err != nil {
			return err
		}
		ledger.Credit(sc, o.Bonus+float64(current.ChoreWeight))
		if err := tx.SaveScore(ctx, sc, now); err != nil {
			return err
		}

		if err := tx.RespondOffer(ctx, o.ID, model.OfferAccepted, now); err != nil {
			return err
		}
		if err := tx.ResolveSkip(ctx, skip.ID, model.SkipAccepted, now); err != nil {
			return err
		}

		a, err = tx.GetAssignment(ctx, current.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("offer accepted", "offer_id", offerID, "assignment_id", a.ID, "member_id", memberID)
	s.hub.Broadcast(a.HouseholdID, websocket.NewMessage("offer", "accepted", offerID, map[string]any{"member_id": memberID}))
	s.hub.Broadcast(a.HouseholdID, websocket.NewMessage("assignment", "reassigned", a.ID, map[string]any{"assignee_id": a.AssigneeID}))
	return a, nil
}

// DeclineOffer closes a pending offer. The skip stays open for the other
// offers.
func (s *Service) DeclineOffer(ctx context.Context, offerID, memberID int64) error {
	now := s.clock.Now()
	var householdID int64
	err := store.RunInTx(ctx, s.db, func(tx *store.Tx) error {
		o, err := s.loadOffer(ctx, tx, offerID, memberID)
		if err != nil {
			return err
		}
		householdID = o.HouseholdID
		return tx.RespondOffer(ctx, o.ID, model.OfferDeclined, now)
	})
	if err != nil {
		return err
	}
	s.hub.Broadcast(householdID, websocket.NewMessage("offer", "declined", offerID, map[string]any{"member_id": memberID}))
	return nil
}

// ExpireStale expires pending skips and offers from days before today. The
// skipped assignments stay skipped.
func (s *Service) ExpireStale(ctx context.Context, householdID int64, today time.Time) (int, error) {
	now := s.clock.Now()
	var n int
	err := store.RunInTx(ctx, s.db, func(tx *store.Tx) error {
		var err error
		n, err = tx.ExpireBefore(ctx, householdID, clock.DayKey(today), now)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("expire stale offers: %w", err)
	}
	if n > 0 {
		s.logger.Info("expired stale offers", "household_id", householdID, "rows", n)
		s.hub.Broadcast(householdID, websocket.NewMessage("offer", "expired", 0, map[string]any{"rows": n}))
	}
	return n, nil
}

func (s *Service) PendingOffers(ctx context.Context, memberID int64) ([]model.Offer, error) {
	return s.negotiations.ListPendingOffers(ctx, memberID)
}
