package negotiation

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukerupert/fairshare/internal/errvalues"
	"github.com/dukerupert/fairshare/internal/model"
	"github.com/dukerupert/fairshare/internal/push"
	"github.com/dukerupert/fairshare/internal/store"
	"github.com/dukerupert/fairshare/internal/websocket"
)

// SwapProposal asks RecipientID to trade RequestedAssignmentID for the
// requester's OfferedAssignmentID.
type SwapProposal struct {
	RequesterID           int64  `json:"requester_id"`
	RecipientID           int64  `json:"recipient_id"`
	OfferedAssignmentID   int64  `json:"offered_assignment_id"`
	RequestedAssignmentID int64  `json:"requested_assignment_id"`
	Message               string `json:"message"`
}

func invalidSwap(reason string) error {
	return fmt.Errorf("%w: %s", errvalues.ErrInvalidSwap, reason)
}

func validateSwap(p SwapProposal, offered, requested *model.Assignment) error {
	switch {
	case offered == nil || requested == nil:
		return invalidSwap("assignment not found")
	case offered.ID == requested.ID:
		return invalidSwap("cannot swap an assignment with itself")
	case p.RequesterID == p.RecipientID:
		return invalidSwap("cannot swap with yourself")
	case offered.HouseholdID != requested.HouseholdID:
		return invalidSwap("assignments belong to different households")
	case offered.Day != requested.Day:
		return invalidSwap("assignments are on different days")
	case !offered.Open() || !requested.Open():
		return invalidSwap("assignment is already skipped or completed")
	case offered.AssigneeID != p.RequesterID:
		return invalidSwap("offered assignment is not yours")
	case requested.AssigneeID != p.RecipientID:
		return invalidSwap("requested assignment does not belong to the recipient")
	}
	return nil
}

// ProposeSwap records a pending swap request after checking both
// assignments inside the insert transaction.
func (s *Service) ProposeSwap(ctx context.Context, p SwapProposal) (*model.SwapRequest, error) {
	now := s.clock.Now()
	var req *model.SwapRequest
	var offered *model.Assignment

	err := store.RunInTx(ctx, s.db, func(tx *store.Tx) error {
		var err error
		if offered, err = tx.GetAssignment(ctx, p.OfferedAssignmentID); err != nil {
			return err
		}
		requested, err := tx.GetAssignment(ctx, p.RequestedAssignmentID)
		if err != nil {
			return err
		}
		if err := validateSwap(p, offered, requested); err != nil {
			return err
		}

		dup, err := tx.HasPendingSwap(ctx, offered.ID, requested.ID)
		if err != nil {
			return err
		}
		if dup {
			return invalidSwap("an identical request is already pending")
		}

		req = &model.SwapRequest{
			HouseholdID:           offered.HouseholdID,
			Day:                   offered.Day,
			OfferedAssignmentID:   offered.ID,
			RequestedAssignmentID: requested.ID,
			RequesterID:           p.RequesterID,
			RecipientID:           p.RecipientID,
			Message:               strings.TrimSpace(p.Message),
			Status:                model.SwapPending,
			CreatedAt:             now,
		}
		return tx.InsertSwap(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.hub.Broadcast(req.HouseholdID, websocket.NewMessage("swap", "requested", req.ID, map[string]any{"recipient_id": req.RecipientID}))
	s.notifier.NotifyMember(ctx, req.RecipientID, push.SwapPayload(req, offered))
	return req, nil
}

func (s *Service) loadSwap(ctx context.Context, tx *store.Tx, requestID, memberID int64) (*model.SwapRequest, error) {
	r, err := tx.GetSwap(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("swap request %d: %w", requestID, errvalues.ErrNotFound)
	}
	if r.RecipientID != memberID {
		return nil, fmt.Errorf("swap request %d: %w", requestID, errvalues.ErrNotRecipient)
	}
	if r.Status != model.SwapPending {
		return nil, fmt.Errorf("swap request %d is %s: %w", requestID, r.Status, errvalues.ErrAlreadyResolved)
	}
	return r, nil
}

// AcceptSwap exchanges the owners of both assignments. Either assignment
// having changed hands or been skipped since the proposal is a conflict.
// Scores are not touched.
func (s *Service) AcceptSwap(ctx context.Context, requestID, memberID int64) (*model.Assignment, *model.Assignment, error) {
	now := s.clock.Now()
	var offered, requested *model.Assignment

	err := store.RunInTx(ctx, s.db, func(tx *store.Tx) error {
		r, err := s.loadSwap(ctx, tx, requestID, memberID)
		if err != nil {
			return err
		}

		requester, err := tx.GetMember(ctx, r.RequesterID)
		if err != nil {
			return err
		}
		recipient, err := tx.GetMember(ctx, r.RecipientID)
		if err != nil {
			return err
		}
		if requester == nil || recipient == nil {
			return fmt.Errorf("swap request %d: member left the household: %w", r.ID, errvalues.ErrConflict)
		}

		if err := tx.SwapAssignee(ctx, r.OfferedAssignmentID, requester.ID, recipient.ID, recipient.Name, requester.Name, now); err != nil {
			return err
		}
		if err := tx.SwapAssignee(ctx, r.RequestedAssignmentID, recipient.ID, requester.ID, requester.Name, recipient.Name, now); err != nil {
			return err
		}
		if err := tx.RespondSwap(ctx, r.ID, model.SwapAccepted, now); err != nil {
			return err
		}

		if offered, err = tx.GetAssignment(ctx, r.OfferedAssignmentID); err != nil {
			return err
		}
		requested, err = tx.GetAssignment(ctx, r.RequestedAssignmentID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("swap accepted", "swap_id", requestID, "offered", offered.ID, "requested", requested.ID)
	s.hub.Broadcast(offered.HouseholdID, websocket.NewMessage("swap", "accepted", requestID, map[string]any{
		"assignment_ids": []int64{offered.ID, requested.ID},
	}))
	return offered, requested, nil
}

func (s *Service) DeclineSwap(ctx context.Context, requestID, memberID int64) error {
	now := s.clock.Now()
	var r *model.SwapRequest
	err := store.RunInTx(ctx, s.db, func(tx *store.Tx) error {
		var err error
		if r, err = s.loadSwap(ctx, tx, requestID, memberID); err != nil {
			return err
		}
		return tx.RespondSwap(ctx, r.ID, model.SwapDeclined, now)
	})
	if err != nil {
		return err
	}
	s.hub.Broadcast(r.HouseholdID, websocket.NewMessage("swap", "declined", requestID, nil))
	return nil
}

// PendingSwaps lists open requests the member sent or received.
func (s *Service) PendingSwaps(ctx context.Context, memberID int64) ([]model.SwapRequest, error) {
	return s.negotiations.ListPendingSwaps(ctx, memberID)
}
