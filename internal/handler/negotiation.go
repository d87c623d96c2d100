package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/fairshare/internal/auth"
	"github.com/dukerupert/fairshare/internal/model"
	"github.com/dukerupert/fairshare/internal/negotiation"
)

type NegotiationHandler struct {
	service *negotiation.Service
	logger  *slog.Logger
}

func NewNegotiationHandler(svc *negotiation.Service, logger *slog.Logger) *NegotiationHandler {
	return &NegotiationHandler{service: svc, logger: logger}
}

// self checks that {id} names the acting member; offer and swap inboxes
// are private.
func self(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	if id != auth.MemberID(r.Context()) {
		writeMessage(w, http.StatusForbidden, "cannot read another member's inbox")
		return 0, false
	}
	return id, true
}

func (h *NegotiationHandler) Offers(w http.ResponseWriter, r *http.Request) {
	memberID, ok := self(w, r)
	if !ok {
		return
	}
	offers, err := h.service.PendingOffers(r.Context(), memberID)
	if err != nil {
		writeError(w, h.logger, err, "list offers")
		return
	}
	if offers == nil {
		offers = []model.Offer{}
	}
	writeJSON(w, http.StatusOK, offers)
}

func (h *NegotiationHandler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	a, err := h.service.AcceptOffer(r.Context(), id, auth.MemberID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err, "accept offer")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *NegotiationHandler) DeclineOffer(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.service.DeclineOffer(r.Context(), id, auth.MemberID(r.Context())); err != nil {
		writeError(w, h.logger, err, "decline offer")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(model.OfferDeclined)})
}

// ProposeSwap handles POST /api/swaps. The acting member is the requester.
func (h *NegotiationHandler) ProposeSwap(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RecipientID           int64  `json:"recipient_id"`
		OfferedAssignmentID   int64  `json:"offered_assignment_id"`
		RequestedAssignmentID int64  `json:"requested_assignment_id"`
		Message               string `json:"message"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	sr, err := h.service.ProposeSwap(r.Context(), negotiation.SwapProposal{
		RequesterID:           auth.MemberID(r.Context()),
		RecipientID:           req.RecipientID,
		OfferedAssignmentID:   req.OfferedAssignmentID,
		RequestedAssignmentID: req.RequestedAssignmentID,
		Message:               req.Message,
	})
	if err != nil {
		writeError(w, h.logger, err, "propose swap")
		return
	}
	writeJSON(w, http.StatusCreated, sr)
}

func (h *NegotiationHandler) Swaps(w http.ResponseWriter, r *http.Request) {
	memberID, ok := self(w, r)
	if !ok {
		return
	}
	swaps, err := h.service.PendingSwaps(r.Context(), memberID)
	if err != nil {
		writeError(w, h.logger, err, "list swaps")
		return
	}
	if swaps == nil {
		swaps = []model.SwapRequest{}
	}
	writeJSON(w, http.StatusOK, swaps)
}

func (h *NegotiationHandler) AcceptSwap(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	offered, requested, err := h.service.AcceptSwap(r.Context(), id, auth.MemberID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err, "accept swap")
		return
	}
	writeJSON(w, http.StatusOK, []*model.Assignment{offered, requested})
}

func (h *NegotiationHandler) DeclineSwap(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.service.DeclineSwap(r.Context(), id, auth.MemberID(r.Context())); err != nil {
		writeError(w, h.logger, err, "decline swap")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(model.SwapDeclined)})
}
