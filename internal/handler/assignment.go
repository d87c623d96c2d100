package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/fairshare/internal/auth"
	"github.com/dukerupert/fairshare/internal/clock"
	"github.com/dukerupert/fairshare/internal/distribution"
	"github.com/dukerupert/fairshare/internal/model"
	"github.com/dukerupert/fairshare/internal/negotiation"
	"github.com/dukerupert/fairshare/internal/store"
	"github.com/dukerupert/fairshare/internal/websocket"
)

type AssignmentHandler struct {
	assignments  *store.AssignmentStore
	orchestrator *distribution.Orchestrator
	negotiation  *negotiation.Service
	clock        clock.Clock
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewAssignmentHandler(as *store.AssignmentStore, orch *distribution.Orchestrator, svc *negotiation.Service, clk clock.Clock, hub *websocket.Hub, logger *slog.Logger) *AssignmentHandler {
	return &AssignmentHandler{assignments: as, orchestrator: orch, negotiation: svc, clock: clk, hub: hub, logger: logger}
}

// Distribute handles POST /api/households/{id}/distribute?date=YYYY-MM-DD.
// Running it again for a day that is already distributed is a no-op.
func (h *AssignmentHandler) Distribute(w http.ResponseWriter, r *http.Request) {
	householdID, ok := householdParam(w, r)
	if !ok {
		return
	}
	date, err := dateParam(r, "date", h.clock)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	res, err := h.orchestrator.Run(r.Context(), householdID, date)
	if err != nil {
		writeError(w, h.logger, err, "distribute chores")
		return
	}
	status := http.StatusOK
	if res.Status == distribution.StatusDistributed {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

// List handles GET /api/households/{id}/assignments. Either ?date= (default
// today) or an inclusive ?from=&to= range.
func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	householdID, ok := householdParam(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var (
		list []model.Assignment
		err  error
	)
	if q.Get("from") != "" || q.Get("to") != "" {
		from, ferr := dateParam(r, "from", h.clock)
		to, terr := dateParam(r, "to", h.clock)
		if ferr != nil || terr != nil || to.Before(from) {
			writeMessage(w, http.StatusBadRequest, "from and to must be YYYY-MM-DD with from <= to")
			return
		}
		list, err = h.assignments.ListRange(r.Context(), householdID, clock.DayKey(from), clock.DayKey(to))
	} else {
		date, derr := dateParam(r, "date", h.clock)
		if derr != nil {
			writeMessage(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		list, err = h.assignments.ListByDay(r.Context(), householdID, clock.DayKey(date))
	}
	if err != nil {
		writeError(w, h.logger, err, "list assignments")
		return
	}
	if list == nil {
		list = []model.Assignment{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *AssignmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	a, err := h.assignments.Complete(r.Context(), id, auth.MemberID(r.Context()), h.clock.Now())
	if err != nil {
		writeError(w, h.logger, err, "complete assignment")
		return
	}
	h.hub.Broadcast(a.HouseholdID, websocket.NewMessage("assignment", "completed", a.ID, nil))
	writeJSON(w, http.StatusOK, a)
}

func (h *AssignmentHandler) Skip(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	res, err := h.negotiation.Skip(r.Context(), id, auth.MemberID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err, "skip assignment")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
