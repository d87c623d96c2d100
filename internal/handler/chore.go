package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/fairshare/internal/auth"
	"github.com/dukerupert/fairshare/internal/chore"
	"github.com/dukerupert/fairshare/internal/clock"
	"github.com/dukerupert/fairshare/internal/distribution"
	"github.com/dukerupert/fairshare/internal/model"
	"github.com/dukerupert/fairshare/internal/recurrence"
	"github.com/dukerupert/fairshare/internal/store"
	"github.com/dukerupert/fairshare/internal/websocket"
)

type ChoreHandler struct {
	chores       *store.ChoreStore
	orchestrator *distribution.Orchestrator
	rules        recurrence.Rules
	clock        clock.Clock
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewChoreHandler(cs *store.ChoreStore, orch *distribution.Orchestrator, rules recurrence.Rules, clk clock.Clock, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{chores: cs, orchestrator: orch, rules: rules, clock: clk, hub: hub, logger: logger}
}

type choreRequest struct {
	Title     string `json:"title"`
	Weight    int    `json:"weight"`
	Frequency string `json:"frequency"`
}

func (req *choreRequest) validate() (model.Frequency, string) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return "", "title is required"
	}
	if req.Weight < model.MinChoreWeight || req.Weight > model.MaxChoreWeight {
		return "", "weight must be between 1 and 5"
	}
	freq, err := model.ParseFrequency(req.Frequency)
	if err != nil {
		return "", "frequency must be daily, weekly or biweekly"
	}
	return freq, ""
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	householdID, ok := householdParam(w, r)
	if !ok {
		return
	}
	chores, err := h.chores.ListByHousehold(r.Context(), householdID)
	if err != nil {
		writeError(w, h.logger, err, "list chores")
		return
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	householdID, ok := householdParam(w, r)
	if !ok {
		return
	}
	var req choreRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	freq, msg := req.validate()
	if msg != "" {
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}

	c, err := h.chores.Create(r.Context(), householdID, req.Title, req.Weight, freq)
	if err != nil {
		writeError(w, h.logger, err, "create chore")
		return
	}
	h.hub.Broadcast(householdID, websocket.NewMessage("chore", "created", c.ID, nil))
	writeJSON(w, http.StatusCreated, c)
}

// owned loads the {id} chore if it belongs to the caller's household.
func (h *ChoreHandler) owned(w http.ResponseWriter, r *http.Request) (*model.Chore, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	c, err := h.chores.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err, "get chore")
		return nil, false
	}
	if c == nil || c.HouseholdID != auth.HouseholdID(r.Context()) {
		writeMessage(w, http.StatusNotFound, "chore not found")
		return nil, false
	}
	return c, true
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.owned(w, r)
	if !ok {
		return
	}
	var req choreRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	freq, msg := req.validate()
	if msg != "" {
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}

	c, err := h.chores.Update(r.Context(), existing.ID, req.Title, req.Weight, freq)
	if err != nil {
		writeError(w, h.logger, err, "update chore")
		return
	}
	h.hub.Broadcast(c.HouseholdID, websocket.NewMessage("chore", "updated", c.ID, nil))
	writeJSON(w, http.StatusOK, c)
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.owned(w, r)
	if !ok {
		return
	}
	if err := h.chores.Delete(r.Context(), existing.ID); err != nil {
		writeError(w, h.logger, err, "delete chore")
		return
	}
	h.hub.Broadcast(existing.HouseholdID, websocket.NewMessage("chore", "deleted", existing.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

// Due handles GET /api/households/{id}/due?date=YYYY-MM-DD. It returns the
// chores still needing an owner that day and the next due day of every
// chore.
func (h *ChoreHandler) Due(w http.ResponseWriter, r *http.Request) {
	householdID, ok := householdParam(w, r)
	if !ok {
		return
	}
	date, err := dateParam(r, "date", h.clock)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	due, err := h.orchestrator.EvaluateDueChores(r.Context(), householdID, date)
	if err != nil {
		writeError(w, h.logger, err, "evaluate due chores")
		return
	}
	chores, err := h.chores.ListByHousehold(r.Context(), householdID)
	if err != nil {
		writeError(w, h.logger, err, "list chores")
		return
	}
	if due == nil {
		due = []model.Chore{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":     clock.DayKey(date),
		"due":      due,
		"upcoming": chore.Schedule(h.rules, chores, date),
	})
}
