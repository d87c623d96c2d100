package handler

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/fairshare/internal/clock"
	"github.com/dukerupert/fairshare/internal/model"
	"github.com/dukerupert/fairshare/internal/store"
	"github.com/dukerupert/fairshare/internal/websocket"
)

type MemberHandler struct {
	members *store.MemberStore
	clock   clock.Clock
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewMemberHandler(ms *store.MemberStore, clk clock.Clock, hub *websocket.Hub, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{members: ms, clock: clk, hub: hub, logger: logger}
}

// target loads the {id} member and checks the caller may change it.
func (h *MemberHandler) target(w http.ResponseWriter, r *http.Request) (*model.Member, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	m, err := h.members.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err, "get member")
		return nil, false
	}
	if m == nil {
		writeMessage(w, http.StatusNotFound, "member not found")
		return nil, false
	}
	if !selfOrAdmin(r, m.ID, m.HouseholdID) {
		writeMessage(w, http.StatusForbidden, "cannot change another member")
		return nil, false
	}
	return m, true
}

// SetVacation handles PUT /api/members/{id}/vacation. vacation_end is an
// inclusive YYYY-MM-DD day.
func (h *MemberHandler) SetVacation(w http.ResponseWriter, r *http.Request) {
	m, ok := h.target(w, r)
	if !ok {
		return
	}
	var req struct {
		OnVacation  bool   `json:"on_vacation"`
		VacationEnd string `json:"vacation_end"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var end *time.Time
	if req.OnVacation && req.VacationEnd != "" {
		t, err := clock.ParseDay(req.VacationEnd, h.clock.Now().Location())
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "vacation_end must be YYYY-MM-DD")
			return
		}
		end = &t
	}

	updated, err := h.members.SetVacation(r.Context(), m.ID, req.OnVacation, end)
	if err != nil {
		writeError(w, h.logger, err, "set vacation")
		return
	}
	h.hub.Broadcast(m.HouseholdID, websocket.NewMessage("member", "updated", m.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

func (h *MemberHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	m, ok := h.target(w, r)
	if !ok {
		return
	}
	var req struct {
		PIN string `json:"pin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.PIN) != 4 || !isDigits(req.PIN) {
		writeMessage(w, http.StatusBadRequest, "PIN must be exactly 4 digits")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, h.logger, err, "hash PIN")
		return
	}
	if err := h.members.SetPIN(r.Context(), m.ID, string(hash)); err != nil {
		writeError(w, h.logger, err, "set PIN")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "pin set"})
}

func (h *MemberHandler) ClearPIN(w http.ResponseWriter, r *http.Request) {
	m, ok := h.target(w, r)
	if !ok {
		return
	}
	if err := h.members.ClearPIN(r.Context(), m.ID); err != nil {
		writeError(w, h.logger, err, "clear PIN")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "pin cleared"})
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
