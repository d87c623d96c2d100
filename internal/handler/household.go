package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/fairshare/internal/model"
	"github.com/dukerupert/fairshare/internal/store"
)

type HouseholdHandler struct {
	households *store.HouseholdStore
	members    *store.MemberStore
	logger     *slog.Logger
}

func NewHouseholdHandler(hs *store.HouseholdStore, ms *store.MemberStore, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{households: hs, members: ms, logger: logger}
}

// Create handles POST /api/households. The caller becomes the admin.
func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		AdminName string `json:"admin_name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.AdminName = strings.TrimSpace(req.AdminName)
	if req.Name == "" || req.AdminName == "" {
		writeMessage(w, http.StatusBadRequest, "name and admin_name are required")
		return
	}

	household, admin, err := h.households.Create(r.Context(), req.Name, req.AdminName)
	if err != nil {
		writeError(w, h.logger, err, "create household")
		return
	}
	h.logger.Info("household created", "household_id", household.ID, "admin_id", admin.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"household": household, "admin": admin})
}

func (h *HouseholdHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	householdID, ok := householdParam(w, r)
	if !ok {
		return
	}
	members, err := h.members.ListByHousehold(r.Context(), householdID)
	if err != nil {
		writeError(w, h.logger, err, "list members")
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

// CreateMember handles POST /api/households/{id}/members (admin only).
func (h *HouseholdHandler) CreateMember(w http.ResponseWriter, r *http.Request) {
	householdID, ok := householdParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeMessage(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleMember
	}
	if req.Role != model.RoleAdmin && req.Role != model.RoleMember {
		writeMessage(w, http.StatusBadRequest, "role must be admin or member")
		return
	}

	m, err := h.members.Create(r.Context(), householdID, req.Name, req.Role)
	if err != nil {
		if statusFor(err) == http.StatusConflict {
			writeMessage(w, http.StatusConflict, "a member with that name already exists")
			return
		}
		writeError(w, h.logger, err, "create member")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}
