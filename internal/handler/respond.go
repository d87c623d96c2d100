package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/fairshare/internal/auth"
	"github.com/dukerupert/fairshare/internal/clock"
	"github.com/dukerupert/fairshare/internal/errvalues"
	"github.com/dukerupert/fairshare/internal/model"
)

func parseIDParam(r *http.Request) (int64, error) {
	return parsePathID(r, "id")
}

func parsePathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps domain errors to HTTP status codes. Anything unknown is a
// server error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errvalues.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errvalues.ErrNotAssignee),
		errors.Is(err, errvalues.ErrNotOfferTarget),
		errors.Is(err, errvalues.ErrNotRecipient):
		return http.StatusForbidden
	case errors.Is(err, errvalues.ErrInvalidInput),
		errors.Is(err, errvalues.ErrInvalidSwap):
		return http.StatusBadRequest
	case errors.Is(err, errvalues.ErrAlreadyResolved),
		errors.Is(err, errvalues.ErrExpired),
		errvalues.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, errvalues.ErrNoMembers),
		errors.Is(err, errvalues.ErrNoChores):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeError reports err to the client. Server errors are logged and hidden
// behind "failed to <action>".
func writeError(w http.ResponseWriter, logger *slog.Logger, err error, action string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("failed to "+action, "error", err)
		writeMessage(w, status, "failed to "+action)
		return
	}
	writeMessage(w, status, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// householdParam reads the {id} household path value and checks the acting
// member belongs to it.
func householdParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	if auth.HouseholdID(r.Context()) != id {
		writeMessage(w, http.StatusForbidden, "not a member of this household")
		return 0, false
	}
	return id, true
}

// selfOrAdmin allows a member to act on their own record, and an admin on
// any member of the same household.
func selfOrAdmin(r *http.Request, memberID, householdID int64) bool {
	a, ok := auth.FromContext(r.Context())
	if !ok || a.HouseholdID != householdID {
		return false
	}
	return a.MemberID == memberID || a.Role == model.RoleAdmin
}

// dateParam reads an optional YYYY-MM-DD query value, defaulting to today.
func dateParam(r *http.Request, key string, clk clock.Clock) (time.Time, error) {
	now := clk.Now()
	v := r.URL.Query().Get(key)
	if v == "" {
		return now, nil
	}
	return clock.ParseDay(v, now.Location())
}
