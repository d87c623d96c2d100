package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/fairshare/internal/auth"
	"github.com/dukerupert/fairshare/internal/model"
	"github.com/dukerupert/fairshare/internal/push"
	"github.com/dukerupert/fairshare/internal/store"
)

type PushHandler struct {
	pushStore *store.PushStore
	service   *push.Service
	notifier  *push.Notifier
	logger    *slog.Logger
}

// NewPushHandler accepts a nil service when VAPID keys are not configured;
// subscriptions are still stored so they work once keys are added.
func NewPushHandler(ps *store.PushStore, svc *push.Service, notifier *push.Notifier, logger *slog.Logger) *PushHandler {
	return &PushHandler{pushStore: ps, service: svc, notifier: notifier, logger: logger}
}

type subscribeRequest struct {
	Endpoint   string `json:"endpoint"`
	P256dh     string `json:"p256dh"`
	Auth       string `json:"auth"`
	DeviceName string `json:"device_name"`
}

// Subscribe handles POST /api/members/{id}/push-subscriptions
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	memberID, ok := self(w, r)
	if !ok {
		return
	}

	var req subscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		writeMessage(w, http.StatusBadRequest, "endpoint, p256dh, and auth are required")
		return
	}

	sub, err := h.pushStore.CreateSubscription(r.Context(), auth.HouseholdID(r.Context()), memberID, req.Endpoint, req.P256dh, req.Auth, req.DeviceName)
	if err != nil {
		writeError(w, h.logger, err, "save subscription")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// ListSubscriptions handles GET /api/members/{id}/push-subscriptions
func (h *PushHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	memberID, ok := self(w, r)
	if !ok {
		return
	}
	subs, err := h.pushStore.ListByMember(r.Context(), memberID)
	if err != nil {
		writeError(w, h.logger, err, "list subscriptions")
		return
	}
	if subs == nil {
		subs = []model.PushSubscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}

// Unsubscribe handles DELETE /api/members/{id}/push-subscriptions?endpoint=
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	memberID, ok := self(w, r)
	if !ok {
		return
	}
	endpoint := r.URL.Query().Get("endpoint")
	if endpoint == "" {
		writeMessage(w, http.StatusBadRequest, "endpoint is required")
		return
	}

	subs, err := h.pushStore.ListByMember(r.Context(), memberID)
	if err != nil {
		writeError(w, h.logger, err, "list subscriptions")
		return
	}
	for _, s := range subs {
		if s.Endpoint == endpoint {
			if err := h.pushStore.DeleteByEndpoint(r.Context(), endpoint); err != nil {
				writeError(w, h.logger, err, "delete subscription")
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "subscription not found")
}

// GetVAPIDKey handles GET /api/push/vapid-key
func (h *PushHandler) GetVAPIDKey(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeMessage(w, http.StatusNotFound, "push notifications are not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}

// TestNotification handles POST /api/members/{id}/push-subscriptions/test
func (h *PushHandler) TestNotification(w http.ResponseWriter, r *http.Request) {
	memberID, ok := self(w, r)
	if !ok {
		return
	}
	h.notifier.NotifyMember(r.Context(), memberID, push.TestPayload())
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}
