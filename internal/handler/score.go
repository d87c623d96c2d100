package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/fairshare/internal/archive"
	"github.com/dukerupert/fairshare/internal/clock"
	"github.com/dukerupert/fairshare/internal/ledger"
	"github.com/dukerupert/fairshare/internal/model"
	"github.com/dukerupert/fairshare/internal/store"
	"github.com/dukerupert/fairshare/internal/websocket"
)

type ScoreHandler struct {
	ledger   *store.LedgerStore
	members  *store.MemberStore
	archives *store.ArchiveStore
	archiver *archive.Archiver
	clock    clock.Clock
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewScoreHandler(ls *store.LedgerStore, ms *store.MemberStore, as *store.ArchiveStore, archiver *archive.Archiver, clk clock.Clock, hub *websocket.Hub, logger *slog.Logger) *ScoreHandler {
	return &ScoreHandler{ledger: ls, members: ms, archives: as, archiver: archiver, clock: clk, hub: hub, logger: logger}
}

// periodParam reads ?period=YYYY-MM, defaulting to the current month.
func (h *ScoreHandler) periodParam(r *http.Request) (string, bool) {
	p := r.URL.Query().Get("period")
	if p == "" {
		return clock.PeriodKey(h.clock.Now()), true
	}
	if _, err := time.Parse(clock.PeriodLayout, p); err != nil {
		return "", false
	}
	return p, true
}

func (h *ScoreHandler) List(w http.ResponseWriter, r *http.Request) {
	householdID, ok := householdParam(w, r)
	if !ok {
		return
	}
	period, ok := h.periodParam(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "period must be YYYY-MM")
		return
	}
	scores, err := h.ledger.ListByPeriod(r.Context(), householdID, period)
	if err != nil {
		writeError(w, h.logger, err, "list scores")
		return
	}
	if scores == nil {
		scores = []model.FairnessScore{}
	}
	writeJSON(w, http.StatusOK, scores)
}

func (h *ScoreHandler) Stats(w http.ResponseWriter, r *http.Request) {
	householdID, ok := householdParam(w, r)
	if !ok {
		return
	}
	period, ok := h.periodParam(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "period must be YYYY-MM")
		return
	}
	ids, err := h.members.ListIDs(r.Context(), householdID)
	if err != nil {
		writeError(w, h.logger, err, "list members")
		return
	}
	scores, err := h.ledger.Scores(r.Context(), householdID, period)
	if err != nil {
		writeError(w, h.logger, err, "load scores")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"period": period,
		"stats":  ledger.Stats(ids, scores),
	})
}

// Reset handles DELETE /api/households/{id}/scores (admin only). The period
// is uploaded first when archive storage is configured; a failed upload
// leaves the scores in place.
func (h *ScoreHandler) Reset(w http.ResponseWriter, r *http.Request) {
	householdID, ok := householdParam(w, r)
	if !ok {
		return
	}
	period, ok := h.periodParam(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "period must be YYYY-MM")
		return
	}

	var archived *model.PeriodArchive
	if h.archiver.Enabled() {
		var err error
		if archived, err = h.archiver.ArchivePeriod(r.Context(), householdID, period, h.clock.Now()); err != nil {
			writeError(w, h.logger, err, "archive scores")
			return
		}
	}

	removed, err := h.ledger.ResetPeriod(r.Context(), householdID, period)
	if err != nil {
		writeError(w, h.logger, err, "reset scores")
		return
	}
	h.logger.Info("scores reset", "household_id", householdID, "period", period, "rows", removed)
	h.hub.Broadcast(householdID, websocket.NewMessage("score", "reset", 0, map[string]any{"period": period}))
	writeJSON(w, http.StatusOK, map[string]any{
		"period":   period,
		"removed":  removed,
		"archived": archived,
	})
}

// Archive handles GET /api/households/{id}/archives/{period}.
func (h *ScoreHandler) Archive(w http.ResponseWriter, r *http.Request) {
	householdID, ok := householdParam(w, r)
	if !ok {
		return
	}
	period := r.PathValue("period")
	if _, err := time.Parse(clock.PeriodLayout, period); err != nil {
		writeMessage(w, http.StatusBadRequest, "period must be YYYY-MM")
		return
	}

	rec, err := h.archives.Get(r.Context(), householdID, period)
	if err != nil {
		writeError(w, h.logger, err, "get archive")
		return
	}
	if rec == nil {
		writeMessage(w, http.StatusNotFound, "period not archived")
		return
	}

	doc, err := h.archiver.Fetch(r.Context(), householdID, period)
	if errors.Is(err, archive.ErrDisabled) {
		writeMessage(w, http.StatusServiceUnavailable, "archive storage not configured")
		return
	}
	if err != nil {
		writeError(w, h.logger, err, "download archive")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
