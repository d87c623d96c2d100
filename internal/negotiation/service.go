package negotiation

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/dukerupert/fairshare/internal/clock"
	"github.com/dukerupert/fairshare/internal/push"
	"github.com/dukerupert/fairshare/internal/store"
	"github.com/dukerupert/fairshare/internal/websocket"
)

const (
	DefaultSkipPenalty = 10
	DefaultOfferBonus  = 5
)

// Broadcaster publishes live updates to a household.
type Broadcaster interface {
	Broadcast(householdID int64, msg websocket.Message)
}

// Notifier delivers a push notification to every device of a member.
type Notifier interface {
	NotifyMember(ctx context.Context, memberID int64, payload push.Payload)
}

// Config tunes the skip economy. Zero values fall back to the defaults.
type Config struct {
	SkipPenalty float64
	OfferBonus  float64
}

// Service runs the skip/re-offer and swap workflows. Every state change
// happens in one immediate transaction with compare-and-set updates, and
// events are published only after commit.
type Service struct {
	db           *sql.DB
	negotiations *store.NegotiationStore
	clock        clock.Clock
	hub          Broadcaster
	notifier     Notifier
	logger       *slog.Logger

	skipPenalty float64
	offerBonus  float64
}

func New(cfg Config, db *sql.DB, clk clock.Clock, hub Broadcaster, notifier Notifier, logger *slog.Logger) *Service {
	if cfg.SkipPenalty <= 0 {
		cfg.SkipPenalty = DefaultSkipPenalty
	}
	if cfg.OfferBonus <= 0 {
		cfg.OfferBonus = DefaultOfferBonus
	}
	return &Service{
		db:           db,
		negotiations: store.NewNegotiationStore(db),
		clock:        clk,
		hub:          hub,
		notifier:     notifier,
		logger:       logger,
		skipPenalty:  cfg.SkipPenalty,
		offerBonus:   cfg.OfferBonus,
	}
}
