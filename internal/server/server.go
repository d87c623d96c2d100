package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/dukerupert/fairshare/internal/archive"
	"github.com/dukerupert/fairshare/internal/clock"
	"github.com/dukerupert/fairshare/internal/config"
	"github.com/dukerupert/fairshare/internal/distribution"
	"github.com/dukerupert/fairshare/internal/handler"
	"github.com/dukerupert/fairshare/internal/lottery"
	"github.com/dukerupert/fairshare/internal/middleware"
	"github.com/dukerupert/fairshare/internal/negotiation"
	"github.com/dukerupert/fairshare/internal/push"
	"github.com/dukerupert/fairshare/internal/scheduler"
	"github.com/dukerupert/fairshare/internal/store"
	ws "github.com/dukerupert/fairshare/internal/websocket"
)

type Server struct {
	hub          *ws.Hub
	householdH   *handler.HouseholdHandler
	memberH      *handler.MemberHandler
	choreH       *handler.ChoreHandler
	assignmentH  *handler.AssignmentHandler
	negotiationH *handler.NegotiationHandler
	scoreH       *handler.ScoreHandler
	pushH        *handler.PushHandler
	memberStore  *store.MemberStore
	rateLimiter  *middleware.RateLimiter
	scheduler    *scheduler.Scheduler
	logger       *slog.Logger
}

func New(db *sql.DB, cfg config.Config, clk clock.Clock, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	householdStore := store.NewHouseholdStore(db)
	memberStore := store.NewMemberStore(db)
	choreStore := store.NewChoreStore(db)
	assignmentStore := store.NewAssignmentStore(db)
	ledgerStore := store.NewLedgerStore(db)
	archiveStore := store.NewArchiveStore(db)
	pushStore := store.NewPushStore(db)

	seed := uint64(clk.Now().UnixNano())
	lot := lottery.New(rand.New(rand.NewPCG(seed, seed>>1|1)))
	orchestrator := distribution.New(db, cfg.Recurrence, lot, clk, hub, logger.With("component", "distribution"))

	// Push notification service; without VAPID keys the notifier drops
	// everything.
	pushLogger := logger.With("component", "push")
	var pushSvc *push.Service
	var sender push.Sender
	if cfg.PushEnabled() {
		pushSvc = push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject)
		sender = pushSvc
	}
	notifier := push.NewNotifier(sender, pushStore, pushLogger)

	negotiationSvc := negotiation.New(cfg.Negotiation, db, clk, hub, notifier, logger.With("component", "negotiation"))
	archiver := archive.New(cfg.S3, ledgerStore, memberStore, archiveStore, logger.With("component", "archive"))
	sched := scheduler.New(householdStore, orchestrator, negotiationSvc, archiver, clk, cfg.SchedulerInterval, logger.With("component", "scheduler"))

	return &Server{
		hub:          hub,
		householdH:   handler.NewHouseholdHandler(householdStore, memberStore, logger.With("component", "household")),
		memberH:      handler.NewMemberHandler(memberStore, clk, hub, logger.With("component", "member")),
		choreH:       handler.NewChoreHandler(choreStore, orchestrator, cfg.Recurrence, clk, hub, logger.With("component", "chore")),
		assignmentH:  handler.NewAssignmentHandler(assignmentStore, orchestrator, negotiationSvc, clk, hub, logger.With("component", "assignment")),
		negotiationH: handler.NewNegotiationHandler(negotiationSvc, logger.With("component", "negotiation_handler")),
		scoreH:       handler.NewScoreHandler(ledgerStore, memberStore, archiveStore, archiver, clk, hub, logger.With("component", "score")),
		pushH:        handler.NewPushHandler(pushStore, pushSvc, notifier, logger.With("component", "push_handler")),
		memberStore:  memberStore,
		rateLimiter:  middleware.NewRateLimiter(clk),
		scheduler:    sched,
		logger:       logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Scheduler returns the background distribution scheduler.
func (s *Server) Scheduler() *scheduler.Scheduler {
	return s.scheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no acting member required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("POST /api/households", s.rateLimitedHandler(s.householdH.Create))
	outerMux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	outerMux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	// Member routes, wrapped with ActingMember middleware
	memberMux := http.NewServeMux()
	s.registerMemberRoutes(memberMux)

	acting := middleware.ActingMember(s.memberStore, s.rateLimiter, s.logger.With("component", "auth"))
	outerMux.Handle("/api/", acting(memberMux))

	// Apply request logging middleware
	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func admin(h http.HandlerFunc) http.Handler {
	return middleware.RequireAdmin(h)
}

func (s *Server) registerMemberRoutes(mux *http.ServeMux) {
	// Members
	mux.HandleFunc("GET /api/households/{id}/members", s.householdH.ListMembers)
	mux.Handle("POST /api/households/{id}/members", admin(s.householdH.CreateMember))
	mux.HandleFunc("PUT /api/members/{id}/vacation", s.memberH.SetVacation)
	mux.HandleFunc("POST /api/members/{id}/pin", s.memberH.SetPIN)
	mux.HandleFunc("DELETE /api/members/{id}/pin", s.memberH.ClearPIN)

	// Chores
	mux.HandleFunc("GET /api/households/{id}/chores", s.choreH.List)
	mux.Handle("POST /api/households/{id}/chores", admin(s.choreH.Create))
	mux.Handle("PUT /api/chores/{id}", admin(s.choreH.Update))
	mux.Handle("DELETE /api/chores/{id}", admin(s.choreH.Delete))
	mux.HandleFunc("GET /api/households/{id}/due", s.choreH.Due)

	// Distribution and assignments
	mux.HandleFunc("POST /api/households/{id}/distribute", s.assignmentH.Distribute)
	mux.HandleFunc("GET /api/households/{id}/assignments", s.assignmentH.List)
	mux.HandleFunc("POST /api/assignments/{id}/complete", s.assignmentH.Complete)
	mux.HandleFunc("POST /api/assignments/{id}/skip", s.assignmentH.Skip)

	// Offers
	mux.HandleFunc("GET /api/members/{id}/offers", s.negotiationH.Offers)
	mux.HandleFunc("POST /api/offers/{id}/accept", s.negotiationH.AcceptOffer)
	mux.HandleFunc("POST /api/offers/{id}/decline", s.negotiationH.DeclineOffer)

	// Swaps
	mux.HandleFunc("POST /api/swaps", s.negotiationH.ProposeSwap)
	mux.HandleFunc("GET /api/members/{id}/swaps", s.negotiationH.Swaps)
	mux.HandleFunc("POST /api/swaps/{id}/accept", s.negotiationH.AcceptSwap)
	mux.HandleFunc("POST /api/swaps/{id}/decline", s.negotiationH.DeclineSwap)

	// Scores
	mux.HandleFunc("GET /api/households/{id}/scores", s.scoreH.List)
	mux.Handle("DELETE /api/households/{id}/scores", admin(s.scoreH.Reset))
	mux.HandleFunc("GET /api/households/{id}/stats", s.scoreH.Stats)
	mux.HandleFunc("GET /api/households/{id}/archives/{period}", s.scoreH.Archive)

	// Push subscriptions
	mux.HandleFunc("POST /api/members/{id}/push-subscriptions", s.pushH.Subscribe)
	mux.HandleFunc("GET /api/members/{id}/push-subscriptions", s.pushH.ListSubscriptions)
	mux.HandleFunc("DELETE /api/members/{id}/push-subscriptions", s.pushH.Unsubscribe)
	mux.HandleFunc("POST /api/members/{id}/push-subscriptions/test", s.pushH.TestNotification)
}
