package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/fairshare/internal/clock"
	"github.com/dukerupert/fairshare/internal/distribution"
	"github.com/dukerupert/fairshare/internal/errvalues"
	"github.com/dukerupert/fairshare/internal/model"
)

const DefaultInterval = 5 * time.Minute

type Households interface {
	List(ctx context.Context) ([]model.Household, error)
}

type Distributor interface {
	Run(ctx context.Context, householdID int64, date time.Time) (*distribution.Result, error)
}

type Expirer interface {
	ExpireStale(ctx context.Context, householdID int64, today time.Time) (int, error)
}

type Archiver interface {
	ArchiveOnce(ctx context.Context, householdID int64, period string, now time.Time) (bool, error)
}

// Scheduler periodically distributes the day's chores, expires stale
// offers and archives the month that just closed.
type Scheduler struct {
	mu          sync.RWMutex
	households  Households
	distributor Distributor
	expirer     Expirer
	archiver    Archiver
	clock       clock.Clock
	interval    time.Duration
	logger      *slog.Logger
	cancel      context.CancelFunc
	done        chan struct{}
}

func New(households Households, dist Distributor, exp Expirer, arch Archiver, clk clock.Clock, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		households:  households,
		distributor: dist,
		expirer:     exp,
		archiver:    arch,
		clock:       clk,
		interval:    interval,
		logger:      logger,
	}
}

// Start runs one pass immediately and then one per interval until ctx is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	households, err := s.households.List(ctx)
	if err != nil {
		s.logger.Error("list households", "error", err)
		return
	}

	now := s.clock.Now()
	for _, h := range households {
		if ctx.Err() != nil {
			return
		}
		s.runHousehold(ctx, h.ID, now)
	}
}

func (s *Scheduler) runHousehold(ctx context.Context, householdID int64, now time.Time) {
	log := s.logger.With("household_id", householdID)

	res, err := s.distributor.Run(ctx, householdID, now)
	switch {
	case errors.Is(err, errvalues.ErrNoChores), errors.Is(err, errvalues.ErrNoMembers):
		log.Debug("distribution skipped", "reason", err)
	case err != nil:
		log.Error("distribute chores", "error", err)
	case res.Status == distribution.StatusDistributed:
		log.Info("chores distributed", "run_id", res.RunID, "assignments", len(res.Assignments))
	}

	if _, err := s.expirer.ExpireStale(ctx, householdID, now); err != nil {
		log.Error("expire stale offers", "error", err)
	}

	period := clock.PreviousPeriod(now)
	if _, err := s.archiver.ArchiveOnce(ctx, householdID, period, now); err != nil {
		log.Error("archive period", "period", period, "error", err)
	}
}
