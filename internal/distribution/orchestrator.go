package distribution

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/fairshare/internal/chore"
	"github.com/dukerupert/fairshare/internal/clock"
	"github.com/dukerupert/fairshare/internal/lottery"
	"github.com/dukerupert/fairshare/internal/model"
	"github.com/dukerupert/fairshare/internal/recurrence"
	"github.com/dukerupert/fairshare/internal/store"
	"github.com/dukerupert/fairshare/internal/websocket"
)

// historyDays bounds how far back a run reads assignments. Anchored
// chores only need today's rows and daily chores only need yesterday's.
const historyDays = 31

type Status string

const (
	StatusDistributed Status = "distributed"
	StatusNothingDue  Status = "nothing_due"
)

// Result describes one completed run.
type Result struct {
	Status      Status                `json:"status"`
	Day         string                `json:"day"`
	RunID       string                `json:"run_id,omitempty"`
	Assignments []model.Assignment    `json:"assignments"`
	Scores      []model.FairnessScore `json:"scores,omitempty"`
}

// Broadcaster publishes live updates to a household.
type Broadcaster interface {
	Broadcast(householdID int64, msg websocket.Message)
}

// Orchestrator runs the daily chore lottery for a household.
type Orchestrator struct {
	db          *sql.DB
	chores      *store.ChoreStore
	assignments *store.AssignmentStore
	rules       recurrence.Rules
	lottery     *lottery.Assignor
	clock       clock.Clock
	hub         Broadcaster
	logger      *slog.Logger
}

func New(db *sql.DB, rules recurrence.Rules, lot *lottery.Assignor, clk clock.Clock, hub Broadcaster, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		db:          db,
		chores:      store.NewChoreStore(db),
		assignments: store.NewAssignmentStore(db),
		rules:       rules,
		lottery:     lot,
		clock:       clk,
		hub:         hub,
		logger:      logger,
	}
}

func historyStart(date time.Time) string {
	return clock.DayKey(date.AddDate(0, 0, -historyDays))
}

// EvaluateDueChores lists the chores that still need an owner on date.
func (o *Orchestrator) EvaluateDueChores(ctx context.Context, householdID int64, date time.Time) ([]model.Chore, error) {
	chores, err := o.chores.ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, err
	}
	history, err := o.assignments.ListSince(ctx, householdID, historyStart(date))
	if err != nil {
		return nil, err
	}
	return chore.Due(o.rules, chores, history, date), nil
}

// Run assigns every chore due on date. Reads, planning and writes share one
// immediate transaction, so a concurrent run for the same day waits and then
// finds nothing left to do.
func (o *Orchestrator) Run(ctx context.Context, householdID int64, date time.Time) (*Result, error) {
	now := o.clock.Now()
	in := Input{
		HouseholdID: householdID,
		Day:         date,
		Period:      clock.PeriodKey(date),
		RunID:       uuid.NewString(),
		Now:         now,
		Rules:       o.rules,
		Lottery:     o.lottery,
	}

	var plan *Plan
	err := store.RunInTx(ctx, o.db, func(tx *store.Tx) error {
		var err error
		if in.Chores, err = tx.ListChores(ctx, householdID); err != nil {
			return err
		}
		if in.Members, err = tx.ListMembers(ctx, householdID); err != nil {
			return err
		}
		if in.History, err = tx.ListAssignmentsSince(ctx, householdID, historyStart(date)); err != nil {
			return err
		}
		if in.Scores, err = tx.ListScores(ctx, householdID, in.Period); err != nil {
			return err
		}

		if plan, err = Build(in); err != nil {
			return err
		}
		for i := range plan.Assignments {
			if err := tx.InsertAssignment(ctx, &plan.Assignments[i]); err != nil {
				return err
			}
		}
		for i := range plan.Scores {
			if err := tx.SaveScore(ctx, &plan.Scores[i], now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("distribute household %d: %w", householdID, err)
	}

	day := clock.DayKey(date)
	if len(plan.Assignments) == 0 {
		o.logger.Debug("nothing due", "household_id", householdID, "day", day)
		return &Result{Status: StatusNothingDue, Day: day, Assignments: []model.Assignment{}}, nil
	}

	o.logger.Info("chores distributed", "household_id", householdID, "day", day, "run_id", in.RunID, "count", len(plan.Assignments))
	o.hub.Broadcast(householdID, websocket.NewMessage("assignment", "distributed", 0, map[string]any{
		"day":    day,
		"run_id": in.RunID,
		"count":  len(plan.Assignments),
	}))

	return &Result{
		Status:      StatusDistributed,
		Day:         day,
		RunID:       in.RunID,
		Assignments: plan.Assignments,
		Scores:      plan.Scores,
	}, nil
}
