package distribution

import (
	"sort"
	"time"

	"github.com/dukerupert/fairshare/internal/chore"
	"github.com/dukerupert/fairshare/internal/clock"
	"github.com/dukerupert/fairshare/internal/errvalues"
	"github.com/dukerupert/fairshare/internal/ledger"
	"github.com/dukerupert/fairshare/internal/lottery"
	"github.com/dukerupert/fairshare/internal/model"
	"github.com/dukerupert/fairshare/internal/recurrence"
)

// Eligible returns the members taking part in the lottery on day, sorted by
// id.
func Eligible(members []model.Member, day time.Time) []model.Member {
	var pool []model.Member
	for _, m := range members {
		if !m.OnVacationAt(day) {
			pool = append(pool, m)
		}
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })
	return pool
}

// Input is everything one distribution run reads.
type Input struct {
	HouseholdID int64
	Day         time.Time
	Period      string
	RunID       string
	Now         time.Time

	Chores  []model.Chore
	Members []model.Member
	History []model.Assignment
	Scores  []model.FairnessScore

	Rules   recurrence.Rules
	Lottery *lottery.Assignor
}

// Plan is the set of writes a run will make. An empty plan means nothing
// was due.
type Plan struct {
	Assignments []model.Assignment
	Scores      []model.FairnessScore
}

// Build decides the run's assignments and ledger credits without touching
// storage. Chores and members are checked before anything else.
func Build(in Input) (*Plan, error) {
	if len(in.Chores) == 0 {
		return nil, errvalues.ErrNoChores
	}
	pool := Eligible(in.Members, in.Day)
	if len(pool) == 0 {
		return nil, errvalues.ErrNoMembers
	}

	due := chore.Due(in.Rules, in.Chores, in.History, in.Day)
	if len(due) == 0 {
		return &Plan{}, nil
	}

	snap := ledger.NewSnapshot(in.HouseholdID, in.Period, in.Scores)
	ids := make([]int64, len(pool))
	for i, m := range pool {
		ids[i] = m.ID
	}

	picks, err := in.Lottery.Assign(due, pool, snap.Scores(ids))
	if err != nil {
		return nil, err
	}

	day := clock.DayKey(in.Day)
	plan := &Plan{Assignments: make([]model.Assignment, 0, len(picks))}
	for _, p := range picks {
		plan.Assignments = append(plan.Assignments, model.Assignment{
			HouseholdID:  in.HouseholdID,
			ChoreID:      p.Chore.ID,
			ChoreTitle:   p.Chore.Title,
			ChoreWeight:  p.Chore.Weight,
			AssigneeID:   p.Member.ID,
			AssigneeName: p.Member.Name,
			Day:          day,
			RunID:        in.RunID,
			CreatedAt:    in.Now,
		})
		snap.Credit(p.Member.ID, float64(p.Chore.Weight))
	}
	plan.Scores = snap.Touched()
	return plan, nil
}
