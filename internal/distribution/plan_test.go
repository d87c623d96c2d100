package distribution

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/fairshare/internal/errvalues"
	"github.com/dukerupert/fairshare/internal/lottery"
	"github.com/dukerupert/fairshare/internal/model"
	"github.com/dukerupert/fairshare/internal/recurrence"
)

var (
	runDay  = time.Date(2026, 3, 9, 7, 0, 0, 0, time.UTC)
	created = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
)

func baseInput() Input {
	return Input{
		HouseholdID: 1,
		Day:         runDay,
		Period:      "2026-03",
		RunID:       "run-1",
		Now:         runDay,
		Chores: []model.Chore{
			{ID: 1, HouseholdID: 1, Title: "Dishes", Weight: 2, Frequency: model.FrequencyDaily, CreatedAt: created},
			{ID: 2, HouseholdID: 1, Title: "Mop", Weight: 4, Frequency: model.FrequencyWeekly, CreatedAt: created},
			{ID: 3, HouseholdID: 1, Title: "Windows", Weight: 5, Frequency: model.FrequencyBiweekly, CreatedAt: created},
		},
		Members: []model.Member{
			{ID: 2, HouseholdID: 1, Name: "Bob", Role: model.RoleMember},
			{ID: 1, HouseholdID: 1, Name: "Alice", Role: model.RoleAdmin},
		},
		Rules:   recurrence.Default,
		Lottery: lottery.New(rand.New(rand.NewPCG(7, 7))),
	}
}

func TestEligible(t *testing.T) {
	until := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	later := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	members := []model.Member{
		{ID: 4, Name: "Dee"},
		{ID: 3, Name: "Cara", OnVacation: true},
		{ID: 2, Name: "Bob", OnVacation: true, VacationEnd: &until},
		{ID: 1, Name: "Alice", OnVacation: true, VacationEnd: &later},
	}

	pool := Eligible(members, runDay)
	require.Len(t, pool, 2)
	assert.Equal(t, int64(2), pool[0].ID, "vacation ended before the run day")
	assert.Equal(t, int64(4), pool[1].ID)
}

func TestBuildNoChores(t *testing.T) {
	in := baseInput()
	in.Chores = nil
	_, err := Build(in)
	assert.ErrorIs(t, err, errvalues.ErrNoChores)
}

func TestBuildNoMembers(t *testing.T) {
	in := baseInput()
	for i := range in.Members {
		in.Members[i].OnVacation = true
	}
	_, err := Build(in)
	assert.ErrorIs(t, err, errvalues.ErrNoMembers)
}

func TestBuildAssignsDueChores(t *testing.T) {
	in := baseInput()
	plan, err := Build(in)
	require.NoError(t, err)

	// Daily and weekly are due seven days after creation; biweekly is not.
	require.Len(t, plan.Assignments, 2)
	assert.Equal(t, int64(1), plan.Assignments[0].ChoreID)
	assert.Equal(t, int64(2), plan.Assignments[1].ChoreID)

	var credited float64
	for _, a := range plan.Assignments {
		assert.Equal(t, "2026-03-09", a.Day)
		assert.Equal(t, "run-1", a.RunID)
		assert.False(t, a.Completed)
		assert.False(t, a.Skipped)
		assert.False(t, a.Swapped)
		credited += float64(a.ChoreWeight)
	}

	var total float64
	for _, sc := range plan.Scores {
		assert.Equal(t, "2026-03", sc.Period)
		total += sc.Score
	}
	assert.Equal(t, credited, total, "ledger credits equal assigned weight")
}

func TestBuildNothingDue(t *testing.T) {
	in := baseInput()
	in.History = []model.Assignment{
		{ChoreID: 1, Day: "2026-03-09"},
		{ChoreID: 2, Day: "2026-03-09", Skipped: true},
	}
	plan, err := Build(in)
	require.NoError(t, err)
	assert.Empty(t, plan.Assignments)
	assert.Empty(t, plan.Scores)
}

func TestBuildSingleMemberGetsEverything(t *testing.T) {
	in := baseInput()
	in.Members = in.Members[:1]
	in.Scores = []model.FairnessScore{{HouseholdID: 1, MemberID: 2, Period: "2026-03", Score: 500}}

	plan, err := Build(in)
	require.NoError(t, err)
	for _, a := range plan.Assignments {
		assert.Equal(t, int64(2), a.AssigneeID)
	}
	require.Len(t, plan.Scores, 1)
	assert.Equal(t, 506.0, plan.Scores[0].Score)
	assert.Equal(t, 2, plan.Scores[0].AssignedCount)
}
