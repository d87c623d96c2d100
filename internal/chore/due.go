package chore

import (
	"sort"
	"time"

	"github.com/dukerupert/fairshare/internal/clock"
	"github.com/dukerupert/fairshare/internal/model"
	"github.com/dukerupert/fairshare/internal/recurrence"
)

// Due returns the chores that need an assignment on today, sorted by id.
//
// A chore with any assignment on today, skipped or not, is left out so a
// second run on the same day plans nothing for it. The last run used for the
// recurrence check is the latest non-skipped assignment before today.
func Due(rules recurrence.Rules, chores []model.Chore, history []model.Assignment, today time.Time) []model.Chore {
	todayKey := clock.DayKey(today)

	assignedToday := make(map[int64]bool)
	last := make(map[int64]time.Time)
	for _, a := range history {
		if a.Day == todayKey {
			assignedToday[a.ChoreID] = true
			continue
		}
		if a.Skipped || a.Day > todayKey {
			continue
		}
		d, err := clock.ParseDay(a.Day, today.Location())
		if err != nil {
			continue
		}
		if prev, ok := last[a.ChoreID]; !ok || d.After(prev) {
			last[a.ChoreID] = d
		}
	}

	var due []model.Chore
	for _, c := range chores {
		if assignedToday[c.ID] {
			continue
		}
		var lastRun *time.Time
		if d, ok := last[c.ID]; ok {
			lastRun = &d
		}
		if rules.IsDue(c, lastRun, today) {
			due = append(due, c)
		}
	}

	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due
}

// Upcoming pairs a chore with the next day it falls due.
type Upcoming struct {
	model.Chore
	NextDue string `json:"next_due,omitempty"`
}

// Schedule annotates chores with their next due day on or after from.
func Schedule(rules recurrence.Rules, chores []model.Chore, from time.Time) []Upcoming {
	out := make([]Upcoming, 0, len(chores))
	for _, c := range chores {
		u := Upcoming{Chore: c}
		if next, ok := rules.Next(c, from); ok {
			u.NextDue = clock.DayKey(next)
		}
		out = append(out, u)
	}
	return out
}
