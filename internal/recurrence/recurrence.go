package recurrence

import (
	"time"

	"github.com/dukerupert/fairshare/internal/clock"
	"github.com/dukerupert/fairshare/internal/model"
)

// Rules holds the cycle lengths for anchored frequencies. Weekly and
// biweekly chores fall due on days whose distance from the chore's creation
// date is a multiple of the cycle.
type Rules struct {
	WeeklyCycle   int
	BiweeklyCycle int
}

// Default keeps the observed 15-day biweekly cycle.
var Default = Rules{WeeklyCycle: 7, BiweeklyCycle: 15}

// IsDue reports whether chore should be assigned on today. last is the day
// of the most recent non-skipped assignment, or nil if it never ran.
func (r Rules) IsDue(chore model.Chore, last *time.Time, today time.Time) bool {
	switch chore.Frequency {
	case model.FrequencyDaily:
		return last == nil || clock.DaysBetween(*last, today) >= 1
	case model.FrequencyWeekly:
		return r.anchored(chore, r.WeeklyCycle, last, today)
	case model.FrequencyBiweekly:
		return r.anchored(chore, r.BiweeklyCycle, last, today)
	}
	return false
}

func (r Rules) anchored(chore model.Chore, cycle int, last *time.Time, today time.Time) bool {
	if cycle <= 0 {
		return false
	}
	created := chore.CreatedAt.In(today.Location())
	days := clock.DaysBetween(created, today)
	if days < 0 || days%cycle != 0 {
		return false
	}
	return last == nil || clock.DaysBetween(*last, today) != 0
}

// Next returns the first day on or after from when chore falls due, assuming
// it has not run on that day. Daily chores are always due on from.
func (r Rules) Next(chore model.Chore, from time.Time) (time.Time, bool) {
	from = clock.StartOfDay(from)
	var cycle int
	switch chore.Frequency {
	case model.FrequencyDaily:
		return from, true
	case model.FrequencyWeekly:
		cycle = r.WeeklyCycle
	case model.FrequencyBiweekly:
		cycle = r.BiweeklyCycle
	default:
		return time.Time{}, false
	}
	if cycle <= 0 {
		return time.Time{}, false
	}
	created := clock.StartOfDay(chore.CreatedAt.In(from.Location()))
	days := clock.DaysBetween(created, from)
	if days <= 0 {
		return created, true
	}
	if rem := days % cycle; rem != 0 {
		return from.AddDate(0, 0, cycle-rem), true
	}
	return from, true
}
