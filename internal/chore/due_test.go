package chore

import (
	"testing"
	"time"

	"github.com/dukerupert/fairshare/internal/model"
	"github.com/dukerupert/fairshare/internal/recurrence"
)

var created = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

func TestDueSkipsChoresAssignedToday(t *testing.T) {
	chores := []model.Chore{
		{ID: 2, Title: "Vacuum", Weight: 3, Frequency: model.FrequencyDaily, CreatedAt: created},
		{ID: 1, Title: "Dishes", Weight: 2, Frequency: model.FrequencyDaily, CreatedAt: created},
	}
	history := []model.Assignment{
		{ChoreID: 2, Day: "2026-02-05", Skipped: true},
	}
	today := time.Date(2026, 2, 5, 8, 0, 0, 0, time.UTC)

	due := Due(recurrence.Default, chores, history, today)
	if len(due) != 1 {
		t.Fatalf("len(due) = %d, want 1", len(due))
	}
	if due[0].ID != 1 {
		t.Errorf("due[0].ID = %d, want 1", due[0].ID)
	}
}

func TestDueSortedByID(t *testing.T) {
	chores := []model.Chore{
		{ID: 3, Title: "Trash", Weight: 1, Frequency: model.FrequencyDaily, CreatedAt: created},
		{ID: 1, Title: "Dishes", Weight: 2, Frequency: model.FrequencyDaily, CreatedAt: created},
		{ID: 2, Title: "Vacuum", Weight: 3, Frequency: model.FrequencyDaily, CreatedAt: created},
	}
	due := Due(recurrence.Default, chores, nil, time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC))
	for i, c := range due {
		if c.ID != int64(i+1) {
			t.Errorf("due[%d].ID = %d, want %d", i, c.ID, i+1)
		}
	}
}

func TestDueSkippedHistoryDoesNotCountAsLastRun(t *testing.T) {
	weekly := model.Chore{ID: 1, Title: "Mop", Weight: 4, Frequency: model.FrequencyWeekly, CreatedAt: created}
	today := time.Date(2026, 2, 6, 0, 0, 0, 0, time.UTC)

	// Skipped yesterday, not due today because weekly anchoring is off-cycle.
	due := Due(recurrence.Default, []model.Chore{weekly}, []model.Assignment{{ChoreID: 1, Day: "2026-02-05", Skipped: true}}, today)
	if len(due) != 0 {
		t.Errorf("off-cycle weekly chore should not be due, got %d", len(due))
	}

	daily := model.Chore{ID: 2, Title: "Dishes", Weight: 2, Frequency: model.FrequencyDaily, CreatedAt: created}
	due = Due(recurrence.Default, []model.Chore{daily}, []model.Assignment{{ChoreID: 2, Day: "2026-02-05", Skipped: true}}, today)
	if len(due) != 1 {
		t.Errorf("daily chore skipped yesterday should be due today, got %d", len(due))
	}
}

func TestSchedule(t *testing.T) {
	chores := []model.Chore{
		{ID: 1, Title: "Mop", Weight: 4, Frequency: model.FrequencyWeekly, CreatedAt: created},
	}
	got := Schedule(recurrence.Default, chores, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC))
	if len(got) != 1 || got[0].NextDue != "2026-02-08" {
		t.Errorf("Schedule = %+v, want next_due 2026-02-08", got)
	}
}
