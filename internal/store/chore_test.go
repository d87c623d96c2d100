package store

import (
	"context"
	"testing"

	"github.com/dukerupert/fairshare/internal/model"
)

func TestChoreCRUD(t *testing.T) {
	db := setupTestDB(t)
	h, _, _ := seedHousehold(t, db)
	cs := NewChoreStore(db)
	ctx := context.Background()

	c, err := cs.Create(ctx, h.ID, "Dishes", 2, model.FrequencyDaily)
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	if c.Weight != 2 || c.Frequency != model.FrequencyDaily {
		t.Errorf("chore = %+v", c)
	}

	updated, err := cs.Update(ctx, c.ID, "Dishes and counters", 3, model.FrequencyWeekly)
	if err != nil {
		t.Fatalf("update chore: %v", err)
	}
	if updated.Title != "Dishes and counters" || updated.Weight != 3 || updated.Frequency != model.FrequencyWeekly {
		t.Errorf("updated = %+v", updated)
	}

	if err := cs.Delete(ctx, c.ID); err != nil {
		t.Fatalf("delete chore: %v", err)
	}
	got, err := cs.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("get chore: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestChoreWeightOutOfRangeRejected(t *testing.T) {
	db := setupTestDB(t)
	h, _, _ := seedHousehold(t, db)

	if _, err := NewChoreStore(db).Create(context.Background(), h.ID, "Garage", 9, model.FrequencyWeekly); err == nil {
		t.Error("expected check constraint error for weight 9")
	}
}

func TestChoreMalformedRowRejected(t *testing.T) {
	db := setupTestDB(t)
	h, _, _ := seedHousehold(t, db)
	cs := NewChoreStore(db)
	ctx := context.Background()

	c, err := cs.Create(ctx, h.ID, "Dishes", 2, model.FrequencyDaily)
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	// Bypass the check constraint the way a hand edit or old schema would.
	if _, err := db.Exec(`PRAGMA ignore_check_constraints = ON`); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if _, err := db.Exec(`UPDATE chores SET frequency = 'hourly' WHERE id = ?`, c.ID); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}

	if _, err := cs.GetByID(ctx, c.ID); err == nil {
		t.Error("expected error for unknown frequency")
	}
}
