package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dukerupert/fairshare/internal/database"
	"github.com/dukerupert/fairshare/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedHousehold creates a household with an admin and one more member.
func seedHousehold(t *testing.T, db *sql.DB) (*model.Household, *model.Member, *model.Member) {
	t.Helper()
	ctx := context.Background()
	h, admin, err := NewHouseholdStore(db).Create(ctx, "Flat 3B", "Alice")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	bob, err := NewMemberStore(db).Create(ctx, h.ID, "Bob", model.RoleMember)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	return h, admin, bob
}
