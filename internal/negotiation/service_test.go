package negotiation

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dukerupert/fairshare/internal/clock"
	"github.com/dukerupert/fairshare/internal/database"
	"github.com/dukerupert/fairshare/internal/model"
	"github.com/dukerupert/fairshare/internal/push"
	"github.com/dukerupert/fairshare/internal/store"
	"github.com/dukerupert/fairshare/internal/websocket"
)

var now = time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

type recordingHub struct {
	mu    sync.Mutex
	types []string
}

func (h *recordingHub) Broadcast(_ int64, msg websocket.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.types = append(h.types, msg.Type)
}

type recordingNotifier struct {
	mu      sync.Mutex
	members []int64
}

func (n *recordingNotifier) NotifyMember(_ context.Context, memberID int64, _ push.Payload) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.members = append(n.members, memberID)
}

type fixture struct {
	db       *sql.DB
	svc      *Service
	hub      *recordingHub
	notifier *recordingNotifier

	household *model.Household
	alice     *model.Member
	bob       *model.Member
	cara      *model.Member
	dishes    *model.Chore
	trash     *model.Chore
}

func newFixture(t *testing.T, path string) *fixture {
	t.Helper()
	db, err := database.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	f := &fixture{db: db, hub: &recordingHub{}, notifier: &recordingNotifier{}}
	f.household, f.alice, err = store.NewHouseholdStore(db).Create(ctx, "Flat 3B", "Alice")
	require.NoError(t, err)
	ms := store.NewMemberStore(db)
	f.bob, err = ms.Create(ctx, f.household.ID, "Bob", model.RoleMember)
	require.NoError(t, err)
	f.cara, err = ms.Create(ctx, f.household.ID, "Cara", model.RoleMember)
	require.NoError(t, err)

	cs := store.NewChoreStore(db)
	f.dishes, err = cs.Create(ctx, f.household.ID, "Dishes", 2, model.FrequencyDaily)
	require.NoError(t, err)
	f.trash, err = cs.Create(ctx, f.household.ID, "Trash", 1, model.FrequencyDaily)
	require.NoError(t, err)

	f.svc = New(Config{}, db, clock.Fixed{T: now}, f.hub, f.notifier, slog.Default())
	return f
}

func (f *fixture) assign(t *testing.T, c *model.Chore, m *model.Member, day string) *model.Assignment {
	t.Helper()
	a := &model.Assignment{
		HouseholdID:  f.household.ID,
		ChoreID:      c.ID,
		ChoreTitle:   c.Title,
		ChoreWeight:  c.Weight,
		AssigneeID:   m.ID,
		AssigneeName: m.Name,
		Day:          day,
		RunID:        "run-test",
		CreatedAt:    now,
	}
	ctx := context.Background()
	require.NoError(t, store.RunInTx(ctx, f.db, func(tx *store.Tx) error {
		return tx.InsertAssignment(ctx, a)
	}))
	return a
}

func (f *fixture) setScore(t *testing.T, m *model.Member, score float64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.RunInTx(ctx, f.db, func(tx *store.Tx) error {
		return tx.SaveScore(ctx, &model.FairnessScore{
			HouseholdID: f.household.ID, MemberID: m.ID, Period: "2026-03",
			Score: score, CumulativeWeight: score, AssignedCount: 1,
		}, now)
	}))
}

func (f *fixture) score(t *testing.T, m *model.Member) model.FairnessScore {
	t.Helper()
	rows, err := store.NewLedgerStore(f.db).ListByPeriod(context.Background(), f.household.ID, "2026-03")
	require.NoError(t, err)
	for _, r := range rows {
		if r.MemberID == m.ID {
			return r
		}
	}
	return model.FairnessScore{MemberID: m.ID}
}

func (f *fixture) authoritativeCount(t *testing.T, choreID int64, day string) int {
	t.Helper()
	var n int
	err := f.db.QueryRow(
		`SELECT COUNT(*) FROM assignments WHERE chore_id = ? AND day = ? AND skipped = 0`, choreID, day,
	).Scan(&n)
	require.NoError(t, err)
	return n
}

// inTx runs read helpers that only exist on store.Tx.
func (f *fixture) inTx(t *testing.T, fn func(tx *store.Tx) error) {
	t.Helper()
	require.NoError(t, store.RunInTx(context.Background(), f.db, fn))
}
