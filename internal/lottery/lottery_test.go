package lottery

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/fairshare/internal/model"
)

// fixedSource makes every Float64 draw return the same fraction.
type fixedSource struct{ v uint64 }

func (s fixedSource) Uint64() uint64 { return s.v }

func fraction(f float64) fixedSource {
	return fixedSource{v: uint64(f * (1 << 53))}
}

func seeded() *Assignor {
	return New(rand.New(rand.NewPCG(42, 1024)))
}

var (
	alice = model.Member{ID: 1, Name: "Alice"}
	bob   = model.Member{ID: 2, Name: "Bob"}
	cara  = model.Member{ID: 3, Name: "Cara"}
)

func TestPickEmptyPool(t *testing.T) {
	_, err := seeded().Pick(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyPool)

	_, err = seeded().Assign([]model.Chore{{ID: 1, Weight: 1}}, nil, nil)
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestPickSingleMember(t *testing.T) {
	a := seeded()
	for i := 0; i < 100; i++ {
		m, err := a.Pick([]model.Member{bob}, map[int64]float64{bob.ID: 1000})
		require.NoError(t, err)
		assert.Equal(t, bob.ID, m.ID)
	}
}

func TestPickRatio(t *testing.T) {
	a := seeded()
	pool := []model.Member{alice, bob}
	scores := map[int64]float64{alice.ID: 0, bob.ID: 20}

	const draws = 10000
	var aliceWins int
	for i := 0; i < draws; i++ {
		m, err := a.Pick(pool, scores)
		require.NoError(t, err)
		if m.ID == alice.ID {
			aliceWins++
		}
	}
	assert.InDelta(t, 0.75, float64(aliceWins)/draws, 0.03)
}

func TestPickWalksPoolInOrder(t *testing.T) {
	pool := []model.Member{alice, bob, cara}
	scores := map[int64]float64{}

	// Equal weights of 10: a draw of 0 lands on the first member, a draw just
	// under the total on the last.
	m, err := New(rand.New(fraction(0))).Pick(pool, scores)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, m.ID)

	m, err = New(rand.New(fraction(0.999))).Pick(pool, scores)
	require.NoError(t, err)
	assert.Equal(t, cara.ID, m.ID)
}

func TestAssignUpdatesRunningScores(t *testing.T) {
	a := New(rand.New(fraction(0.55)))
	chores := []model.Chore{{ID: 1, Weight: 5}, {ID: 2, Weight: 5}}
	scores := map[int64]float64{alice.ID: 0, bob.ID: 0}

	picks, err := a.Assign(chores, []model.Member{alice, bob}, scores)
	require.NoError(t, err)
	require.Len(t, picks, 2)

	// First draw: weights 10/10, r = 11 goes to Bob. Bob's running score of
	// 5 shifts the second draw to weights 15/10, r = 13.75 goes to Alice.
	assert.Equal(t, bob.ID, picks[0].Member.ID)
	assert.Equal(t, alice.ID, picks[1].Member.ID)
	assert.Equal(t, map[int64]float64{alice.ID: 0, bob.ID: 0}, scores, "input scores must not change")
}

func TestAssignSpreadsHeavyChores(t *testing.T) {
	a := seeded()
	pool := []model.Member{alice, bob}
	chores := []model.Chore{{ID: 1, Weight: 5}, {ID: 2, Weight: 5}}

	const runs = 10000
	var doubled int
	for i := 0; i < runs; i++ {
		picks, err := a.Assign(chores, pool, map[int64]float64{})
		require.NoError(t, err)
		if picks[0].Member.ID == picks[1].Member.ID {
			doubled++
		}
	}
	// Independent draws would give the same member both chores half the
	// time. The running score lowers that to 10/25.
	assert.InDelta(t, 0.4, float64(doubled)/runs, 0.03)
}
