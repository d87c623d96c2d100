package lottery

import (
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/dukerupert/fairshare/internal/model"
)

// Floor is added to every weight so the current leader keeps a real chance.
const Floor = 10

var ErrEmptyPool = errors.New("lottery pool is empty")

// Assignor draws chore owners weighted toward members with lower scores.
type Assignor struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func New(rng *rand.Rand) *Assignor {
	return &Assignor{rng: rng}
}

// Pick selects one member from pool. The pool order decides ties, so callers
// pass it sorted by member id. Members missing from scores count as 0.
func (a *Assignor) Pick(pool []model.Member, scores map[int64]float64) (model.Member, error) {
	switch len(pool) {
	case 0:
		return model.Member{}, ErrEmptyPool
	case 1:
		return pool[0], nil
	}

	maxScore := scores[pool[0].ID]
	for _, m := range pool[1:] {
		if s := scores[m.ID]; s > maxScore {
			maxScore = s
		}
	}

	weights := make([]float64, len(pool))
	var total float64
	for i, m := range pool {
		weights[i] = maxScore + Floor - scores[m.ID]
		total += weights[i]
	}

	r := a.draw() * total
	var cum float64
	for i, w := range weights {
		cum += w
		if cum > r {
			return pool[i], nil
		}
	}
	return pool[len(pool)-1], nil
}

func (a *Assignor) draw() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rng.Float64()
}

// Pick is one lottery result.
type Pick struct {
	Chore  model.Chore
	Member model.Member
}

// Assign draws an owner for each chore in order. The winner's running score
// grows by the chore weight before the next draw so one run does not hand
// every chore to the same low scorer. scores is not modified.
func (a *Assignor) Assign(chores []model.Chore, pool []model.Member, scores map[int64]float64) ([]Pick, error) {
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}

	running := make(map[int64]float64, len(pool))
	for _, m := range pool {
		running[m.ID] = scores[m.ID]
	}

	picks := make([]Pick, 0, len(chores))
	for _, c := range chores {
		m, err := a.Pick(pool, running)
		if err != nil {
			return nil, err
		}
		running[m.ID] += float64(c.Weight)
		picks = append(picks, Pick{Chore: c, Member: m})
	}
	return picks, nil
}
