package ledger

import (
	"math"
	"sort"

	"github.com/dukerupert/fairshare/internal/model"
)

// Credit records an assignment worth amount effort.
func Credit(rec *model.FairnessScore, amount float64) {
	rec.Score += amount
	rec.CumulativeWeight += amount
	rec.AssignedCount++
}

// Debit applies a skip: the score loses the penalty and the cumulative
// weight gives back the chore's weight. Neither drops below zero.
func Debit(rec *model.FairnessScore, penalty, choreWeight float64) {
	rec.Score = math.Max(0, rec.Score-penalty)
	rec.CumulativeWeight = math.Max(0, rec.CumulativeWeight-choreWeight)
}

// Snapshot is an in-memory view of one household's scores for one period.
// It is not safe for concurrent use.
type Snapshot struct {
	householdID int64
	period      string
	records     map[int64]*model.FairnessScore
	touched     map[int64]bool
}

func NewSnapshot(householdID int64, period string, existing []model.FairnessScore) *Snapshot {
	s := &Snapshot{
		householdID: householdID,
		period:      period,
		records:     make(map[int64]*model.FairnessScore, len(existing)),
		touched:     make(map[int64]bool),
	}
	for _, rec := range existing {
		rec := rec
		s.records[rec.MemberID] = &rec
	}
	return s
}

func (s *Snapshot) record(memberID int64) *model.FairnessScore {
	rec, ok := s.records[memberID]
	if !ok {
		rec = &model.FairnessScore{HouseholdID: s.householdID, MemberID: memberID, Period: s.period}
		s.records[memberID] = rec
	}
	return rec
}

// Scores returns the current score of each member; members with no record
// score 0.
func (s *Snapshot) Scores(memberIDs []int64) map[int64]float64 {
	out := make(map[int64]float64, len(memberIDs))
	for _, id := range memberIDs {
		if rec, ok := s.records[id]; ok {
			out[id] = rec.Score
		} else {
			out[id] = 0
		}
	}
	return out
}

func (s *Snapshot) Credit(memberID int64, amount float64) {
	Credit(s.record(memberID), amount)
	s.touched[memberID] = true
}

func (s *Snapshot) Debit(memberID int64, penalty, choreWeight float64) {
	Debit(s.record(memberID), penalty, choreWeight)
	s.touched[memberID] = true
}

// Touched returns copies of the records changed since the snapshot was
// taken, sorted by member id.
func (s *Snapshot) Touched() []model.FairnessScore {
	out := make([]model.FairnessScore, 0, len(s.touched))
	for id := range s.touched {
		out = append(out, *s.records[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out
}

// Stats summarizes a period for the given members. A member without a
// score counts as 0. The fairness index is 100 when all scores are equal
// and falls as the spread grows relative to the average. The reported
// average is rounded to one decimal; the index uses the exact value.
func Stats(memberIDs []int64, scores map[int64]float64) model.ScoreStats {
	if len(memberIDs) == 0 {
		return model.ScoreStats{FairnessIndex: 100}
	}

	lo, hi, sum := math.Inf(1), math.Inf(-1), 0.0
	for _, id := range memberIDs {
		sc := scores[id]
		sum += sc
		lo = math.Min(lo, sc)
		hi = math.Max(hi, sc)
	}
	avg := sum / float64(len(memberIDs))
	spread := hi - lo

	index := 100
	if avg > 0 {
		index = int(math.Round(math.Max(0, 100-spread/avg*100)))
	}
	return model.ScoreStats{
		Average:       math.Round(avg*10) / 10,
		Min:           lo,
		Max:           hi,
		Spread:        spread,
		FairnessIndex: index,
	}
}
