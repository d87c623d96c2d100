package model

import "time"

// FairnessScore is a member's running effort total for one period (month).
type FairnessScore struct {
	HouseholdID      int64     `json:"household_id"`
	MemberID         int64     `json:"member_id"`
	Period           string    `json:"period"`
	Score            float64   `json:"score"`
	AssignedCount    int       `json:"assigned_count"`
	CumulativeWeight float64   `json:"cumulative_weight"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ScoreStats summarizes how evenly a period's effort is spread.
type ScoreStats struct {
	Average       float64 `json:"average"`
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	Spread        float64 `json:"spread"`
	FairnessIndex int     `json:"fairness_index"`
}
