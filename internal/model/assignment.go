package model

import "time"

// Assignment is one chore instance on one day, owned by one member.
type Assignment struct {
	ID           int64      `json:"id"`
	HouseholdID  int64      `json:"household_id"`
	ChoreID      int64      `json:"chore_id"`
	ChoreTitle   string     `json:"chore_title"`
	ChoreWeight  int        `json:"chore_weight"`
	AssigneeID   int64      `json:"assignee_id"`
	AssigneeName string     `json:"assignee_name"`
	Day          string     `json:"day"`
	RunID        string     `json:"run_id,omitempty"`
	Completed    bool       `json:"completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Skipped      bool       `json:"skipped"`
	SkippedAt    *time.Time `json:"skipped_at,omitempty"`
	SkippedBy    *int64     `json:"skipped_by,omitempty"`
	Swapped      bool       `json:"swapped"`
	SwappedAt    *time.Time `json:"swapped_at,omitempty"`
	SwappedWith  string     `json:"swapped_with,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Open reports whether the assignment can still be skipped or swapped.
func (a Assignment) Open() bool {
	return !a.Completed && !a.Skipped
}
