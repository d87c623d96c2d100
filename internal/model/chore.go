package model

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is how often a chore recurs.
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
)

const (
	MinChoreWeight = 1
	MaxChoreWeight = 5
)

// ParseFrequency validates a stored or user-supplied frequency.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly:
		return f, nil
	}
	return "", fmt.Errorf("unknown frequency: %q", s)
}

// Chore is a recurring task template owned by a household.
type Chore struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	Title       string    `json:"title"`
	Weight      int       `json:"weight"`
	Frequency   Frequency `json:"frequency"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c Chore) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("chore %d: title is required", c.ID)
	}
	if c.Weight < MinChoreWeight || c.Weight > MaxChoreWeight {
		return fmt.Errorf("chore %d: weight %d out of range %d-%d", c.ID, c.Weight, MinChoreWeight, MaxChoreWeight)
	}
	if _, err := ParseFrequency(string(c.Frequency)); err != nil {
		return fmt.Errorf("chore %d: %w", c.ID, err)
	}
	return nil
}
