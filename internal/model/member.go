package model

import (
	"fmt"
	"time"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Member is a person taking part in a household's chore lottery.
type Member struct {
	ID          int64      `json:"id"`
	HouseholdID int64      `json:"household_id"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	OnVacation  bool       `json:"on_vacation"`
	VacationEnd *time.Time `json:"vacation_end,omitempty"`
	HasPIN      bool       `json:"has_pin"`
	JoinedAt    time.Time  `json:"joined_at"`
}

func (m Member) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("member %d: name is required", m.ID)
	}
	if m.Role != RoleAdmin && m.Role != RoleMember {
		return fmt.Errorf("member %d: unknown role %q", m.ID, m.Role)
	}
	return nil
}

// OnVacationAt reports whether the member is away on the given day. A set
// vacation flag lapses once the end date is before day.
func (m Member) OnVacationAt(day time.Time) bool {
	if !m.OnVacation {
		return false
	}
	if m.VacationEnd == nil {
		return true
	}
	end := time.Date(m.VacationEnd.Year(), m.VacationEnd.Month(), m.VacationEnd.Day(), 0, 0, 0, 0, day.Location())
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return !end.Before(start)
}
