package model

import (
	"fmt"
	"time"
)

type SkipStatus string

const (
	SkipPending  SkipStatus = "pending"
	SkipAccepted SkipStatus = "accepted"
	SkipExpired  SkipStatus = "expired"
)

func ParseSkipStatus(s string) (SkipStatus, error) {
	switch st := SkipStatus(s); st {
	case SkipPending, SkipAccepted, SkipExpired:
		return st, nil
	}
	return "", fmt.Errorf("unknown skip status: %q", s)
}

type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferDeclined OfferStatus = "declined"
	OfferExpired  OfferStatus = "expired"
)

func ParseOfferStatus(s string) (OfferStatus, error) {
	switch st := OfferStatus(s); st {
	case OfferPending, OfferAccepted, OfferDeclined, OfferExpired:
		return st, nil
	}
	return "", fmt.Errorf("unknown offer status: %q", s)
}

type SwapStatus string

const (
	SwapPending  SwapStatus = "pending"
	SwapAccepted SwapStatus = "accepted"
	SwapDeclined SwapStatus = "declined"
)

func ParseSwapStatus(s string) (SwapStatus, error) {
	switch st := SwapStatus(s); st {
	case SwapPending, SwapAccepted, SwapDeclined:
		return st, nil
	}
	return "", fmt.Errorf("unknown swap status: %q", s)
}

// SkipRecord is created when an assignee forfeits an assignment.
type SkipRecord struct {
	ID           int64      `json:"id"`
	HouseholdID  int64      `json:"household_id"`
	AssignmentID int64      `json:"assignment_id"`
	MemberID     int64      `json:"member_id"`
	Day          string     `json:"day"`
	Penalty      float64    `json:"penalty"`
	Status       SkipStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

// Offer proposes a skipped assignment to one peer for a bonus.
type Offer struct {
	ID           int64       `json:"id"`
	HouseholdID  int64       `json:"household_id"`
	SkipID       int64       `json:"skip_id"`
	AssignmentID int64       `json:"assignment_id"`
	MemberID     int64       `json:"member_id"`
	Day          string      `json:"day"`
	Bonus        float64     `json:"bonus"`
	Status       OfferStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	RespondedAt  *time.Time  `json:"responded_at,omitempty"`
}

// SwapRequest proposes exchanging two same-day assignments between members.
type SwapRequest struct {
	ID                    int64      `json:"id"`
	HouseholdID           int64      `json:"household_id"`
	Day                   string     `json:"day"`
	OfferedAssignmentID   int64      `json:"offered_assignment_id"`
	RequestedAssignmentID int64      `json:"requested_assignment_id"`
	RequesterID           int64      `json:"requester_id"`
	RecipientID           int64      `json:"recipient_id"`
	Message               string     `json:"message,omitempty"`
	Status                SwapStatus `json:"status"`
	CreatedAt             time.Time  `json:"created_at"`
	RespondedAt           *time.Time `json:"responded_at,omitempty"`
}
