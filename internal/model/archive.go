package model

import "time"

// PeriodArchive records where a closed month's ledger was uploaded.
type PeriodArchive struct {
	HouseholdID int64     `json:"household_id"`
	Period      string    `json:"period"`
	ObjectKey   string    `json:"object_key"`
	ArchivedAt  time.Time `json:"archived_at"`
}
