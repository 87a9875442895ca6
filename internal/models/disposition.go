package models

import "time"

// ProcessType is how leftover money of an event was disposed of
type ProcessType string

const (
	ProcessDonate        ProcessType = "DONATE"
	ProcessConvertToCoin ProcessType = "CONVERT_TO_COIN"
)

// Organization is a donation recipient
type Organization struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Donation records leftover money sent to an organization
type Donation struct {
	ID             int64     `json:"id" db:"id"`
	EventID        int64     `json:"eventId" db:"event_id"`
	UserID         int64     `json:"userId" db:"user_id"`
	OrganizationID int64     `json:"organizationId" db:"organization_id"`
	Amount         int64     `json:"amount" db:"amount"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// CoinConversion records leftover money converted into coins
type CoinConversion struct {
	ID        int64     `json:"id" db:"id"`
	EventID   int64     `json:"eventId" db:"event_id"`
	UserID    int64     `json:"userId" db:"user_id"`
	Amount    int64     `json:"amount" db:"amount"`
	Coins     int64     `json:"coins" db:"coins"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// RemainingAmountProcess is the one-per-event disposition guard
type RemainingAmountProcess struct {
	EventID     int64       `json:"eventId" db:"event_id"`
	UserID      int64       `json:"userId" db:"user_id"`
	ProcessType ProcessType `json:"processType" db:"process_type"`
	Amount      int64       `json:"amount" db:"amount"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"`
}
