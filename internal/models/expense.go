package models

import "time"

// Expense is an operating expense entry, aggregated by the dashboard
type Expense struct {
	ID                 int       `json:"id"`
	Category           string    `json:"category"`
	Amount             float64   `json:"amount"`
	Description        string    `json:"description,omitempty"`
	Date               time.Time `json:"date"`
	CollectionCenterID string    `json:"collection_center_id,omitempty"`
	CreatedBy          int       `json:"created_by"`
	CreatedAt          time.Time `json:"created_at"`
}
