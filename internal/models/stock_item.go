package models

import "time"

// StockItem is a consumable tracked per collection center (reagents,
// sample tubes). Dashboard low-stock counts come from Quantity vs
// ReorderLevel.
type StockItem struct {
	ID                 int       `json:"id"`
	Name               string    `json:"name"`
	Category           string    `json:"category,omitempty"`
	Quantity           int       `json:"quantity"`
	ReorderLevel       int       `json:"reorder_level"`
	Unit               string    `json:"unit,omitempty"`
	CollectionCenterID string    `json:"collection_center_id,omitempty"`
	UpdatedAt          time.Time `json:"updated_at"`
}
