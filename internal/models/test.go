package models

import "time"

// TestParameter is a named sub-measurement defined on a catalog test
// (e.g. "Hemoglobin" inside a CBC panel). Reports instantiate one
// ParameterResult per template parameter.
type TestParameter struct {
	Name        string `json:"name"`
	NormalRange string `json:"normal_range"`
	Unit        string `json:"unit"`
}

// Test is a master catalog record. Invoices and reports keep display
// snapshots of its fields; catalog edits are cascaded into them.
type Test struct {
	ID                 int             `json:"id"`
	Name               string          `json:"name"`
	Category           string          `json:"category"`
	Price              float64         `json:"price"`
	SampleType         string          `json:"sample_type"`
	ReferenceRange     string          `json:"reference_range,omitempty"`
	Unit               string          `json:"unit,omitempty"`
	Parameters         []TestParameter `json:"parameters,omitempty"`
	IsActive           bool            `json:"is_active"`
	CollectionCenterID string          `json:"collection_center_id,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// CreateTestRequest is the payload for adding a catalog test
type CreateTestRequest struct {
	Name               string          `json:"name"`
	Category           string          `json:"category"`
	Price              float64         `json:"price"`
	SampleType         string          `json:"sample_type"`
	ReferenceRange     string          `json:"reference_range"`
	Unit               string          `json:"unit"`
	Parameters         []TestParameter `json:"parameters"`
	CollectionCenterID string          `json:"collection_center_id"`
}

// UpdateTestRequest carries the editable catalog fields. Pointer fields
// distinguish "not sent" from zero values.
type UpdateTestRequest struct {
	Name           *string          `json:"name"`
	Category       *string          `json:"category"`
	Price          *float64         `json:"price"`
	SampleType     *string          `json:"sample_type"`
	ReferenceRange *string          `json:"reference_range"`
	Unit           *string          `json:"unit"`
	Parameters     *[]TestParameter `json:"parameters"`
	IsActive       *bool            `json:"is_active"`
}
