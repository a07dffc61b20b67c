package models

import "time"

// Patient is a registered lab patient
type Patient struct {
	ID                 int       `json:"id"`
	Name               string    `json:"name"`
	Age                int       `json:"age"`
	Gender             string    `json:"gender"`
	Phone              string    `json:"phone"`
	Email              string    `json:"email,omitempty"`
	Address            string    `json:"address,omitempty"`
	CollectionCenterID string    `json:"collection_center_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// CreatePatientRequest is the registration payload
type CreatePatientRequest struct {
	Name               string `json:"name"`
	Age                int    `json:"age"`
	Gender             string `json:"gender"`
	Phone              string `json:"phone"`
	Email              string `json:"email"`
	Address            string `json:"address"`
	CollectionCenterID string `json:"collection_center_id"`
}
