package models

import "time"

// Doctor is a referring doctor
type Doctor struct {
	ID                int       `json:"id"`
	Name              string    `json:"name"`
	Specialty         string    `json:"specialty,omitempty"`
	Phone             string    `json:"phone"`
	Email             string    `json:"email,omitempty"`
	CommissionPercent float64   `json:"commission_percent"`
	CreatedAt         time.Time `json:"created_at"`
}

// CreateDoctorRequest is the payload for adding a referring doctor
type CreateDoctorRequest struct {
	Name              string  `json:"name"`
	Specialty         string  `json:"specialty"`
	Phone             string  `json:"phone"`
	Email             string  `json:"email"`
	CommissionPercent float64 `json:"commission_percent"`
}
