package models

import "time"

// User roles
const (
	RoleAdmin        = "admin"
	RoleTechnician   = "technician"
	RolePathologist  = "pathologist"
	RoleReceptionist = "receptionist"
)

// User is a staff account. Secret fields carry JSON tags because the
// snapshot store marshals entities as JSON; handlers must send
// Sanitized() copies, never the stored record.
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	TOTPEnabled  bool      `json:"totp_enabled"`
	TOTPSecret   string    `json:"totp_secret,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Sanitized returns a copy safe to return from the API
func (u *User) Sanitized() *User {
	c := *u
	c.PasswordHash = ""
	c.TOTPSecret = ""
	return &c
}

// SignupRequest is the account creation payload
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the issued token and the user it belongs to
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
