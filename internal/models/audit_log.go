package models

import "time"

// Audit actions
const (
	AuditActionCreate     = "CREATE"
	AuditActionUpdate     = "UPDATE"
	AuditActionDelete     = "DELETE"
	AuditActionPayment    = "PAYMENT"
	AuditActionStatus     = "STATUS"
	AuditActionComment    = "COMMENT"
	AuditActionAttachment = "ATTACHMENT"
)

// AuditLog is an immutable append-only record of one mutation. Detail
// carries a human-readable field-level diff where applicable.
type AuditLog struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Action    string    `json:"action"`
	Module    string    `json:"module"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}
