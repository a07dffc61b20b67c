package models

import "time"

// Report status values. The linear path is pending -> in_progress ->
// completed -> verified; completed can branch to declined; verified and
// declined can be undone back to completed. Locked is terminal.
const (
	ReportStatusPending    = "pending"
	ReportStatusInProgress = "in_progress"
	ReportStatusCompleted  = "completed"
	ReportStatusVerified   = "verified"
	ReportStatusLocked     = "locked"
	ReportStatusDeclined   = "declined"
)

// ParameterResult is one entered sub-result, instantiated from a
// TestParameter template. Catalog edits may refresh NormalRange/Unit but
// never touch Result or the abnormal/critical flags.
type ParameterResult struct {
	Name        string `json:"name"`
	Result      string `json:"result"`
	NormalRange string `json:"normal_range"`
	Unit        string `json:"unit"`
	IsAbnormal  bool   `json:"is_abnormal"`
	IsCritical  bool   `json:"is_critical"`
}

// ReportTest is one result entry on a report, paired 1:1 with an invoice
// line item by TestID.
type ReportTest struct {
	TestID          int               `json:"test_id"`
	TestName        string            `json:"test_name"`
	Result          string            `json:"result"`
	NormalRange     string            `json:"normal_range"`
	Unit            string            `json:"unit"`
	IsAbnormal      bool              `json:"is_abnormal"`
	IsCritical      bool              `json:"is_critical"`
	CriticalComment string            `json:"critical_comment,omitempty"`
	Parameters      []ParameterResult `json:"parameters,omitempty"`
}

// StatusChange is one append-only status history entry
type StatusChange struct {
	Status    string    `json:"status"`
	ChangedBy int       `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
	Comment   string    `json:"comment,omitempty"`
}

// ReportComment is a free-text note on a report
type ReportComment struct {
	UserID    int       `json:"user_id"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportAttachment references an uploaded file
type ReportAttachment struct {
	Name       string    `json:"name"`
	Key        string    `json:"key"`
	UploadedBy int       `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Report holds the result records for exactly one invoice. Its test set
// always equals the invoice's line-item set except mid-reconciliation.
type Report struct {
	ID                 int                `json:"id"`
	InvoiceID          int                `json:"invoice_id"`
	PatientID          int                `json:"patient_id"`
	DoctorID           int                `json:"doctor_id"`
	CollectionCenterID string             `json:"collection_center_id,omitempty"`
	Tests              []ReportTest       `json:"tests"`
	Status             string             `json:"status"`
	StatusHistory      []StatusChange     `json:"status_history"`
	Comments           []ReportComment    `json:"comments,omitempty"`
	Attachments        []ReportAttachment `json:"attachments,omitempty"`
	VerifiedBy         *int               `json:"verified_by,omitempty"`
	VerifiedAt         *time.Time         `json:"verified_at,omitempty"`
	DeclinedBy         *int               `json:"declined_by,omitempty"`
	DeclinedAt         *time.Time         `json:"declined_at,omitempty"`
	DeclineReason      string             `json:"decline_reason,omitempty"`
	Interpretation     string             `json:"interpretation,omitempty"`
	CriticalValues     bool               `json:"critical_values"`
	CreatedAt          time.Time          `json:"created_at"`
}

// UpdateReportRequest carries result edits. Tests replaces the entered
// result fields only; the test set itself is owned by the invoice.
type UpdateReportRequest struct {
	Tests          *[]ReportTest `json:"tests"`
	Interpretation *string       `json:"interpretation"`
}
