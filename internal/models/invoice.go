package models

import "time"

// Invoice status values. Status is recomputed from the running paid
// total on every payment, never adjusted incrementally.
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusFinalized = "finalized"
	InvoiceStatusDue       = "due"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusPartial   = "partial"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusCancelled = "cancelled"
)

// InvoiceTest is one billed line item. TestName is a display snapshot:
// catalog renames cascade into it, but Price is a historical fact and is
// never retroactively changed by catalog edits.
type InvoiceTest struct {
	TestID   int     `json:"test_id"`
	TestName string  `json:"test_name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// PaymentRecord is one payment against an invoice, appended to the
// invoice's payment history.
type PaymentRecord struct {
	Amount     float64   `json:"amount"`
	Date       time.Time `json:"date"`
	Method     string    `json:"method"`
	ReceivedBy string    `json:"received_by"`
	Note       string    `json:"note,omitempty"`
}

// Invoice is a billing document. Exactly one Report is created with it
// and deleted with it. FinalAmount == TotalAmount - Discount holds after
// every mutation that touches line items or discount.
type Invoice struct {
	ID                 int             `json:"id"`
	InvoiceNumber      string          `json:"invoice_number"`
	PatientID          int             `json:"patient_id"`
	DoctorID           int             `json:"doctor_id"`
	CollectionCenterID string          `json:"collection_center_id,omitempty"`
	Tests              []InvoiceTest   `json:"tests"`
	TotalAmount        float64         `json:"total_amount"`
	Discount           float64         `json:"discount"`
	FinalAmount        float64         `json:"final_amount"`
	AmountPaid         float64         `json:"amount_paid"`
	DueDate            time.Time       `json:"due_date"`
	PaymentHistory     []PaymentRecord `json:"payment_history"`
	Status             string          `json:"status"`
	IsLocked           bool            `json:"is_locked"`
	CreatedAt          time.Time       `json:"created_at"`
	CreatedBy          int             `json:"created_by"`
}

// CreateInvoiceRequest is the checkout payload
type CreateInvoiceRequest struct {
	PatientID          int           `json:"patient_id"`
	DoctorID           int           `json:"doctor_id"`
	CollectionCenterID string        `json:"collection_center_id"`
	Tests              []InvoiceTest `json:"tests"`
	Discount           float64       `json:"discount"`
	DueDate            *time.Time    `json:"due_date"`
	Status             string        `json:"status"`
}

// UpdateInvoiceRequest carries editable invoice fields. A non-nil Tests
// slice triggers report reconciliation.
type UpdateInvoiceRequest struct {
	DoctorID *int           `json:"doctor_id"`
	Tests    *[]InvoiceTest `json:"tests"`
	Discount *float64       `json:"discount"`
	DueDate  *time.Time     `json:"due_date"`
	Status   *string        `json:"status"`
	IsLocked *bool          `json:"is_locked"`
}

// RecordPaymentRequest is the payload for recording a payment
type RecordPaymentRequest struct {
	Amount     float64    `json:"amount"`
	Method     string     `json:"method"`
	ReceivedBy string     `json:"received_by"`
	Note       string     `json:"note"`
	Date       *time.Time `json:"date"`
}
