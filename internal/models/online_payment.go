package models

import "time"

// Online transaction status values
const (
	OnlineTxStatusCreated = "created"
	OnlineTxStatusSuccess = "success"
	OnlineTxStatusFailed  = "failed"
)

// OnlineTransaction tracks one gateway payment attempt against an
// invoice. A successful transaction feeds the invoice's payment ledger
// exactly once.
type OnlineTransaction struct {
	ID                int        `json:"id"`
	RazorpayOrderID   string     `json:"razorpay_order_id"`
	RazorpayPaymentID string     `json:"razorpay_payment_id,omitempty"`
	InvoiceID         int        `json:"invoice_id"`
	InvoiceNumber     string     `json:"invoice_number"`
	PatientID         int        `json:"patient_id"`
	PatientName       string     `json:"patient_name"`
	Amount            float64    `json:"amount"`
	Status            string     `json:"status"`
	Method            string     `json:"method,omitempty"`
	FailureReason     string     `json:"failure_reason,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

// CreateOnlinePaymentRequest opens a gateway order for an invoice
type CreateOnlinePaymentRequest struct {
	InvoiceID int     `json:"invoice_id"`
	Amount    float64 `json:"amount"`
}

// CreateOrderResponse is handed to the frontend checkout widget
type CreateOrderResponse struct {
	OrderID       string  `json:"order_id"`
	Amount        int     `json:"amount"`
	Currency      string  `json:"currency"`
	KeyID         string  `json:"key_id"`
	InvoiceNumber string  `json:"invoice_number"`
	PatientName   string  `json:"patient_name"`
	Payable       float64 `json:"payable"`
}

// VerifyPaymentRequest is the checkout callback payload
type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}
