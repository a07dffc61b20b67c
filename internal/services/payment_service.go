package services

import (
	"context"
	"fmt"

	"lims-backend/internal/metrics"
	"lims-backend/internal/models"
	"lims-backend/internal/store"
	"lims-backend/internal/timeutil"
)

// PaymentLedger appends payments to invoices and recomputes the payment
// status. The status is always derived fresh from the running paid
// total, so replaying the full payment history yields the same answer.
// Overpayment and negative amounts are not rejected; the status follows
// the totals wherever they land.
type PaymentLedger struct {
	Store    *store.Store
	Recorder *AuditRecorder
}

func NewPaymentLedger(st *store.Store, recorder *AuditRecorder) *PaymentLedger {
	return &PaymentLedger{Store: st, Recorder: recorder}
}

// RecordPayment appends a payment and refreshes the invoice status
func (l *PaymentLedger) RecordPayment(ctx context.Context, invoiceID int, req *models.RecordPaymentRequest, userID int) (*models.Invoice, error) {
	var updated *models.Invoice
	err := l.Store.Update(func(st *store.State) error {
		inv, ok := st.Invoices[invoiceID]
		if !ok {
			return ErrNotFound
		}

		date := timeutil.Now()
		if req.Date != nil {
			date = *req.Date
		}
		inv.PaymentHistory = append(inv.PaymentHistory, models.PaymentRecord{
			Amount:     req.Amount,
			Date:       date,
			Method:     req.Method,
			ReceivedBy: req.ReceivedBy,
			Note:       req.Note,
		})
		inv.AmountPaid += req.Amount
		inv.Status = paymentStatus(inv)
		st.Touch(store.ColInvoices)

		metrics.PaymentsRecordedTotal.Inc()
		l.Recorder.Log(st, userID, models.AuditActionPayment, "invoices",
			fmt.Sprintf("Payment of %.2f (%s) on invoice %s; paid %.2f of %.2f, status %s",
				req.Amount, req.Method, inv.InvoiceNumber, inv.AmountPaid, inv.FinalAmount, inv.Status))
		l.Recorder.Notify(st, models.NotificationSuccess, "payments", "Payment recorded",
			fmt.Sprintf("%.2f received against invoice %s", req.Amount, inv.InvoiceNumber),
			models.PriorityNormal)

		updated = inv
		return nil
	})
	return updated, err
}

// paymentStatus derives the status from the running total. Precedence:
// paid when the total covers the final amount, partial for anything
// above zero, otherwise overdue or due depending on the due date.
func paymentStatus(inv *models.Invoice) string {
	switch {
	case inv.AmountPaid >= inv.FinalAmount:
		return models.InvoiceStatusPaid
	case inv.AmountPaid > 0:
		return models.InvoiceStatusPartial
	case timeutil.Now().After(inv.DueDate):
		return models.InvoiceStatusOverdue
	default:
		return models.InvoiceStatusDue
	}
}
