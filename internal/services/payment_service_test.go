package services

import (
	"context"
	"testing"
	"time"

	"lims-backend/internal/models"
	"lims-backend/internal/timeutil"
)

func TestRecordPaymentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cbc := env.mustCreateTest(t, &models.CreateTestRequest{Name: "CBC", Price: 500})
	inv := env.mustCreateInvoice(t, &models.CreateInvoiceRequest{
		PatientID: 1,
		Tests:     []models.InvoiceTest{{TestID: cbc.ID, TestName: "CBC", Price: 500, Quantity: 1}},
	})

	t.Run("partial", func(t *testing.T) {
		got, err := env.ledger.RecordPayment(ctx, inv.ID, &models.RecordPaymentRequest{
			Amount: 200, Method: "cash", ReceivedBy: "front desk",
		}, 1)
		if err != nil {
			t.Fatalf("RecordPayment: %v", err)
		}
		if got.Status != models.InvoiceStatusPartial {
			t.Errorf("status = %q, want partial", got.Status)
		}
		if got.AmountPaid != 200 {
			t.Errorf("amount paid = %.2f", got.AmountPaid)
		}
	})

	t.Run("paid", func(t *testing.T) {
		got, err := env.ledger.RecordPayment(ctx, inv.ID, &models.RecordPaymentRequest{
			Amount: 300, Method: "upi",
		}, 1)
		if err != nil {
			t.Fatalf("RecordPayment: %v", err)
		}
		if got.Status != models.InvoiceStatusPaid {
			t.Errorf("status = %q, want paid", got.Status)
		}
	})

	t.Run("overpayment is accepted", func(t *testing.T) {
		got, err := env.ledger.RecordPayment(ctx, inv.ID, &models.RecordPaymentRequest{
			Amount: 100, Method: "cash",
		}, 1)
		if err != nil {
			t.Fatalf("RecordPayment: %v", err)
		}
		if got.AmountPaid != 600 {
			t.Errorf("amount paid = %.2f, want 600 (no clamping)", got.AmountPaid)
		}
		if got.Status != models.InvoiceStatusPaid {
			t.Errorf("status = %q, want paid", got.Status)
		}
		if len(got.PaymentHistory) != 3 {
			t.Errorf("history length = %d, want 3", len(got.PaymentHistory))
		}
	})

	t.Run("missing invoice", func(t *testing.T) {
		if _, err := env.ledger.RecordPayment(ctx, 999, &models.RecordPaymentRequest{Amount: 50}, 1); err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestPaymentStatusPrecedence(t *testing.T) {
	yesterday := timeutil.Now().Add(-24 * time.Hour)
	tomorrow := timeutil.Now().Add(24 * time.Hour)

	cases := []struct {
		name string
		inv  models.Invoice
		want string
	}{
		{"covered", models.Invoice{FinalAmount: 500, AmountPaid: 500, DueDate: tomorrow}, models.InvoiceStatusPaid},
		{"overpaid", models.Invoice{FinalAmount: 500, AmountPaid: 650, DueDate: yesterday}, models.InvoiceStatusPaid},
		{"partial beats overdue", models.Invoice{FinalAmount: 500, AmountPaid: 100, DueDate: yesterday}, models.InvoiceStatusPartial},
		{"overdue", models.Invoice{FinalAmount: 500, AmountPaid: 0, DueDate: yesterday}, models.InvoiceStatusOverdue},
		{"due", models.Invoice{FinalAmount: 500, AmountPaid: 0, DueDate: tomorrow}, models.InvoiceStatusDue},
		{"zero invoice is paid", models.Invoice{FinalAmount: 0, AmountPaid: 0, DueDate: tomorrow}, models.InvoiceStatusPaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := paymentStatus(&tc.inv); got != tc.want {
				t.Errorf("paymentStatus = %q, want %q", got, tc.want)
			}
		})
	}
}
