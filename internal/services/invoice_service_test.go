package services

import (
	"context"
	"strings"
	"testing"

	"lims-backend/internal/models"
)

func TestCreateInvoiceSynthesizesReport(t *testing.T) {
	env := newTestEnv(t)

	cbc := env.mustCreateTest(t, &models.CreateTestRequest{
		Name:           "CBC",
		Price:          300,
		ReferenceRange: "4.5-11.0",
		Unit:           "10^3/uL",
		Parameters: []models.TestParameter{
			{Name: "Hemoglobin", NormalRange: "13-17", Unit: "g/dL"},
		},
	})

	inv := env.mustCreateInvoice(t, &models.CreateInvoiceRequest{
		PatientID: 7,
		DoctorID:  3,
		Discount:  50,
		// Stale display snapshot on purpose: the report must seed from
		// the live catalog, not from this.
		Tests: []models.InvoiceTest{{TestID: cbc.ID, TestName: "Old Name", Price: 300, Quantity: 2}},
	})

	t.Run("invoice defaults and totals", func(t *testing.T) {
		if inv.InvoiceNumber != "INV-000001" {
			t.Errorf("invoice number = %q", inv.InvoiceNumber)
		}
		if inv.Status != models.InvoiceStatusDue {
			t.Errorf("status = %q, want due", inv.Status)
		}
		if inv.AmountPaid != 0 || len(inv.PaymentHistory) != 0 {
			t.Errorf("payment state not empty: paid %.2f, history %d", inv.AmountPaid, len(inv.PaymentHistory))
		}
		if inv.TotalAmount != 600 || inv.FinalAmount != 550 {
			t.Errorf("totals: total %.2f final %.2f, want 600/550", inv.TotalAmount, inv.FinalAmount)
		}
		if inv.DueDate.IsZero() {
			t.Error("due date not defaulted")
		}
	})

	t.Run("report seeded from live catalog", func(t *testing.T) {
		rep := env.reportForInvoice(t, inv.ID)
		if rep.Status != models.ReportStatusPending {
			t.Errorf("report status = %q", rep.Status)
		}
		if rep.PatientID != 7 || rep.DoctorID != 3 {
			t.Errorf("report patient/doctor = %d/%d", rep.PatientID, rep.DoctorID)
		}
		if len(rep.StatusHistory) != 1 {
			t.Fatalf("expected 1 history entry, got %d", len(rep.StatusHistory))
		}
		if !strings.Contains(rep.StatusHistory[0].Comment, inv.InvoiceNumber) {
			t.Errorf("creation comment = %q", rep.StatusHistory[0].Comment)
		}
		if len(rep.Tests) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(rep.Tests))
		}
		entry := rep.Tests[0]
		if entry.TestName != "CBC" {
			t.Errorf("entry name = %q, want live catalog name", entry.TestName)
		}
		if entry.NormalRange != "4.5-11.0" || entry.Unit != "10^3/uL" {
			t.Errorf("entry range/unit = %q/%q", entry.NormalRange, entry.Unit)
		}
		if len(entry.Parameters) != 1 || entry.Parameters[0].Name != "Hemoglobin" {
			t.Errorf("parameters not seeded: %+v", entry.Parameters)
		}
	})

	t.Run("sequential invoice numbers", func(t *testing.T) {
		second := env.mustCreateInvoice(t, &models.CreateInvoiceRequest{
			PatientID: 7,
			Tests:     []models.InvoiceTest{{TestID: cbc.ID, TestName: "CBC", Price: 300, Quantity: 1}},
		})
		if second.InvoiceNumber != "INV-000002" {
			t.Errorf("second invoice number = %q", second.InvoiceNumber)
		}
	})
}

func TestQuantityNormalization(t *testing.T) {
	env := newTestEnv(t)
	cbc := env.mustCreateTest(t, &models.CreateTestRequest{Name: "CBC", Price: 300})

	inv := env.mustCreateInvoice(t, &models.CreateInvoiceRequest{
		PatientID: 1,
		Tests:     []models.InvoiceTest{{TestID: cbc.ID, TestName: "CBC", Price: 300, Quantity: 0}},
	})
	if inv.Tests[0].Quantity != 1 {
		t.Errorf("quantity = %d, want 1", inv.Tests[0].Quantity)
	}
	if inv.TotalAmount != 300 {
		t.Errorf("total = %.2f, want 300", inv.TotalAmount)
	}
}

func TestUpdateInvoiceReconcilesReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cbc := env.mustCreateTest(t, &models.CreateTestRequest{Name: "CBC", Price: 300})
	lipid := env.mustCreateTest(t, &models.CreateTestRequest{Name: "Lipid Profile", Price: 500})
	glucose := env.mustCreateTest(t, &models.CreateTestRequest{Name: "Glucose", Price: 150})

	inv := env.mustCreateInvoice(t, &models.CreateInvoiceRequest{
		PatientID: 1,
		Tests: []models.InvoiceTest{
			{TestID: cbc.ID, TestName: "CBC", Price: 300, Quantity: 1},
			{TestID: lipid.ID, TestName: "Lipid Profile", Price: 500, Quantity: 1},
		},
	})
	rep := env.reportForInvoice(t, inv.ID)

	// Enter a CBC result and finish the report
	if _, err := env.reports.UpdateReport(ctx, rep.ID, &models.UpdateReportRequest{
		Tests: &[]models.ReportTest{{TestID: cbc.ID, Result: "normal"}},
	}, 2); err != nil {
		t.Fatalf("UpdateReport: %v", err)
	}
	if _, err := env.reports.MarkInProgress(ctx, rep.ID, 2); err != nil {
		t.Fatalf("MarkInProgress: %v", err)
	}
	if _, err := env.reports.MarkCompleted(ctx, rep.ID, 2); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	// Swap Lipid Profile for Glucose
	updated, err := env.invoices.UpdateInvoice(ctx, inv.ID, &models.UpdateInvoiceRequest{
		Tests: testsPtr([]models.InvoiceTest{
			{TestID: cbc.ID, TestName: "CBC", Price: 300, Quantity: 1},
			{TestID: glucose.ID, TestName: "Glucose", Price: 150, Quantity: 1},
		}),
	}, 1)
	if err != nil {
		t.Fatalf("UpdateInvoice: %v", err)
	}

	t.Run("totals follow the new line items", func(t *testing.T) {
		if updated.TotalAmount != 450 {
			t.Errorf("total = %.2f, want 450", updated.TotalAmount)
		}
		if updated.FinalAmount != updated.TotalAmount-updated.Discount {
			t.Errorf("final invariant broken: %.2f", updated.FinalAmount)
		}
	})

	t.Run("report test set matches invoice", func(t *testing.T) {
		got := env.reportForInvoice(t, inv.ID)
		if len(got.Tests) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(got.Tests))
		}
		if got.Tests[0].TestID != cbc.ID || got.Tests[0].Result != "normal" {
			t.Errorf("kept entry lost its result: %+v", got.Tests[0])
		}
		if got.Tests[1].TestID != glucose.ID || got.Tests[1].Result != "" {
			t.Errorf("new entry not empty: %+v", got.Tests[1])
		}
	})

	t.Run("completed report resets to pending", func(t *testing.T) {
		got := env.reportForInvoice(t, inv.ID)
		if got.Status != models.ReportStatusPending {
			t.Errorf("status = %q, want pending", got.Status)
		}
		last := got.StatusHistory[len(got.StatusHistory)-1]
		if !strings.Contains(last.Comment, "1 added, 1 removed") {
			t.Errorf("history comment = %q", last.Comment)
		}
		if !strings.Contains(last.Comment, "status reset to pending") {
			t.Errorf("history comment missing reset note: %q", last.Comment)
		}
	})

	t.Run("dropped names reach the audit trail", func(t *testing.T) {
		found := false
		for _, entry := range env.auditLogs() {
			if entry.Module == "invoices" && strings.Contains(entry.Detail, "dropped report tests: Lipid Profile") {
				found = true
			}
		}
		if !found {
			t.Error("expected dropped test names in the audit detail")
		}
	})
}

func TestUpdateInvoiceSameTestSetKeepsStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cbc := env.mustCreateTest(t, &models.CreateTestRequest{Name: "CBC", Price: 300})
	inv := env.mustCreateInvoice(t, &models.CreateInvoiceRequest{
		PatientID: 1,
		Tests:     []models.InvoiceTest{{TestID: cbc.ID, TestName: "CBC", Price: 300, Quantity: 1}},
	})
	rep := env.reportForInvoice(t, inv.ID)
	historyBefore := len(rep.StatusHistory)

	// Same test ids, different quantity: no reconciliation
	updated, err := env.invoices.UpdateInvoice(ctx, inv.ID, &models.UpdateInvoiceRequest{
		Tests: testsPtr([]models.InvoiceTest{{TestID: cbc.ID, TestName: "CBC", Price: 300, Quantity: 3}}),
	}, 1)
	if err != nil {
		t.Fatalf("UpdateInvoice: %v", err)
	}
	if updated.TotalAmount != 900 {
		t.Errorf("total = %.2f, want 900", updated.TotalAmount)
	}
	got := env.reportForInvoice(t, inv.ID)
	if len(got.StatusHistory) != historyBefore {
		t.Errorf("report history grew on an unchanged test set")
	}
}

func TestUpdateInvoiceDiscount(t *testing.T) {
	env := newTestEnv(t)
	cbc := env.mustCreateTest(t, &models.CreateTestRequest{Name: "CBC", Price: 300})
	inv := env.mustCreateInvoice(t, &models.CreateInvoiceRequest{
		PatientID: 1,
		Tests:     []models.InvoiceTest{{TestID: cbc.ID, TestName: "CBC", Price: 300, Quantity: 2}},
	})

	updated, err := env.invoices.UpdateInvoice(context.Background(), inv.ID, &models.UpdateInvoiceRequest{
		Discount: floatPtr(75),
	}, 1)
	if err != nil {
		t.Fatalf("UpdateInvoice: %v", err)
	}
	if updated.TotalAmount != 600 || updated.FinalAmount != 525 {
		t.Errorf("totals: %.2f/%.2f, want 600/525", updated.TotalAmount, updated.FinalAmount)
	}
}

func TestUpdateInvoiceNotFound(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.invoices.UpdateInvoice(context.Background(), 42, &models.UpdateInvoiceRequest{}, 1); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteInvoiceRemovesReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cbc := env.mustCreateTest(t, &models.CreateTestRequest{Name: "CBC", Price: 300})
	inv := env.mustCreateInvoice(t, &models.CreateInvoiceRequest{
		PatientID: 1,
		Tests:     []models.InvoiceTest{{TestID: cbc.ID, TestName: "CBC", Price: 300, Quantity: 1}},
	})
	rep := env.reportForInvoice(t, inv.ID)

	if err := env.invoices.DeleteInvoice(ctx, inv.ID, 1); err != nil {
		t.Fatalf("DeleteInvoice: %v", err)
	}
	if _, err := env.invoices.GetInvoice(ctx, inv.ID); err != ErrNotFound {
		t.Errorf("invoice still present: %v", err)
	}
	if _, err := env.reports.GetReport(ctx, rep.ID); err != ErrNotFound {
		t.Errorf("report still present: %v", err)
	}

	// Missing id is a no-op
	if err := env.invoices.DeleteInvoice(ctx, inv.ID, 1); err != nil {
		t.Errorf("second delete: %v", err)
	}
}
