package services

import (
	"context"
	"strings"
	"testing"

	"lims-backend/internal/models"
	"lims-backend/internal/store"
)

func TestCatalogCRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.mustCreateTest(t, &models.CreateTestRequest{
		Name:       "Complete Blood Count",
		Category:   "Hematology",
		Price:      300,
		SampleType: "Whole Blood",
	})
	if created.ID == 0 {
		t.Fatal("expected non-zero id")
	}
	if !created.IsActive {
		t.Error("new test should be active")
	}

	got, err := env.catalog.GetTest(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTest: %v", err)
	}
	if got.Name != "Complete Blood Count" || got.Price != 300 {
		t.Errorf("unexpected test: %+v", got)
	}

	if _, err := env.catalog.GetTest(ctx, 999); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if _, err := env.catalog.UpdateTest(ctx, 999, &models.UpdateTestRequest{}, 1); err != ErrNotFound {
		t.Errorf("update missing test: expected ErrNotFound, got %v", err)
	}
}

func TestUpdateTestCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cbc := env.mustCreateTest(t, &models.CreateTestRequest{
		Name:           "CBC",
		Category:       "Hematology",
		Price:          300,
		ReferenceRange: "4.5-11.0",
		Unit:           "10^3/uL",
		Parameters: []models.TestParameter{
			{Name: "Hemoglobin", NormalRange: "13-17", Unit: "g/dL"},
			{Name: "WBC", NormalRange: "4.5-11.0", Unit: "10^3/uL"},
		},
	})

	inv := env.mustCreateInvoice(t, &models.CreateInvoiceRequest{
		PatientID: 1,
		Tests:     []models.InvoiceTest{{TestID: cbc.ID, TestName: cbc.Name, Price: 300, Quantity: 1}},
	})
	rep := env.reportForInvoice(t, inv.ID)

	// Enter a sub-result before the catalog changes
	if _, err := env.reports.UpdateReport(ctx, rep.ID, &models.UpdateReportRequest{
		Tests: &[]models.ReportTest{{
			TestID: cbc.ID,
			Result: "normal",
			Parameters: []models.ParameterResult{
				{Name: "Hemoglobin", Result: "14.2"},
			},
		}},
	}, 2); err != nil {
		t.Fatalf("UpdateReport: %v", err)
	}

	// Rename, reprice, change ranges and grow the parameter list
	_, err := env.catalog.UpdateTest(ctx, cbc.ID, &models.UpdateTestRequest{
		Name:           strPtr("Complete Blood Count"),
		Price:          floatPtr(450),
		ReferenceRange: strPtr("4.0-10.5"),
		Parameters: &[]models.TestParameter{
			{Name: "Hemoglobin", NormalRange: "12-16", Unit: "g/dL"},
			{Name: "WBC", NormalRange: "4.0-10.5", Unit: "10^3/uL"},
			{Name: "Platelets", NormalRange: "150-400", Unit: "10^3/uL"},
		},
	}, 1)
	if err != nil {
		t.Fatalf("UpdateTest: %v", err)
	}

	t.Run("invoice takes name only", func(t *testing.T) {
		got := env.invoice(t, inv.ID)
		if got.Tests[0].TestName != "Complete Blood Count" {
			t.Errorf("line item name = %q", got.Tests[0].TestName)
		}
		if got.Tests[0].Price != 300 {
			t.Errorf("billed price changed to %.2f, want 300", got.Tests[0].Price)
		}
		if got.TotalAmount != 300 || got.FinalAmount != 300 {
			t.Errorf("totals changed: total %.2f final %.2f", got.TotalAmount, got.FinalAmount)
		}
	})

	t.Run("report takes display fields and keeps results", func(t *testing.T) {
		got := env.reportForInvoice(t, inv.ID)
		entry := got.Tests[0]
		if entry.TestName != "Complete Blood Count" {
			t.Errorf("entry name = %q", entry.TestName)
		}
		if entry.NormalRange != "4.0-10.5" {
			t.Errorf("entry range = %q", entry.NormalRange)
		}
		if entry.Result != "normal" {
			t.Errorf("entered result lost: %q", entry.Result)
		}
		if len(entry.Parameters) != 3 {
			t.Fatalf("expected 3 parameters, got %d", len(entry.Parameters))
		}
		if entry.Parameters[0].Result != "14.2" {
			t.Errorf("Hemoglobin result lost: %q", entry.Parameters[0].Result)
		}
		if entry.Parameters[0].NormalRange != "12-16" {
			t.Errorf("Hemoglobin range not refreshed: %q", entry.Parameters[0].NormalRange)
		}
		if entry.Parameters[2].Name != "Platelets" || entry.Parameters[2].Result != "" {
			t.Errorf("new template not appended empty: %+v", entry.Parameters[2])
		}
	})

	t.Run("per-report audit entries", func(t *testing.T) {
		found := false
		for _, entry := range env.auditLogs() {
			if entry.Module == "reports" && strings.Contains(entry.Detail, "refreshed from catalog change") {
				found = true
			}
		}
		if !found {
			t.Error("expected a per-report audit entry for the cascade")
		}
	})
}

func TestParameterShrinkKeepsEnteredResults(t *testing.T) {
	existing := []models.ParameterResult{
		{Name: "Hemoglobin", Result: "14.2", NormalRange: "13-17"},
		{Name: "WBC", Result: "7.1", NormalRange: "4.5-11.0"},
	}
	templates := []models.TestParameter{
		{Name: "Hemoglobin", NormalRange: "12-16", Unit: "g/dL"},
	}
	out := reconcileParameters(existing, templates)
	if len(out) != 2 {
		t.Fatalf("expected sub-results to survive a shrunk template list, got %d", len(out))
	}
	if out[1].Result != "7.1" {
		t.Errorf("WBC result lost: %q", out[1].Result)
	}
}

func TestDeleteTestCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cbc := env.mustCreateTest(t, &models.CreateTestRequest{Name: "CBC", Price: 300})
	lipid := env.mustCreateTest(t, &models.CreateTestRequest{Name: "Lipid Profile", Price: 500})

	inv := env.mustCreateInvoice(t, &models.CreateInvoiceRequest{
		PatientID: 1,
		Discount:  100,
		Tests: []models.InvoiceTest{
			{TestID: cbc.ID, TestName: "CBC", Price: 300, Quantity: 1},
			{TestID: lipid.ID, TestName: "Lipid Profile", Price: 500, Quantity: 1},
		},
	})
	if inv.FinalAmount != 700 {
		t.Fatalf("setup: final = %.2f, want 700", inv.FinalAmount)
	}

	if err := env.catalog.DeleteTest(ctx, lipid.ID, 1); err != nil {
		t.Fatalf("DeleteTest: %v", err)
	}

	t.Run("invoice line removed and totals recomputed", func(t *testing.T) {
		got := env.invoice(t, inv.ID)
		if len(got.Tests) != 1 || got.Tests[0].TestID != cbc.ID {
			t.Fatalf("unexpected line items: %+v", got.Tests)
		}
		if got.TotalAmount != 300 {
			t.Errorf("total = %.2f, want 300", got.TotalAmount)
		}
		if got.FinalAmount != got.TotalAmount-got.Discount {
			t.Errorf("final %.2f != total %.2f - discount %.2f", got.FinalAmount, got.TotalAmount, got.Discount)
		}
	})

	t.Run("report entry removed", func(t *testing.T) {
		rep := env.reportForInvoice(t, inv.ID)
		if len(rep.Tests) != 1 || rep.Tests[0].TestID != cbc.ID {
			t.Fatalf("unexpected report entries: %+v", rep.Tests)
		}
	})

	t.Run("one summary warning for the sweep", func(t *testing.T) {
		warnings := 0
		for _, n := range env.notifications() {
			if n.Type == models.NotificationWarning && n.Category == "tests" {
				warnings++
				if n.Priority != models.PriorityHigh {
					t.Errorf("warning priority = %q", n.Priority)
				}
			}
		}
		if warnings != 1 {
			t.Errorf("expected exactly 1 sweep warning, got %d", warnings)
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		before := len(env.auditLogs())
		if err := env.catalog.DeleteTest(ctx, lipid.ID, 1); err != nil {
			t.Fatalf("second delete: %v", err)
		}
		if got := len(env.auditLogs()); got != before {
			t.Errorf("second delete recorded %d new audit entries", got-before)
		}
	})
}

func TestDeleteTestNoDependents(t *testing.T) {
	env := newTestEnv(t)
	unused := env.mustCreateTest(t, &models.CreateTestRequest{Name: "Unused", Price: 50})

	if err := env.catalog.DeleteTest(context.Background(), unused.ID, 1); err != nil {
		t.Fatalf("DeleteTest: %v", err)
	}
	for _, n := range env.notifications() {
		if n.Type == models.NotificationWarning {
			t.Error("no warning expected when nothing referenced the test")
		}
	}
	env.store.View(func(st *store.State) {
		if _, ok := st.Tests[unused.ID]; ok {
			t.Error("test still present after delete")
		}
	})
}
