package services

import (
	"context"
	"testing"

	"lims-backend/internal/models"
	"lims-backend/internal/persistence"
	"lims-backend/internal/store"
)

type testEnv struct {
	store    *store.Store
	catalog  *CatalogService
	invoices *InvoiceService
	ledger   *PaymentLedger
	reports  *ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := store.New(persistence.NewMemory())
	recorder := NewAuditRecorder()
	return &testEnv{
		store:    st,
		catalog:  NewCatalogService(st, recorder),
		invoices: NewInvoiceService(st, recorder),
		ledger:   NewPaymentLedger(st, recorder),
		reports:  NewReportService(st, recorder),
	}
}

func (e *testEnv) mustCreateTest(t *testing.T, req *models.CreateTestRequest) *models.Test {
	t.Helper()
	created, err := e.catalog.CreateTest(context.Background(), req, 1)
	if err != nil {
		t.Fatalf("CreateTest: %v", err)
	}
	return created
}

func (e *testEnv) mustCreateInvoice(t *testing.T, req *models.CreateInvoiceRequest) *models.Invoice {
	t.Helper()
	created, err := e.invoices.CreateInvoice(context.Background(), req, 1)
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	return created
}

func (e *testEnv) reportForInvoice(t *testing.T, invoiceID int) *models.Report {
	t.Helper()
	var rep *models.Report
	e.store.View(func(st *store.State) {
		if found := st.ReportByInvoiceID(invoiceID); found != nil {
			cp := *found
			rep = &cp
		}
	})
	if rep == nil {
		t.Fatalf("no report for invoice %d", invoiceID)
	}
	return rep
}

func (e *testEnv) invoice(t *testing.T, id int) *models.Invoice {
	t.Helper()
	inv, err := e.invoices.GetInvoice(context.Background(), id)
	if err != nil {
		t.Fatalf("GetInvoice(%d): %v", id, err)
	}
	return inv
}

func (e *testEnv) notifications() []*models.Notification {
	var out []*models.Notification
	e.store.View(func(st *store.State) {
		out = st.NotificationList()
	})
	return out
}

func (e *testEnv) auditLogs() []*models.AuditLog {
	var out []*models.AuditLog
	e.store.View(func(st *store.State) {
		out = st.AuditLogList()
	})
	return out
}

func strPtr(s string) *string          { return &s }
func floatPtr(f float64) *float64      { return &f }
func testsPtr(v []models.InvoiceTest) *[]models.InvoiceTest { return &v }
