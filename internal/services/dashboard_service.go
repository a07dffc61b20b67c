package services

import (
	"context"
	"sort"

	"lims-backend/internal/cache"
	"lims-backend/internal/models"
	"lims-backend/internal/store"
	"lims-backend/internal/timeutil"
)

// Aggregate derives the dashboard read-model from a store snapshot. It
// is a pure function: no internal state, nil input slices are treated
// as empty. When centerID is set, every input is filtered to that
// center first, but the per-center summaries always span all centers.
func Aggregate(
	patients []*models.Patient,
	doctors []*models.Doctor,
	tests []*models.Test,
	invoices []*models.Invoice,
	reports []*models.Report,
	stock []*models.StockItem,
	auditLogs []*models.AuditLog,
	expenses []*models.Expense,
	centerID string,
) *models.Dashboard {
	centers := centerSummaries(patients, invoices, reports)

	if centerID != "" {
		patients = filterByCenter(patients, centerID, func(p *models.Patient) string { return p.CollectionCenterID })
		tests = filterByCenter(tests, centerID, func(t *models.Test) string { return t.CollectionCenterID })
		invoices = filterByCenter(invoices, centerID, func(i *models.Invoice) string { return i.CollectionCenterID })
		reports = filterByCenter(reports, centerID, func(r *models.Report) string { return r.CollectionCenterID })
		stock = filterByCenter(stock, centerID, func(s *models.StockItem) string { return s.CollectionCenterID })
		expenses = filterByCenter(expenses, centerID, func(e *models.Expense) string { return e.CollectionCenterID })
	}

	now := timeutil.Now()
	dayStart := timeutil.StartOfDay(now)

	d := &models.Dashboard{
		TotalPatients: len(patients),
		TotalDoctors:  len(doctors),
		TotalTests:    len(tests),
		TotalInvoices: len(invoices),
		TotalReports:  len(reports),
		Centers:       centers,
	}

	for _, p := range patients {
		if !p.CreatedAt.Before(dayStart) {
			d.PatientsToday++
		}
	}
	for _, a := range auditLogs {
		if !a.Timestamp.Before(dayStart) {
			d.ActivityToday++
		}
	}
	for _, inv := range invoices {
		if !inv.CreatedAt.Before(dayStart) {
			d.InvoicesToday++
		}
		for _, pay := range inv.PaymentHistory {
			if !pay.Date.Before(dayStart) {
				d.RevenueToday += pay.Amount
			}
		}
		d.TotalRevenue += inv.AmountPaid
		switch inv.Status {
		case models.InvoiceStatusDue, models.InvoiceStatusPartial:
			d.UnpaidInvoices++
		case models.InvoiceStatusOverdue:
			d.UnpaidInvoices++
			d.OverdueInvoices++
		}
		if inv.Status != models.InvoiceStatusCancelled {
			d.Outstanding += inv.FinalAmount - inv.AmountPaid
		}
	}
	for _, rep := range reports {
		switch rep.Status {
		case models.ReportStatusPending, models.ReportStatusInProgress:
			d.PendingReports++
		}
		if rep.CriticalValues {
			d.CriticalReports++
		}
	}
	for _, item := range stock {
		if item.Quantity <= item.ReorderLevel {
			d.LowStockItems++
		}
	}
	for _, e := range expenses {
		d.TotalExpenses += e.Amount
	}
	d.NetRevenue = d.TotalRevenue - d.TotalExpenses

	return d
}

func filterByCenter[T any](in []*T, centerID string, center func(*T) string) []*T {
	out := make([]*T, 0, len(in))
	for _, rec := range in {
		if center(rec) == centerID {
			out = append(out, rec)
		}
	}
	return out
}

func centerSummaries(patients []*models.Patient, invoices []*models.Invoice, reports []*models.Report) []models.CenterSummary {
	byID := make(map[string]*models.CenterSummary)
	get := func(id string) *models.CenterSummary {
		if s, ok := byID[id]; ok {
			return s
		}
		s := &models.CenterSummary{CenterID: id}
		byID[id] = s
		return s
	}
	for _, p := range patients {
		get(p.CollectionCenterID).Patients++
	}
	for _, inv := range invoices {
		s := get(inv.CollectionCenterID)
		s.Invoices++
		s.Revenue += inv.AmountPaid
	}
	for _, rep := range reports {
		switch rep.Status {
		case models.ReportStatusPending, models.ReportStatusInProgress:
			get(rep.CollectionCenterID).PendingReports++
		}
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]models.CenterSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, *byID[id])
	}
	return out
}

// DashboardService recomputes the dashboard from the live store and
// keeps the latest result cached in Redis. Handlers call Refresh after
// every mutating operation; Get serves the cache when it is warm.
type DashboardService struct {
	Store *store.Store
}

func NewDashboardService(st *store.Store) *DashboardService {
	return &DashboardService{Store: st}
}

func (s *DashboardService) compute(centerID string) *models.Dashboard {
	var d *models.Dashboard
	s.Store.View(func(st *store.State) {
		d = Aggregate(
			st.PatientList(), st.DoctorList(), st.TestList(),
			st.InvoiceList(), st.ReportList(), st.StockList(),
			st.AuditLogList(), st.ExpenseList(), centerID)
	})
	return d
}

// Get returns the dashboard, from cache when possible
func (s *DashboardService) Get(ctx context.Context, centerID string) *models.Dashboard {
	if cached, ok := cache.GetDashboard(ctx, centerID); ok {
		return cached
	}
	d := s.compute(centerID)
	cache.SetDashboard(ctx, centerID, d)
	return d
}

// Refresh recomputes after a mutation and replaces the cached copy
func (s *DashboardService) Refresh(ctx context.Context) *models.Dashboard {
	cache.InvalidateDashboard(ctx)
	d := s.compute("")
	cache.SetDashboard(ctx, "", d)
	return d
}
