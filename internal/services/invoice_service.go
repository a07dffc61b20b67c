package services

import (
	"context"
	"fmt"
	"strings"

	"lims-backend/internal/models"
	"lims-backend/internal/store"
	"lims-backend/internal/timeutil"
)

// InvoiceService drives the invoice lifecycle. Creating an invoice
// synthesizes its report; editing the line items reconciles the report's
// test set; deleting removes both records together. Every path runs
// inside one store.Update, so callers never observe a half-applied
// cascade.
type InvoiceService struct {
	Store    *store.Store
	Recorder *AuditRecorder
}

func NewInvoiceService(st *store.Store, recorder *AuditRecorder) *InvoiceService {
	return &InvoiceService{Store: st, Recorder: recorder}
}

func normalizeLineItems(items []models.InvoiceTest) []models.InvoiceTest {
	for i := range items {
		if items[i].Quantity < 1 {
			items[i].Quantity = 1
		}
	}
	return items
}

// CreateInvoice creates an invoice and its linked report in one step.
// The report's normal ranges, units and parameter templates come from
// the live catalog, not from the invoice's own snapshots, so the report
// reflects current reference ranges at creation time.
func (s *InvoiceService) CreateInvoice(ctx context.Context, req *models.CreateInvoiceRequest, userID int) (*models.Invoice, error) {
	var created *models.Invoice
	err := s.Store.Update(func(st *store.State) error {
		now := timeutil.Now()

		inv := &models.Invoice{
			ID:                 st.NextID(store.ColInvoices),
			InvoiceNumber:      st.NextInvoiceNumber(),
			PatientID:          req.PatientID,
			DoctorID:           req.DoctorID,
			CollectionCenterID: req.CollectionCenterID,
			Tests:              normalizeLineItems(req.Tests),
			Discount:           req.Discount,
			AmountPaid:         0,
			PaymentHistory:     []models.PaymentRecord{},
			Status:             req.Status,
			CreatedAt:          now,
			CreatedBy:          userID,
		}
		if inv.Status == "" {
			inv.Status = models.InvoiceStatusDue
		}
		if req.DueDate != nil {
			inv.DueDate = *req.DueDate
		} else {
			inv.DueDate = now
		}
		recomputeInvoiceTotals(inv)
		st.Invoices[inv.ID] = inv

		rep := &models.Report{
			ID:                 st.NextID(store.ColReports),
			InvoiceID:          inv.ID,
			PatientID:          inv.PatientID,
			DoctorID:           inv.DoctorID,
			CollectionCenterID: inv.CollectionCenterID,
			Tests:              make([]models.ReportTest, 0, len(inv.Tests)),
			Status:             models.ReportStatusPending,
			StatusHistory: []models.StatusChange{{
				Status:    models.ReportStatusPending,
				ChangedBy: userID,
				ChangedAt: now,
				Comment:   "Report created with invoice " + inv.InvoiceNumber,
			}},
			CreatedAt: now,
		}
		for _, item := range inv.Tests {
			rep.Tests = append(rep.Tests, newReportTest(st, item))
		}
		st.Reports[rep.ID] = rep
		st.Touch(store.ColInvoices, store.ColReports)

		s.Recorder.Log(st, userID, models.AuditActionCreate, "invoices",
			fmt.Sprintf("Created invoice %s (total %.2f, discount %.2f, final %.2f) with report #%d",
				inv.InvoiceNumber, inv.TotalAmount, inv.Discount, inv.FinalAmount, rep.ID))
		s.Recorder.Notify(st, models.NotificationSuccess, "invoices", "New invoice",
			fmt.Sprintf("Invoice %s created for patient #%d", inv.InvoiceNumber, inv.PatientID),
			models.PriorityNormal)

		created = inv
		return nil
	})
	return created, err
}

// newReportTest seeds an empty result entry for a line item from the
// current catalog. A line item whose test no longer exists falls back
// to its own snapshots.
func newReportTest(st *store.State, item models.InvoiceTest) models.ReportTest {
	entry := models.ReportTest{
		TestID:   item.TestID,
		TestName: item.TestName,
	}
	if t, ok := st.Tests[item.TestID]; ok {
		entry.TestName = t.Name
		entry.NormalRange = t.ReferenceRange
		entry.Unit = t.Unit
		for _, tpl := range t.Parameters {
			entry.Parameters = append(entry.Parameters, models.ParameterResult{
				Name:        tpl.Name,
				NormalRange: tpl.NormalRange,
				Unit:        tpl.Unit,
			})
		}
	}
	return entry
}

// UpdateInvoice patches an invoice, keeps the totals invariant, and
// reconciles the linked report when the test set changed.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, id int, req *models.UpdateInvoiceRequest, userID int) (*models.Invoice, error) {
	var updated *models.Invoice
	err := s.Store.Update(func(st *store.State) error {
		inv, ok := st.Invoices[id]
		if !ok {
			return ErrNotFound
		}

		oldTests := inv.Tests
		changes := []FieldChange{}

		if req.DoctorID != nil {
			changes = append(changes, FieldChange{"doctor_id", inv.DoctorID, *req.DoctorID})
			inv.DoctorID = *req.DoctorID
		}
		if req.Discount != nil {
			changes = append(changes, FieldChange{"discount", inv.Discount, *req.Discount})
			inv.Discount = *req.Discount
		}
		if req.DueDate != nil {
			changes = append(changes, FieldChange{"due_date", inv.DueDate.Format(timeutil.DateLayout), req.DueDate.Format(timeutil.DateLayout)})
			inv.DueDate = *req.DueDate
		}
		if req.Status != nil {
			changes = append(changes, FieldChange{"status", inv.Status, *req.Status})
			inv.Status = *req.Status
		}
		if req.IsLocked != nil {
			changes = append(changes, FieldChange{"is_locked", inv.IsLocked, *req.IsLocked})
			inv.IsLocked = *req.IsLocked
		}
		if req.Tests != nil {
			changes = append(changes, FieldChange{"tests", len(oldTests), len(*req.Tests)})
			inv.Tests = normalizeLineItems(*req.Tests)
		}
		if req.Tests != nil || req.Discount != nil {
			oldTotal, oldFinal := inv.TotalAmount, inv.FinalAmount
			recomputeInvoiceTotals(inv)
			changes = append(changes,
				FieldChange{"total_amount", oldTotal, inv.TotalAmount},
				FieldChange{"final_amount", oldFinal, inv.FinalAmount})
		}
		st.Touch(store.ColInvoices)

		detail := DiffDetail(changes)
		if req.Tests != nil && testSetChanged(oldTests, inv.Tests) {
			dropped := s.reconcileReport(st, inv, oldTests, userID)
			if len(dropped) > 0 {
				detail += fmt.Sprintf("; dropped report tests: %s", strings.Join(dropped, ", "))
			}
		}
		if detail == "" {
			detail = "No field changes"
		}
		s.Recorder.Log(st, userID, models.AuditActionUpdate, "invoices",
			fmt.Sprintf("Updated invoice %s: %s", inv.InvoiceNumber, detail))

		updated = inv
		return nil
	})
	return updated, err
}

func testSetChanged(oldItems, newItems []models.InvoiceTest) bool {
	oldSet := make(map[int]bool, len(oldItems))
	for _, t := range oldItems {
		oldSet[t.TestID] = true
	}
	newSet := make(map[int]bool, len(newItems))
	for _, t := range newItems {
		newSet[t.TestID] = true
	}
	if len(oldSet) != len(newSet) {
		return true
	}
	for id := range newSet {
		if !oldSet[id] {
			return true
		}
	}
	return false
}

// reconcileReport aligns the linked report's test set with the
// invoice's new line items: entries for tests kept on the invoice are
// preserved unchanged, newly added tests get fresh empty entries from
// the current catalog, and removed tests are dropped. A completed or
// verified report goes back to pending, since the changed test set
// invalidates its sign-off. Returns the dropped test names.
func (s *InvoiceService) reconcileReport(st *store.State, inv *models.Invoice, oldItems []models.InvoiceTest, userID int) []string {
	rep := st.ReportByInvoiceID(inv.ID)
	if rep == nil {
		return nil
	}

	existing := make(map[int]models.ReportTest, len(rep.Tests))
	for _, entry := range rep.Tests {
		existing[entry.TestID] = entry
	}

	added := 0
	newTests := make([]models.ReportTest, 0, len(inv.Tests))
	for _, item := range inv.Tests {
		if entry, ok := existing[item.TestID]; ok {
			newTests = append(newTests, entry)
			delete(existing, item.TestID)
			continue
		}
		newTests = append(newTests, newReportTest(st, item))
		added++
	}

	var dropped []string
	for _, entry := range existing {
		dropped = append(dropped, entry.TestName)
	}

	rep.Tests = newTests
	rep.CriticalValues = anyCritical(rep.Tests)

	comment := fmt.Sprintf("Invoice tests changed: %d added, %d removed", added, len(dropped))
	if rep.Status == models.ReportStatusCompleted || rep.Status == models.ReportStatusVerified {
		rep.Status = models.ReportStatusPending
		comment += "; status reset to pending"
	}
	rep.StatusHistory = append(rep.StatusHistory, models.StatusChange{
		Status:    rep.Status,
		ChangedBy: userID,
		ChangedAt: timeutil.Now(),
		Comment:   comment,
	})
	st.Touch(store.ColReports)

	s.Recorder.Notify(st, models.NotificationInfo, "invoices", "Invoice tests updated",
		fmt.Sprintf("Invoice %s: %d test(s) added, %d removed; report #%d reconciled",
			inv.InvoiceNumber, added, len(dropped), rep.ID),
		models.PriorityNormal)
	return dropped
}

// DeleteInvoice removes an invoice and its linked report together. A
// missing id is a no-op.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id int, userID int) error {
	return s.Store.Update(func(st *store.State) error {
		inv, ok := st.Invoices[id]
		if !ok {
			return nil
		}
		delete(st.Invoices, id)
		st.Touch(store.ColInvoices)

		detail := fmt.Sprintf("Deleted invoice %s", inv.InvoiceNumber)
		if rep := st.ReportByInvoiceID(id); rep != nil {
			delete(st.Reports, rep.ID)
			st.Touch(store.ColReports)
			detail += fmt.Sprintf(" and report #%d", rep.ID)
		}

		s.Recorder.Log(st, userID, models.AuditActionDelete, "invoices", detail)
		s.Recorder.Notify(st, models.NotificationWarning, "invoices", "Invoice deleted",
			detail, models.PriorityHigh)
		return nil
	})
}

// GetInvoice returns one invoice
func (s *InvoiceService) GetInvoice(ctx context.Context, id int) (*models.Invoice, error) {
	var inv *models.Invoice
	s.Store.View(func(st *store.State) {
		if found, ok := st.Invoices[id]; ok {
			cp := *found
			inv = &cp
		}
	})
	if inv == nil {
		return nil, ErrNotFound
	}
	return inv, nil
}

// ListInvoices returns all invoices ordered by id
func (s *InvoiceService) ListInvoices(ctx context.Context) []*models.Invoice {
	var out []*models.Invoice
	s.Store.View(func(st *store.State) {
		out = st.InvoiceList()
	})
	return out
}
