package services

import (
	"fmt"

	"lims-backend/internal/metrics"
	"lims-backend/internal/models"
	"lims-backend/internal/store"
)

// Cascade rules, in one place:
//   - invoice line items take only the new display name; billed prices
//     are historical facts and are never rewritten
//   - report entries take name, normal range and unit from the new
//     catalog record; entered results and flags are untouched
//   - parameter sub-results are reconciled against the templates by
//     name: matches refresh range/unit only, new templates append empty
//     sub-results, and sub-results missing from a shrunk template list
//     are kept (entered data survives)

func (s *CatalogService) cascadeTestUpdate(st *store.State, t *models.Test, userID int) (invoicesTouched, reportsTouched int) {
	for _, inv := range st.Invoices {
		changed := false
		for i := range inv.Tests {
			if inv.Tests[i].TestID != t.ID {
				continue
			}
			if inv.Tests[i].TestName != t.Name {
				inv.Tests[i].TestName = t.Name
				changed = true
			}
		}
		if changed {
			invoicesTouched++
		}
	}
	if invoicesTouched > 0 {
		st.Touch(store.ColInvoices)
		metrics.CascadeRecordsTotal.WithLabelValues("update", store.ColInvoices).Add(float64(invoicesTouched))
	}

	for _, rep := range st.Reports {
		changed := false
		for i := range rep.Tests {
			if rep.Tests[i].TestID != t.ID {
				continue
			}
			rep.Tests[i].TestName = t.Name
			rep.Tests[i].NormalRange = t.ReferenceRange
			rep.Tests[i].Unit = t.Unit
			rep.Tests[i].Parameters = reconcileParameters(rep.Tests[i].Parameters, t.Parameters)
			changed = true
		}
		if changed {
			reportsTouched++
			s.Recorder.Log(st, userID, models.AuditActionUpdate, "reports",
				fmt.Sprintf("Report #%d refreshed from catalog change to test %q", rep.ID, t.Name))
		}
	}
	if reportsTouched > 0 {
		st.Touch(store.ColReports)
		metrics.CascadeRecordsTotal.WithLabelValues("update", store.ColReports).Add(float64(reportsTouched))
	}
	return invoicesTouched, reportsTouched
}

// reconcileParameters aligns entered sub-results with the current
// template list. Entered result values and flags are never modified or
// removed here.
func reconcileParameters(existing []models.ParameterResult, templates []models.TestParameter) []models.ParameterResult {
	byName := make(map[string]int, len(existing))
	for i, p := range existing {
		byName[p.Name] = i
	}
	for _, tpl := range templates {
		if i, ok := byName[tpl.Name]; ok {
			existing[i].NormalRange = tpl.NormalRange
			existing[i].Unit = tpl.Unit
			continue
		}
		existing = append(existing, models.ParameterResult{
			Name:        tpl.Name,
			NormalRange: tpl.NormalRange,
			Unit:        tpl.Unit,
		})
	}
	return existing
}

func (s *CatalogService) cascadeTestDelete(st *store.State, testID, userID int) (invoicesTouched, reportsTouched int) {
	for _, inv := range st.Invoices {
		kept := inv.Tests[:0]
		removed := false
		for _, item := range inv.Tests {
			if item.TestID == testID {
				removed = true
				continue
			}
			kept = append(kept, item)
		}
		if !removed {
			continue
		}
		inv.Tests = kept
		recomputeInvoiceTotals(inv)
		invoicesTouched++
		s.Recorder.Log(st, userID, models.AuditActionUpdate, "invoices",
			fmt.Sprintf("Invoice %s: removed deleted test #%d, totals recomputed", inv.InvoiceNumber, testID))
	}
	if invoicesTouched > 0 {
		st.Touch(store.ColInvoices)
		metrics.CascadeRecordsTotal.WithLabelValues("delete", store.ColInvoices).Add(float64(invoicesTouched))
	}

	for _, rep := range st.Reports {
		kept := rep.Tests[:0]
		removed := false
		for _, entry := range rep.Tests {
			if entry.TestID == testID {
				removed = true
				continue
			}
			kept = append(kept, entry)
		}
		if !removed {
			continue
		}
		rep.Tests = kept
		rep.CriticalValues = anyCritical(rep.Tests)
		reportsTouched++
		s.Recorder.Log(st, userID, models.AuditActionUpdate, "reports",
			fmt.Sprintf("Report #%d: removed deleted test #%d", rep.ID, testID))
	}
	if reportsTouched > 0 {
		st.Touch(store.ColReports)
		metrics.CascadeRecordsTotal.WithLabelValues("delete", store.ColReports).Add(float64(reportsTouched))
	}
	return invoicesTouched, reportsTouched
}

// recomputeInvoiceTotals restores the totals invariant after any
// line-item or discount change: finalAmount == totalAmount - discount.
func recomputeInvoiceTotals(inv *models.Invoice) {
	total := 0.0
	for _, item := range inv.Tests {
		total += item.Price * float64(item.Quantity)
	}
	inv.TotalAmount = total
	inv.FinalAmount = total - inv.Discount
}

func anyCritical(tests []models.ReportTest) bool {
	for _, t := range tests {
		if t.IsCritical {
			return true
		}
	}
	return false
}
