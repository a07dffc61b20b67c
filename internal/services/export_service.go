package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf/v2"

	"lims-backend/internal/models"
	"lims-backend/internal/store"
	"lims-backend/internal/timeutil"
)

// ExportService renders invoices and reports as PDF receipts and
// produces CSV extracts for accounting.
type ExportService struct {
	store *store.Store
}

func NewExportService(s *store.Store) *ExportService {
	return &ExportService{store: s}
}

// GenerateInvoicePDF renders a printable receipt for one invoice.
func (s *ExportService) GenerateInvoicePDF(invoiceID int) ([]byte, error) {
	var inv *models.Invoice
	var patient *models.Patient
	var doctor *models.Doctor
	s.store.View(func(st *store.State) {
		if found, ok := st.Invoices[invoiceID]; ok {
			cp := *found
			inv = &cp
			if p, ok := st.Patients[found.PatientID]; ok {
				pc := *p
				patient = &pc
			}
			if d, ok := st.Doctors[found.DoctorID]; ok {
				dc := *d
				doctor = &dc
			}
		}
	})
	if inv == nil {
		return nil, ErrNotFound
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Laboratory Invoice", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Invoice %s  |  Generated: %s", inv.InvoiceNumber, timeutil.Now().Format(timeutil.DisplayLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Patient Info Box
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Patient Information", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	patientName, patientPhone := "-", "-"
	if patient != nil {
		patientName = patient.Name
		patientPhone = patient.Phone
	}
	doctorName := "-"
	if doctor != nil {
		doctorName = doctor.Name
	}
	pdf.CellFormat(95, 7, fmt.Sprintf("Name: %s", patientName), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Phone: %s", patientPhone), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Referred By: %s", doctorName), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Due Date: %s", inv.DueDate.Format(timeutil.DateLayout)), "RB", 1, "L", false, 0, "")
	pdf.Ln(5)

	// Line items
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Tests Billed", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(90, 7, "Test", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Price", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 7, "Amount", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, item := range inv.Tests {
		name := item.TestName
		if len(name) > 45 {
			name = name[:42] + "..."
		}
		pdf.CellFormat(90, 6, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("Rs. %.2f", item.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("Rs. %.2f", item.Price*float64(item.Quantity)), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(5)

	// Financial Summary
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Payment Summary", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(47, 8, fmt.Sprintf("Total: Rs. %.2f", inv.TotalAmount), "1", 0, "C", false, 0, "")
	pdf.CellFormat(47, 8, fmt.Sprintf("Discount: Rs. %.2f", inv.Discount), "1", 0, "C", false, 0, "")
	pdf.CellFormat(48, 8, fmt.Sprintf("Payable: Rs. %.2f", inv.FinalAmount), "1", 0, "C", false, 0, "")
	pdf.CellFormat(48, 8, fmt.Sprintf("Paid: Rs. %.2f", inv.AmountPaid), "1", 1, "C", false, 0, "")

	balance := inv.FinalAmount - inv.AmountPaid
	if balance > 0 {
		pdf.SetFillColor(255, 200, 200)
	} else {
		pdf.SetFillColor(200, 255, 200)
	}
	pdf.SetFont("Arial", "B", 14)
	balanceText := fmt.Sprintf("Balance Due: Rs. %.2f", balance)
	if balance <= 0 {
		balanceText = "FULLY PAID"
	}
	pdf.CellFormat(190, 10, balanceText, "1", 1, "C", true, 0, "")

	// Payment History if any
	if len(inv.PaymentHistory) > 0 {
		pdf.Ln(5)
		pdf.SetFont("Arial", "B", 12)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(190, 8, "Payment History", "1", 1, "L", true, 0, "")

		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(200, 200, 200)
		pdf.CellFormat(40, 7, "Date", "1", 0, "C", true, 0, "")
		pdf.CellFormat(40, 7, "Amount", "1", 0, "C", true, 0, "")
		pdf.CellFormat(40, 7, "Method", "1", 0, "C", true, 0, "")
		pdf.CellFormat(70, 7, "Note", "1", 1, "C", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		for _, p := range inv.PaymentHistory {
			pdf.CellFormat(40, 6, p.Date.Format(timeutil.DateLayout), "1", 0, "C", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("Rs. %.2f", p.Amount), "1", 0, "R", false, 0, "")
			pdf.CellFormat(40, 6, p.Method, "1", 0, "C", false, 0, "")
			note := p.Note
			if len(note) > 35 {
				note = note[:32] + "..."
			}
			pdf.CellFormat(70, 6, note, "1", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateReportPDF renders a result report. Critical entries are
// highlighted and the verification trail is printed at the bottom.
func (s *ExportService) GenerateReportPDF(reportID int) ([]byte, error) {
	var rep *models.Report
	var patient *models.Patient
	var doctor *models.Doctor
	var verifier *models.User
	s.store.View(func(st *store.State) {
		if found, ok := st.Reports[reportID]; ok {
			cp := *found
			rep = &cp
			if p, ok := st.Patients[found.PatientID]; ok {
				pc := *p
				patient = &pc
			}
			if d, ok := st.Doctors[found.DoctorID]; ok {
				dc := *d
				doctor = &dc
			}
			if found.VerifiedBy != nil {
				if u, ok := st.Users[*found.VerifiedBy]; ok {
					uc := *u
					verifier = &uc
				}
			}
		}
	})
	if rep == nil {
		return nil, ErrNotFound
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Laboratory Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Report #%d  |  Generated: %s", rep.ID, timeutil.Now().Format(timeutil.DisplayLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Patient Info Box
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Patient Information", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	patientLine := "-"
	if patient != nil {
		patientLine = fmt.Sprintf("%s (%d / %s)", patient.Name, patient.Age, patient.Gender)
	}
	doctorName := "-"
	if doctor != nil {
		doctorName = doctor.Name
	}
	pdf.CellFormat(95, 7, fmt.Sprintf("Patient: %s", patientLine), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Referred By: %s", doctorName), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Status: %s", rep.Status), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Date: %s", rep.CreatedAt.Format(timeutil.DateLayout)), "RB", 1, "L", false, 0, "")
	pdf.Ln(5)

	// Results table
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Results", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(70, 7, "Test / Parameter", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 7, "Result", "1", 0, "C", true, 0, "")
	pdf.CellFormat(50, 7, "Normal Range", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Unit", "1", 1, "C", true, 0, "")

	for _, entry := range rep.Tests {
		s.writeResultRow(pdf, entry.TestName, entry.Result, entry.NormalRange, entry.Unit, entry.IsCritical, entry.IsAbnormal, false)
		for _, param := range entry.Parameters {
			s.writeResultRow(pdf, param.Name, param.Result, param.NormalRange, param.Unit, param.IsCritical, param.IsAbnormal, true)
		}
	}
	pdf.Ln(5)

	if rep.Interpretation != "" {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(190, 8, "Interpretation", "1", 1, "L", true, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(190, 6, rep.Interpretation, "1", "L", false)
		pdf.Ln(5)
	}

	// Verification trail
	pdf.SetFont("Arial", "", 10)
	if rep.Status == models.ReportStatusVerified && rep.VerifiedAt != nil {
		verifierName := "-"
		if verifier != nil {
			verifierName = verifier.Name
		}
		pdf.CellFormat(190, 6, fmt.Sprintf("Verified by %s on %s", verifierName, rep.VerifiedAt.Format(timeutil.DisplayLayout)), "", 1, "R", false, 0, "")
	} else {
		pdf.CellFormat(190, 6, "PROVISIONAL - NOT YET VERIFIED", "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ExportService) writeResultRow(pdf *gofpdf.Fpdf, name, result, normalRange, unit string, isCritical, isAbnormal, indent bool) {
	switch {
	case isCritical:
		pdf.SetFont("Arial", "B", 10)
		pdf.SetTextColor(200, 0, 0)
	case isAbnormal:
		pdf.SetFont("Arial", "B", 10)
		pdf.SetTextColor(0, 0, 0)
	default:
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(0, 0, 0)
	}
	if indent {
		name = "  " + name
	}
	if len(name) > 38 {
		name = name[:35] + "..."
	}
	pdf.CellFormat(70, 6, name, "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, result, "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, normalRange, "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, unit, "1", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// ExportInvoicesCSV produces an accounting extract of every invoice.
func (s *ExportService) ExportInvoicesCSV() ([]byte, error) {
	var invoices []*models.Invoice
	patientNames := make(map[int]string)
	s.store.View(func(st *store.State) {
		invoices = st.InvoiceList()
		for id, p := range st.Patients {
			patientNames[id] = p.Name
		}
	})

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"Invoice Number", "Date", "Patient", "Total", "Discount", "Payable", "Paid", "Balance", "Status", "Due Date"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, inv := range invoices {
		row := []string{
			inv.InvoiceNumber,
			inv.CreatedAt.Format(timeutil.DateLayout),
			patientNames[inv.PatientID],
			strconv.FormatFloat(inv.TotalAmount, 'f', 2, 64),
			strconv.FormatFloat(inv.Discount, 'f', 2, 64),
			strconv.FormatFloat(inv.FinalAmount, 'f', 2, 64),
			strconv.FormatFloat(inv.AmountPaid, 'f', 2, 64),
			strconv.FormatFloat(inv.FinalAmount-inv.AmountPaid, 'f', 2, 64),
			inv.Status,
			inv.DueDate.Format(timeutil.DateLayout),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
