package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"lims-backend/internal/services"
)

type ExportHandler struct {
	Service *services.ExportService
}

func NewExportHandler(s *services.ExportService) *ExportHandler {
	return &ExportHandler{Service: s}
}

func (h *ExportHandler) InvoicePDF(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	data, err := h.Service.GenerateInvoicePDF(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=invoice_%d.pdf", id))
	w.Write(data)
}

func (h *ExportHandler) ReportPDF(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	data, err := h.Service.GenerateReportPDF(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=report_%d.pdf", id))
	w.Write(data)
}

func (h *ExportHandler) InvoicesCSV(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.ExportInvoicesCSV()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=invoices.csv")
	w.Write(data)
}
