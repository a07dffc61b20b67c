package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"lims-backend/internal/middleware"
	"lims-backend/internal/models"
	"lims-backend/internal/services"
	"lims-backend/pkg/utils"
)

type InvoiceHandler struct {
	Service   *services.InvoiceService
	Ledger    *services.PaymentLedger
	Dashboard *services.DashboardService
}

func NewInvoiceHandler(s *services.InvoiceService, l *services.PaymentLedger, d *services.DashboardService) *InvoiceHandler {
	return &InvoiceHandler{Service: s, Ledger: l, Dashboard: d}
}

func (h *InvoiceHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req models.CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Tests) == 0 {
		utils.Error(w, http.StatusBadRequest, "At least one test is required")
		return
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	invoice, err := h.Service.CreateInvoice(r.Context(), &req, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.Dashboard.Refresh(r.Context())
	utils.JSON(w, http.StatusCreated, invoice)
}

func (h *InvoiceHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	invoice, err := h.Service.GetInvoice(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, invoice)
}

func (h *InvoiceHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.Service.ListInvoices(r.Context()))
}

func (h *InvoiceHandler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	var req models.UpdateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	invoice, err := h.Service.UpdateInvoice(r.Context(), id, &req, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.Dashboard.Refresh(r.Context())
	utils.JSON(w, http.StatusOK, invoice)
}

func (h *InvoiceHandler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	if err := h.Service.DeleteInvoice(r.Context(), id, userID); err != nil {
		writeServiceError(w, err)
		return
	}
	h.Dashboard.Refresh(r.Context())
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Invoice deleted"})
}

func (h *InvoiceHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	var req models.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	invoice, err := h.Ledger.RecordPayment(r.Context(), id, &req, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.Dashboard.Refresh(r.Context())
	utils.JSON(w, http.StatusOK, invoice)
}
