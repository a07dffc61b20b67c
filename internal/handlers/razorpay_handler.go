package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"lims-backend/internal/models"
	"lims-backend/internal/services"
	"lims-backend/pkg/utils"
)

type RazorpayHandler struct {
	Service   *services.RazorpayService
	Dashboard *services.DashboardService
}

func NewRazorpayHandler(s *services.RazorpayService, d *services.DashboardService) *RazorpayHandler {
	return &RazorpayHandler{Service: s, Dashboard: d}
}

func (h *RazorpayHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOnlinePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.InvoiceID == 0 {
		utils.Error(w, http.StatusBadRequest, "invoice_id is required")
		return
	}

	resp, err := h.Service.CreateOrder(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, resp)
}

func (h *RazorpayHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RazorpayOrderID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "" {
		utils.Error(w, http.StatusBadRequest, "Missing payment verification fields")
		return
	}

	tx, err := h.Service.VerifyPayment(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.Dashboard.Refresh(r.Context())
	utils.JSON(w, http.StatusOK, tx)
}

// HandleWebhook processes gateway events. Known processing errors still
// return 200 to stop the gateway from retrying.
func (h *RazorpayHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	signature := r.Header.Get("X-Razorpay-Signature")
	if !h.Service.VerifyWebhookSignature(body, signature) {
		utils.Error(w, http.StatusUnauthorized, "Invalid webhook signature")
		return
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	event, _ := payload["event"].(string)
	log.Printf("[Razorpay] Received webhook: %s", event)

	paymentData := map[string]interface{}{}
	if p, ok := payload["payload"].(map[string]interface{}); ok {
		if pay, ok := p["payment"].(map[string]interface{}); ok {
			if entity, ok := pay["entity"].(map[string]interface{}); ok {
				paymentData = entity
			}
		}
	}

	if err := h.Service.ProcessWebhook(r.Context(), event, paymentData); err != nil {
		log.Printf("[Razorpay] Webhook processing failed: %v", err)
	}
	h.Dashboard.Refresh(r.Context())
	utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *RazorpayHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.Service.ListTransactions())
}
