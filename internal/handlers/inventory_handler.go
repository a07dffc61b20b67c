package handlers

import (
	"encoding/json"
	"net/http"

	"lims-backend/internal/middleware"
	"lims-backend/internal/models"
	"lims-backend/internal/services"
	"lims-backend/pkg/utils"
)

// InventoryHandler covers stock items and operating expenses
type InventoryHandler struct {
	Service   *services.RegistryService
	Dashboard *services.DashboardService
}

func NewInventoryHandler(s *services.RegistryService, d *services.DashboardService) *InventoryHandler {
	return &InventoryHandler{Service: s, Dashboard: d}
}

func (h *InventoryHandler) UpsertStockItem(w http.ResponseWriter, r *http.Request) {
	var item models.StockItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if item.Name == "" {
		utils.Error(w, http.StatusBadRequest, "Name is required")
		return
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	saved, err := h.Service.UpsertStockItem(r.Context(), &item, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.Dashboard.Refresh(r.Context())
	utils.JSON(w, http.StatusOK, saved)
}

func (h *InventoryHandler) ListStock(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.Service.ListStock(r.Context()))
}

func (h *InventoryHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var expense models.Expense
	if err := json.NewDecoder(r.Body).Decode(&expense); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if expense.Amount <= 0 {
		utils.Error(w, http.StatusBadRequest, "Amount must be positive")
		return
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	saved, err := h.Service.CreateExpense(r.Context(), &expense, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.Dashboard.Refresh(r.Context())
	utils.JSON(w, http.StatusCreated, saved)
}

func (h *InventoryHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.Service.ListExpenses(r.Context()))
}
