package handlers

import (
	"net/http"

	"lims-backend/internal/services"
	"lims-backend/pkg/utils"
)

type DashboardHandler struct {
	Service *services.DashboardService
}

func NewDashboardHandler(s *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{Service: s}
}

// GetDashboard returns the aggregated dashboard, optionally scoped to
// one collection center via ?center_id=.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	centerID := r.URL.Query().Get("center_id")
	utils.JSON(w, http.StatusOK, h.Service.Get(r.Context(), centerID))
}
