package handlers

import (
	"encoding/json"
	"net/http"

	"lims-backend/internal/middleware"
	"lims-backend/internal/models"
	"lims-backend/internal/services"
	"lims-backend/pkg/utils"
)

type DoctorHandler struct {
	Service   *services.RegistryService
	Dashboard *services.DashboardService
}

func NewDoctorHandler(s *services.RegistryService, d *services.DashboardService) *DoctorHandler {
	return &DoctorHandler{Service: s, Dashboard: d}
}

func (h *DoctorHandler) CreateDoctor(w http.ResponseWriter, r *http.Request) {
	var req models.CreateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		utils.Error(w, http.StatusBadRequest, "Name is required")
		return
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	doctor, err := h.Service.CreateDoctor(r.Context(), &req, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.Dashboard.Refresh(r.Context())
	utils.JSON(w, http.StatusCreated, doctor)
}

func (h *DoctorHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.Service.ListDoctors(r.Context()))
}
