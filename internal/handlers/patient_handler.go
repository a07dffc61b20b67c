package handlers

import (
	"encoding/json"
	"net/http"

	"lims-backend/internal/middleware"
	"lims-backend/internal/models"
	"lims-backend/internal/services"
	"lims-backend/pkg/utils"
)

type PatientHandler struct {
	Service   *services.RegistryService
	Dashboard *services.DashboardService
}

func NewPatientHandler(s *services.RegistryService, d *services.DashboardService) *PatientHandler {
	return &PatientHandler{Service: s, Dashboard: d}
}

func (h *PatientHandler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Phone == "" {
		utils.Error(w, http.StatusBadRequest, "Name and phone are required")
		return
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	patient, err := h.Service.CreatePatient(r.Context(), &req, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.Dashboard.Refresh(r.Context())
	utils.JSON(w, http.StatusCreated, patient)
}

func (h *PatientHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.Service.ListPatients(r.Context()))
}
