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

// TestHandler exposes the test catalog. Mutations cascade into open
// invoices and reports inside the service, so a single request here can
// touch three collections.
type TestHandler struct {
	Service   *services.CatalogService
	Dashboard *services.DashboardService
}

func NewTestHandler(s *services.CatalogService, d *services.DashboardService) *TestHandler {
	return &TestHandler{Service: s, Dashboard: d}
}

func (h *TestHandler) CreateTest(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	test, err := h.Service.CreateTest(r.Context(), &req, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.Dashboard.Refresh(r.Context())
	utils.JSON(w, http.StatusCreated, test)
}

func (h *TestHandler) GetTest(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	test, err := h.Service.GetTest(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, test)
}

func (h *TestHandler) ListTests(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.Service.ListTests(r.Context()))
}

func (h *TestHandler) UpdateTest(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	var req models.UpdateTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	test, err := h.Service.UpdateTest(r.Context(), id, &req, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.Dashboard.Refresh(r.Context())
	utils.JSON(w, http.StatusOK, test)
}

func (h *TestHandler) DeleteTest(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	if err := h.Service.DeleteTest(r.Context(), id, userID); err != nil {
		writeServiceError(w, err)
		return
	}
	h.Dashboard.Refresh(r.Context())
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Test deleted"})
}
