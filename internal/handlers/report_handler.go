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

// ReportHandler exposes report results and the verification state
// machine. Verify and decline additionally require a TOTP code when the
// acting user has the second factor enabled.
type ReportHandler struct {
	Service   *services.ReportService
	TOTP      *services.TOTPService
	Dashboard *services.DashboardService
}

func NewReportHandler(s *services.ReportService, t *services.TOTPService, d *services.DashboardService) *ReportHandler {
	return &ReportHandler{Service: s, TOTP: t, Dashboard: d}
}

func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	report, err := h.Service.GetReport(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, report)
}

func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.Service.ListReports(r.Context()))
}

func (h *ReportHandler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	var req models.UpdateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	report, err := h.Service.UpdateReport(r.Context(), id, &req, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.Dashboard.Refresh(r.Context())
	utils.JSON(w, http.StatusOK, report)
}

func (h *ReportHandler) MarkInProgress(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id, userID int) (*models.Report, error) {
		return h.Service.MarkInProgress(r.Context(), id, userID)
	})
}

func (h *ReportHandler) MarkCompleted(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id, userID int) (*models.Report, error) {
		return h.Service.MarkCompleted(r.Context(), id, userID)
	})
}

func (h *ReportHandler) VerifyReport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TOTPCode string `json:"totp_code"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	if h.TOTP.IsEnabled(userID) {
		if err := h.TOTP.VerifyCode(userID, body.TOTPCode); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	h.transition(w, r, func(id, uid int) (*models.Report, error) {
		return h.Service.Verify(r.Context(), id, uid)
	})
}

func (h *ReportHandler) DeclineReport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason   string `json:"reason"`
		TOTPCode string `json:"totp_code"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	if h.TOTP.IsEnabled(userID) {
		if err := h.TOTP.VerifyCode(userID, body.TOTPCode); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	h.transition(w, r, func(id, uid int) (*models.Report, error) {
		return h.Service.Decline(r.Context(), id, uid, body.Reason)
	})
}

func (h *ReportHandler) UndoVerification(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id, userID int) (*models.Report, error) {
		return h.Service.Undo(r.Context(), id, userID)
	})
}

func (h *ReportHandler) LockReport(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id, userID int) (*models.Report, error) {
		return h.Service.Lock(r.Context(), id, userID)
	})
}

func (h *ReportHandler) transition(w http.ResponseWriter, r *http.Request, fn func(id, userID int) (*models.Report, error)) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	report, err := fn(id, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.Dashboard.Refresh(r.Context())
	utils.JSON(w, http.StatusOK, report)
}

func (h *ReportHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	var body struct {
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Comment == "" {
		utils.Error(w, http.StatusBadRequest, "Comment is required")
		return
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	report, err := h.Service.AddComment(r.Context(), id, userID, body.Comment)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, report)
}

func (h *ReportHandler) AddAttachment(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	var body struct {
		Name string `json:"name"`
		Key  string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		utils.Error(w, http.StatusBadRequest, "Attachment name is required")
		return
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	report, err := h.Service.AddAttachment(r.Context(), id, userID, body.Name, body.Key)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, report)
}
