package handlers

import (
	"errors"
	"net/http"

	"lims-backend/internal/services"
	"lims-backend/pkg/utils"
)

// writeServiceError maps domain errors to HTTP status codes
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrReportLocked):
		utils.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		utils.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrDeclineReasonRequired):
		utils.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrInvalidTOTPCode):
		utils.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrNoTOTPSecret):
		utils.Error(w, http.StatusBadRequest, err.Error())
	default:
		utils.Error(w, http.StatusInternalServerError, err.Error())
	}
}
