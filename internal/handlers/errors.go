package handlers

import (
	"errors"
	"net/http"

	"intervai/internal/models"
	"intervai/internal/utils"
)

// writeServiceError maps domain sentinel errors onto HTTP responses. Any
// unrecognized error becomes a generic 500 so internals never leak.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		utils.JSON(w, http.StatusNotFound, models.ErrorResponse{
			Code:    "not_found",
			Message: "Resource not found",
		})
	case errors.Is(err, models.ErrForbidden):
		utils.JSON(w, http.StatusForbidden, models.ErrorResponse{
			Code:    "forbidden",
			Message: "You do not have access to this resource",
		})
	case errors.Is(err, models.ErrQuotaExceeded):
		utils.JSON(w, http.StatusForbidden, models.ErrorResponse{
			Code:    "quota_exceeded",
			Message: "Daily interview limit reached",
		})
	case errors.Is(err, models.ErrSessionNotActive):
		utils.JSON(w, http.StatusForbidden, models.ErrorResponse{
			Code:    "session_not_active",
			Message: "Session status does not allow this operation",
		})
	case errors.Is(err, models.ErrInvalidVoice):
		utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{
			Code:    "invalid_voice",
			Message: "The requested voice is not available",
		})
	default:
		utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Code:    "internal_error",
			Message: "An unexpected error occurred",
		})
	}
}
