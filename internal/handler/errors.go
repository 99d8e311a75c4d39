package handler

import (
	"errors"
	"net/http"

	"loom/internal/domain"
	"loom/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var conflictErr *domain.ConflictError

	switch {
	case errors.As(err, &conflictErr):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), map[string]interface{}{
			"resource_type": conflictErr.ResourceType,
			"resource_id":   conflictErr.ResourceID,
		})
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
