package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"loom/internal/httputil"
)

// PathParam returns a required path value, responding 400 when it is blank.
func PathParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	value := strings.TrimSpace(r.PathValue(name))
	if value == "" {
		httputil.RespondError(w, http.StatusBadRequest, label+" is required")
		return "", false
	}
	return value, true
}

// UUIDParam is PathParam for identifiers that must be UUIDs.
func UUIDParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	value, ok := PathParam(w, r, name, label)
	if !ok {
		return "", false
	}
	if _, err := uuid.Parse(value); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid "+label+" format")
		return "", false
	}
	return value, true
}

// parseBody decodes the JSON body, responding 400 (or 413) on failure.
func parseBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := httputil.ParseJSON(w, r, dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
