package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/photoalbum/server/internal/models"
	"github.com/photoalbum/server/internal/observability"
)

// respondJSON writes data as a JSON response with the given status
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError maps a service error onto an HTTP status and the standard
// error payload. Internal errors keep their detail out of the response.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := models.KindOf(err)

	message := err.Error()
	if kind == models.KindInternal {
		observability.WithContext(r.Context()).Errorf("request failed: %v", err)
		message = "Internal server error."
	}

	respondJSON(w, statusForKind(kind), models.ErrorResponse{
		Error: message,
		Kind:  kind.String(),
	})
}

func statusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
