package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yourorg/projectflow/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps the client core's sentinel errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrEmptyField), errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidDate), errors.Is(err, domain.ErrAlreadyApproved),
		errors.Is(err, domain.ErrNoPendingConfirm):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrCircuitOpen):
		writeError(w, http.StatusServiceUnavailable, "upstream temporarily unavailable")
	default:
		writeError(w, http.StatusBadGateway, "upstream request failed")
	}
}
