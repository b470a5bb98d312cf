package http

import (
	"encoding/json"
	"net/http"

	"lendtrust-backend/internal/domain"
	"lendtrust-backend/internal/logger"
)

// statusFor maps a domain error kind to an HTTP status code. Handlers never
// inspect error strings.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrUnauthorized:
		return http.StatusForbidden
	case domain.ErrInvalidState:
		return http.StatusConflict
	case domain.ErrValidation:
		return http.StatusBadRequest
	case domain.ErrNegotiationExceeded:
		return http.StatusConflict
	case domain.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	message := err.Error()
	if kind == domain.ErrInternal {
		logger.Error("Request failed", "error", err)
		message = "Internal server error"
	}
	respondJSON(w, statusFor(kind), map[string]string{
		"error":   string(kind),
		"message": message,
	})
}

func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return domain.Validation("Request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Validation("Invalid request body")
	}
	return nil
}
