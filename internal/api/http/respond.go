package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/logger"
	"lendhub-backend/internal/security"
	"lendhub-backend/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// writeError maps the services' error kinds onto HTTP status codes. Unknown
// errors are logged and hidden behind a generic 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, security.ErrInvalidToken),
		errors.Is(err, security.ErrExpiredToken),
		errors.Is(err, security.ErrWrongTokenType):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrAlreadyCanceled),
		errors.Is(err, domain.ErrInsufficientCapacity):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidRange),
		errors.Is(err, domain.ErrInvalidHandoutDay),
		errors.Is(err, domain.ErrInvalidReturnDay),
		errors.Is(err, domain.ErrDurationExceeded),
		errors.Is(err, domain.ErrTypeMismatch),
		errors.Is(err, domain.ErrCountMismatch),
		errors.Is(err, domain.ErrOutOfWindow),
		errors.Is(err, domain.ErrNotExtendable):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "error", err)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
