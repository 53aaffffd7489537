package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"jee-exam-service/internal/domain"
)

var (
	errNotOwner           = errors.New("submission belongs to another user")
	errBadRequest         = errors.New("malformed request")
	errUnsupportedMessage = fmt.Errorf("%w: unsupported message type", errBadRequest)
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrMissingUser):
		return http.StatusUnauthorized
	case errors.Is(err, errNotOwner),
		errors.Is(err, domain.ErrAttemptNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAnswer),
		errors.Is(err, domain.ErrInvalidPaper),
		errors.Is(err, domain.ErrInvalidDimension),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError hides internal error text behind a generic message.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		message = "internal error"
	}
	respondJSON(w, status, errorResponse{Error: message, Code: status})
}
