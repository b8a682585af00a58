package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prepquest/prepquest-server/internal/domain"
)

// Standard response types for consistent API responses

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	buf := getBuffer()
	defer putBuffer(buf)

	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		// Headers are already sent, all we can do is log.
		slog.Error("Failed to encode JSON response", "error", err)
		return
	}

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// User-facing error messages for service errors
const (
	ErrMsgGenericServerError = "Something went wrong"
	ErrMsgUnknownError       = "Unknown error"

	ErrMsgQuestNotFoundError    = "Quest not found"
	ErrMsgBadgeNotFoundError    = "Badge not found"
	ErrMsgInvalidOptionError    = "That answer option does not exist"
	ErrMsgNotScenarioError      = "That quest has no answer options"
	ErrMsgNoIdentityError       = "No account linked. Link an account first."
	ErrMsgIdentityAttachedError = "A different account is already linked"
	ErrMsgInvalidIdentityError  = "Invalid account ID"
	ErrMsgRemoteNotFoundError   = "No saved progress found for this account"
	ErrMsgLocalNewerError       = "Local progress is newer than the saved copy"
)

// mapServiceErrorToUserMessage maps domain errors to user-friendly HTTP responses
func mapServiceErrorToUserMessage(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgUnknownError
	}

	switch {
	case errors.Is(err, domain.ErrQuestNotFound):
		return http.StatusNotFound, ErrMsgQuestNotFoundError
	case errors.Is(err, domain.ErrBadgeNotFound):
		return http.StatusNotFound, ErrMsgBadgeNotFoundError
	case errors.Is(err, domain.ErrInvalidOption):
		return http.StatusBadRequest, ErrMsgInvalidOptionError
	case errors.Is(err, domain.ErrNotScenario):
		return http.StatusBadRequest, ErrMsgNotScenarioError
	case errors.Is(err, domain.ErrNoIdentity):
		return http.StatusConflict, ErrMsgNoIdentityError
	case errors.Is(err, domain.ErrIdentityAttached):
		return http.StatusConflict, ErrMsgIdentityAttachedError
	case errors.Is(err, domain.ErrInvalidIdentity):
		return http.StatusBadRequest, ErrMsgInvalidIdentityError
	case errors.Is(err, domain.ErrRemoteNotFound):
		return http.StatusNotFound, ErrMsgRemoteNotFoundError
	case errors.Is(err, domain.ErrLocalNewer):
		return http.StatusConflict, ErrMsgLocalNewerError
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrMsgInvalidRequest
	}

	return http.StatusInternalServerError, ErrMsgGenericServerError
}
