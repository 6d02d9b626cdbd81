package api

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/portfolio-engine/internal/errors"
)

// Common error codes.
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// errorBody is the wire shape of an API error.
type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse wraps an API error.
type ErrorResponse struct {
	Error errorBody `json:"error"`
}

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]any) {
	respondJSON(w, statusCode, ErrorResponse{Error: errorBody{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// respondAppError translates a categorized error into an HTTP response,
// keeping its code and details when present.
func respondAppError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		respondError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	respondError(w, status, ErrCodeInternalError, "an internal error occurred", nil)
}
