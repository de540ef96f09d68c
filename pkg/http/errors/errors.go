// Package errors provides standardized JSON error responses for the HTTP
// boundary.
package errors

import (
	"encoding/json"
	"net/http"
)

// Error codes.
const (
	ErrCodeAuthenticationRequired = "authentication_required"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeLoginFailed            = "login_failed"

	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"

	ErrCodeNotFound        = "not_found"
	ErrCodeSessionEnded    = "session_ended"
	ErrCodeAlreadyAnswered = "already_answered"
	ErrCodeNoQuestions     = "no_questions"

	ErrCodeRemoteUnavailable = "remote_unavailable"
	ErrCodeRemoteFailed      = "remote_operation_failed"
	ErrCodeInternalError     = "internal_error"
)

// ErrorResponse is the wire shape of every error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RespondError writes a standardized error response.
func RespondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: code, Message: message})
}

// RespondBadRequest writes a bad request error response.
func RespondBadRequest(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusBadRequest, code, message)
}

// RespondUnauthorized writes an unauthorized error response.
func RespondUnauthorized(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusUnauthorized, code, message)
}

// RespondNotFound writes a not found error response.
func RespondNotFound(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusNotFound, code, message)
}

// RespondConflict writes a conflict error response.
func RespondConflict(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusConflict, code, message)
}

// RespondInternalError writes an internal server error response.
func RespondInternalError(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// RespondBadGateway writes an upstream failure response.
func RespondBadGateway(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusBadGateway, code, message)
}
