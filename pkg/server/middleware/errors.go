package middleware

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the JSON error body returned by the evaluation service.
type ErrorResponse struct {
	// Error contains the error details.
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error.
	Type string `json:"type"`

	// Kind is the evaluation error kind, when the error comes from a rule.
	Kind string `json:"kind,omitempty"`
}

// Error type constants.
const (
	// ErrorTypeInvalidRequest indicates a client-side error (400).
	ErrorTypeInvalidRequest = "invalid_request_error"

	// ErrorTypeNotFound indicates a resource was not found (404).
	ErrorTypeNotFound = "not_found"

	// ErrorTypeRequestTooLarge indicates an oversized request body (413).
	ErrorTypeRequestTooLarge = "request_too_large"

	// ErrorTypeServerError indicates an internal server error (500).
	ErrorTypeServerError = "server_error"

	// ErrorTypeServiceUnavailable indicates no ruleset is loaded (503).
	ErrorTypeServiceUnavailable = "service_unavailable"

	// ErrorTypeTimeout indicates the request ran out of time (504).
	ErrorTypeTimeout = "timeout"
)

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, errType, message string) {
	WriteErrorResponse(w, status, ErrorResponse{Error: ErrorDetail{Type: errType, Message: message}})
}

// WriteErrorResponse writes a prepared JSON error response.
func WriteErrorResponse(w http.ResponseWriter, status int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
