package apierror

import (
	"fmt"
	"net/http"
	"strings"
)

// APIError carries a machine-readable code, a client-safe message and the
// HTTP status to respond with. Details holds per-field messages for
// validation failures and is omitted otherwise.
type APIError struct {
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	Details    []string `json:"details,omitempty"`
	HTTPStatus int      `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if len(e.Details) > 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(e.Details, "; "))
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, message string, status int) *APIError {
	return &APIError{Code: code, Message: message, HTTPStatus: status}
}

// Validation builds a 400 carrying every violated rule so the client can
// report them all at once.
func Validation(message string, violations []string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		Details:    violations,
		HTTPStatus: http.StatusBadRequest,
	}
}
