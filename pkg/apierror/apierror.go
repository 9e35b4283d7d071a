package apierror

import (
	"fmt"
	"net/http"
)

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

// Unauthorized is the single generic authentication failure surfaced to
// callers, regardless of the underlying reason.
func Unauthorized() *APIError {
	return New("UNAUTHORIZED", "authentication failed", "", http.StatusUnauthorized)
}

// Locked reports a temporarily locked account with the unlock timestamp in
// the details field.
func Locked(until string) *APIError {
	return New("ACCOUNT_LOCKED", "account temporarily locked", until, http.StatusLocked)
}
