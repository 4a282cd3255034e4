package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the JSON error body returned by every endpoint.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code, message string, status int, details ...string) *APIError {
	err := &APIError{
		Code:    code,
		Message: message,
		Status:  status,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

// WithDetails returns a copy of e carrying details. Sentinels stay untouched.
func (e *APIError) WithDetails(details string) *APIError {
	cp := *e
	cp.Details = details
	return &cp
}

var (
	ErrInvalidInput = NewAPIError("INVALID_INPUT", "Invalid request data", http.StatusBadRequest)
	ErrUnauthorized = NewAPIError("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	ErrNotFound     = NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrInternal     = NewAPIError("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
	ErrConflict     = NewAPIError("CONFLICT", "Resource conflict", http.StatusConflict)

	ErrNoCredential = NewAPIError("NO_CREDENTIAL", "A map provider access token must be saved before exploring", http.StatusPreconditionRequired)
	ErrStaleRequest = NewAPIError("STALE_REQUEST", "A newer discovery request replaced this one", http.StatusConflict)
)

// Wrap converts err into an APIError, keeping an APIError found anywhere in
// its chain.
func Wrap(err error, code, message string, status int) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return NewAPIError(code, message, status, err.Error())
}
