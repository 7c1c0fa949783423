package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents one of the kinds in the ledger's error taxonomy.
// Each maps to exactly one HTTP status so the API surface never has to
// re-derive status codes from message text.
type ErrorCode string

const (
	ErrCodeValidation          ErrorCode = "VALIDATION"
	ErrCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrCodeConflict            ErrorCode = "CONFLICT"
	ErrCodeAuth                ErrorCode = "AUTH"
	ErrCodeForbidden           ErrorCode = "FORBIDDEN"
	ErrCodeStaleReconciliation ErrorCode = "STALE_RECONCILIATION"
	ErrCodeInternal            ErrorCode = "INTERNAL"
)

// AppError represents an application error with a taxonomy kind and message
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements error unwrapping
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithError wraps another error
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(err error, code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// Common error constructors, one per taxonomy kind

// NotFound creates a NOT_FOUND error (404)
func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// Validation creates a VALIDATION error (400)
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message, http.StatusBadRequest)
}

// Unauthorized creates an AUTH error (401)
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "missing or invalid authentication token"
	}
	return New(ErrCodeAuth, message, http.StatusUnauthorized)
}

// Forbidden creates a FORBIDDEN error (403)
func Forbidden(message string) *AppError {
	if message == "" {
		message = "insufficient role for this operation"
	}
	return New(ErrCodeForbidden, message, http.StatusForbidden)
}

// Conflict creates a CONFLICT error (409) — unique-name collision,
// illegal status transition, or double-allocation
func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message, http.StatusConflict)
}

// StaleReconciliation creates a STALE_RECONCILIATION error (409) — a
// correction was attempted against a log whose internal_balance snapshot
// no longer matches the account's recomputed balance
func StaleReconciliation(message string) *AppError {
	if message == "" {
		message = "account balance changed since the reconciliation log was created"
	}
	return New(ErrCodeStaleReconciliation, message, http.StatusConflict)
}

// Internal creates an INTERNAL error (500). Never include the underlying
// error's text in Message — callers log the wrapped Err, not the client.
func Internal(message string) *AppError {
	if message == "" {
		message = "internal server error"
	}
	return New(ErrCodeInternal, message, http.StatusInternalServerError)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// GetStatusCode returns HTTP status code for an error
func GetStatusCode(err error) int {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
