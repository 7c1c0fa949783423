package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeNotFound, "account not found", http.StatusNotFound)

	assert.Equal(t, ErrCodeNotFound, err.Code)
	assert.Equal(t, "account not found", err.Message)
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
}

func TestAppError_Error(t *testing.T) {
	err := New(ErrCodeValidation, "invalid input", http.StatusBadRequest)
	assert.Equal(t, "VALIDATION: invalid input", err.Error())

	wrapped := Wrap(errors.New("db error"), ErrCodeInternal, "database error", http.StatusInternalServerError)
	assert.Contains(t, wrapped.Error(), "INTERNAL")
	assert.Contains(t, wrapped.Error(), "database error")
	assert.Contains(t, wrapped.Error(), "db error")
}

func TestAppError_WithDetails(t *testing.T) {
	err := Validation("invalid email").
		WithDetails("field", "email").
		WithDetails("reason", "format")

	assert.Equal(t, "email", err.Details["field"])
	assert.Equal(t, "format", err.Details["reason"])
}

func TestAppError_WithError(t *testing.T) {
	underlying := errors.New("connection refused")
	err := Internal("").WithError(underlying)

	assert.Equal(t, underlying, err.Err)
	assert.Equal(t, underlying, err.Unwrap())
}

func TestNotFound(t *testing.T) {
	err := NotFound("account")

	assert.Equal(t, ErrCodeNotFound, err.Code)
	assert.Equal(t, "account not found", err.Message)
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
}

func TestValidation(t *testing.T) {
	err := Validation("invalid amount")

	assert.Equal(t, ErrCodeValidation, err.Code)
	assert.Equal(t, "invalid amount", err.Message)
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
}

func TestUnauthorized(t *testing.T) {
	err := Unauthorized("")
	assert.Equal(t, ErrCodeAuth, err.Code)
	assert.Equal(t, http.StatusUnauthorized, err.StatusCode)
	assert.NotEmpty(t, err.Message)

	err = Unauthorized("token expired")
	assert.Equal(t, "token expired", err.Message)
}

func TestForbidden(t *testing.T) {
	err := Forbidden("")
	assert.Equal(t, ErrCodeForbidden, err.Code)
	assert.Equal(t, http.StatusForbidden, err.StatusCode)
	assert.NotEmpty(t, err.Message)
}

func TestConflict(t *testing.T) {
	err := Conflict("allocation rule name already in use")

	assert.Equal(t, ErrCodeConflict, err.Code)
	assert.Equal(t, http.StatusConflict, err.StatusCode)
}

func TestStaleReconciliation(t *testing.T) {
	err := StaleReconciliation("")

	assert.Equal(t, ErrCodeStaleReconciliation, err.Code)
	assert.Equal(t, http.StatusConflict, err.StatusCode)
	assert.NotEmpty(t, err.Message)

	err = StaleReconciliation("balance moved since snapshot")
	assert.Equal(t, "balance moved since snapshot", err.Message)
}

func TestInternal(t *testing.T) {
	err := Internal("")
	assert.Equal(t, ErrCodeInternal, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
	assert.NotEmpty(t, err.Message)
}

func TestIsAppError(t *testing.T) {
	appErr := NotFound("account")
	stdErr := errors.New("standard error")

	assert.True(t, IsAppError(appErr))
	assert.False(t, IsAppError(stdErr))
}

func TestGetAppError(t *testing.T) {
	appErr := NotFound("account")
	stdErr := errors.New("standard error")

	extracted := GetAppError(appErr)
	assert.NotNil(t, extracted)
	assert.Equal(t, ErrCodeNotFound, extracted.Code)

	extracted = GetAppError(stdErr)
	assert.Nil(t, extracted)
}

func TestGetStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "AppError returns correct status",
			err:      NotFound("account"),
			expected: http.StatusNotFound,
		},
		{
			name:     "StaleReconciliation returns 409",
			err:      StaleReconciliation(""),
			expected: http.StatusConflict,
		},
		{
			name:     "standard error returns 500",
			err:      errors.New("standard error"),
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := GetStatusCode(tt.err)
			assert.Equal(t, tt.expected, status)
		})
	}
}
