package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFound(t *testing.T) {
	err := NotFound("product", "p1")

	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.Contains(t, err.Message, "product")
	assert.Contains(t, err.Message, "p1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestInsufficientStock(t *testing.T) {
	err := InsufficientStock("Blue Hoodie", 2, 5)

	assert.Equal(t, "INSUFFICIENT_STOCK", err.Code)
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.Contains(t, err.Message, "Blue Hoodie")
	assert.Contains(t, err.Message, "2 available")
	assert.Contains(t, err.Message, "5 requested")
	assert.True(t, errors.Is(err, ErrInsufficientStock))
}

func TestConflict(t *testing.T) {
	err := Conflict("order is not pending")

	assert.Equal(t, "CONFLICT", err.Code)
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal(cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "INTERNAL_ERROR")
}

func TestWrap_PreservesChain(t *testing.T) {
	err := Wrap(ErrNotFound, "load cart")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "load cart")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrConflict, http.StatusConflict},
		{ErrInsufficientStock, http.StatusConflict},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
		{fmt.Errorf("create order: %w", InsufficientStock("x", 0, 1)), http.StatusConflict},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, HTTPStatus(tt.err), "error: %v", tt.err)
	}
}
