package usecase

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsHTTPError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"http error", NewHTTPError(http.StatusConflict, "conflict"), http.StatusConflict, "conflict"},
		{"validation", NewValidationError("quantity", "is not a valid integer"), http.StatusBadRequest, "validation_failed"},
		{"store write", storeWriteError("insert_donation", "order:1", errors.New("disk full")), http.StatusInternalServerError, "store_write_failed"},
		{"not found", fmt.Errorf("fetch: %w", ErrPaymentNotFound), http.StatusNotFound, "payment_not_found"},
		{"incomplete", ErrPaymentIncomplete, http.StatusAccepted, "payment_incomplete"},
		{"secret", ErrSecretMismatch, http.StatusUnauthorized, "unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			he, ok := AsHTTPError(tt.err)
			require.True(t, ok)
			assert.Equal(t, tt.status, he.Status)
			assert.Equal(t, tt.message, he.Message)
		})
	}
}

func TestAsHTTPError_Unknown(t *testing.T) {
	_, ok := AsHTTPError(errors.New("boom"))
	assert.False(t, ok)

	_, ok = AsHTTPError(nil)
	assert.False(t, ok)
}

func TestStoreWriteError_KeepsKeyAndCause(t *testing.T) {
	cause := errors.New("disk full")
	err := storeWriteError("increment_raised", "cause:1", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "key=cause:1")
}
