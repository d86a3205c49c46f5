package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"ecommerce/domain/inventory"
	"ecommerce/domain/order"
	"ecommerce/domain/shared"

	"github.com/stretchr/testify/assert"
)

func TestFromDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   ErrorCode
		status int
	}{
		{"not found", order.NewOrderNotFoundError("o1"), CodeNotFound, http.StatusNotFound},
		{"invalid state", order.NewInvalidOrderStateError("nope"), CodeInvalidState, http.StatusConflict},
		{"insufficient stock", inventory.NewInsufficientStockError("p1", 1, 2), CodeInsufficientStock, http.StatusConflict},
		{"invalid input", shared.NewValidationError("order", "items", "cart is empty"), CodeInvalidInput, http.StatusBadRequest},
		{"forbidden", order.NewNotOwnerError("o1"), CodeForbidden, http.StatusForbidden},
		{"conflict", shared.NewConflictError("stock", "exists"), CodeConflict, http.StatusConflict},
		{"verification", fmt.Errorf("bad hash: %w", shared.ErrVerificationFailed), CodeVerificationFailed, http.StatusBadRequest},
		{"unavailable", shared.NewUnavailableError("database", errors.New("dial tcp")), CodeUnavailable, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := FromDomainError(tt.err)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.status, appErr.HTTPStatusCode())
			assert.ErrorIs(t, appErr, tt.err)
		})
	}
}

func TestFromDomainErrorHidesInternalMessages(t *testing.T) {
	appErr := FromDomainError(errors.New("dsn root:secret@tcp"))
	assert.Equal(t, "internal server error", appErr.Message)

	appErr = FromDomainError(shared.NewUnavailableError("database", errors.New("root:secret")))
	assert.NotContains(t, appErr.Message, "secret")
}

func TestFromDomainErrorPassesAppErrorThrough(t *testing.T) {
	original := Unauthorized("missing token")
	assert.Same(t, original, FromDomainError(fmt.Errorf("wrapped: %w", original)))
	assert.Nil(t, FromDomainError(nil))
	assert.True(t, Is(original, CodeUnauthorized))
}
