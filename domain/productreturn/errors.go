package productreturn

import (
	"fmt"

	"ecommerce/domain/shared"
)

var (
	ErrReturnNotFound = fmt.Errorf("product return %w", shared.ErrNotFound)

	// ErrInvalidReturnRequest 请求本身不满足退货条件（订单状态、数量、已有退货）
	ErrInvalidReturnRequest = fmt.Errorf("return request: %w", shared.ErrInvalidInput)

	// ErrInvalidReturnTransition 退货状态流转非法
	ErrInvalidReturnTransition = fmt.Errorf("return status: %w", shared.ErrInvalidState)

	// ErrReturnModified 条件更新时状态已被他人修改
	ErrReturnModified = fmt.Errorf("return was modified concurrently: %w", shared.ErrConflict)
)

func NewReturnNotFoundError(returnID string) error {
	return &returnDomainError{
		sentinel: ErrReturnNotFound,
		message:  "product return not found: " + returnID,
		stack:    shared.CaptureStack(3),
	}
}

func NewInvalidReturnRequestError(message string) error {
	return &returnDomainError{
		sentinel: ErrInvalidReturnRequest,
		message:  message,
		stack:    shared.CaptureStack(3),
	}
}

func NewInvalidTransitionError(from, to Status) error {
	return &returnDomainError{
		sentinel: ErrInvalidReturnTransition,
		message:  "cannot change return status from " + string(from) + " to " + string(to),
		stack:    shared.CaptureStack(3),
	}
}

type returnDomainError struct {
	sentinel error
	message  string
	stack    []uintptr
}

func (e *returnDomainError) Error() string   { return e.message }
func (e *returnDomainError) Unwrap() error   { return e.sentinel }
func (e *returnDomainError) Stack() []string { return shared.FormatStack(e.stack) }
