/*
Package order - 订单领域错误定义

哨兵错误包裹 shared 分类错误；构造函数在创建时捕获堆栈，
skip=3 跳过：runtime.Callers, CaptureStack, NewXxxError。
*/
package order

import (
	"fmt"

	"ecommerce/domain/shared"
)

var (
	// ErrOrderNotFound 订单未找到
	ErrOrderNotFound = fmt.Errorf("order %w", shared.ErrNotFound)

	// ErrOrderItemNotFound 订单项未找到
	ErrOrderItemNotFound = fmt.Errorf("order item %w", shared.ErrNotFound)

	// ErrInvalidOrderState 当前状态不允许该操作
	ErrInvalidOrderState = fmt.Errorf("order: %w", shared.ErrInvalidState)

	// ErrInvalidOrder 创建参数非法（空购物车、数量非法等）
	ErrInvalidOrder = fmt.Errorf("order: %w", shared.ErrInvalidInput)

	// ErrNotOrderOwner 调用方不是订单所有者
	ErrNotOrderOwner = fmt.Errorf("order: %w", shared.ErrForbidden)
)

// NewOrderNotFoundError 创建订单未找到错误（带堆栈）
func NewOrderNotFoundError(orderID string) error {
	return &orderDomainError{
		sentinel: ErrOrderNotFound,
		entity:   "order",
		message:  "order not found: " + orderID,
		stack:    shared.CaptureStack(3),
	}
}

func NewOrderItemNotFoundError(itemID string) error {
	return &orderDomainError{
		sentinel: ErrOrderItemNotFound,
		entity:   "order_item",
		message:  "order item not found: " + itemID,
		stack:    shared.CaptureStack(3),
	}
}

// NewInvalidOrderStateError message 应说明为什么当前状态不允许
func NewInvalidOrderStateError(message string) error {
	return &orderDomainError{
		sentinel: ErrInvalidOrderState,
		entity:   "order",
		message:  message,
		stack:    shared.CaptureStack(3),
	}
}

func NewInvalidTransitionError(from, to Status) error {
	return &orderDomainError{
		sentinel: ErrInvalidOrderState,
		entity:   "order",
		message:  "cannot change order status from " + string(from) + " to " + string(to),
		stack:    shared.CaptureStack(3),
	}
}

func NewInvalidOrderError(field, message string) error {
	return &orderDomainError{
		sentinel: ErrInvalidOrder,
		entity:   "order",
		field:    field,
		message:  message,
		stack:    shared.CaptureStack(3),
	}
}

func NewNotOwnerError(orderID string) error {
	return &orderDomainError{
		sentinel: ErrNotOrderOwner,
		entity:   "order",
		message:  "order " + orderID + " does not belong to the caller",
		stack:    shared.CaptureStack(3),
	}
}

// orderDomainError 订单领域错误（带堆栈）
type orderDomainError struct {
	sentinel error
	entity   string
	field    string
	message  string
	stack    []uintptr
}

func (e *orderDomainError) Error() string {
	return e.message
}

func (e *orderDomainError) Unwrap() error {
	return e.sentinel
}

// Stack 实现 shared.Stacker 接口
func (e *orderDomainError) Stack() []string {
	if len(e.stack) == 0 {
		return nil
	}
	return shared.FormatStack(e.stack)
}
