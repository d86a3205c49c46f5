/*
Package inventory - 库存台账领域错误定义

所有哨兵错误都包裹 shared 中的分类错误，API 层只需识别 shared 分类即可映射状态码。
*/
package inventory

import (
	"fmt"
	"strconv"

	"ecommerce/domain/shared"
)

var (
	// ErrStockNotFound 商品尚未建立库存行
	ErrStockNotFound = fmt.Errorf("stock %w", shared.ErrNotFound)

	// ErrStockAlreadyExists createInitial 时库存行已存在
	ErrStockAlreadyExists = fmt.Errorf("stock already exists: %w", shared.ErrConflict)

	// ErrInsufficientStock 变动后数量为负
	ErrInsufficientStock = fmt.Errorf("stock: %w", shared.ErrInsufficientStock)

	// ErrInvalidChange 变动量非法（为 0 或初始数量为负）
	ErrInvalidChange = fmt.Errorf("stock change: %w", shared.ErrInvalidInput)

	// ErrInvalidReason 变动原因组合非法
	ErrInvalidReason = fmt.Errorf("stock reason: %w", shared.ErrInvalidInput)
)

func NewStockNotFoundError(productID string) error {
	return &stockDomainError{
		sentinel: ErrStockNotFound,
		message:  "stock not found for product " + productID,
		stack:    shared.CaptureStack(3),
	}
}

func NewStockAlreadyExistsError(productID string) error {
	return &stockDomainError{
		sentinel: ErrStockAlreadyExists,
		message:  "stock already exists for product " + productID,
		stack:    shared.CaptureStack(3),
	}
}

func NewInsufficientStockError(productID string, available, requested int) error {
	return &stockDomainError{
		sentinel: ErrInsufficientStock,
		message: "insufficient stock for product " + productID +
			": available " + strconv.Itoa(available) + ", requested " + strconv.Itoa(requested),
		stack: shared.CaptureStack(3),
	}
}

func newInvalidChangeError(message string) error {
	return &stockDomainError{
		sentinel: ErrInvalidChange,
		field:    "change",
		message:  message,
		stack:    shared.CaptureStack(3),
	}
}

type stockDomainError struct {
	sentinel error
	field    string
	message  string
	stack    []uintptr
}

func (e *stockDomainError) Error() string { return e.message }

func (e *stockDomainError) Unwrap() error { return e.sentinel }

func (e *stockDomainError) Stack() []string { return shared.FormatStack(e.stack) }
