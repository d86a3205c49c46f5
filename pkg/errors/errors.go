package errors

import (
	"errors"
	"fmt"
	"net/http"

	"ecommerce/domain/shared"
)

// ErrorCode 错误码
type ErrorCode string

const (
	CodeInternal           ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput       ErrorCode = "INVALID_INPUT"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeConflict           ErrorCode = "CONFLICT"
	CodeInvalidState       ErrorCode = "INVALID_STATE"
	CodeInsufficientStock  ErrorCode = "INSUFFICIENT_STOCK"
	CodeVerificationFailed ErrorCode = "VERIFICATION_FAILED"
	CodeTooManyRequest     ErrorCode = "TOO_MANY_REQUESTS"
	CodeUnavailable        ErrorCode = "SERVICE_UNAVAILABLE"
)

// AppError 应用错误
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode 返回对应的HTTP状态码
func (e *AppError) HTTPStatusCode() int {
	switch e.Code {
	case CodeInvalidInput, CodeVerificationFailed:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvalidState, CodeInsufficientStock:
		return http.StatusConflict
	case CodeTooManyRequest:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// New 创建新错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// 常用错误构造函数

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message)
}

func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message)
}

func TooManyRequests(message string) *AppError {
	return New(CodeTooManyRequest, message)
}

// Is 检查是否为特定错误码
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// sentinel → code, checked in order; the first match wins
var domainCodes = []struct {
	sentinel error
	code     ErrorCode
}{
	{shared.ErrUnavailable, CodeUnavailable},
	{shared.ErrInsufficientStock, CodeInsufficientStock},
	{shared.ErrVerificationFailed, CodeVerificationFailed},
	{shared.ErrNotFound, CodeNotFound},
	{shared.ErrInvalidState, CodeInvalidState},
	{shared.ErrInvalidInput, CodeInvalidInput},
	{shared.ErrConflict, CodeConflict},
	{shared.ErrForbidden, CodeForbidden},
	{shared.ErrUnauthorized, CodeUnauthorized},
}

// FromDomainError 将领域错误映射为应用错误。
// 业务错误保留原始消息；未识别的错误一律视为内部错误，消息不外泄。
func FromDomainError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	for _, m := range domainCodes {
		if errors.Is(err, m.sentinel) {
			if m.code == CodeUnavailable {
				return Wrap(err, m.code, "service temporarily unavailable")
			}
			return Wrap(err, m.code, err.Error())
		}
	}
	return Wrap(err, CodeInternal, "internal server error")
}
