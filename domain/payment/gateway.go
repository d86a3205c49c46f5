/*
Package payment defines the port to a redirect-based payment provider.

The gateway holds no order state: it only signs outbound redirect requests
and verifies inbound callbacks. Marking orders paid is the workflow's job.
*/
package payment

import (
	"fmt"

	"ecommerce/domain/shared"
)

// ErrVerificationFailed 回调签名无效
var ErrVerificationFailed = fmt.Errorf("payment callback: %w", shared.ErrVerificationFailed)

// RedirectRequest 发起支付所需参数
type RedirectRequest struct {
	OrderID   string
	Amount    shared.Money
	ClientIP  string
	OrderInfo string
}

// CallbackResult 已通过签名校验的回调结果
type CallbackResult struct {
	IsSuccess     bool
	OrderID       string
	TransactionID string
	Amount        shared.Money
	ResponseCode  string
}

// Gateway 支付网关适配器
type Gateway interface {
	BuildRedirectURL(req RedirectRequest) (string, error)

	// VerifyCallback fails with ErrVerificationFailed when the signature does
	// not match. A verified but unsuccessful payment returns IsSuccess=false.
	VerifyCallback(params map[string]string) (*CallbackResult, error)
}

// NewVerificationError wraps a verification failure with detail.
func NewVerificationError(detail string) error {
	return &shared.DomainError{
		Err:     ErrVerificationFailed,
		Entity:  "payment",
		Message: "payment callback verification failed: " + detail,
	}
}
