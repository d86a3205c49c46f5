package discount

import (
	"fmt"

	"ecommerce/domain/shared"
)

var (
	// ErrDiscountRejected 优惠码不可用（软拒绝，附带原因）
	ErrDiscountRejected = fmt.Errorf("discount rejected: %w", shared.ErrInvalidInput)

	// ErrMinOrderTotalNotMet 订单金额未达门槛（硬错误）
	ErrMinOrderTotalNotMet = fmt.Errorf("order total below discount minimum: %w", shared.ErrInvalidInput)

	// ErrInvalidDiscount 优惠定义非法
	ErrInvalidDiscount = fmt.Errorf("invalid discount: %w", shared.ErrInvalidInput)
)

// RejectionReason 软拒绝原因
type RejectionReason string

const (
	RejectNotFound   RejectionReason = "not_found"
	RejectInactive   RejectionReason = "inactive"
	RejectNotStarted RejectionReason = "not_started"
	RejectExpired    RejectionReason = "expired"
	RejectExhausted  RejectionReason = "exhausted"
)

var rejectionMessages = map[RejectionReason]string{
	RejectNotFound:   "discount code does not exist",
	RejectInactive:   "discount code is not active",
	RejectNotStarted: "discount code is not valid yet",
	RejectExpired:    "discount code has expired",
	RejectExhausted:  "discount code has reached its usage limit",
}

// Rejection is returned when a code exists in the request but cannot be
// applied. It unwraps to ErrDiscountRejected.
type Rejection struct {
	Code   string
	Reason RejectionReason
	stack  []uintptr
}

func NewRejection(code string, reason RejectionReason) error {
	return &Rejection{Code: code, Reason: reason, stack: shared.CaptureStack(3)}
}

func (r *Rejection) Error() string {
	msg, ok := rejectionMessages[r.Reason]
	if !ok {
		msg = "discount code cannot be applied"
	}
	return msg + ": " + r.Code
}

func (r *Rejection) Unwrap() error { return ErrDiscountRejected }

func (r *Rejection) Stack() []string { return shared.FormatStack(r.stack) }

func newMinOrderError(code string, min shared.Money) error {
	return &shared.DomainError{
		Err:     ErrMinOrderTotalNotMet,
		Entity:  "discount",
		Field:   "order_total",
		Message: fmt.Sprintf("order total must be at least %d to use discount %s", min.Amount(), code),
	}
}
