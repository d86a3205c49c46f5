/*
Package discount Application Layer - Discount Validator

Validate is read-only; the usage counter only moves through RecordUsage,
which the order workflow calls once per created order inside its own
transaction.
*/
package discount

import (
	"context"
	"errors"
	"time"

	"ecommerce/domain/discount"
	"ecommerce/domain/shared"
)

type Validator struct {
	repo discount.Repository
	now  func() time.Time
}

func NewValidator(repo discount.Repository) *Validator {
	return &Validator{repo: repo, now: time.Now}
}

// PreviewResponse is the read-only answer to "what would this code give me".
type PreviewResponse struct {
	Code           string `json:"code"`
	DiscountAmount int64  `json:"discount_amount"`
	FinalTotal     int64  `json:"final_total"`
}

// Validate looks the code up case-insensitively and evaluates it against
// orderTotal. Unknown codes are a rejection, not a NotFound.
func (v *Validator) Validate(ctx context.Context, code string, orderTotal shared.Money) (*discount.Application, error) {
	canonical := discount.CanonicalCode(code)
	if canonical == "" {
		return nil, discount.NewRejection(canonical, discount.RejectNotFound)
	}

	d, err := v.repo.FindByCode(ctx, canonical)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, discount.NewRejection(canonical, discount.RejectNotFound)
		}
		return nil, err
	}

	amount, err := d.Evaluate(v.now(), orderTotal)
	if err != nil {
		return nil, err
	}
	return &discount.Application{DiscountID: d.ID(), Code: d.Code(), Amount: amount}, nil
}

// RecordUsage consumes one use. Losing the race for the last use is reported
// as an exhausted rejection so the surrounding order rolls back.
func (v *Validator) RecordUsage(ctx context.Context, discountID string) error {
	ok, err := v.repo.IncrementUsage(ctx, discountID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	d, err := v.repo.FindByID(ctx, discountID)
	if err != nil {
		return err
	}
	return discount.NewRejection(d.Code(), discount.RejectExhausted)
}

// Preview validates without consuming a use.
func (v *Validator) Preview(ctx context.Context, code string, orderTotal int64) (*PreviewResponse, error) {
	if orderTotal < 0 {
		return nil, shared.NewValidationError("discount", "order_total", "order total must not be negative")
	}
	total := shared.NewMoney(orderTotal)
	applied, err := v.Validate(ctx, code, total)
	if err != nil {
		return nil, err
	}
	return &PreviewResponse{
		Code:           applied.Code,
		DiscountAmount: applied.Amount.Amount(),
		FinalTotal:     total.Subtract(applied.Amount).Amount(),
	}, nil
}
