/*
Package discount Coupon validation and usage counting.

Discount CRUD lives elsewhere; this package only decides whether a code can
be applied to an order total, how much it is worth, and guards the usage cap.
*/
package discount

import (
	"strings"
	"time"

	"ecommerce/domain/shared"

	"github.com/shopspring/decimal"
)

// Type 优惠类型
type Type string

const (
	TypePercentage Type = "percentage"
	TypeFixed      Type = "fixed"
)

var hundred = decimal.NewFromInt(100)

// Discount 优惠码
type Discount struct {
	id               string
	code             string
	kind             Type
	value            decimal.Decimal
	startDate        *time.Time
	endDate          *time.Time
	maxUses          *int
	maxDiscountValue *shared.Money
	minOrderTotal    *shared.Money
	usedCount        int
	active           bool
	deleted          bool
}

// CanonicalCode upper-cases and trims a user supplied code.
func CanonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ReconstructionDTO is used by repositories and seeders.
type ReconstructionDTO struct {
	ID               string
	Code             string
	Type             Type
	Value            decimal.Decimal
	StartDate        *time.Time
	EndDate          *time.Time
	MaxUses          *int
	MaxDiscountValue *shared.Money
	MinOrderTotal    *shared.Money
	UsedCount        int
	Active           bool
	Deleted          bool
}

// RebuildFromDTO validates the definition and rebuilds a Discount.
func RebuildFromDTO(dto ReconstructionDTO) (*Discount, error) {
	switch dto.Type {
	case TypePercentage:
		if dto.Value.LessThanOrEqual(decimal.Zero) || dto.Value.GreaterThan(hundred) {
			return nil, ErrInvalidDiscount
		}
	case TypeFixed:
		if dto.Value.LessThanOrEqual(decimal.Zero) {
			return nil, ErrInvalidDiscount
		}
	default:
		return nil, ErrInvalidDiscount
	}
	if dto.MaxUses != nil && *dto.MaxUses < 0 {
		return nil, ErrInvalidDiscount
	}
	return &Discount{
		id:               dto.ID,
		code:             CanonicalCode(dto.Code),
		kind:             dto.Type,
		value:            dto.Value,
		startDate:        dto.StartDate,
		endDate:          dto.EndDate,
		maxUses:          dto.MaxUses,
		maxDiscountValue: dto.MaxDiscountValue,
		minOrderTotal:    dto.MinOrderTotal,
		usedCount:        dto.UsedCount,
		active:           dto.Active,
		deleted:          dto.Deleted,
	}, nil
}

// Evaluate checks the code against now and orderTotal, short-circuiting on
// the first failure, and returns the discount amount. It never changes the
// usage counter.
func (d *Discount) Evaluate(now time.Time, orderTotal shared.Money) (shared.Money, error) {
	if d.deleted {
		return shared.Money{}, NewRejection(d.code, RejectNotFound)
	}
	if !d.active {
		return shared.Money{}, NewRejection(d.code, RejectInactive)
	}
	if d.startDate != nil && now.Before(*d.startDate) {
		return shared.Money{}, NewRejection(d.code, RejectNotStarted)
	}
	if d.endDate != nil && now.After(*d.endDate) {
		return shared.Money{}, NewRejection(d.code, RejectExpired)
	}
	if d.maxUses != nil && d.usedCount >= *d.maxUses {
		return shared.Money{}, NewRejection(d.code, RejectExhausted)
	}
	if d.minOrderTotal != nil && !orderTotal.IsGreaterThanOrEqual(*d.minOrderTotal) {
		return shared.Money{}, newMinOrderError(d.code, *d.minOrderTotal)
	}
	return d.amountFor(orderTotal), nil
}

func (d *Discount) amountFor(orderTotal shared.Money) shared.Money {
	var amount shared.Money
	switch d.kind {
	case TypePercentage:
		raw := decimal.NewFromInt(orderTotal.Amount()).Mul(d.value).Div(hundred).Floor()
		amount = shared.NewMoney(raw.IntPart())
		if d.maxDiscountValue != nil {
			amount = amount.Min(*d.maxDiscountValue)
		}
	case TypeFixed:
		amount = shared.NewMoney(d.value.Floor().IntPart())
	}
	// final total never drops below zero
	if amount.IsGreaterThan(orderTotal) {
		amount = orderTotal
	}
	if amount.IsNegative() {
		amount = shared.Zero()
	}
	return amount
}

func (d *Discount) ID() string                      { return d.id }
func (d *Discount) Code() string                    { return d.code }
func (d *Discount) Type() Type                      { return d.kind }
func (d *Discount) Value() decimal.Decimal          { return d.value }
func (d *Discount) StartDate() *time.Time           { return d.startDate }
func (d *Discount) EndDate() *time.Time             { return d.endDate }
func (d *Discount) MaxUses() *int                   { return d.maxUses }
func (d *Discount) MaxDiscountValue() *shared.Money { return d.maxDiscountValue }
func (d *Discount) MinOrderTotal() *shared.Money    { return d.minOrderTotal }
func (d *Discount) UsedCount() int                  { return d.usedCount }
func (d *Discount) Active() bool                    { return d.active }
func (d *Discount) Deleted() bool                   { return d.deleted }

// Application is a validated discount ready to be attached to an order.
type Application struct {
	DiscountID string
	Code       string
	Amount     shared.Money
}
