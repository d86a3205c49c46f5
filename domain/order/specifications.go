package order

import (
	"context"
	"time"

	"ecommerce/domain/shared"
)

// ByUserIDSpecification filters orders by user ID
type ByUserIDSpecification struct {
	UserID string
}

func (spec ByUserIDSpecification) IsSatisfiedBy(ctx context.Context, entity *Order) bool {
	return entity.UserID() == spec.UserID
}

// ByStatusSpecification filters orders by status
type ByStatusSpecification struct {
	Status Status
}

func (spec ByStatusSpecification) IsSatisfiedBy(ctx context.Context, entity *Order) bool {
	return entity.Status() == spec.Status
}

// ByPaymentStatusSpecification filters orders by payment status
type ByPaymentStatusSpecification struct {
	PaymentStatus PaymentStatus
}

func (spec ByPaymentStatusSpecification) IsSatisfiedBy(ctx context.Context, entity *Order) bool {
	return entity.PaymentStatus() == spec.PaymentStatus
}

// ByPaymentMethodSpecification filters orders by payment method
type ByPaymentMethodSpecification struct {
	PaymentMethod PaymentMethod
}

func (spec ByPaymentMethodSpecification) IsSatisfiedBy(ctx context.Context, entity *Order) bool {
	return entity.PaymentMethod() == spec.PaymentMethod
}

// ByDateRangeSpecification filters orders by creation date range
// Both Start and End are optional - if zero, they are ignored
type ByDateRangeSpecification struct {
	Start time.Time
	End   time.Time
}

// IsSatisfiedBy returns true if the order was created within the date range
func (spec ByDateRangeSpecification) IsSatisfiedBy(ctx context.Context, entity *Order) bool {
	createdAt := entity.CreatedAt()

	if !spec.Start.IsZero() && createdAt.Before(spec.Start) {
		return false
	}
	if !spec.End.IsZero() && createdAt.After(spec.End) {
		return false
	}
	return true
}

// Filter is the staff listing criteria. Zero values mean "any".
type Filter struct {
	UserID        string
	Status        Status
	PaymentStatus PaymentStatus
	PaymentMethod PaymentMethod
	From          time.Time
	To            time.Time
}

// Specification combines the set criteria; nil means no filtering.
func (f Filter) Specification() shared.Specification[*Order] {
	var specs []shared.Specification[*Order]
	if f.UserID != "" {
		specs = append(specs, ByUserIDSpecification{UserID: f.UserID})
	}
	if f.Status != "" {
		specs = append(specs, ByStatusSpecification{Status: f.Status})
	}
	if f.PaymentStatus != "" {
		specs = append(specs, ByPaymentStatusSpecification{PaymentStatus: f.PaymentStatus})
	}
	if f.PaymentMethod != "" {
		specs = append(specs, ByPaymentMethodSpecification{PaymentMethod: f.PaymentMethod})
	}
	if !f.From.IsZero() || !f.To.IsZero() {
		specs = append(specs, ByDateRangeSpecification{Start: f.From, End: f.To})
	}
	return shared.And(specs...)
}
