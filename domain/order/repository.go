package order

import (
	"context"

	"ecommerce/domain/shared"
)

// Repository Order aggregate store. Implementations join the transaction
// carried by ctx when there is one.
type Repository interface {
	// Create persists the order and its items together.
	Create(ctx context.Context, o *Order) error

	// Update applies the patch unconditionally. Missing orders yield ErrOrderNotFound.
	Update(ctx context.Context, id string, patch Patch) error

	// UpdateIfUnpaid applies the patch only while payment_status is unpaid, as
	// one atomic statement. It returns the re-read order when exactly one row
	// changed and nil when the guard did not hold.
	UpdateIfUnpaid(ctx context.Context, id string, patch Patch) (*Order, error)

	FindByID(ctx context.Context, id string) (*Order, error)

	// FindByUserID returns the user's orders, newest first.
	FindByUserID(ctx context.Context, userID string) ([]*Order, error)

	// FindBySpecification returns one page of matching orders, newest first,
	// plus the total match count.
	FindBySpecification(ctx context.Context, spec shared.Specification[*Order], page shared.Page) ([]*Order, int64, error)

	// FindItem returns a single line item by id.
	FindItem(ctx context.Context, itemID string) (OrderItem, error)
}
