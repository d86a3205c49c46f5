package productreturn

import (
	"context"

	"ecommerce/domain/shared"
)

// Filter narrows staff listings; zero values mean "any".
type Filter struct {
	Status  Status
	OrderID string
	UserID  string
}

type Repository interface {
	Create(ctx context.Context, r *ProductReturn) error
	FindByID(ctx context.Context, id string) (*ProductReturn, error)
	FindByOrderItemID(ctx context.Context, orderItemID string) ([]*ProductReturn, error)
	FindByOrderIDs(ctx context.Context, orderIDs []string) ([]*ProductReturn, error)
	FindAll(ctx context.Context, filter Filter, page shared.Page) ([]*ProductReturn, int64, error)

	// UpdateStatus writes r's status only if the stored status still equals
	// from. It fails with ErrReturnModified when no row matched.
	UpdateStatus(ctx context.Context, r *ProductReturn, from Status) error
}
