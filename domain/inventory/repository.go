package inventory

import "context"

// Repository persists stock rows and their change log.
type Repository interface {
	// FindByProductID reads a stock row without locking it.
	FindByProductID(ctx context.Context, productID string) (*Stock, error)

	// LockByProductID reads a stock row with an exclusive row lock held until
	// the surrounding transaction ends.
	LockByProductID(ctx context.Context, productID string) (*Stock, error)

	// Create inserts a new stock row; fails with ErrStockAlreadyExists.
	Create(ctx context.Context, stock *Stock) error

	// SaveQuantity writes the stock's current quantity.
	SaveQuantity(ctx context.Context, stock *Stock) error

	// AppendLog inserts one log row. Log rows are never updated.
	AppendLog(ctx context.Context, log *Log) error

	// ListLogs returns the most recent log rows for a product, newest first.
	ListLogs(ctx context.Context, productID string, limit int) ([]*Log, error)

	// SumChanges returns the sum of all log changes of a stock row.
	SumChanges(ctx context.Context, stockID string) (int, error)
}
