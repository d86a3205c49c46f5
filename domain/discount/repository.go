package discount

import "context"

type Repository interface {
	// FindByCode looks up a canonical (upper-cased) code, including soft-deleted rows.
	FindByCode(ctx context.Context, code string) (*Discount, error)

	FindByID(ctx context.Context, id string) (*Discount, error)

	// IncrementUsage adds one to used_count only while the cap is not reached.
	// It reports false when no row was updated.
	IncrementUsage(ctx context.Context, id string) (bool, error)
}
