package mocks

import (
	"context"

	"ecommerce/domain/discount"
	"ecommerce/domain/shared"
)

type DiscountRepository struct {
	store *Store
}

func NewDiscountRepository(store *Store) *DiscountRepository {
	return &DiscountRepository{store: store}
}

func (r *DiscountRepository) FindByCode(ctx context.Context, code string) (*discount.Discount, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, dto := range r.store.data.discounts {
		if dto.Code == code {
			return discount.RebuildFromDTO(dto)
		}
	}
	return nil, shared.NewNotFoundError("discount")
}

func (r *DiscountRepository) FindByID(ctx context.Context, id string) (*discount.Discount, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	dto, ok := r.store.data.discounts[id]
	if !ok {
		return nil, shared.NewNotFoundError("discount")
	}
	return discount.RebuildFromDTO(dto)
}

// IncrementUsage mirrors UPDATE ... SET used_count = used_count + 1
// WHERE id = ? AND (max_uses IS NULL OR used_count < max_uses).
func (r *DiscountRepository) IncrementUsage(ctx context.Context, id string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	dto, ok := r.store.data.discounts[id]
	if !ok {
		return false, nil
	}
	if dto.MaxUses != nil && dto.UsedCount >= *dto.MaxUses {
		return false, nil
	}
	dto.UsedCount++
	r.store.data.discounts[id] = dto
	return true, nil
}

var _ discount.Repository = (*DiscountRepository)(nil)
