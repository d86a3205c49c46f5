package mocks

import (
	"context"

	"ecommerce/domain/order"
	"ecommerce/domain/shared"
)

// OrderRepository in-memory order store
type OrderRepository struct {
	store *Store
}

func NewOrderRepository(store *Store) *OrderRepository {
	return &OrderRepository{store: store}
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.data.orders[o.ID()]; exists {
		return shared.NewConflictError("order", "order already exists: "+o.ID())
	}
	r.store.data.orders[o.ID()] = orderToDTO(o)
	return nil
}

func (r *OrderRepository) Update(ctx context.Context, id string, patch order.Patch) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	dto, ok := r.store.data.orders[id]
	if !ok {
		return order.NewOrderNotFoundError(id)
	}
	o := order.RebuildFromDTO(dto)
	o.ApplyPatch(patch)
	r.store.data.orders[id] = orderToDTO(o)
	return nil
}

// UpdateIfUnpaid checks and writes under one lock, like a single UPDATE ... WHERE.
func (r *OrderRepository) UpdateIfUnpaid(ctx context.Context, id string, patch order.Patch) (*order.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	dto, ok := r.store.data.orders[id]
	if !ok || dto.PaymentStatus != order.PaymentUnpaid {
		return nil, nil
	}
	o := order.RebuildFromDTO(dto)
	o.ApplyPatch(patch)
	updated := orderToDTO(o)
	r.store.data.orders[id] = updated
	return order.RebuildFromDTO(updated), nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	dto, ok := r.store.data.orders[id]
	if !ok {
		return nil, order.NewOrderNotFoundError(id)
	}
	return order.RebuildFromDTO(dto), nil
}

func (r *OrderRepository) FindByUserID(ctx context.Context, userID string) ([]*order.Order, error) {
	return r.match(ctx, order.ByUserIDSpecification{UserID: userID}), nil
}

func (r *OrderRepository) FindBySpecification(ctx context.Context, spec shared.Specification[*order.Order], page shared.Page) ([]*order.Order, int64, error) {
	matched := r.match(ctx, spec)
	total := int64(len(matched))
	page = page.Normalize()
	start := page.Offset()
	if start >= len(matched) {
		return []*order.Order{}, total, nil
	}
	end := start + page.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// match returns the orders satisfying spec, newest first.
func (r *OrderRepository) match(ctx context.Context, spec shared.Specification[*order.Order]) []*order.Order {
	r.store.mu.Lock()
	var matched []*order.Order
	for _, dto := range r.store.data.orders {
		o := order.RebuildFromDTO(dto)
		if spec == nil || spec.IsSatisfiedBy(ctx, o) {
			matched = append(matched, o)
		}
	}
	r.store.mu.Unlock()

	newestFirst(matched,
		func(o *order.Order) int64 { return o.CreatedAt().UnixNano() },
		func(o *order.Order) string { return o.ID() })
	return matched
}

func (r *OrderRepository) FindItem(ctx context.Context, itemID string) (order.OrderItem, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, dto := range r.store.data.orders {
		for _, item := range dto.Items {
			if item.ID() == itemID {
				return item, nil
			}
		}
	}
	return order.OrderItem{}, order.NewOrderItemNotFoundError(itemID)
}

var _ order.Repository = (*OrderRepository)(nil)
