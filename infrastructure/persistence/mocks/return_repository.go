package mocks

import (
	"context"

	"ecommerce/domain/productreturn"
	"ecommerce/domain/shared"
)

type ReturnRepository struct {
	store *Store
}

func NewReturnRepository(store *Store) *ReturnRepository {
	return &ReturnRepository{store: store}
}

func (r *ReturnRepository) Create(ctx context.Context, ret *productreturn.ProductReturn) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.data.returns[ret.ID()]; exists {
		return shared.NewConflictError("product_return", "return already exists: "+ret.ID())
	}
	r.store.data.returns[ret.ID()] = returnToDTO(ret)
	return nil
}

func (r *ReturnRepository) FindByID(ctx context.Context, id string) (*productreturn.ProductReturn, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	dto, ok := r.store.data.returns[id]
	if !ok {
		return nil, productreturn.NewReturnNotFoundError(id)
	}
	return productreturn.RebuildFromDTO(dto), nil
}

func (r *ReturnRepository) FindByOrderItemID(ctx context.Context, orderItemID string) ([]*productreturn.ProductReturn, error) {
	return r.filter(func(dto productreturn.ReconstructionDTO) bool { return dto.OrderItemID == orderItemID }), nil
}

func (r *ReturnRepository) FindByOrderIDs(ctx context.Context, orderIDs []string) ([]*productreturn.ProductReturn, error) {
	wanted := make(map[string]bool, len(orderIDs))
	for _, id := range orderIDs {
		wanted[id] = true
	}
	return r.filter(func(dto productreturn.ReconstructionDTO) bool { return wanted[dto.OrderID] }), nil
}

func (r *ReturnRepository) FindAll(ctx context.Context, f productreturn.Filter, page shared.Page) ([]*productreturn.ProductReturn, int64, error) {
	matched := r.filter(func(dto productreturn.ReconstructionDTO) bool {
		return (f.Status == "" || dto.Status == f.Status) &&
			(f.OrderID == "" || dto.OrderID == f.OrderID) &&
			(f.UserID == "" || dto.UserID == f.UserID)
	})
	total := int64(len(matched))
	page = page.Normalize()
	start := page.Offset()
	if start >= len(matched) {
		return []*productreturn.ProductReturn{}, total, nil
	}
	end := start + page.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *ReturnRepository) UpdateStatus(ctx context.Context, ret *productreturn.ProductReturn, from productreturn.Status) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	dto, ok := r.store.data.returns[ret.ID()]
	if !ok || dto.Status != from {
		return productreturn.ErrReturnModified
	}
	dto.Status = ret.Status()
	dto.UpdatedAt = ret.UpdatedAt()
	r.store.data.returns[ret.ID()] = dto
	return nil
}

// filter returns matches newest first.
func (r *ReturnRepository) filter(keep func(productreturn.ReconstructionDTO) bool) []*productreturn.ProductReturn {
	r.store.mu.Lock()
	var out []*productreturn.ProductReturn
	for _, dto := range r.store.data.returns {
		if keep(dto) {
			out = append(out, productreturn.RebuildFromDTO(dto))
		}
	}
	r.store.mu.Unlock()
	newestFirst(out,
		func(p *productreturn.ProductReturn) int64 { return p.CreatedAt().UnixNano() },
		func(p *productreturn.ProductReturn) string { return p.ID() })
	return out
}

var _ productreturn.Repository = (*ReturnRepository)(nil)
