package mocks

import (
	"context"

	"ecommerce/domain/inventory"
)

// StockRepository in-memory stock ledger. Row locks are implied by the
// store's unit-of-work serialization.
type StockRepository struct {
	store *Store
}

func NewStockRepository(store *Store) *StockRepository {
	return &StockRepository{store: store}
}

func (r *StockRepository) FindByProductID(ctx context.Context, productID string) (*inventory.Stock, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	dto, ok := r.store.data.stocks[productID]
	if !ok {
		return nil, inventory.NewStockNotFoundError(productID)
	}
	return inventory.RebuildFromDTO(dto), nil
}

func (r *StockRepository) LockByProductID(ctx context.Context, productID string) (*inventory.Stock, error) {
	return r.FindByProductID(ctx, productID)
}

func (r *StockRepository) Create(ctx context.Context, stock *inventory.Stock) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.data.stocks[stock.ProductID()]; exists {
		return inventory.NewStockAlreadyExistsError(stock.ProductID())
	}
	r.store.data.stocks[stock.ProductID()] = stockToDTO(stock)
	return nil
}

func (r *StockRepository) SaveQuantity(ctx context.Context, stock *inventory.Stock) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.data.stocks[stock.ProductID()]; !exists {
		return inventory.NewStockNotFoundError(stock.ProductID())
	}
	r.store.data.stocks[stock.ProductID()] = stockToDTO(stock)
	return nil
}

func (r *StockRepository) AppendLog(ctx context.Context, log *inventory.Log) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.data.logs = append(r.store.data.logs, inventory.LogReconstructionDTO{
		ID:        log.ID(),
		StockID:   log.StockID(),
		ProductID: log.ProductID(),
		Change:    log.Change(),
		Reason:    log.Reason(),
		Note:      log.Note(),
		CreatedAt: log.CreatedAt(),
	})
	return nil
}

func (r *StockRepository) ListLogs(ctx context.Context, productID string, limit int) ([]*inventory.Log, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var logs []*inventory.Log
	for i := len(r.store.data.logs) - 1; i >= 0; i-- {
		dto := r.store.data.logs[i]
		if dto.ProductID != productID {
			continue
		}
		logs = append(logs, inventory.RebuildLogFromDTO(dto))
		if limit > 0 && len(logs) == limit {
			break
		}
	}
	return logs, nil
}

func (r *StockRepository) SumChanges(ctx context.Context, stockID string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sum := 0
	for _, dto := range r.store.data.logs {
		if dto.StockID == stockID {
			sum += dto.Change
		}
	}
	return sum, nil
}

func stockToDTO(s *inventory.Stock) inventory.ReconstructionDTO {
	return inventory.ReconstructionDTO{
		ID:        s.ID(),
		ProductID: s.ProductID(),
		Quantity:  s.Quantity(),
		CreatedAt: s.CreatedAt(),
		UpdatedAt: s.UpdatedAt(),
	}
}

var _ inventory.Repository = (*StockRepository)(nil)
