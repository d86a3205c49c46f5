package mysql

import (
	"context"
	"errors"

	"ecommerce/domain/inventory"
	"ecommerce/domain/shared"
	"ecommerce/infrastructure/persistence"
	"ecommerce/infrastructure/persistence/mysql/po"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockRepository stock rows plus their append-only change log.
type StockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) *StockRepository {
	return &StockRepository{db: db}
}

func (r *StockRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *StockRepository) FindByProductID(ctx context.Context, productID string) (*inventory.Stock, error) {
	return r.find(r.getDB(ctx), productID)
}

// LockByProductID issues SELECT ... FOR UPDATE; it only serializes writers
// when ctx carries a transaction.
func (r *StockRepository) LockByProductID(ctx context.Context, productID string) (*inventory.Stock, error) {
	return r.find(r.getDB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), productID)
}

func (r *StockRepository) find(db *gorm.DB, productID string) (*inventory.Stock, error) {
	var stockPO po.StockPO
	if err := db.First(&stockPO, "product_id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.NewStockNotFoundError(productID)
		}
		return nil, translateError("stock", err)
	}
	return stockPO.ToDomain(), nil
}

func (r *StockRepository) Create(ctx context.Context, stock *inventory.Stock) error {
	if err := r.getDB(ctx).Create(po.FromStockDomain(stock)).Error; err != nil {
		err = translateError("stock", err)
		if errors.Is(err, shared.ErrConflict) {
			return inventory.NewStockAlreadyExistsError(stock.ProductID())
		}
		return err
	}
	return nil
}

func (r *StockRepository) SaveQuantity(ctx context.Context, stock *inventory.Stock) error {
	result := r.getDB(ctx).
		Model(&po.StockPO{}).
		Where("id = ?", stock.ID()).
		Updates(map[string]any{
			"quantity":   stock.Quantity(),
			"updated_at": stock.UpdatedAt(),
		})
	if result.Error != nil {
		return translateError("stock", result.Error)
	}
	if result.RowsAffected == 0 {
		return inventory.NewStockNotFoundError(stock.ProductID())
	}
	return nil
}

func (r *StockRepository) AppendLog(ctx context.Context, log *inventory.Log) error {
	return translateError("stock log", r.getDB(ctx).Create(po.FromStockLogDomain(log)).Error)
}

func (r *StockRepository) ListLogs(ctx context.Context, productID string, limit int) ([]*inventory.Log, error) {
	query := r.getDB(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var logPOs []po.StockLogPO
	if err := query.Find(&logPOs).Error; err != nil {
		return nil, translateError("stock log", err)
	}
	logs := make([]*inventory.Log, len(logPOs))
	for i := range logPOs {
		log, err := logPOs[i].ToDomain()
		if err != nil {
			return nil, err
		}
		logs[i] = log
	}
	return logs, nil
}

func (r *StockRepository) SumChanges(ctx context.Context, stockID string) (int, error) {
	var sum int
	err := r.getDB(ctx).
		Model(&po.StockLogPO{}).
		Select("COALESCE(SUM(change_qty), 0)").
		Where("stock_id = ?", stockID).
		Scan(&sum).Error
	if err != nil {
		return 0, translateError("stock log", err)
	}
	return sum, nil
}

var _ inventory.Repository = (*StockRepository)(nil)
