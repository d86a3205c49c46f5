package mysql

import (
	"context"
	"errors"

	"ecommerce/domain/productreturn"
	"ecommerce/domain/shared"
	"ecommerce/infrastructure/persistence"
	"ecommerce/infrastructure/persistence/mysql/po"

	"gorm.io/gorm"
)

type ReturnRepository struct {
	db *gorm.DB
}

func NewReturnRepository(db *gorm.DB) *ReturnRepository {
	return &ReturnRepository{db: db}
}

func (r *ReturnRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *ReturnRepository) Create(ctx context.Context, pr *productreturn.ProductReturn) error {
	return translateError("product return", r.getDB(ctx).Create(po.FromReturnDomain(pr)).Error)
}

func (r *ReturnRepository) FindByID(ctx context.Context, id string) (*productreturn.ProductReturn, error) {
	var returnPO po.ProductReturnPO
	if err := r.getDB(ctx).First(&returnPO, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, productreturn.NewReturnNotFoundError(id)
		}
		return nil, translateError("product return", err)
	}
	return returnPO.ToDomain(), nil
}

func (r *ReturnRepository) FindByOrderItemID(ctx context.Context, orderItemID string) ([]*productreturn.ProductReturn, error) {
	return r.findWhere(r.getDB(ctx).Where("order_item_id = ?", orderItemID))
}

func (r *ReturnRepository) FindByOrderIDs(ctx context.Context, orderIDs []string) ([]*productreturn.ProductReturn, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	return r.findWhere(r.getDB(ctx).Where("order_id IN ?", orderIDs))
}

func (r *ReturnRepository) FindAll(ctx context.Context, filter productreturn.Filter, page shared.Page) ([]*productreturn.ProductReturn, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			db = db.Where("status = ?", string(filter.Status))
		}
		if filter.OrderID != "" {
			db = db.Where("order_id = ?", filter.OrderID)
		}
		if filter.UserID != "" {
			db = db.Where("user_id = ?", filter.UserID)
		}
		return db
	}
	page = page.Normalize()

	var total int64
	if err := r.getDB(ctx).Model(&po.ProductReturnPO{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, translateError("product return", err)
	}
	returns, err := r.findWhere(r.getDB(ctx).Scopes(scope).Offset(page.Offset()).Limit(page.Size))
	if err != nil {
		return nil, 0, err
	}
	return returns, total, nil
}

// UpdateStatus compares and swaps on the previously observed status.
func (r *ReturnRepository) UpdateStatus(ctx context.Context, pr *productreturn.ProductReturn, from productreturn.Status) error {
	result := r.getDB(ctx).
		Model(&po.ProductReturnPO{}).
		Where("id = ? AND status = ?", pr.ID(), string(from)).
		Updates(map[string]any{
			"status":     string(pr.Status()),
			"updated_at": pr.UpdatedAt(),
		})
	if result.Error != nil {
		return translateError("product return", result.Error)
	}
	if result.RowsAffected == 0 {
		return productreturn.ErrReturnModified
	}
	return nil
}

func (r *ReturnRepository) findWhere(db *gorm.DB) ([]*productreturn.ProductReturn, error) {
	var returnPOs []po.ProductReturnPO
	if err := db.Order("created_at DESC, id DESC").Find(&returnPOs).Error; err != nil {
		return nil, translateError("product return", err)
	}
	returns := make([]*productreturn.ProductReturn, len(returnPOs))
	for i := range returnPOs {
		returns[i] = returnPOs[i].ToDomain()
	}
	return returns, nil
}

var _ productreturn.Repository = (*ReturnRepository)(nil)
