package mysql

import (
	"context"
	"errors"

	"ecommerce/domain/discount"
	"ecommerce/domain/shared"
	"ecommerce/infrastructure/persistence"
	"ecommerce/infrastructure/persistence/mysql/po"

	"gorm.io/gorm"
)

type DiscountRepository struct {
	db *gorm.DB
}

func NewDiscountRepository(db *gorm.DB) *DiscountRepository {
	return &DiscountRepository{db: db}
}

func (r *DiscountRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *DiscountRepository) FindByCode(ctx context.Context, code string) (*discount.Discount, error) {
	return r.findOne(ctx, "code = ?", code)
}

func (r *DiscountRepository) FindByID(ctx context.Context, id string) (*discount.Discount, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *DiscountRepository) findOne(ctx context.Context, query string, arg string) (*discount.Discount, error) {
	var discountPO po.DiscountPO
	if err := r.getDB(ctx).First(&discountPO, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("discount")
		}
		return nil, translateError("discount", err)
	}
	return discountPO.ToDomain()
}

// IncrementUsage is conditional on the cap so two orders racing for the last
// use cannot both succeed.
func (r *DiscountRepository) IncrementUsage(ctx context.Context, id string) (bool, error) {
	result := r.getDB(ctx).
		Model(&po.DiscountPO{}).
		Where("id = ? AND (max_uses IS NULL OR used_count < max_uses)", id).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return false, translateError("discount", result.Error)
	}
	return result.RowsAffected == 1, nil
}

var _ discount.Repository = (*DiscountRepository)(nil)
