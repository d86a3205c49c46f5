package mysql

import (
	"context"
	"fmt"

	"ecommerce/infrastructure/persistence/mysql/po"
	"ecommerce/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists every table this service owns or reads.
func Models() []any {
	return []any{
		&po.OrderPO{},
		&po.OrderItemPO{},
		&po.StockPO{},
		&po.StockLogPO{},
		&po.DiscountPO{},
		&po.ProductReturnPO{},
		&po.OutboxEventPO{},
		&po.ProductPO{},
		&po.CartItemPO{},
		&po.AddressPO{},
	}
}

// Migrate creates or alters tables to match the persistence objects.
func Migrate(ctx context.Context, db *gorm.DB) error {
	models := Models()
	if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.Info("Database schema migrated", zap.Int("tables", len(models)))
	return nil
}
