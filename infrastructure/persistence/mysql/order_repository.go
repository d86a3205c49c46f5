package mysql

import (
	"context"
	"errors"
	"time"

	"ecommerce/domain/order"
	"ecommerce/domain/shared"
	"ecommerce/infrastructure/persistence"
	"ecommerce/infrastructure/persistence/mysql/po"
	"ecommerce/infrastructure/persistence/specification"

	"gorm.io/gorm"
)

// OrderRepository MySQL/GORM implementation of order repository
// GORM usage specification: Association features are prohibited to maintain DDD aggregate boundaries
type OrderRepository struct {
	db         *gorm.DB
	translator *specification.OrderTranslator
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db, translator: specification.NewOrderTranslator()}
}

// getDB returns the transaction from context if available, otherwise the default db
func (r *OrderRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

// Create inserts the order row and its items. Outside a unit of work it opens
// its own transaction so that the two inserts stay atomic.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	orderPO, itemPOs := po.FromOrderDomain(o)

	create := func(tx *gorm.DB) error {
		if err := tx.Create(orderPO).Error; err != nil {
			return translateError("order", err)
		}
		if len(itemPOs) > 0 {
			if err := tx.Create(&itemPOs).Error; err != nil {
				return translateError("order item", err)
			}
		}
		return nil
	}

	if tx := persistence.TxFromContext(ctx); tx != nil {
		return create(tx)
	}
	return r.db.WithContext(ctx).Transaction(create)
}

func (r *OrderRepository) Update(ctx context.Context, id string, patch order.Patch) error {
	result := r.getDB(ctx).
		Model(&po.OrderPO{}).
		Where("id = ?", id).
		Updates(po.PatchColumns(patch, time.Now()))
	if result.Error != nil {
		return translateError("order", result.Error)
	}
	if result.RowsAffected == 0 {
		return order.NewOrderNotFoundError(id)
	}
	return nil
}

// UpdateIfUnpaid is a single UPDATE guarded by payment_status, so concurrent
// callbacks for the same order cannot both win.
func (r *OrderRepository) UpdateIfUnpaid(ctx context.Context, id string, patch order.Patch) (*order.Order, error) {
	result := updateIfUnpaid(r.getDB(ctx), id, patch, time.Now())
	if result.Error != nil {
		return nil, translateError("order", result.Error)
	}
	if result.RowsAffected != 1 {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

func updateIfUnpaid(db *gorm.DB, id string, patch order.Patch, now time.Time) *gorm.DB {
	return db.
		Model(&po.OrderPO{}).
		Where("id = ? AND payment_status = ?", id, string(order.PaymentUnpaid)).
		Updates(po.PatchColumns(patch, now))
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	db := r.getDB(ctx)
	var orderPO po.OrderPO
	if err := db.First(&orderPO, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.NewOrderNotFoundError(id)
		}
		return nil, translateError("order", err)
	}

	// Manually query order items (do not use GORM's Preload to keep aggregate boundaries clear)
	var itemPOs []po.OrderItemPO
	if err := db.Where("order_id = ?", id).Order("id ASC").Find(&itemPOs).Error; err != nil {
		return nil, translateError("order", err)
	}
	return orderPO.ToDomain(itemPOs), nil
}

func (r *OrderRepository) FindByUserID(ctx context.Context, userID string) ([]*order.Order, error) {
	var orderPOs []po.OrderPO
	if err := r.getDB(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orderPOs).Error; err != nil {
		return nil, translateError("order", err)
	}
	return r.withItems(ctx, orderPOs)
}

func (r *OrderRepository) FindBySpecification(ctx context.Context, spec shared.Specification[*order.Order], page shared.Page) ([]*order.Order, int64, error) {
	scope, err := r.translator.Translate(spec)
	if err != nil {
		return nil, 0, err
	}
	page = page.Normalize()

	var total int64
	if err := r.getDB(ctx).Model(&po.OrderPO{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, translateError("order", err)
	}

	var orderPOs []po.OrderPO
	if err := r.getDB(ctx).
		Scopes(scope).
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&orderPOs).Error; err != nil {
		return nil, 0, translateError("order", err)
	}

	orders, err := r.withItems(ctx, orderPOs)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *OrderRepository) FindItem(ctx context.Context, itemID string) (order.OrderItem, error) {
	var itemPO po.OrderItemPO
	if err := r.getDB(ctx).First(&itemPO, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return order.OrderItem{}, order.NewOrderItemNotFoundError(itemID)
		}
		return order.OrderItem{}, translateError("order item", err)
	}
	return itemPO.ToDomain(), nil
}

// withItems loads the items of all orders with one query.
func (r *OrderRepository) withItems(ctx context.Context, orderPOs []po.OrderPO) ([]*order.Order, error) {
	orders := make([]*order.Order, len(orderPOs))
	if len(orderPOs) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orderPOs))
	for i, orderPO := range orderPOs {
		ids[i] = orderPO.ID
	}
	var itemPOs []po.OrderItemPO
	if err := r.getDB(ctx).Where("order_id IN ?", ids).Order("id ASC").Find(&itemPOs).Error; err != nil {
		return nil, translateError("order", err)
	}
	byOrder := make(map[string][]po.OrderItemPO, len(orderPOs))
	for _, item := range itemPOs {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}

	for i := range orderPOs {
		orders[i] = orderPOs[i].ToDomain(byOrder[orderPOs[i].ID])
	}
	return orders, nil
}

// Compile-time interface implementation check
var _ order.Repository = (*OrderRepository)(nil)
