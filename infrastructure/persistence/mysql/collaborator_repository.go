package mysql

import (
	"context"
	"errors"

	"ecommerce/domain/catalog"
	"ecommerce/domain/customer"
	"ecommerce/infrastructure/persistence"
	"ecommerce/infrastructure/persistence/mysql/po"

	"gorm.io/gorm"
)

// CartRepository reads and clears cart_items.
type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *CartRepository) GetCart(ctx context.Context, userID string) ([]customer.CartLine, error) {
	var itemPOs []po.CartItemPO
	if err := r.getDB(ctx).Where("user_id = ?", userID).Order("product_id ASC").Find(&itemPOs).Error; err != nil {
		return nil, translateError("cart", err)
	}
	lines := make([]customer.CartLine, len(itemPOs))
	for i, item := range itemPOs {
		lines[i] = customer.CartLine{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return lines, nil
}

func (r *CartRepository) ClearCart(ctx context.Context, userID string) error {
	return translateError("cart", r.getDB(ctx).Where("user_id = ?", userID).Delete(&po.CartItemPO{}).Error)
}

type AddressRepository struct {
	db *gorm.DB
}

func NewAddressRepository(db *gorm.DB) *AddressRepository {
	return &AddressRepository{db: db}
}

func (r *AddressRepository) FindByID(ctx context.Context, addressID string) (*customer.Address, error) {
	db := r.db.WithContext(ctx)
	if tx := persistence.TxFromContext(ctx); tx != nil {
		db = tx
	}
	var addressPO po.AddressPO
	if err := db.First(&addressPO, "id = ?", addressID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError("address", err)
	}
	return addressPO.ToDomain(), nil
}

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) FindByID(ctx context.Context, productID string) (*catalog.Product, error) {
	db := r.db.WithContext(ctx)
	if tx := persistence.TxFromContext(ctx); tx != nil {
		db = tx
	}
	var productPO po.ProductPO
	if err := db.First(&productPO, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError("product", err)
	}
	return productPO.ToDomain(), nil
}

var (
	_ customer.CartProvider    = (*CartRepository)(nil)
	_ customer.AddressProvider = (*AddressRepository)(nil)
	_ catalog.ProductCatalog   = (*ProductRepository)(nil)
)
