package po

import (
	"ecommerce/domain/catalog"
	"ecommerce/domain/customer"
	"ecommerce/domain/shared"
)

// The tables below belong to the catalog, cart and address modules; this
// service only reads them, except for clearing the cart after checkout.

type ProductPO struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:255;not null"`
	Price     int64  `gorm:"not null"`
	SalePrice *int64
}

func (ProductPO) TableName() string {
	return "products"
}

func (po *ProductPO) ToDomain() *catalog.Product {
	return &catalog.Product{
		ID:        po.ID,
		Name:      po.Name,
		Price:     shared.NewMoney(po.Price),
		SalePrice: optionalMoney(po.SalePrice),
	}
}

type CartItemPO struct {
	UserID    string `gorm:"primaryKey;size:64"`
	ProductID string `gorm:"primaryKey;size:64"`
	Quantity  int    `gorm:"not null"`
}

func (CartItemPO) TableName() string {
	return "cart_items"
}

type AddressPO struct {
	ID        string `gorm:"primaryKey;size:64"`
	UserID    string `gorm:"size:64;index;not null"`
	Recipient string `gorm:"size:255"`
	Phone     string `gorm:"size:32"`
	Street    string `gorm:"size:500"`
	City      string `gorm:"size:255"`
}

func (AddressPO) TableName() string {
	return "addresses"
}

func (po *AddressPO) ToDomain() *customer.Address {
	return &customer.Address{
		ID:        po.ID,
		UserID:    po.UserID,
		Recipient: po.Recipient,
		Phone:     po.Phone,
		Street:    po.Street,
		City:      po.City,
	}
}
