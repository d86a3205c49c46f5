package po

import (
	"time"

	"ecommerce/domain/productreturn"
)

type ProductReturnPO struct {
	ID          string    `gorm:"primaryKey;size:64"`
	OrderID     string    `gorm:"size:64;index;not null"`
	OrderItemID string    `gorm:"size:64;index;not null"`
	ProductID   string    `gorm:"size:64;not null"`
	UserID      string    `gorm:"size:64;index;not null"`
	Quantity    int       `gorm:"not null"`
	Reason      string    `gorm:"size:1000;not null"`
	Status      string    `gorm:"size:20;index;not null"`
	CreatedAt   time.Time `gorm:"precision:3;index"`
	UpdatedAt   time.Time `gorm:"precision:3"`
}

func (ProductReturnPO) TableName() string {
	return "product_returns"
}

func FromReturnDomain(r *productreturn.ProductReturn) *ProductReturnPO {
	return &ProductReturnPO{
		ID:          r.ID(),
		OrderID:     r.OrderID(),
		OrderItemID: r.OrderItemID(),
		ProductID:   r.ProductID(),
		UserID:      r.UserID(),
		Quantity:    r.Quantity(),
		Reason:      r.Reason(),
		Status:      string(r.Status()),
		CreatedAt:   r.CreatedAt(),
		UpdatedAt:   r.UpdatedAt(),
	}
}

func (po *ProductReturnPO) ToDomain() *productreturn.ProductReturn {
	return productreturn.RebuildFromDTO(productreturn.ReconstructionDTO{
		ID:          po.ID,
		OrderID:     po.OrderID,
		OrderItemID: po.OrderItemID,
		ProductID:   po.ProductID,
		UserID:      po.UserID,
		Quantity:    po.Quantity,
		Reason:      po.Reason,
		Status:      productreturn.Status(po.Status),
		CreatedAt:   po.CreatedAt,
		UpdatedAt:   po.UpdatedAt,
	})
}
