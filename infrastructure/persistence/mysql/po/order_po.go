package po

import (
	"time"

	"ecommerce/domain/order"
	"ecommerce/domain/shared"
)

// OrderPO Order persistence object
// Note: Only used for database mapping, does not contain any business logic
// Defining GORM associations is prohibited here
type OrderPO struct {
	ID             string     `gorm:"primaryKey;size:64"`
	UserID         string     `gorm:"size:64;index;not null"`
	AddressID      string     `gorm:"size:64;not null"`
	DiscountID     string     `gorm:"size:64"`
	DiscountCode   string     `gorm:"size:64"`
	Status         string     `gorm:"size:20;index;not null"`
	PaymentStatus  string     `gorm:"size:20;index;not null"`
	PaymentMethod  string     `gorm:"size:20;not null"`
	TransactionID  string     `gorm:"size:128"`
	PaidAt         *time.Time `gorm:"precision:3"`
	OrderTotal     int64      `gorm:"not null"`
	DiscountAmount int64      `gorm:"not null;default:0"`
	ShippingFee    int64      `gorm:"not null;default:0"`
	Note           string     `gorm:"size:1000"`
	StockCommitted bool       `gorm:"not null;default:false"`
	CreatedAt      time.Time  `gorm:"precision:3;index"`
	UpdatedAt      time.Time  `gorm:"precision:3"`
}

func (OrderPO) TableName() string {
	return "orders"
}

// OrderItemPO Order item persistence object; prices are frozen at creation.
type OrderItemPO struct {
	ID        string `gorm:"primaryKey;size:64"`
	OrderID   string `gorm:"size:64;index;not null"`
	ProductID string `gorm:"size:64;index;not null"`
	UnitPrice int64  `gorm:"not null"`
	Quantity  int    `gorm:"not null"`
}

func (OrderItemPO) TableName() string {
	return "order_items"
}

// FromOrderDomain Convert domain model to persistence object
func FromOrderDomain(o *order.Order) (*OrderPO, []OrderItemPO) {
	orderPO := &OrderPO{
		ID:             o.ID(),
		UserID:         o.UserID(),
		AddressID:      o.AddressID(),
		DiscountID:     o.DiscountID(),
		DiscountCode:   o.DiscountCode(),
		Status:         string(o.Status()),
		PaymentStatus:  string(o.PaymentStatus()),
		PaymentMethod:  string(o.PaymentMethod()),
		TransactionID:  o.TransactionID(),
		PaidAt:         o.PaidAt(),
		OrderTotal:     o.OrderTotal().Amount(),
		DiscountAmount: o.DiscountAmount().Amount(),
		ShippingFee:    o.ShippingFee().Amount(),
		Note:           o.Note(),
		StockCommitted: o.StockCommitted(),
		CreatedAt:      o.CreatedAt(),
		UpdatedAt:      o.UpdatedAt(),
	}

	items := o.Items()
	itemPOs := make([]OrderItemPO, len(items))
	for i, item := range items {
		itemPOs[i] = OrderItemPO{
			ID:        item.ID(),
			OrderID:   o.ID(),
			ProductID: item.ProductID(),
			UnitPrice: item.UnitPrice().Amount(),
			Quantity:  item.Quantity(),
		}
	}
	return orderPO, itemPOs
}

// ToDomain Convert persistence object to domain model
func (po *OrderPO) ToDomain(itemPOs []OrderItemPO) *order.Order {
	items := make([]order.OrderItem, len(itemPOs))
	for i, itemPO := range itemPOs {
		items[i] = itemPO.ToDomain()
	}

	return order.RebuildFromDTO(order.ReconstructionDTO{
		ID:             po.ID,
		UserID:         po.UserID,
		AddressID:      po.AddressID,
		DiscountID:     po.DiscountID,
		DiscountCode:   po.DiscountCode,
		Status:         order.Status(po.Status),
		PaymentStatus:  order.PaymentStatus(po.PaymentStatus),
		PaymentMethod:  order.PaymentMethod(po.PaymentMethod),
		TransactionID:  po.TransactionID,
		PaidAt:         po.PaidAt,
		OrderTotal:     shared.NewMoney(po.OrderTotal),
		DiscountAmount: shared.NewMoney(po.DiscountAmount),
		ShippingFee:    shared.NewMoney(po.ShippingFee),
		Note:           po.Note,
		StockCommitted: po.StockCommitted,
		Items:          items,
		CreatedAt:      po.CreatedAt,
		UpdatedAt:      po.UpdatedAt,
	})
}

func (po OrderItemPO) ToDomain() order.OrderItem {
	return order.RebuildItemFromDTO(order.ItemReconstructionDTO{
		ID:        po.ID,
		OrderID:   po.OrderID,
		ProductID: po.ProductID,
		UnitPrice: shared.NewMoney(po.UnitPrice),
		Quantity:  po.Quantity,
	})
}

// PatchColumns maps a patch onto column updates. updated_at is always set.
func PatchColumns(p order.Patch, now time.Time) map[string]any {
	cols := map[string]any{"updated_at": now}
	if p.Status != nil {
		cols["status"] = string(*p.Status)
	}
	if p.PaymentStatus != nil {
		cols["payment_status"] = string(*p.PaymentStatus)
	}
	if p.PaymentMethod != nil {
		cols["payment_method"] = string(*p.PaymentMethod)
	}
	if p.TransactionID != nil {
		cols["transaction_id"] = *p.TransactionID
	}
	if p.PaidAt != nil {
		cols["paid_at"] = *p.PaidAt
	}
	if p.Note != nil {
		cols["note"] = *p.Note
	}
	if p.StockCommitted != nil {
		cols["stock_committed"] = *p.StockCommitted
	}
	return cols
}
