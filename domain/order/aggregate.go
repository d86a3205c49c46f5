/*
Package order Order subdomain.

Order is the aggregate root for a placed order and its frozen line items.
State changes go through behavior methods which validate the current
status/payment-status combination, update the in-memory aggregate, record a
domain event and return the Patch the repository must persist. Keeping the
write set explicit lets the store issue narrow UPDATE statements, including
the compare-and-swap used for payment callbacks.
*/
package order

import (
	"fmt"
	"time"

	"ecommerce/domain/shared"

	"github.com/google/uuid"
)

// Order aggregate root
type Order struct {
	shared.EventRecorder

	id             string
	userID         string
	addressID      string
	discountID     string
	discountCode   string
	status         Status
	paymentStatus  PaymentStatus
	paymentMethod  PaymentMethod
	transactionID  string
	paidAt         *time.Time
	orderTotal     shared.Money
	discountAmount shared.Money
	shippingFee    shared.Money
	note           string
	stockCommitted bool
	items          []OrderItem
	createdAt      time.Time
	updatedAt      time.Time
}

// OrderItem frozen line item. Price and quantity never change after creation.
type OrderItem struct {
	id        string
	orderID   string
	productID string
	unitPrice shared.Money
	quantity  int
}

// Line 下单时的商品快照
type Line struct {
	ProductID string
	UnitPrice shared.Money
	Quantity  int
}

// NewOrderParams 创建订单参数
type NewOrderParams struct {
	UserID        string
	AddressID     string
	PaymentMethod PaymentMethod
	Note          string
	ShippingFee   shared.Money
	Lines         []Line
}

// ============================================================================
// Factory
// ============================================================================

// NewOrder builds a pending, unpaid order from frozen line snapshots.
// orderTotal is the sum of the lines and is never recomputed afterwards.
func NewOrder(p NewOrderParams) (*Order, error) {
	if p.UserID == "" {
		return nil, NewInvalidOrderError("user_id", "user id is required")
	}
	if p.AddressID == "" {
		return nil, NewInvalidOrderError("address_id", "address id is required")
	}
	if p.PaymentMethod != MethodCash && p.PaymentMethod != MethodGateway {
		return nil, NewInvalidOrderError("payment_method", "unsupported payment method: "+string(p.PaymentMethod))
	}
	if len(p.Lines) == 0 {
		return nil, NewInvalidOrderError("items", "cart is empty")
	}
	if p.ShippingFee.IsNegative() {
		return nil, NewInvalidOrderError("shipping_fee", "shipping fee must not be negative")
	}

	orderID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate order ID: %w", err)
	}

	items := make([]OrderItem, 0, len(p.Lines))
	total := shared.Zero()
	for _, line := range p.Lines {
		if line.ProductID == "" {
			return nil, NewInvalidOrderError("product_id", "product id is required")
		}
		if line.Quantity <= 0 {
			return nil, NewInvalidOrderError("quantity", "quantity must be positive")
		}
		if line.UnitPrice.IsNegative() {
			return nil, NewInvalidOrderError("unit_price", "unit price must not be negative")
		}
		subtotal, err := line.UnitPrice.Multiply(line.Quantity)
		if err != nil {
			return nil, err
		}
		if total, err = total.Add(subtotal); err != nil {
			return nil, err
		}

		itemID, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate order item ID: %w", err)
		}
		items = append(items, OrderItem{
			id:        itemID.String(),
			orderID:   orderID.String(),
			productID: line.ProductID,
			unitPrice: line.UnitPrice,
			quantity:  line.Quantity,
		})
	}

	now := time.Now()
	o := &Order{
		id:            orderID.String(),
		userID:        p.UserID,
		addressID:     p.AddressID,
		status:        StatusPending,
		paymentStatus: PaymentUnpaid,
		paymentMethod: p.PaymentMethod,
		orderTotal:    total,
		shippingFee:   p.ShippingFee,
		note:          p.Note,
		items:         items,
		createdAt:     now,
		updatedAt:     now,
	}
	o.Record(newPlacedEvent(o))
	return o, nil
}

// ApplyDiscount attaches a validated discount. It can only happen once, before
// the order is persisted.
func (o *Order) ApplyDiscount(discountID, code string, amount shared.Money) error {
	if o.discountID != "" {
		return NewInvalidOrderStateError("a discount has already been applied to this order")
	}
	if discountID == "" {
		return NewInvalidOrderError("discount_id", "discount id is required")
	}
	if amount.IsNegative() || amount.IsGreaterThan(o.orderTotal) {
		return NewInvalidOrderError("discount_amount", "discount amount must be between 0 and the order total")
	}
	o.discountID = discountID
	o.discountCode = code
	o.discountAmount = amount
	return nil
}

// FinalTotal is what the customer pays: orderTotal - discount + shipping, never below zero.
func (o *Order) FinalTotal() shared.Money {
	final, err := o.orderTotal.Subtract(o.discountAmount).Add(o.shippingFee)
	if err != nil || final.IsNegative() {
		return shared.Zero()
	}
	return final
}

// ============================================================================
// Reconstruction - repository use only
// ============================================================================

// ReconstructionDTO ⚠️ 仅供仓储层重建聚合根使用
type ReconstructionDTO struct {
	ID             string
	UserID         string
	AddressID      string
	DiscountID     string
	DiscountCode   string
	Status         Status
	PaymentStatus  PaymentStatus
	PaymentMethod  PaymentMethod
	TransactionID  string
	PaidAt         *time.Time
	OrderTotal     shared.Money
	DiscountAmount shared.Money
	ShippingFee    shared.Money
	Note           string
	StockCommitted bool
	Items          []OrderItem
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RebuildFromDTO ⚠️ 仅供仓储层使用
func RebuildFromDTO(dto ReconstructionDTO) *Order {
	return &Order{
		id:             dto.ID,
		userID:         dto.UserID,
		addressID:      dto.AddressID,
		discountID:     dto.DiscountID,
		discountCode:   dto.DiscountCode,
		status:         dto.Status,
		paymentStatus:  dto.PaymentStatus,
		paymentMethod:  dto.PaymentMethod,
		transactionID:  dto.TransactionID,
		paidAt:         dto.PaidAt,
		orderTotal:     dto.OrderTotal,
		discountAmount: dto.DiscountAmount,
		shippingFee:    dto.ShippingFee,
		note:           dto.Note,
		stockCommitted: dto.StockCommitted,
		items:          dto.Items,
		createdAt:      dto.CreatedAt,
		updatedAt:      dto.UpdatedAt,
	}
}

// ItemReconstructionDTO ⚠️ 仅供仓储层使用
type ItemReconstructionDTO struct {
	ID        string
	OrderID   string
	ProductID string
	UnitPrice shared.Money
	Quantity  int
}

func RebuildItemFromDTO(dto ItemReconstructionDTO) OrderItem {
	return OrderItem{
		id:        dto.ID,
		orderID:   dto.OrderID,
		productID: dto.ProductID,
		unitPrice: dto.UnitPrice,
		quantity:  dto.Quantity,
	}
}

// ============================================================================
// Getters
// ============================================================================

func (o *Order) ID() string                   { return o.id }
func (o *Order) UserID() string               { return o.userID }
func (o *Order) AddressID() string            { return o.addressID }
func (o *Order) DiscountID() string           { return o.discountID }
func (o *Order) DiscountCode() string         { return o.discountCode }
func (o *Order) Status() Status               { return o.status }
func (o *Order) PaymentStatus() PaymentStatus { return o.paymentStatus }
func (o *Order) PaymentMethod() PaymentMethod { return o.paymentMethod }
func (o *Order) TransactionID() string        { return o.transactionID }
func (o *Order) PaidAt() *time.Time           { return o.paidAt }
func (o *Order) OrderTotal() shared.Money     { return o.orderTotal }
func (o *Order) DiscountAmount() shared.Money { return o.discountAmount }
func (o *Order) ShippingFee() shared.Money    { return o.shippingFee }
func (o *Order) Note() string                 { return o.note }
func (o *Order) StockCommitted() bool         { return o.stockCommitted }
func (o *Order) CreatedAt() time.Time         { return o.createdAt }
func (o *Order) UpdatedAt() time.Time         { return o.updatedAt }

// Items returns a copy of the line items.
func (o *Order) Items() []OrderItem {
	items := make([]OrderItem, len(o.items))
	copy(items, o.items)
	return items
}

func (item OrderItem) ID() string              { return item.id }
func (item OrderItem) OrderID() string         { return item.orderID }
func (item OrderItem) ProductID() string       { return item.productID }
func (item OrderItem) UnitPrice() shared.Money { return item.unitPrice }
func (item OrderItem) Quantity() int           { return item.quantity }

// Subtotal never overflows for persisted items; NewOrder rejected those.
func (item OrderItem) Subtotal() shared.Money {
	subtotal, _ := item.unitPrice.Multiply(item.quantity)
	return subtotal
}

var _ shared.AggregateRoot = (*Order)(nil)
