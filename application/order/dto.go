package order

import "time"

// Role 调用方角色
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// Actor 调用方身份，由 API 层从令牌中解析
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsStaff() bool {
	return a.Role == RoleStaff || a.Role == RoleAdmin
}

// ============================================================================
// Requests
// ============================================================================

// CreateOrderRequest 下单入参；商品来自购物车，价格来自商品目录
type CreateOrderRequest struct {
	UserID        string `json:"-"`
	ClientIP      string `json:"-"`
	AddressID     string `json:"address_id" binding:"required"`
	DiscountCode  string `json:"discount_code"`
	PaymentMethod string `json:"payment_method" binding:"required"`
	Note          string `json:"note" binding:"max=1000"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ChangePaymentMethodRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// ListOrdersQuery staff listing filters; empty fields mean "any".
type ListOrdersQuery struct {
	UserID        string     `form:"user_id"`
	Status        string     `form:"status"`
	PaymentStatus string     `form:"payment_status"`
	PaymentMethod string     `form:"payment_method"`
	From          *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To            *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page          int        `form:"page"`
	Size          int        `form:"size"`
}

type CreateReturnRequest struct {
	OrderItemID string `json:"order_item_id" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required,min=1"`
	Reason      string `json:"reason" binding:"required,max=1000"`
}

type UpdateReturnStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ListReturnsQuery struct {
	Status  string `form:"status"`
	OrderID string `form:"order_id"`
	UserID  string `form:"user_id"`
	Page    int    `form:"page"`
	Size    int    `form:"size"`
}

// ============================================================================
// Responses
// ============================================================================

// OrderResponse 订单读模型：订单、订单项、收货地址、优惠码以及每个订单项的退货记录
type OrderResponse struct {
	ID             string              `json:"id"`
	UserID         string              `json:"user_id"`
	Status         string              `json:"status"`
	PaymentStatus  string              `json:"payment_status"`
	PaymentMethod  string              `json:"payment_method"`
	TransactionID  string              `json:"transaction_id,omitempty"`
	PaidAt         *time.Time          `json:"paid_at,omitempty"`
	OrderTotal     int64               `json:"order_total"`
	DiscountCode   string              `json:"discount_code,omitempty"`
	DiscountAmount int64               `json:"discount_amount"`
	ShippingFee    int64               `json:"shipping_fee"`
	FinalTotal     int64               `json:"final_total"`
	Note           string              `json:"note,omitempty"`
	Address        *AddressResponse    `json:"address,omitempty"`
	Items          []OrderItemResponse `json:"items"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

type OrderItemResponse struct {
	ID        string           `json:"id"`
	ProductID string           `json:"product_id"`
	UnitPrice int64            `json:"unit_price"`
	Quantity  int              `json:"quantity"`
	Subtotal  int64            `json:"subtotal"`
	Returns   []ReturnResponse `json:"returns"`
}

type AddressResponse struct {
	ID        string `json:"id"`
	Recipient string `json:"recipient"`
	Phone     string `json:"phone"`
	Street    string `json:"street"`
	City      string `json:"city"`
}

// CreateOrderResponse carries the redirect URL for gateway orders.
type CreateOrderResponse struct {
	Order      *OrderResponse `json:"order"`
	PaymentURL string         `json:"payment_url,omitempty"`
}

type RepaymentResponse struct {
	OrderID    string `json:"order_id"`
	PaymentURL string `json:"payment_url"`
}

// PaymentResultResponse AlreadyProcessed is set for a replayed callback.
type PaymentResultResponse struct {
	OrderID          string `json:"order_id"`
	Success          bool   `json:"success"`
	TransactionID    string `json:"transaction_id,omitempty"`
	ResponseCode     string `json:"response_code"`
	AlreadyProcessed bool   `json:"already_processed"`
}

type OrderListResponse struct {
	Items []*OrderResponse `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Size  int              `json:"size"`
}

type ReturnResponse struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"order_id"`
	OrderItemID string    `json:"order_item_id"`
	ProductID   string    `json:"product_id"`
	UserID      string    `json:"user_id"`
	Quantity    int       `json:"quantity"`
	Reason      string    `json:"reason"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ReturnListResponse struct {
	Items []*ReturnResponse `json:"items"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Size  int               `json:"size"`
}
