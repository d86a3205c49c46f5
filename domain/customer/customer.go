/*
Package customer exposes the read/write ports the order workflow needs from
modules it does not own: the shopping cart and the address book.
*/
package customer

import "context"

// CartLine 购物车行，仅含商品与数量；价格在下单时从商品目录读取
type CartLine struct {
	ProductID string
	Quantity  int
}

// CartProvider 购物车端口。ClearCart 在订单事务内调用。
type CartProvider interface {
	GetCart(ctx context.Context, userID string) ([]CartLine, error)
	ClearCart(ctx context.Context, userID string) error
}

// Address 收货地址快照
type Address struct {
	ID        string
	UserID    string
	Recipient string
	Phone     string
	Street    string
	City      string
}

// AddressProvider returns nil, nil when the address does not exist.
type AddressProvider interface {
	FindByID(ctx context.Context, addressID string) (*Address, error)
}
