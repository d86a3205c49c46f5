package order

import (
	"context"
	"time"

	"ecommerce/domain/catalog"
	"ecommerce/domain/customer"
	"ecommerce/domain/discount"
	"ecommerce/domain/inventory"
	"ecommerce/domain/notification"
	"ecommerce/domain/order"
	"ecommerce/domain/payment"
	"ecommerce/domain/productreturn"
	"ecommerce/domain/shared"
)

// StockLedger is the only way this service changes stock. Implementations
// join the transaction carried by ctx.
type StockLedger interface {
	Apply(ctx context.Context, entry inventory.Entry) (*inventory.Log, error)
}

// DiscountValidator validates codes and consumes uses.
type DiscountValidator interface {
	Validate(ctx context.Context, code string, orderTotal shared.Money) (*discount.Application, error)
	RecordUsage(ctx context.Context, discountID string) error
}

// Metrics is the optional sink for per-operation outcome and latency.
type Metrics interface {
	ObserveWorkflow(operation string, err error, elapsed time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveWorkflow(string, error, time.Duration) {}

// Dependencies wires the order workflow.
type Dependencies struct {
	Orders     order.Repository
	Returns    productreturn.Repository
	Carts      customer.CartProvider
	Addresses  customer.AddressProvider
	Catalog    catalog.ProductCatalog
	Ledger     StockLedger
	Discounts  DiscountValidator
	Gateway    payment.Gateway
	Notifier   notification.Notifier
	UoWFactory shared.UnitOfWorkFactory

	// ShippingFee is added to every order's final total.
	ShippingFee shared.Money
	Metrics     Metrics
}
