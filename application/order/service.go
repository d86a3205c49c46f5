/*
Package order Application Layer - Order Workflow Orchestration

Every workflow runs inside one unit of work: the order write, the stock
ledger entries, the discount usage, the cart clear and the outbox events
commit or roll back together. Notifications go out only after commit and
their failures are logged, never returned.

The payment callback is the only path that races with itself. It is made
idempotent by a conditional update on payment_status = unpaid: of N
concurrent deliveries exactly one wins and books stock.
*/
package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ecommerce/domain/catalog"
	"ecommerce/domain/customer"
	"ecommerce/domain/inventory"
	"ecommerce/domain/notification"
	"ecommerce/domain/order"
	"ecommerce/domain/payment"
	"ecommerce/domain/productreturn"
	"ecommerce/domain/shared"
	"ecommerce/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ApplicationService Order application service
type ApplicationService struct {
	orderRepo   order.Repository
	returnRepo  productreturn.Repository
	carts       customer.CartProvider
	addresses   customer.AddressProvider
	products    catalog.ProductCatalog
	ledger      StockLedger
	discounts   DiscountValidator
	gateway     payment.Gateway
	notifier    notification.Notifier
	uowFactory  shared.UnitOfWorkFactory
	shippingFee shared.Money
	metrics     Metrics
	tracer      trace.Tracer
	now         func() time.Time
}

func NewApplicationService(deps Dependencies) *ApplicationService {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &ApplicationService{
		orderRepo:   deps.Orders,
		returnRepo:  deps.Returns,
		carts:       deps.Carts,
		addresses:   deps.Addresses,
		products:    deps.Catalog,
		ledger:      deps.Ledger,
		discounts:   deps.Discounts,
		gateway:     deps.Gateway,
		notifier:    deps.Notifier,
		uowFactory:  deps.UoWFactory,
		shippingFee: deps.ShippingFee,
		metrics:     metrics,
		tracer:      otel.Tracer("ecommerce/application/order"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// begin opens a span for one workflow; the returned func records the outcome.
func (s *ApplicationService) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "Order."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.metrics.ObserveWorkflow(op, err, time.Since(start))
	}
}

// ============================================================================
// Checkout and payment
// ============================================================================

// CreateOrder turns the user's cart into an order. Prices are read from the
// catalog and frozen into the items. Cash orders book their sale entries
// immediately; gateway orders get a signed redirect URL and book stock when
// the payment callback succeeds.
func (s *ApplicationService) CreateOrder(ctx context.Context, req CreateOrderRequest) (resp *CreateOrderResponse, err error) {
	ctx, done := s.begin(ctx, "create_order", attribute.String("user_id", req.UserID))
	defer func() { done(err) }()

	method, ok := order.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		return nil, order.NewInvalidOrderError("payment_method", "unsupported payment method: "+req.PaymentMethod)
	}

	var (
		o          *order.Order
		address    *customer.Address
		paymentURL string
	)
	uow := s.uowFactory.New()
	err = uow.Execute(ctx, func(ctx context.Context) error {
		var err error
		address, err = s.addresses.FindByID(ctx, req.AddressID)
		if err != nil {
			return err
		}
		if address == nil || address.UserID != req.UserID {
			return order.NewInvalidOrderError("address_id", "address not found for this user")
		}

		lines, err := s.snapshotCart(ctx, req.UserID)
		if err != nil {
			return err
		}

		o, err = order.NewOrder(order.NewOrderParams{
			UserID:        req.UserID,
			AddressID:     req.AddressID,
			PaymentMethod: method,
			Note:          req.Note,
			ShippingFee:   s.shippingFee,
			Lines:         lines,
		})
		if err != nil {
			return err
		}

		if code := strings.TrimSpace(req.DiscountCode); code != "" {
			applied, err := s.discounts.Validate(ctx, code, o.OrderTotal())
			if err != nil {
				return err
			}
			if err := o.ApplyDiscount(applied.DiscountID, applied.Code, applied.Amount); err != nil {
				return err
			}
		}

		// 现金订单在同一事务内扣减库存，先置标记再落库
		if method == order.MethodCash {
			o.MarkStockCommitted()
		}
		if err := s.orderRepo.Create(ctx, o); err != nil {
			return err
		}
		uow.RegisterNew(o)

		if o.DiscountID() != "" {
			if err := s.discounts.RecordUsage(ctx, o.DiscountID()); err != nil {
				return err
			}
		}
		if err := s.carts.ClearCart(ctx, req.UserID); err != nil {
			return err
		}

		if method == order.MethodCash {
			return s.bookItems(ctx, o, -1, inventory.ReasonSale(o.ID()), "order placed")
		}
		paymentURL, err = s.gateway.BuildRedirectURL(payment.RedirectRequest{
			OrderID:   o.ID(),
			Amount:    o.FinalTotal(),
			ClientIP:  req.ClientIP,
			OrderInfo: "Payment for order " + o.ID(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Order placed",
		zap.String("order_id", o.ID()),
		zap.String("user_id", o.UserID()),
		zap.String("payment_method", string(o.PaymentMethod())),
		zap.Int64("final_total", o.FinalTotal().Amount()),
	)
	s.notifyStaff(ctx, notification.Message{
		Title:   "New order",
		Content: fmt.Sprintf("Order %s was placed, total %d", o.ID(), o.FinalTotal().Amount()),
		Kind:    notification.KindOrderPlaced,
	})

	return &CreateOrderResponse{
		Order:      toOrderResponse(o, address, nil),
		PaymentURL: paymentURL,
	}, nil
}

// snapshotCart reads the cart and freezes each product's effective price.
func (s *ApplicationService) snapshotCart(ctx context.Context, userID string) ([]order.Line, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart) == 0 {
		return nil, order.NewInvalidOrderError("cart", "cart is empty")
	}

	lines := make([]order.Line, 0, len(cart))
	for _, line := range cart {
		product, err := s.products.FindByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, order.NewInvalidOrderError("cart", "product "+line.ProductID+" is no longer available")
		}
		lines = append(lines, order.Line{
			ProductID: product.ID,
			UnitPrice: product.EffectivePrice(),
			Quantity:  line.Quantity,
		})
	}
	return lines, nil
}

// VerifyReturnCallback settles a gateway payment. An invalid signature or an
// amount that does not match the order writes nothing. A verified failure
// marks the order failed, a verified success marks it paid and books stock;
// both writes are conditional on payment still being unpaid, so replays are
// no-ops.
func (s *ApplicationService) VerifyReturnCallback(ctx context.Context, params map[string]string) (resp *PaymentResultResponse, err error) {
	ctx, done := s.begin(ctx, "verify_callback")
	defer func() { done(err) }()

	result, err := s.gateway.VerifyCallback(params)
	if err != nil {
		logger.Warn("Payment callback rejected", zap.Error(err))
		return nil, err
	}
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("order_id", result.OrderID),
		attribute.Bool("success", result.IsSuccess),
	)

	resp = &PaymentResultResponse{
		OrderID:       result.OrderID,
		Success:       result.IsSuccess,
		TransactionID: result.TransactionID,
		ResponseCode:  result.ResponseCode,
	}

	var paid *order.Order
	uow := s.uowFactory.New()
	err = uow.Execute(ctx, func(ctx context.Context) error {
		paid = nil
		resp.AlreadyProcessed = false

		current, err := s.orderRepo.FindByID(ctx, result.OrderID)
		if err != nil {
			return err
		}
		if !result.Amount.Equals(current.FinalTotal()) {
			logger.Warn("Payment callback amount mismatch",
				zap.String("order_id", current.ID()),
				zap.Int64("expected", current.FinalTotal().Amount()),
				zap.Int64("received", result.Amount.Amount()),
			)
			return payment.NewVerificationError("amount does not match order total")
		}

		if !result.IsSuccess {
			failed, err := s.orderRepo.UpdateIfUnpaid(ctx, current.ID(), order.FailedPatch())
			if err != nil {
				return err
			}
			resp.AlreadyProcessed = failed == nil
			return nil
		}

		updated, err := s.orderRepo.UpdateIfUnpaid(ctx, current.ID(), order.PaidPatch(result.TransactionID, s.now()))
		if err != nil {
			return err
		}
		if updated == nil {
			resp.AlreadyProcessed = true
			return nil
		}

		// 切换支付方式时可能已扣减过库存
		if !updated.StockCommitted() {
			if err := s.bookItems(ctx, updated, -1, inventory.ReasonSale(updated.ID()), "gateway payment"); err != nil {
				return err
			}
			if err := s.orderRepo.Update(ctx, updated.ID(), updated.MarkStockCommitted()); err != nil {
				return err
			}
		}
		updated.Record(order.NewPaidEvent(updated))
		uow.RegisterDirty(updated)
		paid = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch {
	case paid != nil:
		logger.Info("Order paid",
			zap.String("order_id", paid.ID()),
			zap.String("transaction_id", paid.TransactionID()),
		)
		s.notifyStaff(ctx, notification.Message{
			Title:   "Order paid",
			Content: fmt.Sprintf("Order %s was paid, transaction %s", paid.ID(), paid.TransactionID()),
			Kind:    notification.KindOrderPaid,
		})
	case resp.AlreadyProcessed:
		logger.Info("Payment callback already processed", zap.String("order_id", resp.OrderID))
	default:
		logger.Warn("Payment failed",
			zap.String("order_id", resp.OrderID),
			zap.String("response_code", resp.ResponseCode),
		)
	}
	return resp, nil
}

// Repayment issues a new redirect URL for an unpaid or failed gateway order.
func (s *ApplicationService) Repayment(ctx context.Context, userID, orderID, clientIP string) (resp *RepaymentResponse, err error) {
	ctx, done := s.begin(ctx, "repayment", attribute.String("order_id", orderID))
	defer func() { done(err) }()

	var url string
	err = s.uowFactory.New().Execute(ctx, func(ctx context.Context) error {
		o, err := s.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		patch, err := o.PrepareRepayment(userID)
		if err != nil {
			return err
		}
		if !patch.IsEmpty() {
			if err := s.orderRepo.Update(ctx, o.ID(), patch); err != nil {
				return err
			}
		}
		url, err = s.gateway.BuildRedirectURL(payment.RedirectRequest{
			OrderID:   o.ID(),
			Amount:    o.FinalTotal(),
			ClientIP:  clientIP,
			OrderInfo: "Payment for order " + o.ID(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &RepaymentResponse{OrderID: orderID, PaymentURL: url}, nil
}

// ============================================================================
// Status changes
// ============================================================================

var statusMessages = map[order.Status]string{
	order.StatusProcessing: "Your order %s is being prepared",
	order.StatusShipping:   "Your order %s is on its way",
	order.StatusDelivered:  "Your order %s has been delivered",
	order.StatusCancelled:  "Your order %s has been cancelled",
	order.StatusReturned:   "Your order %s has been returned",
}

// UpdateOrderStatus is the staff transition. Cancelling releases booked stock.
func (s *ApplicationService) UpdateOrderStatus(ctx context.Context, orderID string, req UpdateOrderStatusRequest) (resp *OrderResponse, err error) {
	ctx, done := s.begin(ctx, "update_status",
		attribute.String("order_id", orderID),
		attribute.String("status", req.Status),
	)
	defer func() { done(err) }()

	next, ok := order.ParseStatus(req.Status)
	if !ok {
		return nil, order.NewInvalidOrderError("status", "unknown order status: "+req.Status)
	}

	o, err := s.transition(ctx, orderID, func(o *order.Order) (order.Patch, error) {
		return o.ChangeStatus(next, s.now())
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Order status changed",
		zap.String("order_id", o.ID()),
		zap.String("status", string(o.Status())),
	)
	kind := notification.KindOrderStatus
	if next == order.StatusCancelled {
		kind = notification.KindOrderCancel
	}
	s.notifyUser(ctx, o.UserID(), notification.Message{
		Title:   "Order update",
		Content: fmt.Sprintf(statusMessages[next], o.ID()),
		Kind:    kind,
	})
	return s.enrich(ctx, o)
}

// UserCancelOrder cancels a pending, unpaid order owned by userID.
func (s *ApplicationService) UserCancelOrder(ctx context.Context, userID, orderID string) (resp *OrderResponse, err error) {
	ctx, done := s.begin(ctx, "user_cancel", attribute.String("order_id", orderID))
	defer func() { done(err) }()

	o, err := s.transition(ctx, orderID, func(o *order.Order) (order.Patch, error) {
		return o.CancelByUser(userID)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Order cancelled by customer", zap.String("order_id", o.ID()), zap.String("user_id", userID))
	s.notifyStaff(ctx, notification.Message{
		Title:   "Order cancelled",
		Content: fmt.Sprintf("Order %s was cancelled by the customer", o.ID()),
		Kind:    notification.KindOrderCancel,
	})
	return s.enrich(ctx, o)
}

// AdminCancelOrder cancels from any status other than cancelled.
func (s *ApplicationService) AdminCancelOrder(ctx context.Context, orderID string) (resp *OrderResponse, err error) {
	ctx, done := s.begin(ctx, "admin_cancel", attribute.String("order_id", orderID))
	defer func() { done(err) }()

	o, err := s.transition(ctx, orderID, func(o *order.Order) (order.Patch, error) {
		return o.CancelByAdmin()
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Order cancelled by staff", zap.String("order_id", o.ID()))
	s.notifyUser(ctx, o.UserID(), notification.Message{
		Title:   "Order cancelled",
		Content: fmt.Sprintf(statusMessages[order.StatusCancelled], o.ID()),
		Kind:    notification.KindOrderCancel,
	})
	return s.enrich(ctx, o)
}

// UserConfirmDelivery marks a shipping order delivered on the customer's word.
func (s *ApplicationService) UserConfirmDelivery(ctx context.Context, userID, orderID string) (resp *OrderResponse, err error) {
	ctx, done := s.begin(ctx, "confirm_delivery", attribute.String("order_id", orderID))
	defer func() { done(err) }()

	o, err := s.transition(ctx, orderID, func(o *order.Order) (order.Patch, error) {
		return o.ConfirmDelivery(userID, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.notifyStaff(ctx, notification.Message{
		Title:   "Delivery confirmed",
		Content: fmt.Sprintf("Customer confirmed delivery of order %s", o.ID()),
		Kind:    notification.KindOrderStatus,
	})
	return s.enrich(ctx, o)
}

// UserChangePaymentMethod switches a pending, unpaid order between cash and
// gateway. Moving to cash books the sale entries if they were not booked yet.
func (s *ApplicationService) UserChangePaymentMethod(ctx context.Context, userID, orderID string, req ChangePaymentMethodRequest) (resp *OrderResponse, err error) {
	ctx, done := s.begin(ctx, "change_payment_method",
		attribute.String("order_id", orderID),
		attribute.String("payment_method", req.PaymentMethod),
	)
	defer func() { done(err) }()

	method, ok := order.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		return nil, order.NewInvalidOrderError("payment_method", "unsupported payment method: "+req.PaymentMethod)
	}

	var o *order.Order
	uow := s.uowFactory.New()
	err = uow.Execute(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		patch, err := o.ChangePaymentMethod(userID, method)
		if err != nil {
			return err
		}
		if method == order.MethodCash && !o.StockCommitted() {
			if err := s.bookItems(ctx, o, -1, inventory.ReasonSale(o.ID()), "switched to cash"); err != nil {
				return err
			}
			patch = patch.Merge(o.MarkStockCommitted())
		}
		if err := s.orderRepo.Update(ctx, o.ID(), patch); err != nil {
			return err
		}
		uow.RegisterDirty(o)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyStaff(ctx, notification.Message{
		Title:   "Payment method changed",
		Content: fmt.Sprintf("Order %s now pays by %s", o.ID(), o.PaymentMethod()),
		Kind:    notification.KindPaymentMethod,
	})
	return s.enrich(ctx, o)
}

// transition loads the order, runs one behavior method and persists its
// patch. When the behavior cancels an order whose stock was booked, the
// cancel entries are written in the same transaction.
func (s *ApplicationService) transition(ctx context.Context, orderID string, change func(o *order.Order) (order.Patch, error)) (*order.Order, error) {
	var o *order.Order
	uow := s.uowFactory.New()
	err := uow.Execute(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		committed := o.StockCommitted()
		patch, err := change(o)
		if err != nil {
			return err
		}
		if committed && o.Status() == order.StatusCancelled {
			if err := s.bookItems(ctx, o, 1, inventory.ReasonCancel(o.ID()), "order cancelled"); err != nil {
				return err
			}
		}
		if err := s.orderRepo.Update(ctx, o.ID(), patch); err != nil {
			return err
		}
		uow.RegisterDirty(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// bookItems writes one ledger entry per item; sign is -1 for a sale, +1 for
// a compensation.
func (s *ApplicationService) bookItems(ctx context.Context, o *order.Order, sign int, reason inventory.Reason, note string) error {
	for _, item := range o.Items() {
		_, err := s.ledger.Apply(ctx, inventory.Entry{
			ProductID: item.ProductID(),
			Change:    sign * item.Quantity(),
			Reason:    reason,
			Note:      note,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ============================================================================
// Queries
// ============================================================================

// GetOrder returns the read model. Customers may only read their own orders.
func (s *ApplicationService) GetOrder(ctx context.Context, actor Actor, orderID string) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() {
		if err := o.EnsureOwnedBy(actor.UserID); err != nil {
			return nil, err
		}
	}
	return s.enrich(ctx, o)
}

// ListMyOrders returns the caller's orders, newest first.
func (s *ApplicationService) ListMyOrders(ctx context.Context, userID string) ([]*OrderResponse, error) {
	orders, err := s.orderRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.enrichAll(ctx, orders)
}

// ListOrders is the staff listing.
func (s *ApplicationService) ListOrders(ctx context.Context, query ListOrdersQuery) (*OrderListResponse, error) {
	filter := order.Filter{UserID: query.UserID}
	if query.Status != "" {
		status, ok := order.ParseStatus(query.Status)
		if !ok {
			return nil, order.NewInvalidOrderError("status", "unknown order status: "+query.Status)
		}
		filter.Status = status
	}
	if query.PaymentStatus != "" {
		status, ok := order.ParsePaymentStatus(query.PaymentStatus)
		if !ok {
			return nil, order.NewInvalidOrderError("payment_status", "unknown payment status: "+query.PaymentStatus)
		}
		filter.PaymentStatus = status
	}
	if query.PaymentMethod != "" {
		method, ok := order.ParsePaymentMethod(query.PaymentMethod)
		if !ok {
			return nil, order.NewInvalidOrderError("payment_method", "unsupported payment method: "+query.PaymentMethod)
		}
		filter.PaymentMethod = method
	}
	if query.From != nil {
		filter.From = *query.From
	}
	if query.To != nil {
		filter.To = *query.To
	}

	page := shared.Page{Number: query.Page, Size: query.Size}.Normalize()
	orders, total, err := s.orderRepo.FindBySpecification(ctx, filter.Specification(), page)
	if err != nil {
		return nil, err
	}
	items, err := s.enrichAll(ctx, orders)
	if err != nil {
		return nil, err
	}
	return &OrderListResponse{Items: items, Total: total, Page: page.Number, Size: page.Size}, nil
}

func (s *ApplicationService) enrich(ctx context.Context, o *order.Order) (*OrderResponse, error) {
	responses, err := s.enrichAll(ctx, []*order.Order{o})
	if err != nil {
		return nil, err
	}
	return responses[0], nil
}

// enrichAll joins addresses and item returns onto the orders.
func (s *ApplicationService) enrichAll(ctx context.Context, orders []*order.Order) ([]*OrderResponse, error) {
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID()
	}
	returns, err := s.returnRepo.FindByOrderIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byOrder := make(map[string][]*productreturn.ProductReturn)
	for _, r := range returns {
		byOrder[r.OrderID()] = append(byOrder[r.OrderID()], r)
	}

	addresses := make(map[string]*customer.Address)
	responses := make([]*OrderResponse, len(orders))
	for i, o := range orders {
		address, seen := addresses[o.AddressID()]
		if !seen {
			address, err = s.addresses.FindByID(ctx, o.AddressID())
			if err != nil {
				return nil, err
			}
			addresses[o.AddressID()] = address
		}
		responses[i] = toOrderResponse(o, address, byOrder[o.ID()])
	}
	return responses, nil
}

// ============================================================================
// Notifications
// ============================================================================

func (s *ApplicationService) notifyUser(ctx context.Context, userID string, msg notification.Message) {
	if err := s.notifier.NotifyUser(ctx, userID, msg); err != nil {
		logger.Warn("Notify user failed",
			zap.String("user_id", userID),
			zap.String("kind", string(msg.Kind)),
			zap.Error(err),
		)
	}
}

func (s *ApplicationService) notifyStaff(ctx context.Context, msg notification.Message) {
	if err := s.notifier.NotifyAdminsAndStaff(ctx, msg); err != nil {
		logger.Warn("Notify staff failed",
			zap.String("kind", string(msg.Kind)),
			zap.Error(err),
		)
	}
}
