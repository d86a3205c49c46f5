package order

import (
	"context"
	"fmt"

	"ecommerce/domain/inventory"
	"ecommerce/domain/notification"
	"ecommerce/domain/order"
	"ecommerce/domain/productreturn"
	"ecommerce/domain/shared"
	"ecommerce/pkg/logger"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================================
// Product returns
// ============================================================================

// CreateReturnRequest opens a return for one item of a delivered order owned
// by userID. An item with a pending, approved or completed return cannot be
// requested again; a rejected one can.
func (s *ApplicationService) CreateReturnRequest(ctx context.Context, userID, orderID string, req CreateReturnRequest) (resp *ReturnResponse, err error) {
	ctx, done := s.begin(ctx, "create_return",
		attribute.String("order_id", orderID),
		attribute.String("order_item_id", req.OrderItemID),
	)
	defer func() { done(err) }()

	var r *productreturn.ProductReturn
	uow := s.uowFactory.New()
	err = uow.Execute(ctx, func(ctx context.Context) error {
		o, err := s.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.EnsureOwnedBy(userID); err != nil {
			return err
		}
		if o.Status() != order.StatusDelivered {
			return productreturn.NewInvalidReturnRequestError("only delivered orders can be returned, order is " + string(o.Status()))
		}

		item, found := findItem(o, req.OrderItemID)
		if !found {
			return productreturn.NewInvalidReturnRequestError("item " + req.OrderItemID + " does not belong to order " + orderID)
		}
		if req.Quantity > item.Quantity() {
			return productreturn.NewInvalidReturnRequestError(fmt.Sprintf("cannot return %d units, only %d were ordered", req.Quantity, item.Quantity()))
		}

		existing, err := s.returnRepo.FindByOrderItemID(ctx, item.ID())
		if err != nil {
			return err
		}
		if err := productreturn.CheckCanRequest(existing); err != nil {
			return err
		}

		r, err = productreturn.New(productreturn.NewParams{
			OrderID:     o.ID(),
			OrderItemID: item.ID(),
			ProductID:   item.ProductID(),
			UserID:      userID,
			Quantity:    req.Quantity,
			Reason:      req.Reason,
		})
		if err != nil {
			return err
		}
		if err := s.returnRepo.Create(ctx, r); err != nil {
			return err
		}
		uow.RegisterNew(r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Return requested",
		zap.String("return_id", r.ID()),
		zap.String("order_id", r.OrderID()),
		zap.Int("quantity", r.Quantity()),
	)
	s.notifyStaff(ctx, notification.Message{
		Title:   "Return requested",
		Content: fmt.Sprintf("Return of %d unit(s) requested on order %s", r.Quantity(), r.OrderID()),
		Kind:    notification.KindReturn,
	})
	return toReturnResponse(r), nil
}

// UpdateReturnStatus is the staff transition. Completing a return puts the
// returned units back into stock in the same transaction.
func (s *ApplicationService) UpdateReturnStatus(ctx context.Context, returnID string, req UpdateReturnStatusRequest) (resp *ReturnResponse, err error) {
	ctx, done := s.begin(ctx, "update_return",
		attribute.String("return_id", returnID),
		attribute.String("status", req.Status),
	)
	defer func() { done(err) }()

	next, ok := productreturn.ParseStatus(req.Status)
	if !ok {
		return nil, productreturn.NewInvalidReturnRequestError("unknown return status: " + req.Status)
	}

	var r *productreturn.ProductReturn
	uow := s.uowFactory.New()
	err = uow.Execute(ctx, func(ctx context.Context) error {
		var err error
		r, err = s.returnRepo.FindByID(ctx, returnID)
		if err != nil {
			return err
		}
		prev, err := r.TransitionTo(next)
		if err != nil {
			return err
		}
		if err := s.returnRepo.UpdateStatus(ctx, r, prev); err != nil {
			return err
		}
		if next == productreturn.StatusCompleted {
			_, err := s.ledger.Apply(ctx, inventory.Entry{
				ProductID: r.ProductID(),
				Change:    r.Quantity(),
				Reason:    inventory.ReasonReturn(r.ID()),
				Note:      "return completed",
			})
			if err != nil {
				return err
			}
		}
		uow.RegisterDirty(r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Return status changed",
		zap.String("return_id", r.ID()),
		zap.String("status", string(r.Status())),
	)
	if next == productreturn.StatusCompleted {
		s.notifyUser(ctx, r.UserID(), notification.Message{
			Title:   "Return completed",
			Content: fmt.Sprintf("Your return for order %s has been completed", r.OrderID()),
			Kind:    notification.KindReturn,
		})
	}
	return toReturnResponse(r), nil
}

// CancelReturnRequest withdraws a pending return owned by userID.
func (s *ApplicationService) CancelReturnRequest(ctx context.Context, userID, returnID string) (resp *ReturnResponse, err error) {
	ctx, done := s.begin(ctx, "cancel_return", attribute.String("return_id", returnID))
	defer func() { done(err) }()

	var r *productreturn.ProductReturn
	uow := s.uowFactory.New()
	err = uow.Execute(ctx, func(ctx context.Context) error {
		var err error
		r, err = s.returnRepo.FindByID(ctx, returnID)
		if err != nil {
			return err
		}
		if r.UserID() != userID {
			return shared.NewForbiddenError("product_return", "return "+returnID+" does not belong to the caller")
		}
		prev, err := r.Cancel()
		if err != nil {
			return err
		}
		if err := s.returnRepo.UpdateStatus(ctx, r, prev); err != nil {
			return err
		}
		uow.RegisterDirty(r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyStaff(ctx, notification.Message{
		Title:   "Return withdrawn",
		Content: fmt.Sprintf("Return %s on order %s was withdrawn by the customer", r.ID(), r.OrderID()),
		Kind:    notification.KindReturn,
	})
	return toReturnResponse(r), nil
}

// ListMyReturns returns the caller's returns, newest first.
func (s *ApplicationService) ListMyReturns(ctx context.Context, userID string, page, size int) (*ReturnListResponse, error) {
	return s.listReturns(ctx, productreturn.Filter{UserID: userID}, shared.Page{Number: page, Size: size})
}

// ListReturns is the staff listing.
func (s *ApplicationService) ListReturns(ctx context.Context, query ListReturnsQuery) (*ReturnListResponse, error) {
	filter := productreturn.Filter{OrderID: query.OrderID, UserID: query.UserID}
	if query.Status != "" {
		status, ok := productreturn.ParseStatus(query.Status)
		if !ok {
			return nil, productreturn.NewInvalidReturnRequestError("unknown return status: " + query.Status)
		}
		filter.Status = status
	}
	return s.listReturns(ctx, filter, shared.Page{Number: query.Page, Size: query.Size})
}

func (s *ApplicationService) listReturns(ctx context.Context, filter productreturn.Filter, page shared.Page) (*ReturnListResponse, error) {
	page = page.Normalize()
	returns, total, err := s.returnRepo.FindAll(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return &ReturnListResponse{
		Items: toReturnResponses(returns),
		Total: total,
		Page:  page.Number,
		Size:  page.Size,
	}, nil
}

func findItem(o *order.Order, itemID string) (order.OrderItem, bool) {
	for _, item := range o.Items() {
		if item.ID() == itemID {
			return item, true
		}
	}
	return order.OrderItem{}, false
}
