package order

import "ecommerce/domain/shared"

type PlacedEvent struct {
	shared.BaseEvent
	userID        string
	paymentMethod PaymentMethod
	orderTotal    shared.Money
	itemCount     int
}

func newPlacedEvent(o *Order) *PlacedEvent {
	return &PlacedEvent{
		BaseEvent:     shared.NewBaseEvent("order.placed", o.id),
		userID:        o.userID,
		paymentMethod: o.paymentMethod,
		orderTotal:    o.orderTotal,
		itemCount:     len(o.items),
	}
}

func (e *PlacedEvent) Payload() map[string]any {
	return map[string]any{
		"user_id":        e.userID,
		"payment_method": string(e.paymentMethod),
		"order_total":    e.orderTotal.Amount(),
		"item_count":     e.itemCount,
	}
}

type PaidEvent struct {
	shared.BaseEvent
	userID        string
	transactionID string
	amount        shared.Money
}

// NewPaidEvent is recorded by the workflow once the conditional paid update wins.
func NewPaidEvent(o *Order) *PaidEvent {
	return &PaidEvent{
		BaseEvent:     shared.NewBaseEvent("order.paid", o.id),
		userID:        o.userID,
		transactionID: o.transactionID,
		amount:        o.FinalTotal(),
	}
}

func (e *PaidEvent) Payload() map[string]any {
	return map[string]any{
		"user_id":        e.userID,
		"transaction_id": e.transactionID,
		"amount":         e.amount.Amount(),
	}
}

type StatusChangedEvent struct {
	shared.BaseEvent
	userID        string
	from          Status
	to            Status
	paymentStatus PaymentStatus
}

func newStatusChangedEvent(o *Order, from Status) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseEvent:     shared.NewBaseEvent("order.status_changed", o.id),
		userID:        o.userID,
		from:          from,
		to:            o.status,
		paymentStatus: o.paymentStatus,
	}
}

func (e *StatusChangedEvent) From() Status { return e.from }
func (e *StatusChangedEvent) To() Status   { return e.to }

func (e *StatusChangedEvent) Payload() map[string]any {
	return map[string]any{
		"user_id":        e.userID,
		"from":           string(e.from),
		"to":             string(e.to),
		"payment_status": string(e.paymentStatus),
	}
}

type CancelledEvent struct {
	shared.BaseEvent
	userID      string
	cancelledBy string
}

func newCancelledEvent(o *Order, by string) *CancelledEvent {
	return &CancelledEvent{
		BaseEvent:   shared.NewBaseEvent("order.cancelled", o.id),
		userID:      o.userID,
		cancelledBy: by,
	}
}

func (e *CancelledEvent) CancelledBy() string { return e.cancelledBy }

func (e *CancelledEvent) Payload() map[string]any {
	return map[string]any{
		"user_id":      e.userID,
		"cancelled_by": e.cancelledBy,
	}
}

type PaymentMethodChangedEvent struct {
	shared.BaseEvent
	userID string
	from   PaymentMethod
	to     PaymentMethod
}

func newPaymentMethodChangedEvent(o *Order, from PaymentMethod) *PaymentMethodChangedEvent {
	return &PaymentMethodChangedEvent{
		BaseEvent: shared.NewBaseEvent("order.payment_method_changed", o.id),
		userID:    o.userID,
		from:      from,
		to:        o.paymentMethod,
	}
}

func (e *PaymentMethodChangedEvent) Payload() map[string]any {
	return map[string]any{
		"user_id": e.userID,
		"from":    string(e.from),
		"to":      string(e.to),
	}
}
