package productreturn

import "ecommerce/domain/shared"

type RequestedEvent struct {
	shared.BaseEvent
	orderID     string
	orderItemID string
	userID      string
	quantity    int
}

func newRequestedEvent(r *ProductReturn) *RequestedEvent {
	return &RequestedEvent{
		BaseEvent:   shared.NewBaseEvent("return.requested", r.id),
		orderID:     r.orderID,
		orderItemID: r.orderItemID,
		userID:      r.userID,
		quantity:    r.quantity,
	}
}

func (e *RequestedEvent) Payload() map[string]any {
	return map[string]any{
		"order_id":      e.orderID,
		"order_item_id": e.orderItemID,
		"user_id":       e.userID,
		"quantity":      e.quantity,
	}
}

type StatusChangedEvent struct {
	shared.BaseEvent
	orderID string
	from    Status
	to      Status
}

func newStatusChangedEvent(r *ProductReturn, from Status) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseEvent: shared.NewBaseEvent("return.status_changed", r.id),
		orderID:   r.orderID,
		from:      from,
		to:        r.status,
	}
}

func (e *StatusChangedEvent) From() Status { return e.from }
func (e *StatusChangedEvent) To() Status   { return e.to }

func (e *StatusChangedEvent) Payload() map[string]any {
	return map[string]any{
		"order_id": e.orderID,
		"from":     string(e.from),
		"to":       string(e.to),
	}
}
