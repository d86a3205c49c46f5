package order

import "time"

// Patch is the write set of a state change. Nil fields are left untouched.
type Patch struct {
	Status         *Status
	PaymentStatus  *PaymentStatus
	PaymentMethod  *PaymentMethod
	TransactionID  *string
	PaidAt         *time.Time
	Note           *string
	StockCommitted *bool
}

func (p Patch) IsEmpty() bool {
	return p.Status == nil && p.PaymentStatus == nil && p.PaymentMethod == nil &&
		p.TransactionID == nil && p.PaidAt == nil && p.Note == nil && p.StockCommitted == nil
}

// Merge returns p overlaid with other's non-nil fields.
func (p Patch) Merge(other Patch) Patch {
	if other.Status != nil {
		p.Status = other.Status
	}
	if other.PaymentStatus != nil {
		p.PaymentStatus = other.PaymentStatus
	}
	if other.PaymentMethod != nil {
		p.PaymentMethod = other.PaymentMethod
	}
	if other.TransactionID != nil {
		p.TransactionID = other.TransactionID
	}
	if other.PaidAt != nil {
		p.PaidAt = other.PaidAt
	}
	if other.Note != nil {
		p.Note = other.Note
	}
	if other.StockCommitted != nil {
		p.StockCommitted = other.StockCommitted
	}
	return p
}

// PaidPatch is the write set of a successful gateway callback.
func PaidPatch(transactionID string, at time.Time) Patch {
	paid := PaymentPaid
	return Patch{PaymentStatus: &paid, PaidAt: &at, TransactionID: &transactionID}
}

// FailedPatch is the write set of a verified but unsuccessful gateway callback.
func FailedPatch() Patch {
	failed := PaymentFailed
	return Patch{PaymentStatus: &failed}
}

// StockCommittedPatch flags that sale entries were booked for every item.
func StockCommittedPatch() Patch {
	committed := true
	return Patch{StockCommitted: &committed}
}

// ApplyPatch ⚠️ 仅供仓储层同步内存状态使用，业务代码应调用行为方法
func (o *Order) ApplyPatch(p Patch) {
	if p.Status != nil {
		o.status = *p.Status
	}
	if p.PaymentStatus != nil {
		o.paymentStatus = *p.PaymentStatus
	}
	if p.PaymentMethod != nil {
		o.paymentMethod = *p.PaymentMethod
	}
	if p.TransactionID != nil {
		o.transactionID = *p.TransactionID
	}
	if p.PaidAt != nil {
		at := *p.PaidAt
		o.paidAt = &at
	}
	if p.Note != nil {
		o.note = *p.Note
	}
	if p.StockCommitted != nil {
		o.stockCommitted = *p.StockCommitted
	}
	o.updatedAt = time.Now()
}

// ============================================================================
// Behavior
// ============================================================================

// EnsureOwnedBy fails with Forbidden when userID does not own the order.
func (o *Order) EnsureOwnedBy(userID string) error {
	if userID == "" || o.userID != userID {
		return NewNotOwnerError(o.id)
	}
	return nil
}

// MarkStockCommitted records that sale entries were booked for this order.
func (o *Order) MarkStockCommitted() Patch {
	p := StockCommittedPatch()
	o.ApplyPatch(p)
	return p
}

// ChangeStatus is the staff-driven transition. Delivering an order that is
// not yet paid settles it (cash on delivery).
func (o *Order) ChangeStatus(next Status, now time.Time) (Patch, error) {
	if _, ok := ParseStatus(string(next)); !ok {
		return Patch{}, NewInvalidOrderError("status", "unknown order status: "+string(next))
	}
	if !o.status.CanTransitionTo(next) {
		return Patch{}, NewInvalidTransitionError(o.status, next)
	}

	from := o.status
	p := Patch{Status: &next}
	if next == StatusDelivered && o.paymentStatus != PaymentPaid {
		p = p.Merge(settledPatch(now))
	}
	if next == StatusCancelled {
		p = p.Merge(o.releasePatch())
	}
	o.ApplyPatch(p)
	o.Record(newStatusChangedEvent(o, from))
	if next == StatusCancelled {
		o.Record(newCancelledEvent(o, "staff"))
	}
	return p, nil
}

// CancelByUser is the customer self-service cancel. Only a pending, unpaid
// order qualifies.
func (o *Order) CancelByUser(userID string) (Patch, error) {
	if err := o.EnsureOwnedBy(userID); err != nil {
		return Patch{}, err
	}
	if o.status != StatusPending {
		return Patch{}, NewInvalidOrderStateError("only pending orders can be cancelled, order is " + string(o.status))
	}
	if o.paymentStatus != PaymentUnpaid {
		return Patch{}, NewInvalidOrderStateError("order payment is " + string(o.paymentStatus) + ", it can no longer be cancelled")
	}

	from := o.status
	cancelled, failed := StatusCancelled, PaymentFailed
	p := Patch{Status: &cancelled, PaymentStatus: &failed}.Merge(o.releasePatch())
	o.ApplyPatch(p)
	o.Record(newStatusChangedEvent(o, from))
	o.Record(newCancelledEvent(o, "customer"))
	return p, nil
}

// CancelByAdmin cancels from any status except cancelled. An unpaid order
// also has its payment marked failed.
func (o *Order) CancelByAdmin() (Patch, error) {
	if o.status == StatusCancelled {
		return Patch{}, NewInvalidOrderStateError("order is already cancelled")
	}

	from := o.status
	cancelled := StatusCancelled
	p := Patch{Status: &cancelled}
	if o.paymentStatus == PaymentUnpaid {
		failed := PaymentFailed
		p.PaymentStatus = &failed
	}
	p = p.Merge(o.releasePatch())
	o.ApplyPatch(p)
	o.Record(newStatusChangedEvent(o, from))
	o.Record(newCancelledEvent(o, "admin"))
	return p, nil
}

var confirmDeliveryRejections = map[Status]string{
	StatusPending:    "order has not been processed yet",
	StatusProcessing: "order is still being prepared and has not shipped",
	StatusDelivered:  "order has already been delivered",
	StatusCancelled:  "order has been cancelled",
	StatusReturned:   "order has been returned",
}

// ConfirmDelivery is the customer acknowledging receipt of a shipping order.
func (o *Order) ConfirmDelivery(userID string, now time.Time) (Patch, error) {
	if err := o.EnsureOwnedBy(userID); err != nil {
		return Patch{}, err
	}
	if o.status != StatusShipping {
		msg, ok := confirmDeliveryRejections[o.status]
		if !ok {
			msg = "order cannot be confirmed in status " + string(o.status)
		}
		return Patch{}, NewInvalidOrderStateError(msg)
	}

	from := o.status
	delivered := StatusDelivered
	p := Patch{Status: &delivered}
	if o.paymentStatus != PaymentPaid {
		p = p.Merge(settledPatch(now))
	}
	o.ApplyPatch(p)
	o.Record(newStatusChangedEvent(o, from))
	return p, nil
}

// ChangePaymentMethod switches cash and gateway while the order is still
// pending and unpaid.
func (o *Order) ChangePaymentMethod(userID string, method PaymentMethod) (Patch, error) {
	if err := o.EnsureOwnedBy(userID); err != nil {
		return Patch{}, err
	}
	if method != MethodCash && method != MethodGateway {
		return Patch{}, NewInvalidOrderError("payment_method", "unsupported payment method: "+string(method))
	}
	if method == o.paymentMethod {
		return Patch{}, NewInvalidOrderError("payment_method", "order already uses payment method "+string(method))
	}
	if o.status != StatusPending {
		return Patch{}, NewInvalidOrderStateError("payment method can only be changed on pending orders, order is " + string(o.status))
	}
	if o.paymentStatus != PaymentUnpaid {
		return Patch{}, NewInvalidOrderStateError("payment method cannot be changed once payment is " + string(o.paymentStatus))
	}

	from := o.paymentMethod
	unpaid := PaymentUnpaid
	p := Patch{PaymentMethod: &method, PaymentStatus: &unpaid}
	o.ApplyPatch(p)
	o.Record(newPaymentMethodChangedEvent(o, from))
	return p, nil
}

// PrepareRepayment allows another gateway attempt for an unpaid or failed
// gateway order. A failed payment is reset to unpaid so the next callback
// can win the conditional update.
func (o *Order) PrepareRepayment(userID string) (Patch, error) {
	if err := o.EnsureOwnedBy(userID); err != nil {
		return Patch{}, err
	}
	if o.paymentMethod != MethodGateway {
		return Patch{}, NewInvalidOrderStateError("repayment is only available for gateway orders")
	}
	if o.status == StatusCancelled || o.status == StatusReturned {
		return Patch{}, NewInvalidOrderStateError("order is " + string(o.status) + ", it can no longer be paid")
	}
	switch o.paymentStatus {
	case PaymentUnpaid:
		return Patch{}, nil
	case PaymentFailed:
		unpaid := PaymentUnpaid
		p := Patch{PaymentStatus: &unpaid}
		o.ApplyPatch(p)
		return p, nil
	default:
		return Patch{}, NewInvalidOrderStateError("order has already been paid")
	}
}

// releasePatch clears the commitment flag when stock was booked, so the
// caller knows it must compensate.
func (o *Order) releasePatch() Patch {
	if !o.stockCommitted {
		return Patch{}
	}
	released := false
	return Patch{StockCommitted: &released}
}

func settledPatch(now time.Time) Patch {
	paid := PaymentPaid
	return Patch{PaymentStatus: &paid, PaidAt: &now}
}
