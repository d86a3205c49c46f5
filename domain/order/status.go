package order

import "strings"

// Status 订单状态
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipping   Status = "shipping"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusReturned   Status = "returned"
)

// PaymentStatus 支付状态，与订单状态正交
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
	PaymentFailed PaymentStatus = "failed"
)

// PaymentMethod 支付方式
type PaymentMethod string

const (
	MethodCash    PaymentMethod = "cash"
	MethodGateway PaymentMethod = "gateway"
)

// staff-driven transitions; cancelled and returned are terminal
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipping, StatusCancelled},
	StatusShipping:   {StatusDelivered, StatusCancelled},
	StatusDelivered:  {StatusReturned},
}

func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusProcessing, StatusShipping, StatusDelivered, StatusCancelled, StatusReturned:
		return st, true
	}
	return "", false
}

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch ps := PaymentStatus(strings.ToLower(strings.TrimSpace(s))); ps {
	case PaymentUnpaid, PaymentPaid, PaymentFailed:
		return ps, true
	}
	return "", false
}

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodCash, MethodGateway:
		return m, true
	}
	return "", false
}

// CanTransitionTo reports whether staff may move an order from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}
