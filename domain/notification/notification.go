/*
Package notification is the fire-and-forget notification port. Delivery
(push, socket, e-mail) is someone else's concern.
*/
package notification

import "context"

// Kind 通知类型
type Kind string

const (
	KindOrderPlaced   Kind = "order_placed"
	KindOrderPaid     Kind = "order_paid"
	KindOrderStatus   Kind = "order_status"
	KindOrderCancel   Kind = "order_cancelled"
	KindPaymentMethod Kind = "payment_method"
	KindReturn        Kind = "product_return"
)

type Message struct {
	Title   string
	Content string
	Kind    Kind
}

// Notifier failures are logged by callers and never roll back business work.
type Notifier interface {
	NotifyUser(ctx context.Context, userID string, msg Message) error
	NotifyAdminsAndStaff(ctx context.Context, msg Message) error
}
