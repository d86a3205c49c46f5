/*
Package notification hands user and staff notifications to the outbox relay.
Delivery (push, socket, e-mail) belongs to whoever consumes the
"notification" topic.
*/
package notification

import (
	"context"

	"ecommerce/domain/notification"
	"ecommerce/domain/shared"
)

const (
	audienceUser  = "user"
	audienceStaff = "staff"
)

// sentEvent is the outbox envelope of one notification.
type sentEvent struct {
	shared.BaseEvent
	audience string
	userID   string
	msg      notification.Message
}

func newSentEvent(audience, userID string, msg notification.Message) *sentEvent {
	aggregateID := userID
	if aggregateID == "" {
		aggregateID = audienceStaff
	}
	return &sentEvent{
		BaseEvent: shared.NewBaseEvent("notification."+audience, aggregateID),
		audience:  audience,
		userID:    userID,
		msg:       msg,
	}
}

func (e *sentEvent) Payload() map[string]any {
	return map[string]any{
		"audience": e.audience,
		"user_id":  e.userID,
		"kind":     string(e.msg.Kind),
		"title":    e.msg.Title,
		"content":  e.msg.Content,
	}
}

// OutboxNotifier writes notification rows to the outbox. It is called after
// the business transaction committed, so each row is its own write.
type OutboxNotifier struct {
	outbox shared.OutboxRepository
}

func NewOutboxNotifier(outbox shared.OutboxRepository) *OutboxNotifier {
	return &OutboxNotifier{outbox: outbox}
}

func (n *OutboxNotifier) NotifyUser(ctx context.Context, userID string, msg notification.Message) error {
	return n.outbox.SaveEvent(ctx, newSentEvent(audienceUser, userID, msg))
}

func (n *OutboxNotifier) NotifyAdminsAndStaff(ctx context.Context, msg notification.Message) error {
	return n.outbox.SaveEvent(ctx, newSentEvent(audienceStaff, "", msg))
}

var _ notification.Notifier = (*OutboxNotifier)(nil)
