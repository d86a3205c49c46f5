package mocks

import (
	"context"
	"sync"

	"ecommerce/domain/notification"
	"ecommerce/infrastructure/outbox"
)

// SentNotification one recorded notification; UserID is empty for staff broadcasts.
type SentNotification struct {
	UserID  string
	Message notification.Message
}

// Notifier records notifications. Err, when set, is returned from every call.
type Notifier struct {
	mu   sync.Mutex
	sent []SentNotification
	Err  error
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) NotifyUser(ctx context.Context, userID string, msg notification.Message) error {
	return n.record(SentNotification{UserID: userID, Message: msg})
}

func (n *Notifier) NotifyAdminsAndStaff(ctx context.Context, msg notification.Message) error {
	return n.record(SentNotification{Message: msg})
}

func (n *Notifier) record(s SentNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.sent = append(n.sent, s)
	return nil
}

func (n *Notifier) Sent() []SentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]SentNotification(nil), n.sent...)
}

// CountKind counts recorded notifications of one kind.
func (n *Notifier) CountKind(kind notification.Kind) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, s := range n.sent {
		if s.Message.Kind == kind {
			count++
		}
	}
	return count
}

// Publisher records published outbox records. Err, when set, fails every publish.
type Publisher struct {
	mu        sync.Mutex
	published []outbox.Record
	Err       error
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Publish(ctx context.Context, record outbox.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.published = append(p.published, record)
	return nil
}

func (p *Publisher) Published() []outbox.Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]outbox.Record(nil), p.published...)
}

var (
	_ notification.Notifier = (*Notifier)(nil)
	_ outbox.Publisher      = (*Publisher)(nil)
)
