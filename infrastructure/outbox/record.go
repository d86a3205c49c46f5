/*
Package outbox relays domain events that units of work wrote to the outbox
table. Records are created inside the business transaction; the worker
publishes them afterwards with at-least-once semantics.
*/
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ecommerce/domain/shared"

	"github.com/google/uuid"
)

// Status Outbox record status
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusPublished  Status = "PUBLISHED"
	StatusFailed     Status = "FAILED"
)

// Record is one serialized event awaiting publication.
type Record struct {
	ID          string
	AggregateID string
	EventType   string
	Payload     string
	Status      Status
	RetryCount  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Family is the first segment of the event type ("order.paid" -> "order").
func (r Record) Family() string {
	family, _, _ := strings.Cut(r.EventType, ".")
	return family
}

// NewRecord serializes a domain event: the envelope fields plus whatever the
// event exposes through shared.EventPayload.
func NewRecord(event shared.DomainEvent) (Record, error) {
	if err := shared.ValidateEvent(event); err != nil {
		return Record{}, fmt.Errorf("invalid domain event: %w", err)
	}

	data := map[string]any{
		"event_name":   event.EventName(),
		"aggregate_id": event.GetAggregateID(),
		"occurred_on":  event.OccurredOn(),
	}
	if p, ok := event.(shared.EventPayload); ok {
		for k, v := range p.Payload() {
			if _, reserved := data[k]; !reserved {
				data[k] = v
			}
		}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return Record{}, fmt.Errorf("failed to serialize event %s: %w", event.EventName(), err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Record{}, fmt.Errorf("failed to generate outbox ID: %w", err)
	}
	now := time.Now()
	return Record{
		ID:          id.String(),
		AggregateID: event.GetAggregateID(),
		EventType:   event.EventName(),
		Payload:     string(payload),
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Store is the relay's view of the outbox table.
type Store interface {
	GetPendingEvents(ctx context.Context, limit int) ([]Record, error)

	// MarkEventProcessing claims a pending record; it fails when another
	// worker already claimed it.
	MarkEventProcessing(ctx context.Context, id string) error
	MarkEventPublished(ctx context.Context, id string) error

	// MarkEventFailed increments the retry count and puts the record back to
	// pending until maxRetries is reached.
	MarkEventFailed(ctx context.Context, id string, maxRetries int) error
}

// Publisher delivers one record to the outside world.
type Publisher interface {
	Publish(ctx context.Context, record Record) error
}
