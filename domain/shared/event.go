package shared

import (
	"fmt"
	"time"
)

type DomainEvent interface {
	EventName() string
	OccurredOn() time.Time
	GetAggregateID() string
}

// EventPayload is implemented by events that carry business data beyond the
// envelope. The outbox serializes it next to the envelope fields.
type EventPayload interface {
	Payload() map[string]any
}

func ValidateEvent(event DomainEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	if event.EventName() == "" {
		return fmt.Errorf("event name cannot be empty")
	}

	aggregateID := event.GetAggregateID()
	if aggregateID == "" {
		return fmt.Errorf("aggregate ID cannot be empty")
	}

	occurredOn := event.OccurredOn()
	if occurredOn.IsZero() {
		return fmt.Errorf("occurred on time cannot be zero")
	}

	return nil
}

// BaseEvent carries the envelope shared by every domain event.
type BaseEvent struct {
	name        string
	aggregateID string
	occurredOn  time.Time
}

func NewBaseEvent(name, aggregateID string) BaseEvent {
	return BaseEvent{name: name, aggregateID: aggregateID, occurredOn: time.Now()}
}

func (e BaseEvent) EventName() string      { return e.name }
func (e BaseEvent) OccurredOn() time.Time  { return e.occurredOn }
func (e BaseEvent) GetAggregateID() string { return e.aggregateID }
