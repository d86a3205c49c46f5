package po

import (
	"time"

	"ecommerce/infrastructure/outbox"
)

// OutboxEventPO Outbox event persistence object
// Implements transactional outbox pattern for reliable event publishing
type OutboxEventPO struct {
	ID          string    `gorm:"primaryKey;size:64"`
	AggregateID string    `gorm:"size:64;index;not null"`
	EventType   string    `gorm:"size:100;index;not null"` // e.g., "order.paid", "stock.changed"
	Payload     string    `gorm:"type:json;not null"`
	Status      string    `gorm:"size:20;default:PENDING;not null;index:idx_outbox_status_created,priority:1"`
	RetryCount  int       `gorm:"default:0;not null"`
	CreatedAt   time.Time `gorm:"precision:3;index:idx_outbox_status_created,priority:2"`
	UpdatedAt   time.Time `gorm:"precision:3"`
}

func (OutboxEventPO) TableName() string {
	return "outbox_events"
}

func FromOutboxRecord(r outbox.Record) *OutboxEventPO {
	return &OutboxEventPO{
		ID:          r.ID,
		AggregateID: r.AggregateID,
		EventType:   r.EventType,
		Payload:     r.Payload,
		Status:      string(r.Status),
		RetryCount:  r.RetryCount,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (po *OutboxEventPO) ToRecord() outbox.Record {
	return outbox.Record{
		ID:          po.ID,
		AggregateID: po.AggregateID,
		EventType:   po.EventType,
		Payload:     po.Payload,
		Status:      outbox.Status(po.Status),
		RetryCount:  po.RetryCount,
		CreatedAt:   po.CreatedAt,
		UpdatedAt:   po.UpdatedAt,
	}
}
