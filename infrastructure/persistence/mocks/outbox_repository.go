package mocks

import (
	"context"
	"fmt"
	"time"

	"ecommerce/domain/shared"
	"ecommerce/infrastructure/outbox"
)

// OutboxRepository in-memory outbox table
type OutboxRepository struct {
	store *Store
}

func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

func (r *OutboxRepository) SaveEvent(ctx context.Context, event shared.DomainEvent) error {
	record, err := outbox.NewRecord(event)
	if err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.data.outbox = append(r.store.data.outbox, record)
	return nil
}

func (r *OutboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]outbox.Record, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var pending []outbox.Record
	for _, rec := range r.store.data.outbox {
		if rec.Status == outbox.StatusPending {
			pending = append(pending, rec)
			if len(pending) == limit {
				break
			}
		}
	}
	return pending, nil
}

func (r *OutboxRepository) MarkEventProcessing(ctx context.Context, id string) error {
	return r.transition(id, func(rec *outbox.Record) error {
		if rec.Status != outbox.StatusPending {
			return fmt.Errorf("event not found or already being processed: %s", id)
		}
		rec.Status = outbox.StatusProcessing
		return nil
	})
}

func (r *OutboxRepository) MarkEventPublished(ctx context.Context, id string) error {
	return r.transition(id, func(rec *outbox.Record) error {
		rec.Status = outbox.StatusPublished
		return nil
	})
}

func (r *OutboxRepository) MarkEventFailed(ctx context.Context, id string, maxRetries int) error {
	return r.transition(id, func(rec *outbox.Record) error {
		rec.RetryCount++
		rec.Status = outbox.StatusFailed
		if rec.RetryCount < maxRetries {
			rec.Status = outbox.StatusPending
		}
		return nil
	})
}

func (r *OutboxRepository) transition(id string, fn func(rec *outbox.Record) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.data.outbox {
		if r.store.data.outbox[i].ID == id {
			if err := fn(&r.store.data.outbox[i]); err != nil {
				return err
			}
			r.store.data.outbox[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("event not found: %s", id)
}

var (
	_ shared.OutboxRepository = (*OutboxRepository)(nil)
	_ outbox.Store            = (*OutboxRepository)(nil)
)
