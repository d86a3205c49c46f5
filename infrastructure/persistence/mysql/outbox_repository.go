package mysql

import (
	"context"
	"fmt"

	"ecommerce/domain/shared"
	"ecommerce/infrastructure/outbox"
	"ecommerce/infrastructure/persistence"
	"ecommerce/infrastructure/persistence/mysql/po"

	"gorm.io/gorm"
)

// OutboxRepository MySQL/GORM implementation of outbox repository
// Implements transactional outbox pattern for reliable domain event publishing
type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// getDB returns the transaction from context if available, otherwise the default db
func (r *OutboxRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

// SaveEvent Save domain event to outbox table
// Uses transaction from context when called within UoW.Execute()
func (r *OutboxRepository) SaveEvent(ctx context.Context, event shared.DomainEvent) error {
	record, err := outbox.NewRecord(event)
	if err != nil {
		return err
	}
	if err := r.getDB(ctx).Create(po.FromOutboxRecord(record)).Error; err != nil {
		return fmt.Errorf("failed to save event to outbox: %w", err)
	}
	return nil
}

// GetPendingEvents Get pending events for processing, oldest first
func (r *OutboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]outbox.Record, error) {
	var events []po.OutboxEventPO
	err := r.getDB(ctx).
		Where("status = ?", string(outbox.StatusPending)).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", err)
	}

	records := make([]outbox.Record, len(events))
	for i := range events {
		records[i] = events[i].ToRecord()
	}
	return records, nil
}

// MarkEventProcessing Mark event as being processed
// Used by the relay to prevent concurrent processing
func (r *OutboxRepository) MarkEventProcessing(ctx context.Context, eventID string) error {
	result := r.getDB(ctx).
		Model(&po.OutboxEventPO{}).
		Where("id = ? AND status = ?", eventID, string(outbox.StatusPending)).
		Updates(map[string]any{
			"status":     string(outbox.StatusProcessing),
			"updated_at": gorm.Expr("NOW(3)"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("event not found or already being processed: %s", eventID)
	}
	return nil
}

// MarkEventPublished Mark event as successfully published
func (r *OutboxRepository) MarkEventPublished(ctx context.Context, eventID string) error {
	result := r.getDB(ctx).
		Model(&po.OutboxEventPO{}).
		Where("id = ?", eventID).
		Updates(map[string]any{
			"status":     string(outbox.StatusPublished),
			"updated_at": gorm.Expr("NOW(3)"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("event not found: %s", eventID)
	}
	return nil
}

// MarkEventFailed increments retry_count in one statement and parks the event
// as FAILED once maxRetries is reached.
func (r *OutboxRepository) MarkEventFailed(ctx context.Context, eventID string, maxRetries int) error {
	result := r.getDB(ctx).
		Model(&po.OutboxEventPO{}).
		Where("id = ?", eventID).
		Updates(map[string]any{
			"retry_count": gorm.Expr("retry_count + 1"),
			"status": gorm.Expr("CASE WHEN retry_count + 1 < ? THEN ? ELSE ? END",
				maxRetries, string(outbox.StatusPending), string(outbox.StatusFailed)),
			"updated_at": gorm.Expr("NOW(3)"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("event not found: %s", eventID)
	}
	return nil
}

// Compile-time interface implementation check
var (
	_ shared.OutboxRepository = (*OutboxRepository)(nil)
	_ outbox.Store            = (*OutboxRepository)(nil)
)
