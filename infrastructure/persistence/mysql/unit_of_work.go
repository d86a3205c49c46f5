package mysql

import (
	"context"
	"fmt"

	"ecommerce/domain/shared"
	"ecommerce/infrastructure/persistence"
	"ecommerce/infrastructure/persistence/retry"

	"gorm.io/gorm"
)

// UnitOfWork implements the Unit of Work pattern with GORM
// It manages database transactions and collects domain events from aggregates
type UnitOfWork struct {
	db               *gorm.DB
	aggregates       []shared.AggregateRoot
	outboxRepository *OutboxRepository
	retryConfig      retry.Config
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{
		db:               db,
		outboxRepository: NewOutboxRepository(db),
		retryConfig:      retry.DefaultConfig,
	}
}

// SetRetryConfig updates the retry configuration for this UnitOfWork
func (u *UnitOfWork) SetRetryConfig(config retry.Config) {
	u.retryConfig = config
}

// Execute runs fn inside a database transaction:
// 1. Joins the transaction already carried by ctx, or begins a new one
// 2. Executes the business function with the tx in context
// 3. Writes events of registered aggregates to the outbox in the same tx
// 4. Commits on success, rolls back on error
// 5. Runs shared.AfterCommit hooks once the commit succeeded
// A new transaction is retried as a whole on retryable errors (see retry.IsRetryableError).
// A failed commit is never retried.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		u.aggregates = nil
		if err := fn(ctx); err != nil {
			return err
		}
		return u.flushEvents(ctx)
	}

	executeOnce := func(ctx context.Context) error {
		// Reset aggregates for this attempt
		u.aggregates = nil

		tx := u.db.WithContext(ctx).Begin()
		if tx.Error != nil {
			return translateError("database", fmt.Errorf("failed to begin transaction: %w", tx.Error))
		}
		txCtx, runHooks := shared.WithCommitHooks(persistence.ContextWithTx(ctx, tx))

		if err := fn(txCtx); err != nil {
			tx.Rollback()
			return err
		}
		if err := u.flushEvents(txCtx); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit().Error; err != nil {
			return commitError(err)
		}
		runHooks()
		return nil
	}

	return retry.ExecuteWithRetry(ctx, u.retryConfig, executeOnce)
}

func commitError(err error) error {
	return translateError("database", fmt.Errorf("failed to commit transaction: %w: %w", retry.ErrCommitOutcomeUnknown, err))
}

func (u *UnitOfWork) flushEvents(txCtx context.Context) error {
	for _, agg := range u.aggregates {
		for _, event := range agg.PullEvents() {
			if err := u.outboxRepository.SaveEvent(txCtx, event); err != nil {
				return fmt.Errorf("failed to save event to outbox: %w", err)
			}
		}
	}
	u.aggregates = nil
	return nil
}

// RegisterNew registers a newly created aggregate root for event collection
func (u *UnitOfWork) RegisterNew(aggregate shared.AggregateRoot) {
	u.aggregates = append(u.aggregates, aggregate)
}

// RegisterDirty registers a modified aggregate root for event collection
func (u *UnitOfWork) RegisterDirty(aggregate shared.AggregateRoot) {
	u.aggregates = append(u.aggregates, aggregate)
}

// RegisterRemoved registers a deleted aggregate root for event collection
func (u *UnitOfWork) RegisterRemoved(aggregate shared.AggregateRoot) {
	u.aggregates = append(u.aggregates, aggregate)
}

// Compile-time check that UnitOfWork implements shared.UnitOfWork
var _ shared.UnitOfWork = (*UnitOfWork)(nil)
