package mocks

import (
	"context"
	"fmt"

	"ecommerce/domain/shared"
)

type txMarker struct{}

// UnitOfWork runs fn against the shared Store. Units of work are serialized;
// on error the store is restored to the state it had when the unit began.
// Writes made outside any unit of work while one is running are not
// protected by the snapshot.
type UnitOfWork struct {
	store      *Store
	aggregates []shared.AggregateRoot
}

func NewUnitOfWork(store *Store) *UnitOfWork {
	return &UnitOfWork{store: store}
}

func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	u.aggregates = nil

	// join the surrounding unit of work
	if ctx.Value(txMarker{}) != nil {
		if err := fn(ctx); err != nil {
			return err
		}
		return u.flushEvents(ctx)
	}

	u.store.txMu.Lock()
	defer u.store.txMu.Unlock()

	snapshot := u.store.snapshot()
	txCtx, runHooks := shared.WithCommitHooks(context.WithValue(ctx, txMarker{}, true))
	if err := fn(txCtx); err != nil {
		u.store.restore(snapshot)
		return err
	}
	if err := u.flushEvents(txCtx); err != nil {
		u.store.restore(snapshot)
		return err
	}
	runHooks()
	return nil
}

func (u *UnitOfWork) flushEvents(ctx context.Context) error {
	outbox := NewOutboxRepository(u.store)
	for _, agg := range u.aggregates {
		for _, event := range agg.PullEvents() {
			if err := outbox.SaveEvent(ctx, event); err != nil {
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

type UnitOfWorkFactory struct {
	store *Store
}

func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) New() shared.UnitOfWork {
	return NewUnitOfWork(f.store)
}

var (
	_ shared.UnitOfWork        = (*UnitOfWork)(nil)
	_ shared.UnitOfWorkFactory = (*UnitOfWorkFactory)(nil)
)
