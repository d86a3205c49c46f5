package shared

import (
	"context"
	"sync"
)

// UnitOfWork 管理事务边界与聚合事件收集。
// Execute 在已有事务的 ctx 中调用时加入该事务，不会开启嵌套事务。
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
	RegisterNew(aggregate AggregateRoot)
	RegisterDirty(aggregate AggregateRoot)
	RegisterRemoved(aggregate AggregateRoot)
}

type UnitOfWorkFactory interface {
	New() UnitOfWork
}

type OutboxRepository interface {
	SaveEvent(ctx context.Context, event DomainEvent) error
}

// ============================================================================
// 提交回调 (Commit hooks)
// ============================================================================

type commitHooksKey struct{}

type commitHooks struct {
	mu  sync.Mutex
	fns []func()
}

func (h *commitHooks) run() {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// WithCommitHooks gives a new transaction its hook list. The returned func
// runs the hooks and must be called only after a successful commit; on
// rollback the list is dropped with the context.
func WithCommitHooks(ctx context.Context) (context.Context, func()) {
	h := &commitHooks{}
	return context.WithValue(ctx, commitHooksKey{}, h), h.run
}

// AfterCommit defers fn until the outermost transaction carried by ctx
// commits. Without a transaction fn runs immediately.
func AfterCommit(ctx context.Context, fn func()) {
	h, ok := ctx.Value(commitHooksKey{}).(*commitHooks)
	if !ok {
		fn()
		return
	}
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}
