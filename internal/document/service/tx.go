package service

import (
	"context"
	"sync"
	"time"

	dErrors "doctrail/pkg/domain-errors"
)

// StoreTx provides the transactional boundary for lifecycle operations.
// Implementations wrap a database transaction or, in-memory, a coarse lock
// with snapshot rollback. One RunInTx call is one atomicity unit: partial
// completion must never be observable.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// defaultTxTimeout is the maximum duration for a lifecycle transaction.
const defaultTxTimeout = 5 * time.Second

// Snapshotter is implemented by the in-memory stores so MemoryTx can undo
// every write a failed operation made, mirroring a database rollback.
type Snapshotter interface {
	Snapshot() any
	Restore(snapshot any)
}

// MemoryTx serializes lifecycle operations behind one lock and restores
// store snapshots when the operation fails. It backs unit tests and any
// deployment without a database.
type MemoryTx struct {
	mu      sync.Mutex
	stores  []Snapshotter
	timeout time.Duration
}

func NewMemoryTx(stores ...Snapshotter) *MemoryTx {
	return &MemoryTx{stores: stores}
}

func (t *MemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	snapshots := make([]any, len(t.stores))
	for i, store := range t.stores {
		snapshots[i] = store.Snapshot()
	}

	if err := fn(ctx); err != nil {
		for i, store := range t.stores {
			store.Restore(snapshots[i])
		}
		return err
	}
	return nil
}
