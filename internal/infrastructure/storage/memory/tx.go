// Package memory provides in-memory repository implementations. Used in
// tests and for running the engine without a database.
package memory

import (
	"context"
	"sync"
)

type txKey struct{}

// TxManager implements tx.Manager with a process-wide mutex. One writer at
// a time gives the same serialization the postgres row locks provide;
// nested RunInTransaction calls join the outer critical section.
type TxManager struct {
	mu sync.Mutex
}

// NewTxManager creates a memory transaction manager.
func NewTxManager() *TxManager {
	return &TxManager{}
}

// RunInTransaction executes fn under the global lock, reentrantly.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, struct{}{}))
}

// ReadOnly executes fn under the same lock.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransaction(ctx, fn)
}
