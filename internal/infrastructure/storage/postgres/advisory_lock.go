package postgres

import (
	"context"
	"fmt"
	"hash/fnv"
)

// AdvisoryLocker exposes the storage layer's named-mutex capability.
// Locks are transaction-scoped (pg_advisory_xact_lock): the lock releases at
// commit or rollback, never earlier. The document sequencer serializes all
// writers sharing a code prefix through this.
type AdvisoryLocker struct {
	txManager *TxManager
}

// NewAdvisoryLocker creates a new advisory locker.
func NewAdvisoryLocker(txManager *TxManager) *AdvisoryLocker {
	return &AdvisoryLocker{txManager: txManager}
}

// AcquireTxLock blocks until the transaction-scoped lock for name is held.
// Must be called inside a transaction; the statement timeout set by the
// transaction manager bounds the wait.
func (l *AdvisoryLocker) AcquireTxLock(ctx context.Context, name string) error {
	if l.txManager.GetTx(ctx) == nil {
		return fmt.Errorf("advisory lock %q requires transaction context", name)
	}

	querier := l.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", LockKey(name)); err != nil {
		return fmt.Errorf("acquire advisory lock %q: %w", name, err)
	}
	return nil
}

// LockKey computes the stable 64-bit key for a lock name.
// FNV-1a keeps the key deterministic across processes and restarts.
func LockKey(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}
