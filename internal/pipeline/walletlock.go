// internal/pipeline/walletlock.go
package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// walletLocks serializes submissions per wallet so two concurrent requests
// cannot race each other's blockhash and balance reads.
type walletLocks struct {
	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

func newWalletLocks() *walletLocks {
	return &walletLocks{locks: make(map[string]*semaphore.Weighted)}
}

func (w *walletLocks) acquire(ctx context.Context, wallet string) (release func(), err error) {
	w.mu.Lock()
	sem, ok := w.locks[wallet]
	if !ok {
		sem = semaphore.NewWeighted(1)
		w.locks[wallet] = sem
	}
	w.mu.Unlock()

	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { sem.Release(1) }, nil
}
