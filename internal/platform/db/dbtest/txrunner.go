// Package dbtest provides an in-memory db.TxRunner for service tests.
package dbtest

import (
	"context"
	"sync"

	"github.com/hospital/backoffice/internal/platform/db"
)

type inTxKey struct{}

// TxRunner serializes units of work with a mutex, which stands in for the
// row locks a real transaction takes. Nested calls join the outer unit.
// Mock repositories are not rolled back; tests assert on Commits/Rollbacks.
type TxRunner struct {
	mu        sync.Mutex
	stats     sync.Mutex
	Commits   int
	Rollbacks int
}

func NewTxRunner() *TxRunner { return &TxRunner{} }

func (r *TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(inTxKey{}) != nil {
		return fn(ctx)
	}

	r.mu.Lock()
	txCtx, flush := db.WithCommitHooks(context.WithValue(ctx, inTxKey{}, true))
	err := fn(txCtx)
	r.mu.Unlock()

	r.stats.Lock()
	if err != nil {
		r.Rollbacks++
	} else {
		r.Commits++
	}
	r.stats.Unlock()

	if err == nil {
		flush()
	}
	return err
}

// Counts returns the number of committed and rolled back units of work.
func (r *TxRunner) Counts() (commits, rollbacks int) {
	r.stats.Lock()
	defer r.stats.Unlock()
	return r.Commits, r.Rollbacks
}
