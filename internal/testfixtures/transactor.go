package testfixtures

import (
	"context"
	"sync"
)

// Transactor runs fn directly and counts calls. Set Err to make every
// transaction fail before fn runs.
type Transactor struct {
	mu    sync.Mutex
	Calls int
	Err   error
}

func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	t.Calls++
	err := t.Err
	t.mu.Unlock()
	if err != nil {
		return err
	}
	return fn(ctx)
}
