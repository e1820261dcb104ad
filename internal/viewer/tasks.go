package viewer

import (
	"context"
	"sync"
)

// Tasks tracks loader goroutines that must finish before GPU resources are freed.
// Once closed it refuses new work, so goroutines it does not track, like native
// file dialogs, may still call Go safely after shutdown.
type Tasks struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewTasks returns a group whose context is cancelled by Close.
func NewTasks(parent context.Context) *Tasks {
	ctx, cancel := context.WithCancel(parent)
	return &Tasks{ctx: ctx, cancel: cancel}
}

// Context is cancelled when the group closes.
func (t *Tasks) Context() context.Context {
	return t.ctx
}

// Go runs fn in a tracked goroutine. It reports false, without running fn,
// after Close.
func (t *Tasks) Go(fn func(ctx context.Context)) bool {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return false
	}
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		fn(t.ctx)
	}()
	return true
}

// Close cancels the context and waits for tracked goroutines.
func (t *Tasks) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.cancel()
	t.wg.Wait()
}
