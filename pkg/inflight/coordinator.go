// Package inflight tracks outstanding network operations so logout can
// cancel them all at once, and guards new operations while a logout is in
// progress.
//
// Cancellation is best-effort: the server may still execute a cancelled
// request, so result handlers must re-check LoggingOut before applying a
// late response rather than relying on the cancel alone.
package inflight

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/fleetsure/fleetsure-go/pkg/idx"
)

// ErrLoggingOut reports an operation refused because a logout is in
// progress.
var ErrLoggingOut = errors.New("inflight: logout in progress")

// Coordinator tracks cancel functions for every in-flight operation.
type Coordinator struct {
	mu         sync.Mutex
	inflight   map[idx.ID]context.CancelFunc
	loggingOut atomic.Bool
}

func New() *Coordinator {
	return &Coordinator{inflight: make(map[idx.ID]context.CancelFunc)}
}

// Track registers a new operation. It returns a derived context that
// CancelAll can cancel, and a done func the caller must invoke when the
// operation finishes. While a logout is in progress Track refuses with
// ErrLoggingOut.
func (c *Coordinator) Track(ctx context.Context) (context.Context, func(), error) {
	if c.loggingOut.Load() {
		return nil, nil, ErrLoggingOut
	}

	ctx, cancel := context.WithCancel(ctx)
	id := idx.New()

	c.mu.Lock()
	c.inflight[id] = cancel
	c.mu.Unlock()

	done := func() {
		c.mu.Lock()
		delete(c.inflight, id)
		c.mu.Unlock()
		cancel()
	}
	return ctx, done, nil
}

// CancelAll cancels every tracked operation.
func (c *Coordinator) CancelAll() {
	c.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(c.inflight))
	for id, cancel := range c.inflight {
		cancels = append(cancels, cancel)
		delete(c.inflight, id)
	}
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// BeginLogout raises the logging-out guard. It reports false when another
// logout already holds the guard, which makes concurrent logouts collapse
// into one.
func (c *Coordinator) BeginLogout() bool {
	return c.loggingOut.CompareAndSwap(false, true)
}

// EndLogout lowers the guard. Always called, even after a failed logout, so
// the client cannot get stuck refusing every request.
func (c *Coordinator) EndLogout() {
	c.loggingOut.Store(false)
}

// LoggingOut reports whether the guard is raised.
func (c *Coordinator) LoggingOut() bool {
	return c.loggingOut.Load()
}

// Active returns the number of tracked operations.
func (c *Coordinator) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}
