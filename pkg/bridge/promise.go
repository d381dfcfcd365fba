package bridge

import (
	"context"
	"sync"
)

// Promise is the deferred result of a promise-style exec. It settles at most once.
type Promise struct {
	id     int64
	bridge *Bridge
	done   chan struct{}

	mu      sync.Mutex
	settled bool
	value   any
	err     error
}

func newPromise(b *Bridge, id int64) *Promise {
	return &Promise{id: id, bridge: b, done: make(chan struct{})}
}

// ID returns the correlation id of the command behind the promise.
func (p *Promise) ID() int64 {
	return p.id
}

// Progress adds a listener for keepCallback responses. Listeners run in
// registration order. Adding a listener after settlement is a no-op.
func (p *Promise) Progress(fn Handler) *Promise {
	if fn == nil || p.bridge == nil {
		return p
	}
	p.bridge.addProgressListener(p.id, fn)
	return p
}

// Done is closed once the promise settles.
func (p *Promise) Done() <-chan struct{} {
	return p.done
}

// Settled reports whether the promise has resolved or rejected.
func (p *Promise) Settled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settled
}

// Result returns the settled value and error. Before settlement both are nil.
func (p *Promise) Result() (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.err
}

// Wait blocks until the promise settles or ctx is done.
func (p *Promise) Wait(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Promise) resolve(value any) bool {
	return p.settle(value, nil)
}

func (p *Promise) reject(args any) bool {
	return p.settle(nil, &RejectedError{ID: p.id, Args: args})
}

func (p *Promise) settle(value any, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.settled {
		return false
	}
	p.settled = true
	p.value = value
	p.err = err
	close(p.done)
	return true
}
