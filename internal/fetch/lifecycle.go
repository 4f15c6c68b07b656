// Package fetch coordinates the lifetime of outstanding network requests.
// Each logical operation (the list load, the live search, the detail
// fetch) owns one Lifecycle; starting a request through it cancels
// whatever request was previously in flight for that operation, so at most
// one request per operation is ever live. Completion handlers must check
// the token before applying a result: a cancelled request's outcome,
// success or error, never touches shared state.
package fetch

import (
	"context"
	"sync"
)

// Token identifies one outstanding request. Its context drives the network
// call, so cancelling the token also aborts the transport; the Cancelled
// check covers the race where a response arrived before the cancel did.
type Token struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Context returns the context the request must run under.
func (t *Token) Context() context.Context { return t.ctx }

// Cancelled reports whether the token was superseded or torn down.
func (t *Token) Cancelled() bool { return t.ctx.Err() != nil }

// Lifecycle enforces the at-most-one-in-flight policy for one logical
// operation. The zero value is ready to use.
type Lifecycle struct {
	mu     sync.Mutex
	active *Token
}

// Start cancels the previously issued token, if any, and returns a fresh
// one derived from parent.
func (l *Lifecycle) Start(parent context.Context) *Token {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	t := &Token{ctx: ctx, cancel: cancel}
	l.mu.Lock()
	prev := l.active
	l.active = t
	l.mu.Unlock()
	if prev != nil {
		prev.cancel()
	}
	return t
}

// Cancel aborts the in-flight request, if any. Used when the owning view
// is torn down so that a late response cannot mutate state afterwards.
func (l *Lifecycle) Cancel() {
	l.mu.Lock()
	prev := l.active
	l.active = nil
	l.mu.Unlock()
	if prev != nil {
		prev.cancel()
	}
}

// Finish releases the token if it is still the active one. Keeps the
// Lifecycle from pinning a completed request's context.
func (l *Lifecycle) Finish(t *Token) {
	l.mu.Lock()
	if l.active == t {
		l.active = nil
	}
	l.mu.Unlock()
	t.cancel()
}
