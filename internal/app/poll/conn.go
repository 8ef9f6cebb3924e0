/*
Package poll contains the session registry and notification fan-out engine behind the long-poll endpoint.

This file defines Conn, the transport handle of a single pending poll request, and PendingConn,
its implementation for an HTTP request that is held open until it is completed or yielded.
*/
package poll

import (
	"context"
	"sync"
)

// Conn is the handle of one open poll request awaiting completion.
// Implementations must be safe for concurrent use and complete at most once.
type Conn interface {
	// Complete finishes the request with env.
	// It reports false if the request was already finished or its client went away.
	Complete(env Envelope) bool

	// Yield finishes the request without an event.
	Yield() bool

	// Closed reports whether the request was finished or abandoned by the client.
	Closed() bool
}

// PendingConn is a Conn bound to the lifetime of an inbound request context.
type PendingConn struct {
	ctx  context.Context
	done chan struct{}

	mu       sync.Mutex
	finished bool
	env      *Envelope
}

// NewPendingConn creates a PendingConn that reports itself closed once ctx is done.
func NewPendingConn(ctx context.Context) *PendingConn {
	return &PendingConn{
		ctx:  ctx,
		done: make(chan struct{}),
	}
}

// Complete implements Conn.
func (c *PendingConn) Complete(env Envelope) bool {
	return c.finish(&env)
}

// Yield implements Conn.
func (c *PendingConn) Yield() bool {
	return c.finish(nil)
}

func (c *PendingConn) finish(env *Envelope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finished || c.ctx.Err() != nil {
		return false
	}

	c.finished = true
	c.env = env
	close(c.done)

	return true
}

// Closed implements Conn.
func (c *PendingConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.finished || c.ctx.Err() != nil
}

// Done returns a channel that is closed when the request is completed or yielded.
func (c *PendingConn) Done() <-chan struct{} {
	return c.done
}

// Result returns the envelope the request was completed with.
// ok is false while the request is pending or when it was yielded.
func (c *PendingConn) Result() (env Envelope, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.env == nil {
		return Envelope{}, false
	}

	return *c.env, true
}
