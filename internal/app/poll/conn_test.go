package poll

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records completions. A dead fakeConn behaves like a request whose client went away.
type fakeConn struct {
	mu        sync.Mutex
	dead      bool
	finished  bool
	yielded   bool
	envelopes []Envelope
}

func (c *fakeConn) Complete(env Envelope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finished || c.dead {
		return false
	}
	c.finished = true
	c.envelopes = append(c.envelopes, env)
	return true
}

func (c *fakeConn) Yield() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finished || c.dead {
		return false
	}
	c.finished = true
	c.yielded = true
	return true
}

func (c *fakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.finished || c.dead
}

func (c *fakeConn) kill() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dead = true
}

func (c *fakeConn) received() []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]Envelope(nil), c.envelopes...)
}

func (c *fakeConn) wasYielded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.yielded
}

func TestPendingConnCompletesOnce(t *testing.T) {
	c := NewPendingConn(context.Background())
	require.False(t, c.Closed())

	env := NewEnvelope(CartChangedBody{}, 100)
	assert.True(t, c.Complete(env))
	assert.False(t, c.Complete(NewEnvelope(MenuChangedBody{}, 101)))
	assert.False(t, c.Yield())
	assert.True(t, c.Closed())

	select {
	case <-c.Done():
	default:
		t.Fatal("Done must be closed after Complete")
	}

	got, ok := c.Result()
	require.True(t, ok)
	assert.Equal(t, env, got)
}

func TestPendingConnYield(t *testing.T) {
	c := NewPendingConn(context.Background())

	assert.True(t, c.Yield())
	assert.False(t, c.Complete(NewEnvelope(CartChangedBody{}, 1)))

	_, ok := c.Result()
	assert.False(t, ok)
	assert.True(t, c.Closed())
}

func TestPendingConnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewPendingConn(ctx)

	cancel()

	assert.True(t, c.Closed())
	assert.False(t, c.Complete(NewEnvelope(CartChangedBody{}, 1)))

	_, ok := c.Result()
	assert.False(t, ok)
}

func TestPendingConnConcurrentCompletion(t *testing.T) {
	c := NewPendingConn(context.Background())

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(ts int64) {
			defer wg.Done()
			if c.Complete(NewEnvelope(CartChangedBody{}, ts)) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(int64(i))
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}
