package poll

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindSessionRequiresMatchingUser(t *testing.T) {
	now := time.Now()
	u := newUser("42", "Ann", time.Now)

	assert.False(t, u.BindSession(newSession(1, &fakeConn{}, "", now)), "anonymous session")
	assert.False(t, u.BindSession(newSession(2, &fakeConn{}, "7", now)), "foreign session")
	assert.True(t, u.BindSession(newSession(3, &fakeConn{}, "42", now)))

	assert.Equal(t, []uint64{3}, u.SessionIDs())
}

func TestPushDeliversAtMostOncePerConn(t *testing.T) {
	now := time.Now()
	u := newUser("42", "Ann", time.Now)

	c1, c2, dead := &fakeConn{}, &fakeConn{}, &fakeConn{}
	dead.kill()

	for i, c := range []*fakeConn{c1, c2, dead} {
		require.True(t, u.BindSession(newSession(uint64(i+1), c, "42", now)))
	}

	env := NewEnvelope(CartChangedBody{}, 100)
	assert.Equal(t, 2, u.Push(env))
	assert.Equal(t, []Envelope{env}, c1.received())
	assert.Equal(t, []Envelope{env}, c2.received())
	assert.Empty(t, dead.received())

	assert.Zero(t, u.Push(NewEnvelope(CartChangedBody{}, 101)), "no conn is open until the next poll")
	assert.Len(t, c1.received(), 1)
}

func TestPushAfterRebindDeliversAgain(t *testing.T) {
	now := time.Now()
	u := newUser("42", "Ann", time.Now)

	s := newSession(1, &fakeConn{}, "42", now)
	require.True(t, u.BindSession(s))
	require.Equal(t, 1, u.Push(NewEnvelope(CartChangedBody{}, 100)))

	next := &fakeConn{}
	outcome, stale := s.rebind(next, now)
	assert.Equal(t, OutcomeReconnected, outcome)
	assert.Nil(t, stale)

	env := NewEnvelope(OrderChangedBody{OrderID: 3}, 101)
	assert.Equal(t, 1, u.Push(env))
	assert.Equal(t, []Envelope{env}, next.received())
}

func TestReconcileDropsUnknownSessions(t *testing.T) {
	now := time.Now()
	u := newUser("42", "Ann", time.Now)
	for id := uint64(1); id <= 4; id++ {
		require.True(t, u.BindSession(newSession(id, &fakeConn{}, "42", now)))
	}

	dropped := u.Reconcile(map[uint64]struct{}{2: {}, 4: {}, 9: {}})

	assert.Equal(t, 2, dropped)
	assert.Equal(t, []uint64{2, 4}, u.SessionIDs())
}

func TestUserRegistryGetOrCreate(t *testing.T) {
	r := NewUserRegistry()
	assert.Nil(t, r.Get("42"))

	var wg sync.WaitGroup
	users := make([]*User, 16)
	for i := range users {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			users[i] = r.GetOrCreate("42", "Ann")
		}(i)
	}
	wg.Wait()

	for _, u := range users {
		assert.Same(t, users[0], u)
	}

	again := r.GetOrCreate("42", "Other")
	assert.Same(t, users[0], again)
	assert.Equal(t, "Ann", again.Name(), "an existing user keeps its name")
	assert.Equal(t, 1, r.Len())
	assert.Len(t, r.Snapshot(), 1)
}
