package poll

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepReconcilesUsers(t *testing.T) {
	sessions, clock := newTestSessionRegistry(time.Minute)
	users := NewUserRegistry()
	reaper := NewReaper(sessions, users, time.Hour)

	u := users.GetOrCreate("42", "Ann")

	live := &fakeConn{}
	keep, err := sessions.Create(live, "42")
	require.NoError(t, err)
	require.True(t, u.BindSession(keep))

	gone := &fakeConn{}
	drop, err := sessions.Create(gone, "42")
	require.NoError(t, err)
	require.True(t, u.BindSession(drop))
	gone.kill()

	stats := reaper.Sweep()
	assert.Equal(t, SweepStats{}, stats, "grace period starts at detection")

	clock.Advance(time.Minute)
	stats = reaper.Sweep()
	assert.Equal(t, SweepStats{Removed: 1, Dropped: 1}, stats)

	assert.Equal(t, []uint64{keep.ID()}, u.SessionIDs())
	for _, u := range users.Snapshot() {
		for _, id := range u.SessionIDs() {
			assert.NotNil(t, sessions.Get(id), "user %s references removed session %d", u.ID(), id)
		}
	}
}

func TestReaperRunStopsWithContext(t *testing.T) {
	sessions := NewSessionRegistry(0)
	reaper := NewReaper(sessions, NewUserRegistry(), 5*time.Millisecond)

	c := &fakeConn{}
	_, err := sessions.Create(c, "")
	require.NoError(t, err)
	c.kill()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reaper.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return sessions.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}
