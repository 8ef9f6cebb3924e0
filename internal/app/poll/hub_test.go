package poll

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menupoll/internal/configs"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()

	h := NewHub(&configs.AppConfig{
		SessionGracePeriod: time.Minute,
		ReaperInterval:     time.Hour,
	})
	t.Cleanup(h.Shutdown)
	return h
}

func TestHubScenario(t *testing.T) {
	h := newTestHub(t)
	conn := &fakeConn{}

	res, err := h.Poll(PollRequest{Conn: conn})
	require.NoError(t, err)
	assert.Equal(t, PollResult{SessionID: 1, Outcome: OutcomeCreated}, res)

	res, err = h.Poll(PollRequest{SessionID: 1, Conn: conn})
	require.NoError(t, err)
	assert.Equal(t, PollResult{SessionID: 1, Outcome: OutcomeResumed}, res, "no new id for an open session")

	bound, err := h.AssignUser(1, "42", "Ann")
	require.NoError(t, err)
	assert.Equal(t, "42", bound)
	assert.Equal(t, "42", h.LookupSession(1).UserID())

	env := Envelope{ID: "e1", Timestamp: 100, Body: CartChangedBody{}}
	assert.Equal(t, 1, h.NotifyUser("42", env))
	assert.Equal(t, []Envelope{env}, conn.received())
}

func TestHubUnknownSessionIDIssuesNewSession(t *testing.T) {
	h := newTestHub(t)

	res, err := h.Poll(PollRequest{SessionID: 77, Conn: &fakeConn{}})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, res.Outcome)
	assert.Equal(t, uint64(1), res.SessionID)
	assert.Nil(t, h.LookupSession(77))
}

func TestHubReplacedPollYieldsStaleConn(t *testing.T) {
	h := newTestHub(t)

	first := &fakeConn{}
	res, err := h.Poll(PollRequest{Conn: first})
	require.NoError(t, err)

	second := &fakeConn{}
	res, err = h.Poll(PollRequest{SessionID: res.SessionID, Conn: second})
	require.NoError(t, err)
	assert.Equal(t, OutcomeReplaced, res.Outcome)
	assert.True(t, first.wasYielded())

	h.Release(res.SessionID, first)
	assert.True(t, h.LookupSession(res.SessionID).IsOpen(), "releasing the stale conn changes nothing")

	env := NewEnvelope(MenuChangedBody{}, 5)
	assert.Equal(t, 1, h.Broadcast(env))
	assert.Equal(t, []Envelope{env}, second.received())
}

func TestHubReconnectPreservesBinding(t *testing.T) {
	h := newTestHub(t)

	c1 := &fakeConn{}
	res, err := h.Poll(PollRequest{Conn: c1})
	require.NoError(t, err)
	_, err = h.AssignUser(res.SessionID, "42", "Ann")
	require.NoError(t, err)

	h.Release(res.SessionID, c1)
	assert.True(t, c1.wasYielded())
	assert.False(t, h.LookupSession(res.SessionID).IsOpen())

	assert.Zero(t, h.NotifyUser("42", NewEnvelope(CartChangedBody{}, 1)), "events for closed sessions are dropped")

	c2 := &fakeConn{}
	res, err = h.Poll(PollRequest{SessionID: res.SessionID, Conn: c2})
	require.NoError(t, err)
	assert.Equal(t, OutcomeReconnected, res.Outcome)
	assert.Equal(t, "42", h.LookupSession(res.SessionID).UserID())

	env := NewEnvelope(OrderChangedBody{OrderID: 9}, 2)
	assert.Equal(t, 1, h.NotifyUser("42", env))
	assert.Equal(t, []Envelope{env}, c2.received())
}

func TestHubPollWithUserBindsSession(t *testing.T) {
	h := newTestHub(t)

	res, err := h.Poll(PollRequest{UserID: "42", UserName: "Ann", Conn: &fakeConn{}})
	require.NoError(t, err)

	u := h.LookupUser("42")
	require.NotNil(t, u)
	assert.Equal(t, "Ann", u.Name())
	assert.Equal(t, []uint64{res.SessionID}, u.SessionIDs())

	// A second user cannot take over the bound session.
	res2, err := h.Poll(PollRequest{SessionID: res.SessionID, UserID: "7", UserName: "Bob", Conn: &fakeConn{}})
	require.NoError(t, err)
	assert.Equal(t, "42", h.LookupSession(res2.SessionID).UserID())
	assert.Empty(t, h.LookupUser("7").SessionIDs())
}

func TestHubAssignUserUnknownSession(t *testing.T) {
	h := newTestHub(t)

	_, err := h.AssignUser(5, "42", "Ann")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Nil(t, h.LookupUser("42"), "no user is created for a missing session")
}

func TestHubAssignUserReportsExistingBinding(t *testing.T) {
	h := newTestHub(t)

	res, err := h.Poll(PollRequest{Conn: &fakeConn{}})
	require.NoError(t, err)

	bound, err := h.AssignUser(res.SessionID, "1", "Bob")
	require.NoError(t, err)
	assert.Equal(t, "1", bound)

	bound, err = h.AssignUser(res.SessionID, "2", "Ann")
	require.NoError(t, err)
	assert.Equal(t, "1", bound, "first writer keeps the session")
	assert.Empty(t, h.LookupUser("2").SessionIDs())
	assert.Equal(t, []uint64{res.SessionID}, h.LookupUser("1").SessionIDs())
}

func TestHubShutdownYieldsPendingPolls(t *testing.T) {
	h := NewHub(&configs.AppConfig{SessionGracePeriod: time.Minute, ReaperInterval: time.Hour})

	conn := NewPendingConn(context.Background())
	_, err := h.Poll(PollRequest{Conn: conn})
	require.NoError(t, err)

	h.Shutdown()

	select {
	case <-conn.Done():
	case <-time.After(time.Second):
		t.Fatal("pending poll was not yielded")
	}
	_, ok := conn.Result()
	assert.False(t, ok)
}

func TestHubSweepRemovesExpiredSessions(t *testing.T) {
	h := newTestHub(t)
	clock := newTestClock()
	h.sessions.now = clock.Now

	c := &fakeConn{}
	res, err := h.Poll(PollRequest{UserID: "42", Conn: c})
	require.NoError(t, err)
	h.Release(res.SessionID, c)

	clock.Advance(time.Minute)
	stats := h.Sweep()

	assert.Equal(t, SweepStats{Removed: 1, Dropped: 1}, stats)
	assert.Nil(t, h.LookupSession(res.SessionID))
	assert.Empty(t, h.LookupUser("42").SessionIDs())
}
