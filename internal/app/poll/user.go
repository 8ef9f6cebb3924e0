package poll

import (
	"sort"
	"sync"
	"time"
)

// User is a signed-in client identity and the set of sessions bound to it.
// Its session set has its own lock so pushing to one user never blocks another.
type User struct {
	id   string
	name string

	// sessions is keyed by session id. It may briefly hold sessions already
	// removed from the SessionRegistry until the reaper reconciles it.
	sessions map[uint64]*Session

	// mu protects sessions.
	mu sync.RWMutex

	now func() time.Time
}

func newUser(id, name string, now func() time.Time) *User {
	return &User{
		id:       id,
		name:     name,
		sessions: make(map[uint64]*Session),
		now:      now,
	}
}

// ID returns the user identifier.
func (u *User) ID() string {
	return u.id
}

// Name returns the display name set at creation.
func (u *User) Name() string {
	return u.name
}

// BindSession adds s to the user's active sessions.
// It reports false, leaving the set unchanged, when s is bound to a different user.
func (u *User) BindSession(s *Session) bool {
	if s.UserID() != u.id {
		return false
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	u.sessions[s.id] = s
	return true
}

// Reconcile drops every session whose id is not in live and returns how many were dropped.
func (u *User) Reconcile(live map[uint64]struct{}) int {
	u.mu.Lock()
	defer u.mu.Unlock()

	dropped := 0
	for id := range u.sessions {
		if _, ok := live[id]; !ok {
			delete(u.sessions, id)
			dropped++
		}
	}
	return dropped
}

// Push completes the pending request of every open session of the user with env
// and returns the number of requests completed. Closed sessions are skipped; the event is not queued for them.
func (u *User) Push(env Envelope) int {
	now := u.now()

	u.mu.RLock()
	conns := make([]Conn, 0, len(u.sessions))
	for _, s := range u.sessions {
		if c := s.take(now); c != nil {
			conns = append(conns, c)
		}
	}
	u.mu.RUnlock()

	return completeAll(conns, env)
}

// SessionIDs returns the ids of the bound sessions in ascending order.
func (u *User) SessionIDs() []uint64 {
	u.mu.RLock()
	defer u.mu.RUnlock()

	ids := make([]uint64, 0, len(u.sessions))
	for id := range u.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// completeAll completes each conn with env. It must be called without holding any lock.
func completeAll(conns []Conn, env Envelope) int {
	delivered := 0
	for _, c := range conns {
		if c.Complete(env) {
			delivered++
		}
	}
	return delivered
}
