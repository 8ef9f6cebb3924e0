package poll

import (
	"sync"
	"time"
)

// Session is one logical long-poll slot that survives reconnects of its client.
// It refers to its User by identifier only; the User is resolved through the UserRegistry.
type Session struct {
	// id never changes after creation.
	id uint64

	// mu guards every field below.
	mu sync.Mutex

	// userID is empty until a sign-in binds it and is never cleared afterwards.
	userID string

	// conn is the request currently awaiting completion, nil after a completion.
	conn Conn

	// closed is true when no live conn is attached.
	closed bool

	// closedAt records when the session last became closed.
	closedAt time.Time
}

func newSession(id uint64, conn Conn, userID string, now time.Time) *Session {
	s := &Session{
		id:     id,
		userID: userID,
		conn:   conn,
	}

	if conn == nil || conn.Closed() {
		s.conn = nil
		s.closed = true
		s.closedAt = now
	}

	return s
}

// ID returns the session identifier.
func (s *Session) ID() uint64 {
	return s.id
}

// UserID returns the bound user identifier, or "" for anonymous sessions.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.userID
}

// IsOpen reports whether the session holds a live pending request.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return !s.closed && s.conn != nil && !s.conn.Closed()
}

// assignUser sets the user if none is bound yet and returns the bound user.
func (s *Session) assignUser(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == "" {
		s.userID = userID
	}

	return s.userID
}

// take detaches the open conn and marks the session closed.
// It returns nil when there is nothing to deliver to, so each conn is handed out at most once.
func (s *Session) take(now time.Time) Conn {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.conn == nil {
		return nil
	}

	c := s.conn
	s.conn = nil
	s.closed = true
	s.closedAt = now

	if c.Closed() {
		return nil
	}

	return c
}

// rebind attaches conn as the pending request.
// A still-open previous conn is returned so the caller can yield it outside of any lock.
func (s *Session) rebind(conn Conn, now time.Time) (PollOutcome, Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == conn && !s.closed {
		return OutcomeResumed, nil
	}

	var stale Conn
	outcome := OutcomeReconnected

	if !s.closed && s.conn != nil && !s.conn.Closed() {
		stale = s.conn
		outcome = OutcomeReplaced
	}

	s.conn = conn
	s.closed = false

	if conn.Closed() {
		s.conn = nil
		s.closed = true
		s.closedAt = now
	}

	return outcome, stale
}

// release detaches conn if it is still the current one. It reports false for stale conns.
func (s *Session) release(conn Conn, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != conn {
		return false
	}

	s.conn = nil
	if !s.closed {
		s.closed = true
		s.closedAt = now
	}

	return true
}

// expired reports whether the session has had no live conn for at least grace.
// A conn whose client went away is detected here and marks the session closed.
func (s *Session) expired(now time.Time, grace time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil && !s.conn.Closed() {
		return false
	}

	s.conn = nil
	if !s.closed {
		s.closed = true
		s.closedAt = now
	}

	return now.Sub(s.closedAt) >= grace
}
