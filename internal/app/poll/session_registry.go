package poll

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"menupoll/internal/pkg/logx"
)

var (
	// ErrSessionNotFound is returned when an operation references an unknown session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionIDExhausted is returned when no further session id can be allocated.
	ErrSessionIDExhausted = errors.New("session id space exhausted")
)

// PollOutcome describes how an inbound poll was attached to a session.
type PollOutcome string

const (
	// OutcomeCreated means a new session was allocated for the poll.
	OutcomeCreated PollOutcome = "created"

	// OutcomeReconnected means a closed session got a new pending request.
	OutcomeReconnected PollOutcome = "reconnected"

	// OutcomeReplaced means the session was still open; the newer request took over and the older one was yielded.
	OutcomeReplaced PollOutcome = "replaced"

	// OutcomeResumed means the same request was attached again; nothing changed.
	OutcomeResumed PollOutcome = "resumed"

	// OutcomeNotFound means the referenced session does not exist.
	OutcomeNotFound PollOutcome = "not_found"
)

// SessionRegistry owns all sessions, keyed by session id.
type SessionRegistry struct {
	// sessions maps session id to Session.
	sessions map[uint64]*Session

	// lastID is the most recently allocated id.
	lastID uint64

	// grace is how long a closed session waits for a reconnect before removal.
	grace time.Duration

	// mu protects sessions and lastID.
	mu sync.RWMutex

	now func() time.Time

	logger zerolog.Logger
}

// NewSessionRegistry creates an empty registry whose closed sessions are kept for grace before removal.
func NewSessionRegistry(grace time.Duration) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[uint64]*Session),
		grace:    grace,
		now:      time.Now,
		logger:   logx.Component("SessionRegistry"),
	}
}

// Create stores a new session for conn, optionally bound to userID, and returns its id.
func (r *SessionRegistry) Create(conn Conn, userID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lastID == math.MaxUint64 {
		return nil, ErrSessionIDExhausted
	}

	r.lastID++
	s := newSession(r.lastID, conn, userID, r.now())
	r.sessions[s.id] = s

	return s, nil
}

// Get returns the session with the given id, or nil.
func (r *SessionRegistry) Get(id uint64) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	return s
}

// Rebind makes conn the pending request of session id.
// The returned stale conn, if any, was open and must be yielded by the caller.
func (r *SessionRegistry) Rebind(id uint64, conn Conn) (PollOutcome, Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return OutcomeNotFound, nil
	}

	return s.rebind(conn, r.now())
}

// AssignUser binds userID to the session unless a user is already bound.
// It returns the user that ends up bound.
func (r *SessionRegistry) AssignUser(id uint64, userID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return "", ErrSessionNotFound
	}

	bound := s.assignUser(userID)
	if bound != userID {
		r.logger.Debug().
			Uint64("session_id", id).
			Str("bound_user", bound).
			Str("requested_user", userID).
			Msg("Session already bound to a user. Assignment ignored.")
	}

	return bound, nil
}

// Release detaches conn from session id when it is the current request, marking the session closed.
// It reports false when the session is unknown or conn is stale.
func (r *SessionRegistry) Release(id uint64, conn Conn) bool {
	s := r.Get(id)
	if s == nil {
		return false
	}

	if !s.release(conn, r.now()) {
		r.logger.Debug().Uint64("session_id", id).Msg("Ignoring release for STALE connection.")
		return false
	}

	return true
}

// RemoveClosed deletes every session that has had no live request for the grace period
// and returns the removed ids.
func (r *SessionRegistry) RemoveClosed() map[uint64]struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := make(map[uint64]struct{})

	for id, s := range r.sessions {
		if s.expired(now, r.grace) {
			delete(r.sessions, id)
			removed[id] = struct{}{}
		}
	}

	return removed
}

// IDs returns the set of ids currently present.
func (r *SessionRegistry) IDs() map[uint64]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make(map[uint64]struct{}, len(r.sessions))
	for id := range r.sessions {
		ids[id] = struct{}{}
	}
	return ids
}

// Snapshot returns the sessions currently present, in no particular order.
func (r *SessionRegistry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	return list
}

// Len returns the number of sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
