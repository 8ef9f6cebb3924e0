/*
Package poll contains the session registry and notification fan-out engine behind the long-poll endpoint.

This file defines the Hub, the single entry point used by the HTTP handlers. It is created once per
process, owns the session and user registries, the dispatcher and the reaper, and lives until Shutdown.
*/
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"menupoll/internal/configs"
	"menupoll/internal/pkg/logx"
)

// PollRequest describes one inbound poll.
type PollRequest struct {
	// SessionID is the Session-ID header value, 0 when absent.
	SessionID uint64

	// UserID is the User-ID header value, "" when absent.
	UserID string

	// UserName is used only when the user has to be created.
	UserName string

	// Conn is the pending request.
	Conn Conn
}

// PollResult reports which session the poll was attached to.
type PollResult struct {
	SessionID uint64
	Outcome   PollOutcome
}

// Hub coordinates sessions, users and notification delivery.
type Hub struct {
	sessions   *SessionRegistry
	users      *UserRegistry
	dispatcher *Dispatcher
	reaper     *Reaper

	// stop cancels the reaper loop.
	stop context.CancelFunc

	// wg is used to wait for the reaper goroutine to finish during shutdown.
	wg sync.WaitGroup

	logger zerolog.Logger
}

// NewHub constructs a Hub and starts its reaper loop.
func NewHub(cfg *configs.AppConfig) *Hub {
	sessions := NewSessionRegistry(cfg.SessionGracePeriod)
	users := NewUserRegistry()

	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		sessions:   sessions,
		users:      users,
		dispatcher: NewDispatcher(sessions, users),
		reaper:     NewReaper(sessions, users, cfg.ReaperInterval),
		stop:       cancel,
		logger:     logx.Component("Hub"),
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.reaper.Run(ctx)
	}()

	return h
}

// Poll creates a session for the request or attaches the request to an existing one.
// An unknown SessionID is treated like a first poll and gets a fresh id.
func (h *Hub) Poll(req PollRequest) (PollResult, error) {
	var u *User
	if req.UserID != "" {
		u = h.users.GetOrCreate(req.UserID, req.UserName)
	}

	if req.SessionID != 0 {
		outcome, stale := h.sessions.Rebind(req.SessionID, req.Conn)

		if outcome != OutcomeNotFound {
			if stale != nil {
				stale.Yield()
				h.logger.Warn().
					Uint64("session_id", req.SessionID).
					Msg("Session already had a pending poll. Yielded the old request for replacement.")
			}

			if u != nil {
				_, _ = h.bind(req.SessionID, u)
			}

			return PollResult{SessionID: req.SessionID, Outcome: outcome}, nil
		}

		h.logger.Info().Uint64("session_id", req.SessionID).Msg("Unknown session id. Issuing a new session.")
	}

	s, err := h.sessions.Create(req.Conn, req.UserID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to allocate session.")
		return PollResult{}, err
	}

	if u != nil {
		u.BindSession(s)
	}

	h.logger.Info().
		Uint64("session_id", s.ID()).
		Str("user_id", req.UserID).
		Int("total_sessions", h.sessions.Len()).
		Msg("Session created.")

	return PollResult{SessionID: s.ID(), Outcome: OutcomeCreated}, nil
}

// AssignUser binds a signed-in user to the session and returns the user the session ends up bound to.
// A session that already has a user keeps it, so the result differs from userID in that case.
func (h *Hub) AssignUser(sessionID uint64, userID, name string) (string, error) {
	if h.sessions.Get(sessionID) == nil {
		return "", ErrSessionNotFound
	}

	u := h.users.GetOrCreate(userID, name)
	return h.bind(sessionID, u)
}

func (h *Hub) bind(sessionID uint64, u *User) (string, error) {
	bound, err := h.sessions.AssignUser(sessionID, u.ID())
	if err != nil {
		return "", err
	}
	if bound != u.ID() {
		h.logger.Warn().
			Uint64("session_id", sessionID).
			Str("bound_user", bound).
			Str("requested_user", u.ID()).
			Msg("Session is bound to another user. Binding kept.")
		return bound, nil
	}

	if s := h.sessions.Get(sessionID); s != nil {
		u.BindSession(s)
	}
	return bound, nil
}

// Release ends conn's hold on the session after a poll timeout or client disconnect, then yields conn.
// Stale conns do not affect the session.
func (h *Hub) Release(sessionID uint64, conn Conn) {
	h.sessions.Release(sessionID, conn)
	conn.Yield()
}

// NotifyUser delivers env to the open sessions of userID.
func (h *Hub) NotifyUser(userID string, env Envelope) int {
	return h.dispatcher.NotifyUser(userID, env)
}

// Broadcast delivers env to every open session.
func (h *Hub) Broadcast(env Envelope) int {
	return h.dispatcher.Broadcast(env)
}

// LookupUser returns the user with id, or nil.
func (h *Hub) LookupUser(id string) *User {
	return h.users.Get(id)
}

// LookupSession returns the session with id, or nil.
func (h *Hub) LookupSession(id uint64) *Session {
	return h.sessions.Get(id)
}

// Sweep runs one reaper pass immediately.
func (h *Hub) Sweep() SweepStats {
	return h.reaper.Sweep()
}

// Shutdown stops the reaper and yields every pending poll so that handlers can return.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down Hub reaper loop...")

	h.stop()
	h.wg.Wait()

	now := time.Now()
	yielded := 0
	for _, s := range h.sessions.Snapshot() {
		if c := s.take(now); c != nil && c.Yield() {
			yielded++
		}
	}

	h.logger.Info().Int("yielded_polls", yielded).Msg("Hub shutdown complete.")
}
