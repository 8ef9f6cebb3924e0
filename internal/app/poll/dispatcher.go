package poll

import (
	"time"

	"github.com/rs/zerolog"

	"menupoll/internal/pkg/logx"
)

// Dispatcher delivers envelopes to the open sessions of one user or of everyone.
type Dispatcher struct {
	sessions *SessionRegistry
	users    *UserRegistry

	now func() time.Time

	logger zerolog.Logger
}

// NewDispatcher creates a Dispatcher over the given registries.
func NewDispatcher(sessions *SessionRegistry, users *UserRegistry) *Dispatcher {
	return &Dispatcher{
		sessions: sessions,
		users:    users,
		now:      time.Now,
		logger:   logx.Component("Dispatcher"),
	}
}

// NotifyUser pushes env to every open session of userID and returns the number of completed requests.
// A user that never polled has nothing to notify and yields zero.
func (d *Dispatcher) NotifyUser(userID string, env Envelope) int {
	u := d.users.Get(userID)
	if u == nil {
		d.logger.Debug().
			Str("user_id", userID).
			Str("event", string(env.Event())).
			Msg("No such user. Notification dropped.")
		return 0
	}

	delivered := u.Push(env)

	d.logger.Debug().
		Str("user_id", userID).
		Str("event", string(env.Event())).
		Int("delivered", delivered).
		Msg("User notified.")

	return delivered
}

// Broadcast completes every open session, bound or anonymous, with env.
func (d *Dispatcher) Broadcast(env Envelope) int {
	now := d.now()

	sessions := d.sessions.Snapshot()
	conns := make([]Conn, 0, len(sessions))
	for _, s := range sessions {
		if c := s.take(now); c != nil {
			conns = append(conns, c)
		}
	}

	delivered := completeAll(conns, env)

	d.logger.Debug().
		Str("event", string(env.Event())).
		Int("sessions", len(sessions)).
		Int("delivered", delivered).
		Msg("Broadcast finished.")

	return delivered
}
