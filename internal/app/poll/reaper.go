package poll

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"menupoll/internal/pkg/logx"
)

// SweepStats summarises one reaper pass.
type SweepStats struct {
	// Removed is the number of sessions deleted from the SessionRegistry.
	Removed int

	// Dropped is the number of session references dropped from users.
	Dropped int
}

// Reaper removes dead sessions and reconciles user session sets.
type Reaper struct {
	sessions *SessionRegistry
	users    *UserRegistry
	interval time.Duration

	logger zerolog.Logger
}

// NewReaper creates a Reaper that sweeps every interval once Run is called.
func NewReaper(sessions *SessionRegistry, users *UserRegistry, interval time.Duration) *Reaper {
	return &Reaper{
		sessions: sessions,
		users:    users,
		interval: interval,
		logger:   logx.Component("Reaper"),
	}
}

// Sweep removes expired sessions, then drops from every user the sessions no longer registered.
func (r *Reaper) Sweep() SweepStats {
	removed := r.sessions.RemoveClosed()
	live := r.sessions.IDs()

	stats := SweepStats{Removed: len(removed)}
	for _, u := range r.users.Snapshot() {
		stats.Dropped += u.Reconcile(live)
	}

	return stats
}

// Run sweeps on every tick until ctx is canceled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", r.interval).Msg("Reaper loop started.")

	for {
		select {
		case <-ticker.C:
			stats := r.Sweep()
			if stats.Removed > 0 || stats.Dropped > 0 {
				r.logger.Info().
					Int("removed_sessions", stats.Removed).
					Int("dropped_user_sessions", stats.Dropped).
					Int("active_sessions", r.sessions.Len()).
					Msg("Reaper sweep finished.")
			}

		case <-ctx.Done():
			r.logger.Info().Msg("Reaper loop stopped.")
			return
		}
	}
}
