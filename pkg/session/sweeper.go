package session

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper removes sessions idle past the inactivity window. It is
// housekeeping for storage growth: the authenticator's validity and
// expiry checks are the security gate, so a record surviving a little
// past the window is harmless.
type Sweeper struct {
	Repo     Repository
	Window   time.Duration
	Interval time.Duration
	Logger   *slog.Logger
}

func NewSweeper(repo Repository, window, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		Repo:     repo,
		Window:   window,
		Interval: interval,
		Logger:   logger,
	}
}

// Run sweeps on every tick until the context is cancelled. It never
// touches request-path state; a touch racing the sweep wins because
// the idle predicate is re-evaluated inside the store at sweep time.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep performs a single pass.
func (s *Sweeper) Sweep() {
	removed, err := s.Repo.DeleteIdle(time.Now().UTC().Add(-s.Window))
	if err != nil {
		s.Logger.Error("session sweep failed", "error", err)
		return
	}
	if removed > 0 {
		s.Logger.Info("idle sessions removed", "count", removed)
	}
}
