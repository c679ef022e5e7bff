package monitor

import (
	"time"
)

// RunStore reads the durable last-run timestamp. Backed by the newest
// monitor_runs row so the window survives restarts.
type RunStore interface {
	LastRunStartedAt() (time.Time, error)
}

// Guard enforces the minimum interval between batch runs regardless of how
// the trigger arrives.
type Guard struct {
	store    RunStore
	interval time.Duration
	now      func() time.Time
}

func NewGuard(store RunStore, interval time.Duration) *Guard {
	return &Guard{
		store:    store,
		interval: interval,
		now:      time.Now,
	}
}

// Allow reports whether a run may start now. When denied it returns how
// long until the window opens. No prior run always allows.
func (g *Guard) Allow() (bool, time.Duration, error) {
	last, err := g.store.LastRunStartedAt()
	if err != nil {
		return false, 0, err
	}
	if last.IsZero() {
		return true, 0, nil
	}

	elapsed := g.now().Sub(last)
	if elapsed >= g.interval {
		return true, 0, nil
	}
	return false, g.interval - elapsed, nil
}
