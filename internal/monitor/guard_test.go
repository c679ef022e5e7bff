package monitor

import (
	"errors"
	"testing"
	"time"
)

type fakeRunStore struct {
	last time.Time
	err  error
}

func (f *fakeRunStore) LastRunStartedAt() (time.Time, error) {
	return f.last, f.err
}

func TestGuardAllowsFirstRun(t *testing.T) {
	g := NewGuard(&fakeRunStore{}, 5*time.Minute)

	allowed, wait, err := g.Allow()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Error("first run must be allowed")
	}
	if wait != 0 {
		t.Errorf("wait = %v", wait)
	}
}

func TestGuardBlocksInsideWindow(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	g := NewGuard(&fakeRunStore{last: now.Add(-2 * time.Minute)}, 5*time.Minute)
	g.now = func() time.Time { return now }

	allowed, wait, err := g.Allow()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatal("run inside the window must be denied")
	}
	if wait != 3*time.Minute {
		t.Errorf("wait = %v, want 3m", wait)
	}
}

func TestGuardAllowsAfterWindow(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	g := NewGuard(&fakeRunStore{last: now.Add(-5 * time.Minute)}, 5*time.Minute)
	g.now = func() time.Time { return now }

	allowed, _, err := g.Allow()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Error("exactly at the boundary the run is allowed")
	}
}

func TestGuardSurfacesStoreError(t *testing.T) {
	g := NewGuard(&fakeRunStore{err: errors.New("db down")}, 5*time.Minute)

	if _, _, err := g.Allow(); err == nil {
		t.Fatal("store error must surface")
	}
}
