// Package probe performs single network observations: one HTTP request,
// one TLS handshake, one DNS resolution, one WHOIS lookup. Probes report
// raw facts; deciding what a fact means is the check layer's job.
package probe

import (
	"fmt"
	"strings"
	"time"
)

// Error marks a network-level observation failure. Orchestrators record
// these as failed checks; they are never fatal to a batch.
type Error struct {
	Op   string
	Host string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Host, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ConfigError marks missing credentials or API keys. Manual checks surface
// it to the caller; the batch runner skips that check type for the run.
type ConfigError struct {
	Missing string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing configuration: %s", e.Missing)
}

// chainError accumulates the named failure reason of every strategy tried,
// so a fallback chain fails with full diagnostics instead of only the last
// attempt's error.
type chainError struct {
	Op       string
	Attempts []string
}

func (e *chainError) Error() string {
	return fmt.Sprintf("%s: all strategies failed: %s", e.Op, strings.Join(e.Attempts, "; "))
}

// DaysUntil returns whole days from now until t, anchored to local midnight
// so repeated same-day calls agree and "expires today" is 0, not a fraction.
// Negative when t is in the past.
func DaysUntil(t time.Time, now time.Time) int {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	diff := t.Sub(midnight)
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) > 0 {
		days++
	}
	return days
}
