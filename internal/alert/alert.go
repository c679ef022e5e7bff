// Package alert decides which check outcomes are urgent enough to notify,
// composes the messages, and dispatches them across channels.
package alert

import (
	"fmt"
	"time"

	"github.com/statuslabs/domainwatch/internal/check"
	"github.com/statuslabs/domainwatch/internal/db"
)

type Type string

const (
	TypeDowntime     Type = "downtime"
	TypeSSLExpiry    Type = "ssl-expiry"
	TypeDomainExpiry Type = "domain-expiry"
	TypeIPChange     Type = "ip-change"
)

func (t Type) Valid() bool {
	switch t {
	case TypeDowntime, TypeSSLExpiry, TypeDomainExpiry, TypeIPChange:
		return true
	}
	return false
}

// Label returns the human-readable form used in messages.
func (t Type) Label() string {
	switch t {
	case TypeDowntime:
		return "Downtime Alert"
	case TypeSSLExpiry:
		return "SSL Certificate Expiration"
	case TypeDomainExpiry:
		return "Domain Expiration"
	case TypeIPChange:
		return "IP Address Change"
	default:
		return string(t)
	}
}

// UrgentExpiryDays is the single days-remaining cutoff below which an
// expiring certificate or registration dispatches notifications. Expiry
// checks are always persisted; only dispatch is gated, to keep alert noise
// down.
const UrgentExpiryDays = 7

type Alert struct {
	Type          Type       `json:"type"`
	Domain        string     `json:"domain"`
	DisplayName   string     `json:"display_name,omitempty"`
	Message       string     `json:"message"`
	DaysRemaining *int       `json:"days_remaining,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

func (a Alert) label() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Domain
}

// Per-domain gating below; global channel switches are applied by the
// dispatcher when it resolves recipient lists.

// ForDowntime returns an alert when the site is down and the domain wants
// downtime notifications. Every failed check is urgent.
func ForDowntime(d *db.Domain, r *check.UptimeResult) (*Alert, bool) {
	if r.Up || !d.NotifyOnDowntime {
		return nil, false
	}
	return &Alert{
		Type:        TypeDowntime,
		Domain:      d.DomainName,
		DisplayName: d.Label(),
		Message:     fmt.Sprintf("%s (%s) is currently DOWN.", d.Label(), d.UptimeURL),
	}, true
}

func ForSSLExpiry(d *db.Domain, r *check.SSLResult) (*Alert, bool) {
	if !d.NotifyOnExpiry || r.DaysRemaining > UrgentExpiryDays {
		return nil, false
	}
	days := r.DaysRemaining
	expires := r.ExpiryDate
	return &Alert{
		Type:        TypeSSLExpiry,
		Domain:      d.DomainName,
		DisplayName: d.Label(),
		Message: fmt.Sprintf("SSL certificate for %s is expiring in %d days (%s).",
			d.Label(), days, expires.Format("2006-01-02")),
		DaysRemaining: &days,
		ExpiresAt:     &expires,
	}, true
}

func ForDomainExpiry(d *db.Domain, r *check.ExpiryResult) (*Alert, bool) {
	if !d.NotifyOnExpiry || r.DaysRemaining > UrgentExpiryDays {
		return nil, false
	}
	days := r.DaysRemaining
	expires := r.ExpiryDate
	return &Alert{
		Type:        TypeDomainExpiry,
		Domain:      d.DomainName,
		DisplayName: d.Label(),
		Message: fmt.Sprintf("Domain %s is expiring in %d days (%s).",
			d.Label(), days, expires.Format("2006-01-02")),
		DaysRemaining: &days,
		ExpiresAt:     &expires,
	}, true
}

// ForIPChange fires whenever the primary IP moved. Gated by the downtime
// toggle: there is no separate ip-change flag, deliberately, so domains that
// opted out of operational alerts stay quiet.
func ForIPChange(d *db.Domain, r *check.IPResult) (*Alert, bool) {
	if !r.IPChanged || !d.NotifyOnDowntime {
		return nil, false
	}
	prev := ""
	if r.PreviousIP != nil {
		prev = *r.PreviousIP
	}
	current := ""
	if r.PrimaryIP != nil {
		current = *r.PrimaryIP
	}
	return &Alert{
		Type:        TypeIPChange,
		Domain:      d.DomainName,
		DisplayName: d.Label(),
		Message: fmt.Sprintf("IP address for %s changed from %s to %s.",
			d.Label(), prev, current),
	}, true
}
