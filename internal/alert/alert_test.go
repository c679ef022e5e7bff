package alert

import (
	"strings"
	"testing"
	"time"

	"github.com/statuslabs/domainwatch/internal/check"
	"github.com/statuslabs/domainwatch/internal/db"
)

func testDomain(downtime, expiry bool) *db.Domain {
	name := "Example Site"
	return &db.Domain{
		ID:               "dom-1",
		DomainName:       "example.com",
		UptimeURL:        "https://example.com",
		DisplayName:      &name,
		NotifyOnDowntime: downtime,
		NotifyOnExpiry:   expiry,
	}
}

func TestForDowntime(t *testing.T) {
	tests := []struct {
		name     string
		up       bool
		notify   bool
		wantFire bool
	}{
		{"down and enabled", false, true, true},
		{"down but disabled", false, false, false},
		{"up and enabled", true, true, false},
		{"up and disabled", true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, fired := ForDowntime(testDomain(tt.notify, true), &check.UptimeResult{Up: tt.up})
			if fired != tt.wantFire {
				t.Fatalf("fired = %v, want %v", fired, tt.wantFire)
			}
			if fired && a.Type != TypeDowntime {
				t.Errorf("type = %s", a.Type)
			}
		})
	}
}

func TestForSSLExpiryThreshold(t *testing.T) {
	expires := time.Date(2027, 1, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		days     int
		notify   bool
		wantFire bool
	}{
		{UrgentExpiryDays + 1, true, false},
		{UrgentExpiryDays, true, true},
		{1, true, true},
		{0, true, true},
		{-3, true, true},
		{1, false, false},
	}

	for _, tt := range tests {
		a, fired := ForSSLExpiry(testDomain(true, tt.notify), &check.SSLResult{
			DaysRemaining: tt.days,
			ExpiryDate:    expires,
		})
		if fired != tt.wantFire {
			t.Errorf("days=%d notify=%v: fired = %v, want %v", tt.days, tt.notify, fired, tt.wantFire)
			continue
		}
		if !fired {
			continue
		}
		if a.DaysRemaining == nil || *a.DaysRemaining != tt.days {
			t.Errorf("days remaining not threaded through: %v", a.DaysRemaining)
		}
		if a.ExpiresAt == nil || !a.ExpiresAt.Equal(expires) {
			t.Errorf("expiry date not threaded through: %v", a.ExpiresAt)
		}
		if !strings.Contains(a.Message, "2027-01-10") {
			t.Errorf("message should carry the expiry date: %q", a.Message)
		}
	}
}

func TestForDomainExpiryThreshold(t *testing.T) {
	expires := time.Date(2027, 1, 10, 0, 0, 0, 0, time.UTC)

	if _, fired := ForDomainExpiry(testDomain(true, true), &check.ExpiryResult{
		DaysRemaining: UrgentExpiryDays + 1, ExpiryDate: expires,
	}); fired {
		t.Error("should not fire above the threshold")
	}

	a, fired := ForDomainExpiry(testDomain(true, true), &check.ExpiryResult{
		DaysRemaining: 3, ExpiryDate: expires,
	})
	if !fired {
		t.Fatal("should fire at 3 days")
	}
	if a.Type != TypeDomainExpiry {
		t.Errorf("type = %s", a.Type)
	}
	if !strings.Contains(a.Message, "3 days") {
		t.Errorf("message = %q", a.Message)
	}
}

func TestForIPChange(t *testing.T) {
	prev := "10.0.0.1"
	current := "10.0.0.2"

	a, fired := ForIPChange(testDomain(true, true), &check.IPResult{
		IPChanged:  true,
		PreviousIP: &prev,
		PrimaryIP:  &current,
	})
	if !fired {
		t.Fatal("should fire on change with downtime notifications on")
	}
	if !strings.Contains(a.Message, prev) || !strings.Contains(a.Message, current) {
		t.Errorf("message should name both addresses: %q", a.Message)
	}

	if _, fired := ForIPChange(testDomain(false, true), &check.IPResult{IPChanged: true}); fired {
		t.Error("downtime toggle off must suppress ip-change alerts")
	}
	if _, fired := ForIPChange(testDomain(true, true), &check.IPResult{IPChanged: false}); fired {
		t.Error("no change, no alert")
	}
}

func TestComposeSubjects(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		typ  Type
		want string
	}{
		{TypeDowntime, "ALERT: Example Site is DOWN"},
		{TypeSSLExpiry, "SSL Certificate Expiring: Example Site"},
		{TypeDomainExpiry, "Domain Expiring: Example Site"},
		{TypeIPChange, "IP Change Detected: Example Site"},
	}

	for _, tt := range tests {
		msg := Compose(Alert{
			Type:        tt.typ,
			Domain:      "example.com",
			DisplayName: "Example Site",
			Message:     "test",
		}, now)
		if msg.Subject != tt.want {
			t.Errorf("subject = %q, want %q", msg.Subject, tt.want)
		}
		if msg.Text == "" || msg.HTML == "" {
			t.Errorf("%s: both bodies must be rendered", tt.typ)
		}
	}
}

func TestComposeFallsBackToDomain(t *testing.T) {
	msg := Compose(Alert{
		Type:    TypeDowntime,
		Domain:  "example.com",
		Message: "down",
	}, time.Now())
	if msg.Subject != "ALERT: example.com is DOWN" {
		t.Errorf("subject = %q", msg.Subject)
	}
}

func TestComposeIncludesExpiryDetails(t *testing.T) {
	days := 5
	expires := time.Date(2027, 2, 1, 0, 0, 0, 0, time.UTC)
	msg := Compose(Alert{
		Type:          TypeSSLExpiry,
		Domain:        "example.com",
		Message:       "expiring",
		DaysRemaining: &days,
		ExpiresAt:     &expires,
	}, time.Now())

	if !strings.Contains(msg.Text, "Days Remaining: 5") {
		t.Errorf("text missing days remaining: %q", msg.Text)
	}
	if !strings.Contains(msg.Text, "2027-02-01") {
		t.Errorf("text missing expiry date: %q", msg.Text)
	}
	if !strings.Contains(msg.HTML, "2027-02-01") {
		t.Error("html missing expiry date")
	}
}
