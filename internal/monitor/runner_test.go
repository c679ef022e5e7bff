package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/statuslabs/domainwatch/internal/alert"
	"github.com/statuslabs/domainwatch/internal/check"
	"github.com/statuslabs/domainwatch/internal/config"
	"github.com/statuslabs/domainwatch/internal/db"
	"github.com/statuslabs/domainwatch/internal/probe"
)

type fakeRunnerStore struct {
	domains []*db.Domain
	listErr error

	mu   sync.Mutex
	runs []*db.MonitorRun
}

func (f *fakeRunnerStore) ListDomains() ([]*db.Domain, error) {
	return f.domains, f.listErr
}

func (f *fakeRunnerStore) InsertMonitorRun(run *db.MonitorRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, run)
	return nil
}

// fakeChecker fails whole check types per domain name so isolation can be
// asserted per check and per domain.
type fakeChecker struct {
	mu       sync.Mutex
	calls    map[string]int
	failSSL  map[string]bool
	downFor  map[string]bool
	sslDays  int
	whoisErr error
}

func newFakeChecker() *fakeChecker {
	return &fakeChecker{
		calls:   make(map[string]int),
		failSSL: make(map[string]bool),
		downFor: make(map[string]bool),
		sslDays: 90,
	}
}

func (f *fakeChecker) count(key string) {
	f.mu.Lock()
	f.calls[key]++
	f.mu.Unlock()
}

func (f *fakeChecker) Uptime(ctx context.Context, domainID, url string) (*check.UptimeResult, error) {
	f.count("uptime")
	return &check.UptimeResult{Up: !f.downFor[domainID]}, nil
}

func (f *fakeChecker) SSL(ctx context.Context, domainID, host string) (*check.SSLResult, error) {
	f.count("ssl")
	if f.failSSL[domainID] {
		return nil, &probe.Error{Op: "certificate", Host: host, Err: errors.New("refused")}
	}
	return &check.SSLResult{DaysRemaining: f.sslDays, ExpiryDate: time.Now().AddDate(0, 0, f.sslDays)}, nil
}

func (f *fakeChecker) DomainExpiry(ctx context.Context, domainID, domain string) (*check.ExpiryResult, error) {
	f.count("whois")
	if f.whoisErr != nil {
		return nil, f.whoisErr
	}
	return &check.ExpiryResult{DaysRemaining: 300, ExpiryDate: time.Now().AddDate(0, 10, 0)}, nil
}

func (f *fakeChecker) IPRecords(ctx context.Context, domainID, domain string) (*check.IPResult, error) {
	f.count("ip")
	return &check.IPResult{}, nil
}

type fakeSender struct {
	mu     sync.Mutex
	alerts []alert.Alert
	fail   bool
}

func (f *fakeSender) Send(a alert.Alert) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, a)
	return !f.fail
}

func domainList(n int) []*db.Domain {
	var out []*db.Domain
	for i := 0; i < n; i++ {
		out = append(out, &db.Domain{
			ID:               string(rune('a' + i)),
			DomainName:       "example.com",
			UptimeURL:        "https://example.com",
			NotifyOnDowntime: true,
			NotifyOnExpiry:   true,
		})
	}
	return out
}

func testRunner(store *fakeRunnerStore, checker *fakeChecker, sender *fakeSender) *Runner {
	return NewRunner(store, checker, sender, nil, zap.NewNop(), config.MonitorConfig{
		WorkerCount:  3,
		CheckTimeout: time.Second,
	})
}

func TestRunAllHealthy(t *testing.T) {
	store := &fakeRunnerStore{domains: domainList(5)}
	checker := newFakeChecker()
	sender := &fakeSender{}

	stats, err := testRunner(store, checker, sender).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.DomainsProcessed != 5 {
		t.Errorf("domains processed = %d", stats.DomainsProcessed)
	}
	if stats.UptimeSuccess != 5 || stats.SSLSuccess != 5 || stats.DomainSuccess != 5 || stats.IPSuccess != 5 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.AlertsSent != 0 {
		t.Errorf("no alerts expected, got %d", stats.AlertsSent)
	}
	if len(store.runs) != 1 {
		t.Fatalf("expected one run record, got %d", len(store.runs))
	}
	if store.runs[0].DomainsProcessed != 5 {
		t.Errorf("run record = %+v", store.runs[0])
	}
}

func TestRunCheckFailureIsIsolated(t *testing.T) {
	store := &fakeRunnerStore{domains: domainList(3)}
	checker := newFakeChecker()
	checker.failSSL["a"] = true
	sender := &fakeSender{}

	stats, err := testRunner(store, checker, sender).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.SSLFailed != 1 || stats.SSLSuccess != 2 {
		t.Errorf("ssl stats: failed=%d success=%d", stats.SSLFailed, stats.SSLSuccess)
	}
	// The failed SSL check must not skip that domain's remaining checks.
	if checker.calls["whois"] != 3 || checker.calls["ip"] != 3 {
		t.Errorf("later checks skipped: %v", checker.calls)
	}
}

func TestRunDispatchesAlerts(t *testing.T) {
	store := &fakeRunnerStore{domains: domainList(2)}
	checker := newFakeChecker()
	checker.downFor["a"] = true
	checker.sslDays = alert.UrgentExpiryDays
	sender := &fakeSender{}

	stats, err := testRunner(store, checker, sender).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// One downtime alert for "a" plus an ssl-expiry alert per domain.
	if stats.AlertsSent != 3 {
		t.Errorf("alerts sent = %d, want 3 (%+v)", stats.AlertsSent, sender.alerts)
	}

	types := map[alert.Type]int{}
	for _, a := range sender.alerts {
		types[a.Type]++
	}
	if types[alert.TypeDowntime] != 1 || types[alert.TypeSSLExpiry] != 2 {
		t.Errorf("alert breakdown = %v", types)
	}
}

func TestRunCountsFailedDispatch(t *testing.T) {
	store := &fakeRunnerStore{domains: domainList(1)}
	checker := newFakeChecker()
	checker.downFor["a"] = true
	sender := &fakeSender{fail: true}

	stats, err := testRunner(store, checker, sender).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.AlertsFailed != 1 || stats.AlertsSent != 0 {
		t.Errorf("alert stats = %+v", stats)
	}
}

func TestRunConfigErrorCountsAsFailed(t *testing.T) {
	store := &fakeRunnerStore{domains: domainList(2)}
	checker := newFakeChecker()
	checker.whoisErr = &probe.ConfigError{Missing: "API_LAYER_KEY"}
	sender := &fakeSender{}

	stats, err := testRunner(store, checker, sender).Run(context.Background())
	if err != nil {
		t.Fatalf("missing credentials must not fail the batch: %v", err)
	}
	if stats.DomainFailed != 2 {
		t.Errorf("domain expiry failures = %d", stats.DomainFailed)
	}
	if stats.IPSuccess != 2 {
		t.Error("ip checks must still run")
	}
}

func TestRunListFailureIsFatal(t *testing.T) {
	store := &fakeRunnerStore{listErr: errors.New("db down")}
	if _, err := testRunner(store, newFakeChecker(), &fakeSender{}).Run(context.Background()); err == nil {
		t.Fatal("domain list failure must fail the run")
	}
}
