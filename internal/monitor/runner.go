// Package monitor runs the full check suite across every tracked domain,
// dispatches the resulting alerts, and enforces the minimum interval
// between batch runs.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/statuslabs/domainwatch/internal/alert"
	"github.com/statuslabs/domainwatch/internal/check"
	"github.com/statuslabs/domainwatch/internal/config"
	"github.com/statuslabs/domainwatch/internal/db"
	"github.com/statuslabs/domainwatch/internal/metrics"
	"github.com/statuslabs/domainwatch/internal/probe"
)

// Store is the persistence the runner needs beyond what the check service
// already carries. *db.Repository satisfies it.
type Store interface {
	ListDomains() ([]*db.Domain, error)
	InsertMonitorRun(*db.MonitorRun) error
}

// Checker runs one check and persists its outcome. *check.Service
// satisfies it.
type Checker interface {
	Uptime(ctx context.Context, domainID, url string) (*check.UptimeResult, error)
	SSL(ctx context.Context, domainID, host string) (*check.SSLResult, error)
	DomainExpiry(ctx context.Context, domainID, domain string) (*check.ExpiryResult, error)
	IPRecords(ctx context.Context, domainID, domain string) (*check.IPResult, error)
}

// AlertSender reports whether the alert was delivered on any channel.
// *alert.Dispatcher satisfies it.
type AlertSender interface {
	Send(alert.Alert) bool
}

// RunStats aggregates outcomes of one batch run. A "failed" check is one
// whose probe or persistence failed; a failed uptime probe is a successful
// check that recorded a down state.
type RunStats struct {
	DomainsProcessed int `json:"domains_processed"`

	UptimeSuccess int `json:"uptime_success"`
	UptimeFailed  int `json:"uptime_failed"`
	SSLSuccess    int `json:"ssl_success"`
	SSLFailed     int `json:"ssl_failed"`
	DomainSuccess int `json:"domain_success"`
	DomainFailed  int `json:"domain_failed"`
	IPSuccess     int `json:"ip_success"`
	IPFailed      int `json:"ip_failed"`

	AlertsSent   int `json:"alerts_sent"`
	AlertsFailed int `json:"alerts_failed"`
}

type Runner struct {
	store      Store
	checks     Checker
	dispatcher AlertSender
	collector  *metrics.Collector
	logger     *zap.Logger
	cfg        config.MonitorConfig
	now        func() time.Time
}

func NewRunner(store Store, checks Checker, dispatcher AlertSender, collector *metrics.Collector, logger *zap.Logger, cfg config.MonitorConfig) *Runner {
	return &Runner{
		store:      store,
		checks:     checks,
		dispatcher: dispatcher,
		collector:  collector,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Run checks every tracked domain with a bounded worker pool. One domain's
// failures never touch another domain; a check failure within a domain
// still lets that domain's remaining checks proceed. The run record is
// written even when every check failed.
func (r *Runner) Run(ctx context.Context) (*RunStats, error) {
	startedAt := r.now()

	domains, err := r.store.ListDomains()
	if err != nil {
		return nil, err
	}

	r.logger.Info("Starting monitor run",
		zap.Int("domains", len(domains)),
		zap.Int("workers", r.cfg.WorkerCount),
	)

	var (
		mu    sync.Mutex
		stats RunStats
		wg    sync.WaitGroup
	)
	jobs := make(chan *db.Domain)

	workers := r.cfg.WorkerCount
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range jobs {
				ds := r.checkDomain(ctx, d)
				mu.Lock()
				stats.add(ds)
				mu.Unlock()
			}
		}()
	}

	for _, d := range domains {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return &stats, ctx.Err()
		case jobs <- d:
		}
	}
	close(jobs)
	wg.Wait()

	stats.DomainsProcessed = len(domains)
	finishedAt := r.now()

	if r.collector != nil {
		r.collector.RecordRun(len(domains), finishedAt.Sub(startedAt))
	}

	run := &db.MonitorRun{
		StartedAt:        startedAt,
		FinishedAt:       finishedAt,
		DomainsProcessed: len(domains),
		Stats: db.JSONB{
			"uptime_success": stats.UptimeSuccess,
			"uptime_failed":  stats.UptimeFailed,
			"ssl_success":    stats.SSLSuccess,
			"ssl_failed":     stats.SSLFailed,
			"domain_success": stats.DomainSuccess,
			"domain_failed":  stats.DomainFailed,
			"ip_success":     stats.IPSuccess,
			"ip_failed":      stats.IPFailed,
			"alerts_sent":    stats.AlertsSent,
			"alerts_failed":  stats.AlertsFailed,
		},
	}
	if err := r.store.InsertMonitorRun(run); err != nil {
		r.logger.Error("Failed to record monitor run", zap.Error(err))
	}

	r.logger.Info("Monitor run completed",
		zap.Int("domains", stats.DomainsProcessed),
		zap.Int("alerts_sent", stats.AlertsSent),
		zap.Duration("duration", finishedAt.Sub(startedAt)),
	)

	return &stats, nil
}

// checkDomain runs the four checks in order. Uptime first since it is the
// cheapest signal; each later check runs regardless of earlier failures.
func (r *Runner) checkDomain(ctx context.Context, d *db.Domain) RunStats {
	var ds RunStats

	ctx, cancel := context.WithTimeout(ctx, 4*r.cfg.CheckTimeout)
	defer cancel()

	start := r.now()
	uptime, err := r.checks.Uptime(ctx, d.ID, d.UptimeURL)
	r.record("uptime", err == nil, r.now().Sub(start))
	if err != nil {
		ds.UptimeFailed++
		r.logger.Error("Uptime check failed", zap.Error(err), zap.String("domain", d.DomainName))
	} else {
		ds.UptimeSuccess++
		if r.collector != nil {
			r.collector.RecordUptime(d.DomainName, uptime.Up, uptime.ResponseTime)
		}
		if a, ok := alert.ForDowntime(d, uptime); ok {
			r.dispatch(*a, &ds)
		}
	}

	start = r.now()
	ssl, err := r.checks.SSL(ctx, d.ID, d.DomainName)
	r.record("ssl", err == nil, r.now().Sub(start))
	if err != nil {
		ds.SSLFailed++
		r.logFailure("SSL check failed", d, err)
	} else {
		ds.SSLSuccess++
		if r.collector != nil {
			r.collector.RecordSSLExpiry(d.DomainName, ssl.Issuer, ssl.DaysRemaining)
		}
		if a, ok := alert.ForSSLExpiry(d, ssl); ok {
			r.dispatch(*a, &ds)
		}
	}

	start = r.now()
	expiry, err := r.checks.DomainExpiry(ctx, d.ID, d.DomainName)
	r.record("domain", err == nil, r.now().Sub(start))
	if err != nil {
		ds.DomainFailed++
		r.logFailure("Domain expiry check failed", d, err)
	} else {
		ds.DomainSuccess++
		if r.collector != nil {
			r.collector.RecordDomainExpiry(d.DomainName, expiry.Registrar, expiry.DaysRemaining)
		}
		if a, ok := alert.ForDomainExpiry(d, expiry); ok {
			r.dispatch(*a, &ds)
		}
	}

	start = r.now()
	ip, err := r.checks.IPRecords(ctx, d.ID, d.DomainName)
	r.record("ip", err == nil, r.now().Sub(start))
	if err != nil {
		ds.IPFailed++
		r.logFailure("IP record check failed", d, err)
	} else {
		ds.IPSuccess++
		if ip.IPChanged && r.collector != nil {
			r.collector.RecordIPChange(d.DomainName)
		}
		if a, ok := alert.ForIPChange(d, ip); ok {
			r.dispatch(*a, &ds)
		}
	}

	return ds
}

func (r *Runner) dispatch(a alert.Alert, ds *RunStats) {
	delivered := r.dispatcher.Send(a)
	if r.collector != nil {
		r.collector.RecordAlert(string(a.Type), delivered)
	}
	if delivered {
		ds.AlertsSent++
	} else {
		ds.AlertsFailed++
	}
}

func (r *Runner) record(checkType string, ok bool, d time.Duration) {
	if r.collector != nil {
		r.collector.RecordCheck(checkType, ok, d)
	}
}

// logFailure keeps missing-credential noise at warn level; those are
// expected in environments without the optional API keys.
func (r *Runner) logFailure(msg string, d *db.Domain, err error) {
	var confErr *probe.ConfigError
	if errors.As(err, &confErr) {
		r.logger.Warn(msg, zap.Error(err), zap.String("domain", d.DomainName))
		return
	}
	r.logger.Error(msg, zap.Error(err), zap.String("domain", d.DomainName))
}

func (s *RunStats) add(o RunStats) {
	s.UptimeSuccess += o.UptimeSuccess
	s.UptimeFailed += o.UptimeFailed
	s.SSLSuccess += o.SSLSuccess
	s.SSLFailed += o.SSLFailed
	s.DomainSuccess += o.DomainSuccess
	s.DomainFailed += o.DomainFailed
	s.IPSuccess += o.IPSuccess
	s.IPFailed += o.IPFailed
	s.AlertsSent += o.AlertsSent
	s.AlertsFailed += o.AlertsFailed
}
