// Package metrics exposes Prometheus metrics for check outcomes, alert
// dispatch, and batch runs, and optionally pushes them via remote write.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Collector struct {
	checkDuration *prometheus.HistogramVec
	checksTotal   *prometheus.CounterVec

	uptimeUp           *prometheus.GaugeVec
	uptimeResponseTime *prometheus.GaugeVec

	sslDaysUntilExpiry    *prometheus.GaugeVec
	domainDaysUntilExpiry *prometheus.GaugeVec
	ipChangesTotal        *prometheus.CounterVec

	alertsSent   *prometheus.CounterVec
	alertsFailed *prometheus.CounterVec

	domainsMonitored prometheus.Gauge
	lastRunTimestamp prometheus.Gauge
	runDuration      prometheus.Histogram
}

func NewCollector() *Collector {
	return &Collector{
		checkDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "domainwatch_check_duration_seconds",
				Help:    "Duration of individual checks in seconds",
				Buckets: []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"type"},
		),

		checksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domainwatch_checks_total",
				Help: "Total number of checks performed",
			},
			[]string{"type", "outcome"},
		),

		uptimeUp: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "domainwatch_uptime_up",
				Help: "Whether the last uptime check succeeded (1) or not (0)",
			},
			[]string{"domain"},
		),

		uptimeResponseTime: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "domainwatch_uptime_response_time_ms",
				Help: "Response time of the last uptime check in milliseconds",
			},
			[]string{"domain"},
		),

		sslDaysUntilExpiry: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "domainwatch_ssl_days_until_expiry",
				Help: "Days until the SSL certificate expires",
			},
			[]string{"domain", "issuer"},
		),

		domainDaysUntilExpiry: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "domainwatch_domain_days_until_expiry",
				Help: "Days until the domain registration expires",
			},
			[]string{"domain", "registrar"},
		),

		ipChangesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domainwatch_ip_changes_total",
				Help: "Total number of primary IP changes detected",
			},
			[]string{"domain"},
		),

		alertsSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domainwatch_alerts_sent_total",
				Help: "Total number of alerts delivered on at least one channel",
			},
			[]string{"type"},
		),

		alertsFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domainwatch_alerts_failed_total",
				Help: "Total number of alerts that delivered on no channel",
			},
			[]string{"type"},
		),

		domainsMonitored: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "domainwatch_domains_monitored",
				Help: "Number of domains in the last batch run",
			},
		),

		lastRunTimestamp: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "domainwatch_last_run_timestamp_seconds",
				Help: "Unix timestamp of the last completed batch run",
			},
		),

		runDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "domainwatch_run_duration_seconds",
				Help:    "Duration of batch runs in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),
	}
}

func (c *Collector) RecordCheck(checkType string, ok bool, duration time.Duration) {
	outcome := "success"
	if !ok {
		outcome = "failed"
	}
	c.checksTotal.WithLabelValues(checkType, outcome).Inc()
	c.checkDuration.WithLabelValues(checkType).Observe(duration.Seconds())
}

func (c *Collector) RecordUptime(domain string, up bool, responseTimeMs *int) {
	v := 0.0
	if up {
		v = 1.0
	}
	c.uptimeUp.WithLabelValues(domain).Set(v)
	if responseTimeMs != nil {
		c.uptimeResponseTime.WithLabelValues(domain).Set(float64(*responseTimeMs))
	}
}

func (c *Collector) RecordSSLExpiry(domain, issuer string, daysRemaining int) {
	c.sslDaysUntilExpiry.WithLabelValues(domain, issuer).Set(float64(daysRemaining))
}

func (c *Collector) RecordDomainExpiry(domain, registrar string, daysRemaining int) {
	c.domainDaysUntilExpiry.WithLabelValues(domain, registrar).Set(float64(daysRemaining))
}

func (c *Collector) RecordIPChange(domain string) {
	c.ipChangesTotal.WithLabelValues(domain).Inc()
}

func (c *Collector) RecordAlert(alertType string, delivered bool) {
	if delivered {
		c.alertsSent.WithLabelValues(alertType).Inc()
	} else {
		c.alertsFailed.WithLabelValues(alertType).Inc()
	}
}

func (c *Collector) RecordRun(domains int, duration time.Duration) {
	c.domainsMonitored.Set(float64(domains))
	c.lastRunTimestamp.SetToCurrentTime()
	c.runDuration.Observe(duration.Seconds())
}
