// Package check composes probes into persisted check results. Every
// orchestrator appends exactly one history row per invocation; alerting
// decisions stay in the alert package.
package check

import (
	"time"

	"github.com/statuslabs/domainwatch/internal/db"
)

// Store is the narrow persistence contract the orchestrators need.
// *db.Repository satisfies it.
type Store interface {
	InsertUptimeRecord(*db.UptimeRecord) error
	InsertSSLRecord(*db.SSLRecord) error
	InsertDomainExpiryRecord(*db.DomainExpiryRecord) error
	InsertIPRecord(*db.IPRecord) error
	LatestIPRecord(domainID string) (*db.IPRecord, error)
	SetDomainTag(id, tag string) error
}

type UptimeResult struct {
	Up           bool      `json:"up"`
	StatusCode   int       `json:"status_code,omitempty"`
	ResponseTime *int      `json:"response_time_ms,omitempty"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CheckedAt    time.Time `json:"checked_at"`
}

type SSLResult struct {
	ExpiryDate    time.Time `json:"expiry_date"`
	DaysRemaining int       `json:"days_remaining"`
	Issuer        string    `json:"issuer"`
	CheckedAt     time.Time `json:"checked_at"`
}

type ExpiryResult struct {
	ExpiryDate    time.Time `json:"expiry_date"`
	DaysRemaining int       `json:"days_remaining"`
	Registrar     string    `json:"registrar"`
	CheckedAt     time.Time `json:"checked_at"`
}

type IPResult struct {
	PrimaryIP   *string        `json:"primary_ip,omitempty"`
	AllIPs      []string       `json:"all_ips"`
	MXRecords   []db.MXRecord  `json:"mx_records"`
	Nameservers []string       `json:"nameservers"`
	Tag         *string        `json:"tag,omitempty"`
	IPChanged   bool           `json:"ip_changed"`
	PreviousIP  *string        `json:"previous_ip,omitempty"`
	CheckedAt   time.Time      `json:"checked_at"`
}
