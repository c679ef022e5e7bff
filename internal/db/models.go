package db

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

type Domain struct {
	ID               string    `json:"id" db:"id"`
	DomainName       string    `json:"domain_name" db:"domain_name"`
	UptimeURL        string    `json:"uptime_url" db:"uptime_url"`
	DisplayName      *string   `json:"display_name,omitempty" db:"display_name"`
	Tag              *string   `json:"tag,omitempty" db:"tag"`
	NotifyOnDowntime bool      `json:"notify_on_downtime" db:"notify_on_downtime"`
	NotifyOnExpiry   bool      `json:"notify_on_expiry" db:"notify_on_expiry"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// Label returns the name shown in alerts and dashboards.
func (d *Domain) Label() string {
	if d.DisplayName != nil && *d.DisplayName != "" {
		return *d.DisplayName
	}
	return d.DomainName
}

// UptimeRecord is one row of the append-only uptime log.
type UptimeRecord struct {
	ID           string    `json:"id" db:"id"`
	DomainID     string    `json:"domain_id" db:"domain_id"`
	Status       bool      `json:"status" db:"status"`
	ResponseTime *int      `json:"response_time,omitempty" db:"response_time"`
	ErrorMessage *string   `json:"error_message,omitempty" db:"error_message"`
	CheckedAt    time.Time `json:"checked_at" db:"checked_at"`
}

type SSLRecord struct {
	ID            string    `json:"id" db:"id"`
	DomainID      string    `json:"domain_id" db:"domain_id"`
	ExpiryDate    time.Time `json:"expiry_date" db:"expiry_date"`
	DaysRemaining int       `json:"days_remaining" db:"days_remaining"`
	Issuer        string    `json:"issuer" db:"issuer"`
	CheckedAt     time.Time `json:"checked_at" db:"checked_at"`
}

type DomainExpiryRecord struct {
	ID            string    `json:"id" db:"id"`
	DomainID      string    `json:"domain_id" db:"domain_id"`
	ExpiryDate    time.Time `json:"expiry_date" db:"expiry_date"`
	DaysRemaining int       `json:"days_remaining" db:"days_remaining"`
	Registrar     string    `json:"registrar" db:"registrar"`
	CheckedAt     time.Time `json:"checked_at" db:"checked_at"`
}

type IPRecord struct {
	ID          string      `json:"id" db:"id"`
	DomainID    string      `json:"domain_id" db:"domain_id"`
	PrimaryIP   *string     `json:"primary_ip,omitempty" db:"primary_ip"`
	AllIPs      StringSlice `json:"all_ips" db:"all_ips"`
	MXRecords   MXSlice     `json:"mx_records" db:"mx_records"`
	Nameservers StringSlice `json:"nameservers" db:"nameservers"`
	CheckedAt   time.Time   `json:"checked_at" db:"checked_at"`
}

type MXRecord struct {
	Priority int    `json:"priority"`
	Host     string `json:"host"`
}

// NotificationSettings is a singleton row of global channel switches.
type NotificationSettings struct {
	EmailEnabled bool      `json:"email_enabled" db:"email_enabled"`
	SMSEnabled   bool      `json:"sms_enabled" db:"sms_enabled"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type EmailRecipient struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type PhoneRecipient struct {
	ID          string    `json:"id" db:"id"`
	PhoneNumber string    `json:"phone_number" db:"phone_number"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// AlertLogEntry is a write-once audit row recorded before dispatch is
// attempted, so the trail reflects intent rather than outcome.
type AlertLogEntry struct {
	ID        string    `json:"id" db:"id"`
	Type      string    `json:"type" db:"type"`
	Domain    string    `json:"domain" db:"domain"`
	Message   string    `json:"message" db:"message"`
	SentTo    JSONB     `json:"sent_to" db:"sent_to"`
	CheckedAt time.Time `json:"checked_at" db:"checked_at"`
}

// MonitorRun records one batch execution; the newest row doubles as the
// durable rate-limit timestamp for the cron trigger.
type MonitorRun struct {
	ID               string    `json:"id" db:"id"`
	StartedAt        time.Time `json:"started_at" db:"started_at"`
	FinishedAt       time.Time `json:"finished_at" db:"finished_at"`
	DomainsProcessed int       `json:"domains_processed" db:"domains_processed"`
	Stats            JSONB     `json:"stats" db:"stats"`
}

// Custom types for PostgreSQL JSONB columns
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = []string{}
		return nil
	}
	return json.Unmarshal(value.([]byte), s)
}

type MXSlice []MXRecord

func (m MXSlice) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal([]MXRecord{})
	}
	return json.Marshal(m)
}

func (m *MXSlice) Scan(value interface{}) error {
	if value == nil {
		*m = []MXRecord{}
		return nil
	}
	return json.Unmarshal(value.([]byte), m)
}

type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}
	return json.Unmarshal(value.([]byte), j)
}
