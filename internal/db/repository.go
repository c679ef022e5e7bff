package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

var ErrNotFound = fmt.Errorf("record not found")

type Repository struct {
	db *sqlx.DB
}

func NewConnection(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Ping() error {
	return r.db.Ping()
}

// Domain operations

func (r *Repository) CreateDomain(d *Domain) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now

	query := `
        INSERT INTO domains (
            id, domain_name, uptime_url, display_name, tag,
            notify_on_downtime, notify_on_expiry, created_at, updated_at
        ) VALUES (
            :id, :domain_name, :uptime_url, :display_name, :tag,
            :notify_on_downtime, :notify_on_expiry, :created_at, :updated_at
        )`

	_, err := r.db.NamedExec(query, d)
	return err
}

func (r *Repository) GetDomain(id string) (*Domain, error) {
	var d Domain
	err := r.db.Get(&d, `SELECT * FROM domains WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return &d, err
}

func (r *Repository) ListDomains() ([]*Domain, error) {
	domains := []*Domain{}
	err := r.db.Select(&domains, `SELECT * FROM domains ORDER BY domain_name`)
	return domains, err
}

func (r *Repository) UpdateDomain(d *Domain) error {
	d.UpdatedAt = time.Now()
	query := `
        UPDATE domains SET
            domain_name = :domain_name,
            uptime_url = :uptime_url,
            display_name = :display_name,
            notify_on_downtime = :notify_on_downtime,
            notify_on_expiry = :notify_on_expiry,
            updated_at = :updated_at
        WHERE id = :id`

	_, err := r.db.NamedExec(query, d)
	return err
}

func (r *Repository) DeleteDomain(id string) error {
	res, err := r.db.Exec(`DELETE FROM domains WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetDomainTag writes the inferred infrastructure tag back onto the domain.
// The only place a check mutates anything besides its own log.
func (r *Repository) SetDomainTag(id, tag string) error {
	_, err := r.db.Exec(`UPDATE domains SET tag = $2, updated_at = NOW() WHERE id = $1`, id, tag)
	return err
}

// Check logs. All inserts are append-only; history is never updated.

func (r *Repository) InsertUptimeRecord(rec *UptimeRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	query := `
        INSERT INTO uptime_logs (id, domain_id, status, response_time, error_message, checked_at)
        VALUES (:id, :domain_id, :status, :response_time, :error_message, :checked_at)`
	_, err := r.db.NamedExec(query, rec)
	return err
}

func (r *Repository) InsertSSLRecord(rec *SSLRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	query := `
        INSERT INTO ssl_info (id, domain_id, expiry_date, days_remaining, issuer, checked_at)
        VALUES (:id, :domain_id, :expiry_date, :days_remaining, :issuer, :checked_at)`
	_, err := r.db.NamedExec(query, rec)
	return err
}

func (r *Repository) InsertDomainExpiryRecord(rec *DomainExpiryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	query := `
        INSERT INTO domain_expiry (id, domain_id, expiry_date, days_remaining, registrar, checked_at)
        VALUES (:id, :domain_id, :expiry_date, :days_remaining, :registrar, :checked_at)`
	_, err := r.db.NamedExec(query, rec)
	return err
}

func (r *Repository) InsertIPRecord(rec *IPRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	query := `
        INSERT INTO ip_records (id, domain_id, primary_ip, all_ips, mx_records, nameservers, checked_at)
        VALUES (:id, :domain_id, :primary_ip, :all_ips, :mx_records, :nameservers, :checked_at)`
	_, err := r.db.NamedExec(query, rec)
	return err
}

// Latest-record-per-domain queries (sort by checked_at descending, take one).

func (r *Repository) LatestUptimeRecord(domainID string) (*UptimeRecord, error) {
	var rec UptimeRecord
	err := r.db.Get(&rec, `
        SELECT * FROM uptime_logs WHERE domain_id = $1
        ORDER BY checked_at DESC LIMIT 1`, domainID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &rec, err
}

func (r *Repository) LatestSSLRecord(domainID string) (*SSLRecord, error) {
	var rec SSLRecord
	err := r.db.Get(&rec, `
        SELECT * FROM ssl_info WHERE domain_id = $1
        ORDER BY checked_at DESC LIMIT 1`, domainID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &rec, err
}

func (r *Repository) LatestDomainExpiryRecord(domainID string) (*DomainExpiryRecord, error) {
	var rec DomainExpiryRecord
	err := r.db.Get(&rec, `
        SELECT * FROM domain_expiry WHERE domain_id = $1
        ORDER BY checked_at DESC LIMIT 1`, domainID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &rec, err
}

func (r *Repository) LatestIPRecord(domainID string) (*IPRecord, error) {
	var rec IPRecord
	err := r.db.Get(&rec, `
        SELECT * FROM ip_records WHERE domain_id = $1
        ORDER BY checked_at DESC LIMIT 1`, domainID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &rec, err
}

func (r *Repository) GetUptimeHistory(domainID string, limit int) ([]*UptimeRecord, error) {
	records := []*UptimeRecord{}
	err := r.db.Select(&records, `
        SELECT * FROM uptime_logs WHERE domain_id = $1
        ORDER BY checked_at DESC LIMIT $2`, domainID, limit)
	return records, err
}

// Notification configuration

func (r *Repository) GetNotificationSettings() (*NotificationSettings, error) {
	var s NotificationSettings
	err := r.db.Get(&s, `SELECT email_enabled, sms_enabled, updated_at FROM notification_settings LIMIT 1`)
	if err == sql.ErrNoRows {
		// Defaults when the singleton row was never written.
		return &NotificationSettings{EmailEnabled: true, SMSEnabled: false}, nil
	}
	return &s, err
}

func (r *Repository) UpdateNotificationSettings(s *NotificationSettings) error {
	s.UpdatedAt = time.Now()
	query := `
        INSERT INTO notification_settings (id, email_enabled, sms_enabled, updated_at)
        VALUES (1, :email_enabled, :sms_enabled, :updated_at)
        ON CONFLICT (id) DO UPDATE SET
            email_enabled = :email_enabled,
            sms_enabled = :sms_enabled,
            updated_at = :updated_at`
	_, err := r.db.NamedExec(query, s)
	return err
}

func (r *Repository) ListEmailRecipients() ([]string, error) {
	emails := []string{}
	err := r.db.Select(&emails, `SELECT email FROM notification_emails ORDER BY created_at`)
	return emails, err
}

func (r *Repository) ListPhoneRecipients() ([]string, error) {
	phones := []string{}
	err := r.db.Select(&phones, `SELECT phone_number FROM notification_phones ORDER BY created_at`)
	return phones, err
}

func (r *Repository) AddEmailRecipient(email string) error {
	_, err := r.db.Exec(`
        INSERT INTO notification_emails (id, email, created_at)
        VALUES ($1, $2, NOW()) ON CONFLICT (email) DO NOTHING`,
		uuid.New().String(), email)
	return err
}

func (r *Repository) RemoveEmailRecipient(email string) error {
	_, err := r.db.Exec(`DELETE FROM notification_emails WHERE email = $1`, email)
	return err
}

func (r *Repository) AddPhoneRecipient(phone string) error {
	_, err := r.db.Exec(`
        INSERT INTO notification_phones (id, phone_number, created_at)
        VALUES ($1, $2, NOW()) ON CONFLICT (phone_number) DO NOTHING`,
		uuid.New().String(), phone)
	return err
}

func (r *Repository) RemovePhoneRecipient(phone string) error {
	_, err := r.db.Exec(`DELETE FROM notification_phones WHERE phone_number = $1`, phone)
	return err
}

// Alert audit log, write-only from the core's point of view.

func (r *Repository) InsertAlertLog(entry *AlertLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	query := `
        INSERT INTO alerts (id, type, domain, message, sent_to, checked_at)
        VALUES (:id, :type, :domain, :message, :sent_to, :checked_at)`
	_, err := r.db.NamedExec(query, entry)
	return err
}

// Monitor runs

func (r *Repository) InsertMonitorRun(run *MonitorRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	query := `
        INSERT INTO monitor_runs (id, started_at, finished_at, domains_processed, stats)
        VALUES (:id, :started_at, :finished_at, :domains_processed, :stats)`
	_, err := r.db.NamedExec(query, run)
	return err
}

func (r *Repository) LastRunStartedAt() (time.Time, error) {
	var t time.Time
	err := r.db.Get(&t, `SELECT started_at FROM monitor_runs ORDER BY started_at DESC LIMIT 1`)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	return t, err
}
