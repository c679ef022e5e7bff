package alert

import (
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/statuslabs/domainwatch/internal/db"
)

// Store is the slice of persistence the dispatcher needs: channel switches,
// recipient lists, and the write-only audit log.
type Store interface {
	GetNotificationSettings() (*db.NotificationSettings, error)
	ListEmailRecipients() ([]string, error)
	ListPhoneRecipients() ([]string, error)
	InsertAlertLog(*db.AlertLogEntry) error
}

// EmailSender sends one message addressed to every recipient.
type EmailSender interface {
	Send(subject, textBody, htmlBody string, to []string) error
}

// SMSSender sends one message per recipient and reports how many went out.
type SMSSender interface {
	Send(vars map[string]string, to []string) (int, error)
}

type Dispatcher struct {
	store  Store
	email  EmailSender
	sms    SMSSender
	logger *zap.Logger
	now    func() time.Time
}

func NewDispatcher(store Store, email EmailSender, sms SMSSender, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:  store,
		email:  email,
		sms:    sms,
		logger: logger,
		now:    time.Now,
	}
}

// Send resolves recipients, records the audit entry, then attempts both
// channels. Overall success means at least one channel delivered; provider
// failures never escape this boundary.
func (d *Dispatcher) Send(a Alert) bool {
	settings, err := d.store.GetNotificationSettings()
	if err != nil {
		d.logger.Error("Failed to load notification settings", zap.Error(err))
		settings = &db.NotificationSettings{}
	}

	// A disabled channel reads as an empty recipient list no matter what
	// is configured.
	var emails, phones []string
	if settings.EmailEnabled {
		if emails, err = d.store.ListEmailRecipients(); err != nil {
			d.logger.Error("Failed to load email recipients", zap.Error(err))
			emails = nil
		}
	}
	if settings.SMSEnabled {
		if phones, err = d.store.ListPhoneRecipients(); err != nil {
			d.logger.Error("Failed to load phone recipients", zap.Error(err))
			phones = nil
		}
	}

	now := d.now()
	msg := Compose(a, now)

	// Audit before dispatch: the trail records intent, not just outcome.
	entry := &db.AlertLogEntry{
		Type:    string(a.Type),
		Domain:  a.Domain,
		Message: a.Message,
		SentTo: db.JSONB{
			"emails": emails,
			"phones": phones,
		},
		CheckedAt: now,
	}
	if err := d.store.InsertAlertLog(entry); err != nil {
		d.logger.Error("Failed to write alert log", zap.Error(err), zap.String("domain", a.Domain))
	}

	emailOK := d.sendEmail(a, msg, emails)
	smsOK := d.sendSMS(a, msg, phones)

	if !emailOK && !smsOK {
		d.logger.Warn("Alert delivered on no channel",
			zap.String("type", string(a.Type)),
			zap.String("domain", a.Domain),
		)
	}
	return emailOK || smsOK
}

func (d *Dispatcher) sendEmail(a Alert, msg Message, recipients []string) bool {
	if len(recipients) == 0 {
		return false
	}
	if err := d.email.Send(msg.Subject, msg.Text, msg.HTML, recipients); err != nil {
		d.logger.Error("Failed to send email alert",
			zap.Error(err),
			zap.String("domain", a.Domain),
		)
		return false
	}
	d.logger.Info("Email alert sent",
		zap.String("type", string(a.Type)),
		zap.String("domain", a.Domain),
		zap.Int("recipients", len(recipients)),
	)
	return true
}

func (d *Dispatcher) sendSMS(a Alert, msg Message, recipients []string) bool {
	if len(recipients) == 0 {
		return false
	}

	vars := map[string]string{
		"##ALERT_TYPE##":    a.Type.Label(),
		"##ALERT_SUBJECT##": msg.Subject,
		"##MESSAGE##":       a.Message,
		"##DOMAIN_NAME##":   a.label(),
		"##DOMAIN_URL##":    a.Domain,
		"##DATE_TIME##":     d.now().Format("2006-01-02 15:04:05"),
	}
	if a.DaysRemaining != nil {
		vars["##DAYS_REMAINING##"] = strconv.Itoa(*a.DaysRemaining)
	} else {
		vars["##DAYS_REMAINING##"] = ""
	}

	sent, err := d.sms.Send(vars, recipients)
	if err != nil {
		d.logger.Error("Failed to send SMS alerts",
			zap.Error(err),
			zap.String("domain", a.Domain),
		)
	}
	if sent > 0 {
		d.logger.Info("SMS alerts sent",
			zap.String("type", string(a.Type)),
			zap.String("domain", a.Domain),
			zap.Int("sent", sent),
			zap.Int("recipients", len(recipients)),
		)
	}
	return sent > 0
}
