// Package notify implements the delivery channels behind alert dispatch:
// SMTP email and MSG91 transactional SMS.
package notify

import (
	"github.com/statuslabs/domainwatch/internal/config"
	"github.com/statuslabs/domainwatch/internal/probe"
	"gopkg.in/gomail.v2"
)

// EmailSender delivers one message addressed to all recipients over SMTP.
type EmailSender struct {
	cfg    config.SMTPConfig
	dialer *gomail.Dialer
}

func NewEmailSender(cfg config.SMTPConfig) *EmailSender {
	return &EmailSender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
	}
}

func (s *EmailSender) Send(subject, textBody, htmlBody string, to []string) error {
	if s.cfg.Host == "" {
		return &probe.ConfigError{Missing: "SMTP_HOST"}
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	return s.dialer.DialAndSend(m)
}
