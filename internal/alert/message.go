package alert

import (
	"fmt"
	"strings"
	"time"
)

type Message struct {
	Subject string
	Text    string
	HTML    string
}

// Compose renders the deterministic subject and bodies for an alert.
func Compose(a Alert, now time.Time) Message {
	subject := subjectFor(a)

	var details strings.Builder
	fmt.Fprintf(&details, "Domain: %s\n", a.label())
	fmt.Fprintf(&details, "URL: %s\n", a.Domain)
	fmt.Fprintf(&details, "Alert Type: %s\n", a.Type.Label())
	fmt.Fprintf(&details, "Time: %s\n", now.Format("2006-01-02 15:04:05"))
	if a.DaysRemaining != nil {
		fmt.Fprintf(&details, "Days Remaining: %d\n", *a.DaysRemaining)
	}
	if a.ExpiresAt != nil {
		fmt.Fprintf(&details, "Expiry Date: %s\n", a.ExpiresAt.Format("2006-01-02"))
	}

	text := a.Message + "\n\n" + details.String()

	return Message{
		Subject: subject,
		Text:    text,
		HTML:    htmlBody(a, subject, now),
	}
}

func subjectFor(a Alert) string {
	name := a.label()
	switch a.Type {
	case TypeDowntime:
		return fmt.Sprintf("ALERT: %s is DOWN", name)
	case TypeSSLExpiry:
		return fmt.Sprintf("SSL Certificate Expiring: %s", name)
	case TypeDomainExpiry:
		return fmt.Sprintf("Domain Expiring: %s", name)
	case TypeIPChange:
		return fmt.Sprintf("IP Change Detected: %s", name)
	default:
		return fmt.Sprintf("Alert: %s", name)
	}
}

func alertColor(t Type) string {
	switch t {
	case TypeDowntime:
		return "#dc2626"
	case TypeSSLExpiry, TypeDomainExpiry:
		return "#f59e0b"
	case TypeIPChange:
		return "#3b82f6"
	default:
		return "#374151"
	}
}

func htmlBody(a Alert, subject string, now time.Time) string {
	var rows strings.Builder
	row := func(k, v string) {
		fmt.Fprintf(&rows, `<tr><td style="padding:8px 0;font-weight:bold;">%s</td><td style="padding:8px 0;">%s</td></tr>`, k, v)
	}
	row("Domain", a.label())
	row("URL", a.Domain)
	row("Alert Type", a.Type.Label())
	row("Time", now.Format("2006-01-02 15:04:05"))
	if a.DaysRemaining != nil {
		row("Days Remaining", fmt.Sprintf("%d", *a.DaysRemaining))
	}
	if a.ExpiresAt != nil {
		row("Expiry Date", a.ExpiresAt.Format("2006-01-02"))
	}

	return fmt.Sprintf(`<div style="font-family:Arial,sans-serif;padding:20px;max-width:600px;margin:0 auto;border:1px solid #e0e0e0;border-radius:5px;">
<h1 style="color:%s;margin-top:0;">%s</h1>
<p style="font-size:16px;line-height:1.5;">%s</p>
<div style="background-color:#f9f9f9;padding:15px;border-radius:5px;margin-top:20px;">
<h3 style="margin-top:0;">Alert Details</h3>
<table style="width:100%%;border-collapse:collapse;">%s</table>
</div>
<div style="margin-top:30px;font-size:12px;color:#666;text-align:center;"><p>This is an automated message from your domainwatch service.</p></div>
</div>`, alertColor(a.Type), subject, a.Message, rows.String())
}
