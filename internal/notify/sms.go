package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/statuslabs/domainwatch/internal/config"
	"github.com/statuslabs/domainwatch/internal/probe"
)

// SMSSender delivers template-based messages through the MSG91 flow API.
// MSG91 substitutes ##VAR## placeholders in the registered template with
// the values sent per recipient.
type SMSSender struct {
	cfg    config.SMSConfig
	client *http.Client
	logger *zap.Logger
}

func NewSMSSender(cfg config.SMSConfig, logger *zap.Logger) *SMSSender {
	return &SMSSender{
		cfg: cfg,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

type flowRecipient map[string]string

type flowRequest struct {
	TemplateID string          `json:"template_id"`
	Recipients []flowRecipient `json:"recipients"`
}

// Send posts one flow request per recipient and returns how many were
// accepted. Success means at least one went out; per-recipient failures are
// logged and counted, not propagated.
func (s *SMSSender) Send(vars map[string]string, to []string) (int, error) {
	if s.cfg.AuthKey == "" {
		return 0, &probe.ConfigError{Missing: "MSG91_AUTH_KEY"}
	}
	if s.cfg.TemplateID == "" {
		return 0, &probe.ConfigError{Missing: "MSG91_TEMPLATE_ID"}
	}

	sent := 0
	var lastErr error
	for _, phone := range to {
		if err := s.sendOne(vars, phone); err != nil {
			lastErr = err
			s.logger.Warn("SMS delivery failed",
				zap.Error(err),
				zap.String("recipient", maskPhone(phone)),
			)
			continue
		}
		sent++
	}

	if sent == 0 && lastErr != nil {
		return 0, lastErr
	}
	return sent, nil
}

func (s *SMSSender) sendOne(vars map[string]string, phone string) error {
	recipient := flowRecipient{
		// MSG91 expects mobiles without a leading plus.
		"mobiles": strings.TrimPrefix(phone, "+"),
	}
	for k, v := range vars {
		recipient[k] = v
	}

	body, err := json.Marshal(flowRequest{
		TemplateID: s.cfg.TemplateID,
		Recipients: []flowRecipient{recipient},
	})
	if err != nil {
		return fmt.Errorf("marshal flow request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build flow request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("authkey", s.cfg.AuthKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post flow request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("msg91 returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}

// maskPhone keeps the last four digits for log correlation.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
