package notify

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/statuslabs/domainwatch/internal/config"
	"github.com/statuslabs/domainwatch/internal/probe"
)

func smsConfig(url string) config.SMSConfig {
	return config.SMSConfig{
		AuthKey:    "test-auth",
		TemplateID: "tmpl-1",
		APIURL:     url,
	}
}

func TestSMSSendPerRecipient(t *testing.T) {
	var requests []flowRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("authkey") != "test-auth" {
			t.Errorf("missing authkey header")
		}
		var req flowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		requests = append(requests, req)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSMSSender(smsConfig(srv.URL), zap.NewNop())
	vars := map[string]string{"##MESSAGE##": "site down"}

	sent, err := s.Send(vars, []string{"+447700900000", "447700900001"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent != 2 {
		t.Errorf("sent = %d, want 2", sent)
	}
	if len(requests) != 2 {
		t.Fatalf("expected one request per recipient, got %d", len(requests))
	}

	// Leading plus stripped, template and vars forwarded.
	if requests[0].TemplateID != "tmpl-1" {
		t.Errorf("template id = %q", requests[0].TemplateID)
	}
	if got := requests[0].Recipients[0]["mobiles"]; got != "447700900000" {
		t.Errorf("mobiles = %q, want plus stripped", got)
	}
	if got := requests[0].Recipients[0]["##MESSAGE##"]; got != "site down" {
		t.Errorf("message var = %q", got)
	}
}

func TestSMSPartialFailureStillCounts(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSMSSender(smsConfig(srv.URL), zap.NewNop())
	sent, err := s.Send(nil, []string{"1111", "2222"})
	if err != nil {
		t.Fatalf("at least one success means no error: %v", err)
	}
	if sent != 1 {
		t.Errorf("sent = %d, want 1", sent)
	}
}

func TestSMSAllFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewSMSSender(smsConfig(srv.URL), zap.NewNop())
	sent, err := s.Send(nil, []string{"1111", "2222"})
	if sent != 0 {
		t.Errorf("sent = %d, want 0", sent)
	}
	if err == nil {
		t.Error("expected the last failure to surface")
	}
}

func TestSMSMissingCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.SMSConfig
		want string
	}{
		{"no auth key", config.SMSConfig{TemplateID: "t"}, "MSG91_AUTH_KEY"},
		{"no template", config.SMSConfig{AuthKey: "k"}, "MSG91_TEMPLATE_ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSMSSender(tt.cfg, zap.NewNop())
			_, err := s.Send(nil, []string{"1111"})
			var confErr *probe.ConfigError
			if !errors.As(err, &confErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if confErr.Missing != tt.want {
				t.Errorf("missing = %q, want %q", confErr.Missing, tt.want)
			}
		})
	}
}
