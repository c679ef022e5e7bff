package probe

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// The handshake strategy fails against a host with no TLS listener, so the
// prober must fall through to the checker API.
func TestCertificateFallsBackToAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("host"); got != "tls-less.invalid" {
			t.Errorf("host query = %q", got)
		}
		fmt.Fprint(w, `{"valid": true, "expiry": "2027-09-30", "issuer": "Fallback CA"}`)
	}))
	defer srv.Close()

	p := NewCertProber(2 * time.Second)
	p.apiURL = srv.URL

	obs, err := p.Certificate(context.Background(), "tls-less.invalid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.Issuer != "Fallback CA" {
		t.Errorf("issuer = %q", obs.Issuer)
	}
	if obs.ExpiryDate.Year() != 2027 {
		t.Errorf("expiry = %v", obs.ExpiryDate)
	}
}

func TestCertificateAPIInvalidCert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"valid": false}`)
	}))
	defer srv.Close()

	p := NewCertProber(2 * time.Second)
	p.apiURL = srv.URL

	_, err := p.Certificate(context.Background(), "tls-less.invalid")
	if err == nil {
		t.Fatal("expected error when both strategies fail")
	}
	for _, want := range []string{"tls-handshake", "ssl-checker-api"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention the %s attempt", err.Error(), want)
		}
	}
}
