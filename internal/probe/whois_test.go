package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRegistrableDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "example.com"},
		{"www.example.com", "example.com"},
		{"https://www.example.com", "example.com"},
		{"http://example.com/path/to/page", "example.com"},
		{"https://www.blog.example.co.uk/path?x=1", "example.co.uk"},
		{"sub.deep.example.com", "example.com"},
		{"example.co.uk", "example.co.uk"},
		{"shop.example.com.au", "example.com.au"},
		{"203.0.113.5", "203.0.113.5"},
		{"https://example.com#fragment", "example.com"},
		{"  example.com  ", "example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := RegistrableDomain(tt.in); got != tt.want {
				t.Errorf("RegistrableDomain(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseWhoisResponseStructuredResult(t *testing.T) {
	body := []byte(`{"result": {"expiration_date": "2027-06-15T00:00:00Z", "registrar": "Example Registrar"}}`)

	obs, err := parseWhoisResponse(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.ExpiryDate.Year() != 2027 || obs.ExpiryDate.Month() != 6 {
		t.Errorf("expiry = %v, want 2027-06-15", obs.ExpiryDate)
	}
	if obs.Registrar != "Example Registrar" {
		t.Errorf("registrar = %q", obs.Registrar)
	}
}

func TestParseWhoisResponseTopLevel(t *testing.T) {
	body := []byte(`{"expiration_date": "2027-01-01", "registrar": "Top Level Inc"}`)

	obs, err := parseWhoisResponse(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.ExpiryDate.Year() != 2027 {
		t.Errorf("expiry = %v", obs.ExpiryDate)
	}
	if obs.Registrar != "Top Level Inc" {
		t.Errorf("registrar = %q", obs.Registrar)
	}
}

func TestParseWhoisResponseRawBlob(t *testing.T) {
	raw := "Domain Name: example.com\r\nRegistrar: Raw Registrar LLC\r\nExpiry Date: 2028-03-01T12:00:00Z\r\n"
	body := []byte(fmt.Sprintf("%q", raw))
	body = append([]byte(`{"result": `), append(body, '}')...)

	obs, err := parseWhoisResponse(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.ExpiryDate.Year() != 2028 {
		t.Errorf("expiry = %v, want 2028", obs.ExpiryDate)
	}
	if obs.Registrar != "Raw Registrar LLC" {
		t.Errorf("registrar = %q", obs.Registrar)
	}
}

func TestParseWhoisResponsePriority(t *testing.T) {
	// Structured result wins over the top-level field.
	body := []byte(`{"expiration_date": "2030-01-01", "result": {"expiration_date": "2027-06-15"}}`)

	obs, err := parseWhoisResponse(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.ExpiryDate.Year() != 2027 {
		t.Errorf("expiry year = %d, want structured result's 2027", obs.ExpiryDate.Year())
	}
}

func TestParseWhoisResponseNoExpiry(t *testing.T) {
	if _, err := parseWhoisResponse([]byte(`{"registrar": "Nobody"}`)); err == nil {
		t.Fatal("expected error when no expiry date present")
	}
}

func TestParseFlexibleDate(t *testing.T) {
	tests := []string{
		"2027-06-15T00:00:00Z",
		"2027-06-15 00:00:00",
		"2027-06-15",
		"15-Jun-2027",
		"June 15, 2027",
		"2027.06.15",
		"2027/06/15",
	}
	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			d, err := parseFlexibleDate(s)
			if err != nil {
				t.Fatalf("parseFlexibleDate(%q): %v", s, err)
			}
			if d.Year() != 2027 || d.Month() != time.June || d.Day() != 15 {
				t.Errorf("parsed %v, want 2027-06-15", d)
			}
		})
	}

	if _, err := parseFlexibleDate("not a date"); err == nil {
		t.Error("expected error for unparseable date")
	}
}

func TestWhoisLookupAPISuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "test-key" {
			t.Errorf("missing apikey header")
		}
		if got := r.URL.Query().Get("domain"); got != "example.com" {
			t.Errorf("domain query = %q, want example.com", got)
		}
		fmt.Fprint(w, `{"result": {"expiration_date": "2027-06-15", "registrar": "API Registrar"}}`)
	}))
	defer srv.Close()

	p := NewWhoisProber(srv.URL, "test-key", 5*time.Second)
	obs, err := p.Lookup(context.Background(), "https://www.example.com/about")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.Registrar != "API Registrar" {
		t.Errorf("registrar = %q", obs.Registrar)
	}
}

func TestWhoisLookupFallsBackToDirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewWhoisProber(srv.URL, "test-key", 5*time.Second)
	p.whoisFunc = func(domain string) (string, error) {
		return "Registrar: Direct Registrar\nExpiry Date: 2028-01-01\n", nil
	}

	obs, err := p.Lookup(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.Registrar != "Direct Registrar" {
		t.Errorf("registrar = %q, want the port-43 fallback result", obs.Registrar)
	}
}

func TestWhoisLookupMissingKeySurfacesConfigError(t *testing.T) {
	p := NewWhoisProber("http://unused.invalid", "", 5*time.Second)
	p.whoisFunc = func(domain string) (string, error) {
		return "", errors.New("connection refused")
	}

	_, err := p.Lookup(context.Background(), "example.com")
	var confErr *ConfigError
	if !errors.As(err, &confErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if confErr.Missing != "API_LAYER_KEY" {
		t.Errorf("missing = %q", confErr.Missing)
	}
}

func TestWhoisLookupAllStrategiesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewWhoisProber(srv.URL, "test-key", 5*time.Second)
	p.whoisFunc = func(domain string) (string, error) {
		return "", errors.New("connection refused")
	}

	_, err := p.Lookup(context.Background(), "example.com")
	var probeErr *Error
	if !errors.As(err, &probeErr) {
		t.Fatalf("expected probe.Error, got %v", err)
	}
	// The chain keeps every strategy's failure reason.
	for _, want := range []string{"apilayer", "port-43"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %s attempt", err.Error(), want)
		}
	}
}
