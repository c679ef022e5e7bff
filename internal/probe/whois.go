package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/likexian/whois"
)

type WhoisObservation struct {
	ExpiryDate time.Time
	Registrar  string
}

type whoisStrategy struct {
	name string
	run  func(ctx context.Context, domain string) (*WhoisObservation, error)
}

type WhoisProber struct {
	apiURL     string
	apiKey     string
	client     *http.Client
	whoisFunc  func(domain string) (string, error)
	strategies []whoisStrategy
}

// NewWhoisProber builds the ordered strategy list: the apilayer WHOIS API
// first, a direct port-43 lookup when the API fails or no key is set.
func NewWhoisProber(apiURL, apiKey string, timeout time.Duration) *WhoisProber {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	p := &WhoisProber{
		apiURL:    apiURL,
		apiKey:    apiKey,
		client:    &http.Client{Timeout: timeout},
		whoisFunc: func(domain string) (string, error) { return whois.Whois(domain) },
	}
	p.strategies = []whoisStrategy{
		{name: "apilayer", run: p.queryAPI},
		{name: "port-43", run: p.queryDirect},
	}
	return p
}

// Lookup normalizes the input to its registrable domain and walks the
// strategy chain for expiry date and registrar.
func (p *WhoisProber) Lookup(ctx context.Context, domain string) (*WhoisObservation, error) {
	main := RegistrableDomain(domain)

	chain := &chainError{Op: "whois lookup"}
	var confErr *ConfigError
	for _, s := range p.strategies {
		obs, err := s.run(ctx, main)
		if err == nil {
			return obs, nil
		}
		if ce, ok := err.(*ConfigError); ok && confErr == nil {
			confErr = ce
		}
		chain.Attempts = append(chain.Attempts, fmt.Sprintf("%s: %v", s.name, err))
	}
	// Credentials missing and the fallback answered nothing: surface a
	// configuration problem, not a probe failure.
	if confErr != nil {
		return nil, confErr
	}
	return nil, &Error{Op: "whois", Host: main, Err: chain}
}

func (p *WhoisProber) queryAPI(ctx context.Context, domain string) (*WhoisObservation, error) {
	if p.apiKey == "" {
		return nil, &ConfigError{Missing: "API_LAYER_KEY"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s?domain=%s", p.apiURL, url.QueryEscape(domain)), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", p.apiKey)
	req.Header.Set("Cache-Control", "no-store")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Raw body attached for diagnostics.
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return parseWhoisResponse(body)
}

func (p *WhoisProber) queryDirect(ctx context.Context, domain string) (*WhoisObservation, error) {
	type result struct {
		raw string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		raw, err := p.whoisFunc(domain)
		ch <- result{raw, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("whois lookup failed: %w", res.err)
		}
		expiry, ok := extractExpiryFromText(res.raw)
		if !ok {
			return nil, fmt.Errorf("could not extract expiry date from WHOIS data")
		}
		registrar := extractRegistrarFromText(res.raw)
		return &WhoisObservation{ExpiryDate: expiry, Registrar: registrar}, nil
	}
}

// parseWhoisResponse handles the three shapes the WHOIS API answers with,
// first match wins: structured result.expiration_date, top-level
// expiration_date, or a raw WHOIS blob in result.
func parseWhoisResponse(body []byte) (*WhoisObservation, error) {
	var payload struct {
		Result         json.RawMessage `json:"result"`
		ExpirationDate string          `json:"expiration_date"`
		Registrar      string          `json:"registrar"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var structured struct {
		ExpirationDate string `json:"expiration_date"`
		Registrar      string `json:"registrar"`
	}
	var rawText string

	if len(payload.Result) > 0 {
		if err := json.Unmarshal(payload.Result, &structured); err != nil {
			// result may be a raw WHOIS text blob instead of an object
			_ = json.Unmarshal(payload.Result, &rawText)
		}
	}

	var expiryStr string
	switch {
	case structured.ExpirationDate != "":
		expiryStr = structured.ExpirationDate
	case payload.ExpirationDate != "":
		expiryStr = payload.ExpirationDate
	case rawText != "":
		if m := expiryPattern.FindStringSubmatch(rawText); m != nil {
			expiryStr = strings.TrimSpace(m[1])
		}
	}

	if expiryStr == "" {
		return nil, fmt.Errorf("could not extract expiry date from WHOIS response")
	}

	expiry, err := parseFlexibleDate(expiryStr)
	if err != nil {
		return nil, fmt.Errorf("invalid date format in WHOIS response: %s", expiryStr)
	}

	registrar := "Unknown"
	switch {
	case structured.Registrar != "":
		registrar = structured.Registrar
	case payload.Registrar != "":
		registrar = payload.Registrar
	case rawText != "":
		registrar = extractRegistrarFromText(rawText)
	}

	return &WhoisObservation{ExpiryDate: expiry, Registrar: registrar}, nil
}

var (
	expiryPattern    = regexp.MustCompile(`(?i)expir(?:y|ation)[\s_-]*date:?\s*([^\n\r]+)`)
	registrarPattern = regexp.MustCompile(`(?i)registrar:?\s*([^\n\r]+)`)
	ipv4Pattern      = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
)

func extractExpiryFromText(raw string) (time.Time, bool) {
	m := expiryPattern.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, false
	}
	t, err := parseFlexibleDate(strings.TrimSpace(m[1]))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func extractRegistrarFromText(raw string) string {
	if m := registrarPattern.FindStringSubmatch(raw); m != nil {
		if r := strings.TrimSpace(m[1]); r != "" {
			return r
		}
	}
	return "Unknown"
}

// parseFlexibleDate tries the date formats seen across WHOIS servers and
// SSL APIs.
func parseFlexibleDate(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
		"02-Jan-2006",
		"January 2, 2006",
		"Jan 2 15:04:05 2006 MST",
		"2006.01.02 15:04:05",
		"2006.01.02",
		"2006/01/02",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

// multi-label public suffixes that keep three labels in the registrable
// domain (example.co.uk, not co.uk)
var multiLabelTLDs = map[string]bool{
	"co.uk": true, "org.uk": true, "me.uk": true,
	"com.au": true, "net.au": true, "org.au": true,
	"co.nz": true, "net.nz": true, "org.nz": true,
	"co.za": true, "com.br": true, "com.mx": true,
}

// RegistrableDomain collapses a URL or host to the apex domain used for
// WHOIS lookups. IPv4 literals pass through unchanged.
func RegistrableDomain(domain string) string {
	clean := strings.TrimSpace(domain)
	clean = regexp.MustCompile(`(?i)^(https?://)?(www\.)?`).ReplaceAllString(clean, "")

	for _, sep := range []string{"/", "?", "#"} {
		if i := strings.Index(clean, sep); i >= 0 {
			clean = clean[:i]
		}
	}

	if ipv4Pattern.MatchString(clean) {
		return clean
	}

	parts := strings.Split(clean, ".")
	if len(parts) <= 2 {
		return clean
	}

	lastTwo := strings.Join(parts[len(parts)-2:], ".")
	if multiLabelTLDs[lastTwo] {
		return strings.Join(parts[len(parts)-3:], ".")
	}
	return lastTwo
}
