package probe

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

type CertificateObservation struct {
	ExpiryDate time.Time
	Issuer     string
}

type certStrategy struct {
	name string
	run  func(ctx context.Context, host string) (*CertificateObservation, error)
}

type CertProber struct {
	timeout    time.Duration
	client     *http.Client
	apiURL     string
	strategies []certStrategy
}

// NewCertProber builds the ordered strategy list: direct TLS handshake
// first, the ssl-checker HTTP API only when the handshake fails.
func NewCertProber(timeout time.Duration) *CertProber {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	p := &CertProber{
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		apiURL:  "https://api.ssl-checker.io/ssl",
	}
	p.strategies = []certStrategy{
		{name: "tls-handshake", run: p.handshake},
		{name: "ssl-checker-api", run: p.checkerAPI},
	}
	return p
}

// Certificate reads the peer certificate's NotAfter and issuer organization.
// Verification is disabled on purpose: the point is to inspect whatever
// certificate is served, expired and self-signed included.
func (p *CertProber) Certificate(ctx context.Context, host string) (*CertificateObservation, error) {
	chain := &chainError{Op: "certificate probe"}
	for _, s := range p.strategies {
		obs, err := s.run(ctx, host)
		if err == nil {
			return obs, nil
		}
		chain.Attempts = append(chain.Attempts, fmt.Sprintf("%s: %v", s.name, err))
	}
	return nil, &Error{Op: "certificate", Host: host, Err: chain}
}

func (p *CertProber) handshake(ctx context.Context, host string) (*CertificateObservation, error) {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: p.timeout},
		Config: &tls.Config{
			ServerName:         host,
			InsecureSkipVerify: true,
		},
	}

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, "443"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil, fmt.Errorf("no certificates found")
	}

	cert := state.PeerCertificates[0]
	issuer := "Unknown"
	if len(cert.Issuer.Organization) > 0 {
		issuer = cert.Issuer.Organization[0]
	} else if cert.Issuer.CommonName != "" {
		issuer = cert.Issuer.CommonName
	}

	return &CertificateObservation{
		ExpiryDate: cert.NotAfter,
		Issuer:     issuer,
	}, nil
}

func (p *CertProber) checkerAPI(ctx context.Context, host string) (*CertificateObservation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s?host=%s", p.apiURL, url.QueryEscape(host)), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	var payload struct {
		Valid  bool   `json:"valid"`
		Expiry string `json:"expiry"`
		Issuer string `json:"issuer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if !payload.Valid || payload.Expiry == "" {
		return nil, fmt.Errorf("invalid SSL certificate or missing expiry data")
	}

	expiry, err := parseFlexibleDate(payload.Expiry)
	if err != nil {
		return nil, fmt.Errorf("invalid expiry date %q", payload.Expiry)
	}

	issuer := payload.Issuer
	if issuer == "" {
		issuer = "Unknown"
	}

	return &CertificateObservation{ExpiryDate: expiry, Issuer: issuer}, nil
}
