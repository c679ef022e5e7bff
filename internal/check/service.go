package check

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/statuslabs/domainwatch/internal/db"
	"github.com/statuslabs/domainwatch/internal/probe"
)

// known infrastructure hosts; a primary IP matching one of these writes the
// label back onto the domain's tag field
var ipTagMappings = map[string]string{
	"91.204.209.205": "uranium Direct Admin",
	"91.204.209.204": "iridium Direct Admin",
	"109.70.148.64":  "cPanel draftforclients.com",
	"91.204.209.29":  "cPanel webuildtrades.com",
	"91.204.209.39":  "cPanel webuildtrades.io",
	"35.214.4.69":    "SiteGround",
	"165.22.127.156": "Cloudways",
	"64.227.39.249":  "Digitalocean",
}

// Prober interfaces, satisfied by the concrete probe types. Narrow on
// purpose so tests can substitute observations.
type UptimeProber interface {
	Uptime(ctx context.Context, url string) *probe.UptimeObservation
}

type CertProber interface {
	Certificate(ctx context.Context, host string) (*probe.CertificateObservation, error)
}

type Resolver interface {
	Resolve(ctx context.Context, host string) (*probe.DNSObservation, error)
}

type WhoisProber interface {
	Lookup(ctx context.Context, domain string) (*probe.WhoisObservation, error)
}

type Service struct {
	store  Store
	http   UptimeProber
	cert   CertProber
	dns    Resolver
	whois  WhoisProber
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store Store, httpP UptimeProber, certP CertProber, dnsP Resolver, whoisP WhoisProber, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		http:   httpP,
		cert:   certP,
		dns:    dnsP,
		whois:  whoisP,
		logger: logger,
		now:    time.Now,
	}
}

// Uptime probes the URL and records the observation. A failed probe is a
// recorded down state, not an error; only a persistence failure errors.
func (s *Service) Uptime(ctx context.Context, domainID, url string) (*UptimeResult, error) {
	obs := s.http.Uptime(ctx, url)
	checkedAt := s.now()

	rec := &db.UptimeRecord{
		DomainID:     domainID,
		Status:       obs.Up,
		ResponseTime: obs.ResponseTime,
		ErrorMessage: obs.ErrorMessage,
		CheckedAt:    checkedAt,
	}
	if err := s.store.InsertUptimeRecord(rec); err != nil {
		return nil, fmt.Errorf("save uptime record: %w", err)
	}

	s.logger.Info("Uptime check completed",
		zap.String("domain_id", domainID),
		zap.String("url", url),
		zap.Bool("up", obs.Up),
	)

	return &UptimeResult{
		Up:           obs.Up,
		StatusCode:   obs.StatusCode,
		ResponseTime: obs.ResponseTime,
		ErrorMessage: obs.ErrorMessage,
		CheckedAt:    checkedAt,
	}, nil
}

func (s *Service) SSL(ctx context.Context, domainID, host string) (*SSLResult, error) {
	obs, err := s.cert.Certificate(ctx, host)
	if err != nil {
		return nil, err
	}

	checkedAt := s.now()
	days := probe.DaysUntil(obs.ExpiryDate, checkedAt)

	rec := &db.SSLRecord{
		DomainID:      domainID,
		ExpiryDate:    obs.ExpiryDate,
		DaysRemaining: days,
		Issuer:        obs.Issuer,
		CheckedAt:     checkedAt,
	}
	if err := s.store.InsertSSLRecord(rec); err != nil {
		return nil, fmt.Errorf("save ssl record: %w", err)
	}

	s.logger.Info("SSL check completed",
		zap.String("domain_id", domainID),
		zap.String("host", host),
		zap.Int("days_remaining", days),
	)

	return &SSLResult{
		ExpiryDate:    obs.ExpiryDate,
		DaysRemaining: days,
		Issuer:        obs.Issuer,
		CheckedAt:     checkedAt,
	}, nil
}

func (s *Service) DomainExpiry(ctx context.Context, domainID, domain string) (*ExpiryResult, error) {
	obs, err := s.whois.Lookup(ctx, domain)
	if err != nil {
		return nil, err
	}

	checkedAt := s.now()
	days := probe.DaysUntil(obs.ExpiryDate, checkedAt)

	rec := &db.DomainExpiryRecord{
		DomainID:      domainID,
		ExpiryDate:    obs.ExpiryDate,
		DaysRemaining: days,
		Registrar:     obs.Registrar,
		CheckedAt:     checkedAt,
	}
	if err := s.store.InsertDomainExpiryRecord(rec); err != nil {
		return nil, fmt.Errorf("save domain expiry record: %w", err)
	}

	s.logger.Info("Domain expiry check completed",
		zap.String("domain_id", domainID),
		zap.String("domain", domain),
		zap.Int("days_remaining", days),
		zap.String("registrar", obs.Registrar),
	)

	return &ExpiryResult{
		ExpiryDate:    obs.ExpiryDate,
		DaysRemaining: days,
		Registrar:     obs.Registrar,
		CheckedAt:     checkedAt,
	}, nil
}

// IPRecords resolves the host and records A/MX/NS state. The previous
// primary IP is read before the new row is written; a change is only a
// change when both sides are non-nil.
func (s *Service) IPRecords(ctx context.Context, domainID, domain string) (*IPResult, error) {
	obs, err := s.dns.Resolve(ctx, domain)
	if err != nil {
		return nil, err
	}

	var primaryIP *string
	if len(obs.IPv4) > 0 {
		primaryIP = &obs.IPv4[0]
	}

	prev, err := s.store.LatestIPRecord(domainID)
	if err != nil {
		return nil, fmt.Errorf("load previous ip record: %w", err)
	}

	var ipChanged bool
	var previousIP *string
	if prev != nil && prev.PrimaryIP != nil && primaryIP != nil && *prev.PrimaryIP != *primaryIP {
		ipChanged = true
		previousIP = prev.PrimaryIP
		s.logger.Info("IP change detected",
			zap.String("domain", domain),
			zap.String("previous_ip", *previousIP),
			zap.String("new_ip", *primaryIP),
		)
	}

	var tag *string
	if primaryIP != nil {
		if label, ok := ipTagMappings[*primaryIP]; ok {
			tag = &label
			if err := s.store.SetDomainTag(domainID, label); err != nil {
				s.logger.Warn("Failed to update domain tag",
					zap.Error(err),
					zap.String("domain_id", domainID),
				)
			}
		}
	}

	mx := make([]db.MXRecord, 0, len(obs.MX))
	for _, m := range obs.MX {
		mx = append(mx, db.MXRecord{Priority: m.Priority, Host: m.Host})
	}

	checkedAt := s.now()
	rec := &db.IPRecord{
		DomainID:    domainID,
		PrimaryIP:   primaryIP,
		AllIPs:      obs.IPv4,
		MXRecords:   mx,
		Nameservers: obs.NS,
		CheckedAt:   checkedAt,
	}
	if err := s.store.InsertIPRecord(rec); err != nil {
		return nil, fmt.Errorf("save ip record: %w", err)
	}

	return &IPResult{
		PrimaryIP:   primaryIP,
		AllIPs:      obs.IPv4,
		MXRecords:   mx,
		Nameservers: obs.NS,
		Tag:         tag,
		IPChanged:   ipChanged,
		PreviousIP:  previousIP,
		CheckedAt:   checkedAt,
	}, nil
}
