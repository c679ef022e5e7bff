package probe

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

type DNSObservation struct {
	IPv4        []string
	MX          []MXEntry
	NS          []string
	HasDNSSEC   bool
	ResolveTime *int
}

type MXEntry struct {
	Priority int    `json:"priority"`
	Host     string `json:"host"`
}

type DNSProber struct {
	resolver *net.Resolver
	client   *dns.Client
	server   string
}

func NewDNSProber() *DNSProber {
	return &DNSProber{
		resolver: &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
				d := net.Dialer{Timeout: 5 * time.Second}
				return d.DialContext(ctx, network, address)
			},
		},
		client: &dns.Client{Timeout: 5 * time.Second},
		server: "8.8.8.8:53",
	}
}

// Resolve looks up A records (required), then MX and NS independently.
// Hosts without mail or delegated nameservers are normal: MX/NS failures
// leave an empty list and never fail the observation.
func (d *DNSProber) Resolve(ctx context.Context, host string) (*DNSObservation, error) {
	obs := &DNSObservation{
		IPv4: []string{},
		MX:   []MXEntry{},
		NS:   []string{},
	}

	start := time.Now()
	ips, err := d.resolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, &Error{Op: "resolve", Host: host, Err: err}
	}
	for _, ip := range ips {
		obs.IPv4 = append(obs.IPv4, ip.String())
	}

	if mxs, err := d.resolver.LookupMX(ctx, host); err == nil {
		for _, mx := range mxs {
			obs.MX = append(obs.MX, MXEntry{
				Priority: int(mx.Pref),
				Host:     strings.TrimSuffix(mx.Host, "."),
			})
		}
	}

	if nss, err := d.resolver.LookupNS(ctx, host); err == nil {
		for _, ns := range nss {
			obs.NS = append(obs.NS, strings.TrimSuffix(ns.Host, "."))
		}
	}

	obs.HasDNSSEC = d.checkDNSSEC(host)

	elapsed := int(time.Since(start).Milliseconds())
	obs.ResolveTime = &elapsed

	return obs, nil
}

func (d *DNSProber) checkDNSSEC(host string) bool {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), dns.TypeDNSKEY)
	m.SetEdns0(4096, true)

	r, _, err := d.client.Exchange(m, d.server)
	if err != nil || r == nil {
		return false
	}
	return r.AuthenticatedData
}
