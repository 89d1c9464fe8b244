package clean

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// DNSResolver queries MX records straight from the configured servers.
type DNSResolver struct {
	servers []string
	client  *dns.Client
}

// NewDNSResolver builds a resolver. Servers are host:port pairs tried in order.
func NewDNSResolver(servers []string) *DNSResolver {
	cleaned := make([]string, 0, len(servers))
	for _, s := range servers {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !strings.Contains(s, ":") {
			s += ":53"
		}
		cleaned = append(cleaned, s)
	}
	return &DNSResolver{servers: cleaned, client: new(dns.Client)}
}

// LookupMX returns the mail exchanger hosts for domain.
func (r *DNSResolver) LookupMX(ctx context.Context, domain string) ([]string, error) {
	if len(r.servers) == 0 {
		return nil, errors.New("no dns servers configured")
	}
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeMX)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers {
		resp, _, err := r.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.Rcode != dns.RcodeSuccess {
			return nil, fmt.Errorf("mx lookup %s: %s", domain, dns.RcodeToString[resp.Rcode])
		}
		hosts := make([]string, 0, len(resp.Answer))
		for _, rr := range resp.Answer {
			if mx, ok := rr.(*dns.MX); ok {
				hosts = append(hosts, strings.TrimSuffix(mx.Mx, "."))
			}
		}
		return hosts, nil
	}
	return nil, fmt.Errorf("mx lookup %s: %w", domain, lastErr)
}
