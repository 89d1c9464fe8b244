// Package clean normalises extracted contact data before it is merged.
package clean

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"

	"github.com/octobees/business-directory/api/internal/enrichment"
	"github.com/octobees/business-directory/api/internal/entity"
)

var (
	emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-']+@[a-z0-9.-]+\.[a-z]{2,}$`)
	idnaProfile  = idna.Lookup
)

const (
	trackingPrefix     = "utm_"
	defaultPhoneRegion = "PK"
	mxLookupTimeout    = 3 * time.Second
)

// MXResolver looks up mail exchangers for a domain.
type MXResolver interface {
	LookupMX(ctx context.Context, domain string) ([]string, error)
}

// Processor applies the contact cleaning rules.
type Processor struct {
	region   string
	resolver MXResolver
}

// Option configures a Processor.
type Option func(*Processor)

// WithMXResolver enables MX verification of extracted email domains.
func WithMXResolver(resolver MXResolver) Option {
	return func(p *Processor) {
		p.resolver = resolver
	}
}

// NewProcessor builds a processor parsing local numbers in region.
func NewProcessor(region string, opts ...Option) *Processor {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = defaultPhoneRegion
	}
	p := &Processor{region: region}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Clean returns a copy of partial with phones in E.164, emails validated and
// links sanitised. Values that fail validation become absent.
func (p *Processor) Clean(ctx context.Context, partial enrichment.Partial) enrichment.Partial {
	out := partial
	out.Phone = p.cleanPhone(partial.Phone)
	out.Mobile = p.cleanPhone(partial.Mobile)
	out.Email = p.cleanEmail(ctx, partial.Email)
	out.Website = cleanLinkField(partial.Website)

	if partial.Links != nil {
		out.Links = make([]string, 0, len(partial.Links))
		seen := make(map[string]struct{}, len(partial.Links))
		for _, raw := range partial.Links {
			link, err := sanitizeLink(raw)
			if err != nil {
				continue
			}
			if _, dup := seen[link]; dup {
				continue
			}
			seen[link] = struct{}{}
			out.Links = append(out.Links, link)
		}
		if partial.FromSearch {
			present := len(out.Links) > 0
			out.HasPublicPresence = &present
		}
	}

	out.SocialMedia = entity.SocialMedia{}
	for _, network := range entity.SocialNetworks {
		link, err := sanitizeLink(partial.SocialMedia.Get(network))
		if err != nil {
			continue
		}
		out.SocialMedia.Set(network, link)
	}
	return out
}

func (p *Processor) cleanPhone(field entity.Field) entity.Field {
	raw, ok := field.Get()
	if !ok {
		return field
	}
	if normalized := normalizePhone(raw, p.region); normalized != "" {
		return entity.Known(normalized)
	}
	return field
}

func (p *Processor) cleanEmail(ctx context.Context, field entity.Field) entity.Field {
	raw, ok := field.Get()
	if !ok {
		return field
	}
	email := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "mailto:")))
	if !emailPattern.MatchString(email) {
		return entity.Field{}
	}
	local, domain, _ := strings.Cut(email, "@")
	asciiDomain, err := idnaProfile.ToASCII(domain)
	if err != nil || asciiDomain == "" {
		return entity.Field{}
	}
	if p.resolver != nil && !p.hasMXRecord(ctx, asciiDomain) {
		return entity.Field{}
	}
	return entity.Known(local + "@" + asciiDomain)
}

func (p *Processor) hasMXRecord(ctx context.Context, domain string) bool {
	ctx, cancel := context.WithTimeout(ctx, mxLookupTimeout)
	defer cancel()
	records, err := p.resolver.LookupMX(ctx, domain)
	return err == nil && len(records) > 0
}

func cleanLinkField(field entity.Field) entity.Field {
	raw, ok := field.Get()
	if !ok {
		return field
	}
	link, err := sanitizeLink(raw)
	if err != nil {
		return field
	}
	return entity.Known(link)
}

func sanitizeLink(raw string) (string, error) {
	u, err := sanitizeURL(raw)
	if err != nil {
		return "", err
	}
	stripTracking(u)
	return u.String(), nil
}

func sanitizeURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, errors.New("invalid url")
	}
	if u.Scheme == "http" {
		u.Scheme = "https"
	}
	if u.Scheme != "https" {
		return nil, errors.New("unsupported scheme")
	}
	u.Fragment = ""
	return u, nil
}

func stripTracking(u *url.URL) {
	query := u.Query()
	changed := false
	for key := range query {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, trackingPrefix) || lower == "fbclid" || lower == "gclid" {
			query.Del(key)
			changed = true
		}
	}
	if changed {
		u.RawQuery = query.Encode()
	}
}

func normalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	number, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return ""
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}
