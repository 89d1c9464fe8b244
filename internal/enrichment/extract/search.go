package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"

	"github.com/octobees/business-directory/api/internal/enrichment"
	"github.com/octobees/business-directory/api/internal/entity"
)

// MaxLinks caps the links kept from one result list.
const MaxLinks = 3

// searchEngines are registrable-domain labels whose own pages are never business links.
var searchEngines = map[string]struct{}{
	"google":            {},
	"googleusercontent": {},
	"gstatic":           {},
	"bing":              {},
	"duckduckgo":        {},
	"yahoo":             {},
	"yandex":            {},
	"baidu":             {},
}

// socialDomains maps a registrable-domain label to its network.
var socialDomains = []struct {
	label   string
	network string
}{
	{"instagram", "instagram"},
	{"facebook", "facebook"},
	{"fb", "facebook"},
	{"linkedin", "linkedin"},
	{"twitter", "twitter"},
	{"x", "twitter"},
}

var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"Restaurant", []string{"restaurant", "cafe", "café", "food", "catering", "bakery", "dining"}},
	{"Retail", []string{"store", "shop", "retail", "mart", "outlet", "wholesale", "supplier"}},
	{"Entertainment", []string{"entertainment", "cinema", "events", "gaming", "amusement"}},
	{"Service", []string{"service", "services", "consult", "repair", "agency", "logistics", "solutions"}},
}

func extractSearch(results []enrichment.SearchResult) enrichment.Partial {
	partial := enrichment.Partial{FromSearch: true}
	seen := make(map[string]struct{})
	kept := make([]enrichment.SearchResult, 0, len(results))

	for _, r := range results {
		link := strings.TrimSpace(r.URL)
		u, ok := qualifyingURL(link)
		if !ok {
			continue
		}
		key := canonicalKey(u)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		r.URL = link
		kept = append(kept, r)
	}

	for _, r := range kept {
		u, _ := url.Parse(r.URL)
		// Non-social hits stay in Links only. An unverified result is not
		// the business's website.
		network := socialNetwork(u.Hostname())
		if network != "" && partial.SocialMedia.Get(network) == "" {
			partial.SocialMedia.Set(network, r.URL)
		}
	}

	for i, r := range kept {
		if i == MaxLinks {
			break
		}
		partial.Links = append(partial.Links, r.URL)
	}

	present := len(partial.Links) > 0
	partial.HasPublicPresence = &present

	if len(kept) > 0 {
		first := kept[0]
		partial.SearchResult = &entity.SearchResult{
			URL:     first.URL,
			Title:   strings.TrimSpace(first.Title),
			Snippet: strings.TrimSpace(first.Snippet),
		}
	}
	partial.DetectedCategory = detectCategory(kept)

	return partial
}

// qualifyingURL rejects search engine pages, cache copies and in-engine
// search URLs.
func qualifyingURL(link string) (*url.URL, bool) {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	host := strings.ToLower(u.Hostname())
	if _, engine := searchEngines[domainLabel(host)]; engine {
		return nil, false
	}
	if strings.Contains(host, "webcache") || strings.Contains(link, "cache:") {
		return nil, false
	}
	path := strings.ToLower(u.Path)
	if strings.HasPrefix(path, "/search") || strings.HasPrefix(path, "/url") {
		return nil, false
	}
	q := u.Query()
	if q.Has("tbm") || q.Has("tbs") {
		return nil, false
	}
	return u, true
}

// domainLabel returns the first label of the registrable domain,
// e.g. "google" for www.google.com.pk.
func domainLabel(host string) string {
	host = strings.Trim(host, ".")
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		registrable = host
	}
	label, _, _ := strings.Cut(registrable, ".")
	return label
}

func socialNetwork(host string) string {
	label := domainLabel(strings.ToLower(host))
	for _, s := range socialDomains {
		if label == s.label {
			return s.network
		}
	}
	return ""
}

func canonicalKey(u *url.URL) string {
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	return host + strings.TrimSuffix(u.EscapedPath(), "/") + "?" + u.RawQuery
}

func detectCategory(results []enrichment.SearchResult) entity.Field {
	var text strings.Builder
	for _, r := range results {
		text.WriteString(strings.ToLower(r.Title))
		text.WriteByte(' ')
		text.WriteString(strings.ToLower(r.Snippet))
		text.WriteByte(' ')
	}
	words := strings.FieldsFunc(text.String(), func(r rune) bool {
		return !(r == 'é' || r >= 'a' && r <= 'z')
	})
	index := make(map[string]struct{}, len(words))
	for _, w := range words {
		index[w] = struct{}{}
	}
	for _, c := range categoryKeywords {
		for _, w := range c.words {
			if _, ok := index[w]; ok {
				return entity.Known(c.category)
			}
		}
	}
	return entity.Field{}
}

// parseResults reads a result list out of a search engine page.
func parseResults(doc *goquery.Document, base *url.URL) []enrichment.SearchResult {
	anchors := doc.Find("#search a[href], #rso a[href]")
	if anchors.Length() == 0 {
		anchors = doc.Find("a[href]")
	}

	var results []enrichment.SearchResult
	anchors.Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		link := resolveHref(href, base)
		if link == "" {
			return
		}
		title := strings.TrimSpace(a.Find("h3").First().Text())
		if title == "" {
			title = strings.TrimSpace(a.Text())
		}
		container := a.Closest("div.g, div.MjjYud, li.b_algo, div.result")
		snippet := strings.TrimSpace(container.Find("div.VwiC3b, span.st, div[data-sncf], p").First().Text())
		results = append(results, enrichment.SearchResult{URL: link, Title: title, Snippet: snippet})
	})
	return results
}

// resolveHref unwraps /url?q= redirects and resolves relative links.
func resolveHref(href string, base *url.URL) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.Path == "/url" {
		if target := u.Query().Get("q"); target != "" {
			return target
		}
		if target := u.Query().Get("url"); target != "" {
			return target
		}
	}
	if base != nil && !u.IsAbs() {
		u = base.ResolveReference(u)
	}
	return u.String()
}
