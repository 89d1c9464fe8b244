package fetch

import (
	"context"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/octobees/business-directory/api/internal/enrichment"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// HTTPOptions configures an HTTPFetcher.
type HTTPOptions struct {
	Timeout   time.Duration
	UserAgent string
	SearchURL string
	// Rate bounds outbound requests; zero disables pacing.
	Rate  rate.Limit
	Burst int
}

// HTTPFetcher retrieves pages and result lists with a plain HTTP client.
// It does not run scripts, so it never loads sub-resources.
type HTTPFetcher struct {
	client    *resty.Client
	searchURL string
}

var _ enrichment.Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher builds a fetcher with the anti-bot transport and request pacing.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	client := resty.New()
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", opts.UserAgent)
	client.SetHeader("accept-language", "en-US,en;q=0.9")
	client.SetTimeout(opts.Timeout)

	if opts.Rate > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter := rate.NewLimiter(opts.Rate, burst)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	return &HTTPFetcher{client: client, searchURL: opts.SearchURL}
}

// Fetch issues a GET for a page request or a search query.
func (f *HTTPFetcher) Fetch(ctx context.Context, req enrichment.Request) (enrichment.RawContent, error) {
	target, err := requestURL(req, f.searchURL)
	if err != nil {
		return enrichment.RawContent{}, err
	}

	resp, err := f.client.R().SetContext(ctx).Get(target)
	if err != nil {
		return enrichment.RawContent{}, classifyError(ctx, target, err)
	}
	if err := classifyStatus(target, resp.StatusCode()); err != nil {
		return enrichment.RawContent{}, err
	}
	body := resp.String()
	if err := classifyBody(target, body); err != nil {
		return enrichment.RawContent{}, err
	}

	final := target
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		final = raw.Request.URL.String()
	}
	return enrichment.RawContent{Kind: req.Kind, URL: final, HTML: body}, nil
}

// requestURL builds the address to load for a request.
func requestURL(req enrichment.Request, searchURL string) (string, error) {
	switch req.Kind {
	case enrichment.KindPage:
		if req.URL == "" {
			return "", &enrichment.ValidationError{Reason: "page request without url"}
		}
		u, err := url.Parse(req.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return "", &enrichment.ValidationError{Reason: "malformed website url " + req.URL}
		}
		return req.URL, nil
	case enrichment.KindSearch:
		if req.Query == "" {
			return "", &enrichment.ValidationError{Reason: "search request without query"}
		}
		base, err := url.Parse(searchURL)
		if err != nil || base.Host == "" {
			return "", &enrichment.ValidationError{Reason: "invalid search url " + searchURL}
		}
		q := base.Query()
		q.Set("q", req.Query)
		q.Set("hl", "en")
		q.Set("num", "10")
		base.RawQuery = q.Encode()
		return base.String(), nil
	default:
		return "", &enrichment.ValidationError{Reason: "unsupported request kind " + string(req.Kind)}
	}
}
