// Package fetch retrieves raw business pages and search result lists.
//
// Three transports are available: a plain HTTP client, a headless browser
// that blocks images, stylesheets, fonts, scripts and media, and the Custom
// Search JSON API for search queries. Router sends each request kind to the
// transport configured for it.
package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/octobees/business-directory/api/internal/enrichment"
)

// Mode selects the page transport.
type Mode string

const (
	ModeHTTP    Mode = "http"
	ModeBrowser Mode = "browser"
)

// ParseMode validates a transport name.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeHTTP:
		return ModeHTTP, nil
	case ModeBrowser:
		return ModeBrowser, nil
	default:
		return "", fmt.Errorf("unknown fetch mode %q", raw)
	}
}

// Router dispatches page and search requests to separate fetchers.
type Router struct {
	Page   enrichment.Fetcher
	Search enrichment.Fetcher
}

var _ enrichment.Fetcher = Router{}

// Fetch implements enrichment.Fetcher.
func (r Router) Fetch(ctx context.Context, req enrichment.Request) (enrichment.RawContent, error) {
	next := r.Page
	if req.Kind == enrichment.KindSearch && r.Search != nil {
		next = r.Search
	}
	if next == nil {
		return enrichment.RawContent{}, &enrichment.ValidationError{Reason: "no fetcher for " + string(req.Kind)}
	}
	return next.Fetch(ctx, req)
}

// Options collects everything needed to build the configured transports.
type Options struct {
	Mode         Mode
	Timeout      time.Duration
	RatePerSec   float64
	UserAgent    string
	SearchURL    string
	ChromePath   string
	Headless     bool
	GoogleAPIKey string
	GoogleCSEID  string
}

// New builds the fetcher described by opts. The returned func releases any
// browser that was started.
func New(ctx context.Context, opts Options) (enrichment.Fetcher, func(), error) {
	router := Router{}
	closeFn := func() {}

	switch opts.Mode {
	case ModeBrowser:
		b := NewBrowserFetcher(BrowserOptions{
			ExecPath:  opts.ChromePath,
			Headless:  opts.Headless,
			UserAgent: opts.UserAgent,
			Timeout:   opts.Timeout,
			SearchURL: opts.SearchURL,
		})
		router.Page = b
		closeFn = b.Close
	default:
		router.Page = NewHTTPFetcher(HTTPOptions{
			Timeout:   opts.Timeout,
			UserAgent: opts.UserAgent,
			SearchURL: opts.SearchURL,
			Rate:      rate.Limit(opts.RatePerSec),
			Burst:     1,
		})
	}

	if opts.GoogleAPIKey != "" && opts.GoogleCSEID != "" {
		api, err := NewSearchAPIFetcher(ctx, opts.GoogleCSEID, option.WithAPIKey(opts.GoogleAPIKey))
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		router.Search = api
	}

	return router, closeFn, nil
}
