package fetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/octobees/business-directory/api/internal/enrichment"
)

// blockedResources are never downloaded by the headless browser.
var blockedResources = map[network.ResourceType]struct{}{
	network.ResourceTypeImage:      {},
	network.ResourceTypeStylesheet: {},
	network.ResourceTypeFont:       {},
	network.ResourceTypeScript:     {},
	network.ResourceTypeMedia:      {},
}

// BrowserOptions configures a BrowserFetcher.
type BrowserOptions struct {
	ExecPath  string
	Headless  bool
	UserAgent string
	Timeout   time.Duration
	SearchURL string
}

// BrowserFetcher renders pages in one shared headless Chrome. Every Fetch
// runs in its own tab which is always closed before Fetch returns.
type BrowserFetcher struct {
	opts BrowserOptions

	mu          sync.Mutex
	browserCtx  context.Context
	stopAlloc   context.CancelFunc
	stopBrowser context.CancelFunc
}

var _ enrichment.Fetcher = (*BrowserFetcher)(nil)

// NewBrowserFetcher prepares a fetcher. Chrome is launched lazily on first use.
func NewBrowserFetcher(opts BrowserOptions) *BrowserFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &BrowserFetcher{opts: opts}
}

func (f *BrowserFetcher) browser() (context.Context, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browserCtx != nil {
		return f.browserCtx, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.UserAgent(f.opts.UserAgent),
	)
	if f.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(f.opts.ExecPath))
	}

	allocCtx, stopAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, stopBrowser := chromedp.NewContext(allocCtx)
	// Start the browser now so launch failures surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		stopBrowser()
		stopAlloc()
		return nil, transportError(enrichment.Network, "", 0, err)
	}

	f.browserCtx = browserCtx
	f.stopAlloc = stopAlloc
	f.stopBrowser = stopBrowser
	return browserCtx, nil
}

// Fetch loads the request in a fresh tab with heavy resources blocked.
func (f *BrowserFetcher) Fetch(ctx context.Context, req enrichment.Request) (enrichment.RawContent, error) {
	target, err := requestURL(req, f.opts.SearchURL)
	if err != nil {
		return enrichment.RawContent{}, err
	}
	if err := ctx.Err(); err != nil {
		return enrichment.RawContent{}, classifyBrowserError(ctx, target, err)
	}

	browserCtx, err := f.browser()
	if err != nil {
		return enrichment.RawContent{}, err
	}

	tabCtx, closeTab := chromedp.NewContext(browserCtx)
	defer closeTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.opts.Timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, closeTab)
	defer stop()

	chromedp.ListenTarget(tabCtx, func(ev any) {
		paused, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(tabCtx)
			if c == nil || c.Target == nil {
				return
			}
			execCtx := cdp.WithExecutor(tabCtx, c.Target)
			if _, blocked := blockedResources[paused.ResourceType]; blocked {
				_ = fetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
				return
			}
			_ = fetch.ContinueRequest(paused.RequestID).Do(execCtx)
		}()
	})

	ready := "body"
	if req.Kind == enrichment.KindSearch {
		ready = "#search"
	}

	var html string
	resp, err := chromedp.RunResponse(tabCtx,
		fetch.Enable(),
		chromedp.Navigate(target),
	)
	if err != nil {
		return enrichment.RawContent{}, classifyBrowserError(mergedErrCtx(ctx, tabCtx), target, err)
	}
	if resp != nil {
		if err := classifyStatus(target, int(resp.Status)); err != nil {
			return enrichment.RawContent{}, err
		}
	}

	err = chromedp.Run(tabCtx,
		chromedp.WaitReady(ready, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return enrichment.RawContent{}, classifyBrowserError(mergedErrCtx(ctx, tabCtx), target, err)
	}
	if err := classifyBody(target, html); err != nil {
		return enrichment.RawContent{}, err
	}

	final := target
	if resp != nil && resp.URL != "" {
		final = resp.URL
	}
	return enrichment.RawContent{Kind: req.Kind, URL: final, HTML: html}, nil
}

// mergedErrCtx returns whichever context ended first so deadlines are
// reported as timeouts even when the tab context wraps them.
func mergedErrCtx(caller, tab context.Context) context.Context {
	if errors.Is(tab.Err(), context.DeadlineExceeded) {
		return tab
	}
	return caller
}

// Close shuts the shared browser down.
func (f *BrowserFetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopBrowser != nil {
		f.stopBrowser()
	}
	if f.stopAlloc != nil {
		f.stopAlloc()
	}
	f.browserCtx = nil
	f.stopBrowser = nil
	f.stopAlloc = nil
}
