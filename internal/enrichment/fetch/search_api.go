package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/octobees/business-directory/api/internal/enrichment"
)

const searchAPIResultCount = 10

// SearchAPIFetcher answers search requests through the Custom Search JSON API.
type SearchAPIFetcher struct {
	svc      *customsearch.Service
	engineID string
}

var _ enrichment.Fetcher = (*SearchAPIFetcher)(nil)

// NewSearchAPIFetcher builds a fetcher for the given search engine id.
func NewSearchAPIFetcher(ctx context.Context, engineID string, opts ...option.ClientOption) (*SearchAPIFetcher, error) {
	if engineID == "" {
		return nil, errors.New("search engine id is required")
	}
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create custom search client: %w", err)
	}
	return &SearchAPIFetcher{svc: svc, engineID: engineID}, nil
}

// Fetch runs the query and returns the ordered result list.
func (f *SearchAPIFetcher) Fetch(ctx context.Context, req enrichment.Request) (enrichment.RawContent, error) {
	if req.Kind != enrichment.KindSearch || req.Query == "" {
		return enrichment.RawContent{}, &enrichment.ValidationError{Reason: "search api only serves search queries"}
	}

	resp, err := f.svc.Cse.List().
		Cx(f.engineID).
		Q(req.Query).
		Num(searchAPIResultCount).
		Context(ctx).
		Do()
	if err != nil {
		return enrichment.RawContent{}, classifySearchAPIError(ctx, req.Query, err)
	}

	results := make([]enrichment.SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.Link == "" {
			continue
		}
		results = append(results, enrichment.SearchResult{
			URL:     item.Link,
			Title:   item.Title,
			Snippet: item.Snippet,
		})
	}
	return enrichment.RawContent{Kind: enrichment.KindSearch, URL: "customsearch:" + req.Query, Results: results}, nil
}

func classifySearchAPIError(ctx context.Context, query string, err error) error {
	target := "customsearch:" + query
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests, apiErr.Code == http.StatusForbidden:
			return transportError(enrichment.Blocked, target, apiErr.Code, err)
		case apiErr.Code >= http.StatusInternalServerError:
			return transportError(enrichment.Network, target, apiErr.Code, err)
		default:
			return transportError(enrichment.Blocked, target, apiErr.Code, err)
		}
	}
	return classifyError(ctx, target, err)
}
