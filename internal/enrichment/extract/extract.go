// Package extract turns fetched pages and search results into partial
// business fields. It performs no I/O.
package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/octobees/business-directory/api/internal/enrichment"
)

// Extractor implements enrichment.Extractor.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor {
	return &Extractor{}
}

var _ enrichment.Extractor = (*Extractor)(nil)

// Extract parses raw content. Labels or links that are missing produce absent
// fields; only empty or unreadable input is an error.
func (e *Extractor) Extract(raw enrichment.RawContent) (enrichment.Partial, error) {
	switch raw.Kind {
	case enrichment.KindPage:
		doc, err := parseDocument(raw.HTML)
		if err != nil {
			return enrichment.Partial{}, err
		}
		return extractPage(doc), nil
	case enrichment.KindSearch:
		if raw.Results != nil {
			return extractSearch(raw.Results), nil
		}
		doc, err := parseDocument(raw.HTML)
		if err != nil {
			return enrichment.Partial{}, err
		}
		base, _ := url.Parse(raw.URL)
		return extractSearch(parseResults(doc, base)), nil
	default:
		return enrichment.Partial{}, &enrichment.ExtractionError{Reason: "unsupported content kind " + string(raw.Kind)}
	}
}

func parseDocument(html string) (*goquery.Document, error) {
	if strings.TrimSpace(html) == "" {
		return nil, &enrichment.ExtractionError{Reason: "empty document"}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &enrichment.ExtractionError{Reason: err.Error()}
	}
	return doc, nil
}
