// Package enrichment holds the types shared by the backfill pipeline stages:
// what is fetched, what the extractor yields, and how an attempt ended.
package enrichment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/octobees/business-directory/api/internal/entity"
)

// ContentKind says whether content came from a page navigation or a search.
type ContentKind string

const (
	KindPage   ContentKind = "page"
	KindSearch ContentKind = "search"
)

// Request identifies the external resource to retrieve for one record.
type Request struct {
	BusinessID uuid.UUID
	Kind       ContentKind
	URL        string
	Query      string
}

// SearchResult is one entry from a search engine result list.
type SearchResult struct {
	URL     string
	Title   string
	Snippet string
}

// RawContent is what a fetcher hands to the extractor. Search fetchers that
// talk to an API fill Results (non-nil, possibly empty); the others fill HTML.
type RawContent struct {
	Kind    ContentKind
	URL     string
	HTML    string
	Results []SearchResult
}

// Fetcher retrieves the external resource for a request.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (RawContent, error)
}

// Extractor turns raw content into partial fields.
type Extractor interface {
	Extract(raw RawContent) (Partial, error)
}

// Partial holds the fields extracted from one resource. Absent fields mean
// "not found", never "erase".
type Partial struct {
	ContactPerson entity.Field
	CompanyName   entity.Field
	MemberClass   entity.Field
	MemberID      entity.Field
	Designation   entity.Field
	Category      entity.Field
	Address       entity.Field
	Phone         entity.Field
	Mobile        entity.Field
	Email         entity.Field
	Website       entity.Field

	Links             []string
	HasPublicPresence *bool
	SocialMedia       entity.SocialMedia
	SearchResult      *entity.SearchResult
	DetectedCategory  entity.Field

	// FromSearch marks a partial produced from a result list, which makes the
	// presence flag authoritative.
	FromSearch bool
}

// Fields lists the known scalar fields by wire name.
func (p Partial) Fields() map[string]string {
	out := make(map[string]string)
	add := func(name string, f entity.Field) {
		if v, ok := f.Get(); ok {
			out[name] = v
		}
	}
	add("contactPerson", p.ContactPerson)
	add("companyName", p.CompanyName)
	add("memberClass", p.MemberClass)
	add("memberId", p.MemberID)
	add("designation", p.Designation)
	add("category", p.Category)
	add("address", p.Address)
	add("phone", p.Phone)
	add("mobile", p.Mobile)
	add("email", p.Email)
	add("website", p.Website)
	add("detectedCategory", p.DetectedCategory)
	return out
}

// Empty reports whether nothing at all was extracted.
func (p Partial) Empty() bool {
	return len(p.Fields()) == 0 &&
		len(p.Links) == 0 &&
		p.HasPublicPresence == nil &&
		p.SocialMedia == (entity.SocialMedia{}) &&
		p.SearchResult == nil
}

// Outcome describes how a single attempt ended. Err is nil on success.
type Outcome struct {
	Target entity.EnrichmentTarget
	Err    error
	At     time.Time
}

// Succeeded reports whether the attempt retrieved and parsed its resource.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Filter selects the records a run works on.
type Filter struct {
	Target entity.EnrichmentTarget
	// DetailURLPattern is a POSIX regular expression the website must match
	// for the details target.
	DetailURLPattern string
	// ScrapedOnly limits the presence target to records that already have a
	// contact person.
	ScrapedOnly bool
}

// EligibleQuery pages through eligible records in insertion order.
type EligibleQuery struct {
	Filter   Filter
	AfterSeq int64
	Limit    int
}
