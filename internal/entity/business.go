package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the canonical record shape version written by this service.
const SchemaVersion = 2

// Weekdays lists the keys accepted in Hours.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// DayHours holds opening and closing times for a single day.
type DayHours struct {
	Open  string `json:"open,omitempty"`
	Close string `json:"close,omitempty"`
}

// Hours maps a lower-case weekday to its opening hours.
type Hours map[string]DayHours

// SocialMedia holds the first profile link discovered per network.
type SocialMedia struct {
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
}

// Get returns the link stored for a network name.
func (s SocialMedia) Get(network string) string {
	switch network {
	case "instagram":
		return s.Instagram
	case "facebook":
		return s.Facebook
	case "linkedin":
		return s.LinkedIn
	case "twitter":
		return s.Twitter
	}
	return ""
}

// Set stores a link for a network name; unsupported names are ignored.
func (s *SocialMedia) Set(network, link string) {
	switch network {
	case "instagram":
		s.Instagram = link
	case "facebook":
		s.Facebook = link
	case "linkedin":
		s.LinkedIn = link
	case "twitter":
		s.Twitter = link
	}
}

// SocialNetworks lists the networks tracked in SocialMedia.
var SocialNetworks = []string{"instagram", "facebook", "linkedin", "twitter"}

// SearchResult is the first qualifying search hit for a business.
type SearchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Business is a directory entry.
type Business struct {
	ID          uuid.UUID `json:"id"`
	Seq         int64     `json:"-"`
	CorporateID Field     `json:"corporateId"`
	Name        string    `json:"name"`
	Description Field     `json:"description"`
	Category    Field     `json:"category"`
	Address     Address   `json:"address"`

	Phone   Field `json:"phone"`
	Mobile  Field `json:"mobile"`
	Email   Field `json:"email"`
	Website Field `json:"website"`

	ContactPerson Field `json:"contactPerson"`
	MemberClass   Field `json:"memberClass"`
	Designation   Field `json:"designation"`

	Hours      Hours    `json:"hours,omitempty"`
	Images     []string `json:"images"`
	Logo       string   `json:"logo,omitempty"`
	CoverPhoto string   `json:"coverPhoto,omitempty"`
	Rating     float64  `json:"rating"`

	Links             []string      `json:"links"`
	HasPublicPresence *bool         `json:"hasPublicPresence,omitempty"`
	SocialMedia       SocialMedia   `json:"socialMedia"`
	SearchResult      *SearchResult `json:"searchResult,omitempty"`
	DetectedCategory  Field         `json:"detectedCategory"`

	Details  EnrichmentState `json:"-"`
	Presence EnrichmentState `json:"-"`

	SchemaVersion int             `json:"-"`
	Raw           json.RawMessage `json:"-"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// State returns the enrichment state tracked for a target.
func (b *Business) State(target EnrichmentTarget) *EnrichmentState {
	if target == TargetPresence {
		return &b.Presence
	}
	return &b.Details
}

// Scraped reports whether the detail page has produced a contact person.
func (b Business) Scraped() bool {
	return b.ContactPerson.IsKnown()
}

// MarshalJSON adds the enrichment status fields read by the directory views.
func (b Business) MarshalJSON() ([]byte, error) {
	type plain Business
	images := b.Images
	if images == nil {
		images = []string{}
	}
	links := b.Links
	if links == nil {
		links = []string{}
	}
	p := plain(b)
	p.Images = images
	p.Links = links
	return json.Marshal(struct {
		plain
		ScrapingStatus    EnrichmentStatus `json:"scrapingStatus"`
		LastScraped       *time.Time       `json:"lastScraped,omitempty"`
		ScrapingError     string           `json:"scrapingError,omitempty"`
		PresenceStatus    EnrichmentStatus `json:"presenceStatus"`
		PresenceCheckedAt *time.Time       `json:"presenceCheckedAt,omitempty"`
	}{
		plain:             p,
		ScrapingStatus:    b.Details.StatusOrPending(),
		LastScraped:       b.Details.LastAttemptAt,
		ScrapingError:     b.Details.LastError,
		PresenceStatus:    b.Presence.StatusOrPending(),
		PresenceCheckedAt: b.Presence.LastAttemptAt,
	})
}
