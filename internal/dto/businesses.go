package dto

import (
	"github.com/octobees/business-directory/api/internal/entity"
)

// BusinessListFilter contains query parameters for the directory listing.
type BusinessListFilter struct {
	Query       string
	Category    string
	ScrapedOnly bool
	Page        int
	Limit       int
}

// BusinessListResponse is the paginated listing read by the directory views.
type BusinessListResponse struct {
	Businesses      []entity.Business `json:"businesses"`
	CurrentPage     int               `json:"currentPage"`
	TotalPages      int               `json:"totalPages"`
	TotalBusinesses int               `json:"totalBusinesses"`
}

// BusinessRequest is the create and update payload. Text fields accept the
// "N/A" placeholder.
type BusinessRequest struct {
	CorporateID   string         `json:"corporateId" validate:"omitempty,max=64"`
	Name          string         `json:"name" validate:"required,max=300"`
	Description   string         `json:"description" validate:"omitempty,max=5000"`
	Category      string         `json:"category" validate:"omitempty,max=200"`
	Address       entity.Address `json:"address"`
	Phone         string         `json:"phone" validate:"omitempty,max=64"`
	Mobile        string         `json:"mobile" validate:"omitempty,max=64"`
	Email         string         `json:"email" validate:"omitempty,email|eq=N/A"`
	Website       string         `json:"website" validate:"omitempty,max=500"`
	ContactPerson string         `json:"contactPerson" validate:"omitempty,max=200"`
	MemberClass   string         `json:"memberClass" validate:"omitempty,max=100"`
	Designation   string         `json:"designation" validate:"omitempty,max=200"`
	Hours         entity.Hours   `json:"hours"`
	Logo          string         `json:"logo" validate:"omitempty,max=500"`
	CoverPhoto    string         `json:"coverPhoto" validate:"omitempty,max=500"`

	// ResetEnrichment puts both enrichment targets back to pending.
	ResetEnrichment bool `json:"resetEnrichment"`
}

// BulkImportRequest is the JSON bulk import payload.
type BulkImportRequest struct {
	Businesses []BusinessRequest `json:"businesses"`
}

// ImportRowError reports one rejected import row.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportSummary describes the outcome of a bulk import.
type ImportSummary struct {
	Inserted int               `json:"inserted"`
	Updated  int               `json:"updated"`
	Skipped  int               `json:"skipped"`
	Total    int               `json:"total"`
	Columns  map[string]string `json:"columns,omitempty"`
	Errors   []ImportRowError  `json:"errors,omitempty"`
}

// EnrichRequest selects the target for a single-record enrichment.
type EnrichRequest struct {
	Target string `json:"target"`
}

// EnrichResponse reports a single-record enrichment.
type EnrichResponse struct {
	Business   entity.Business `json:"business"`
	Outcome    string          `json:"outcome"`
	Changed    bool            `json:"changed"`
	ErrorClass string          `json:"errorClass,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// ImageUploadResponse is returned after an image has been stored.
type ImageUploadResponse struct {
	URL          string          `json:"url"`
	ThumbnailURL string          `json:"thumbnailUrl"`
	Type         string          `json:"type"`
	Business     entity.Business `json:"business"`
}
