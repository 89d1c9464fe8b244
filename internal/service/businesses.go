package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/octobees/business-directory/api/internal/dto"
	"github.com/octobees/business-directory/api/internal/entity"
	"github.com/octobees/business-directory/api/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// BusinessesService exposes read/write operations for the directory.
type BusinessesService struct {
	repo repository.BusinessesRepository
}

// NewBusinessesService creates a new instance of BusinessesService.
func NewBusinessesService(repo repository.BusinessesRepository) *BusinessesService {
	return &BusinessesService{repo: repo}
}

// List returns one page of businesses respecting pagination defaults.
func (s *BusinessesService) List(ctx context.Context, filter dto.BusinessListFilter) (dto.BusinessListResponse, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}

	businesses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.BusinessListResponse{}, err
	}
	if businesses == nil {
		businesses = []entity.Business{}
	}
	return dto.BusinessListResponse{
		Businesses:      businesses,
		CurrentPage:     filter.Page,
		TotalPages:      totalPages(total, filter.Limit),
		TotalBusinesses: total,
	}, nil
}

// Get returns one business.
func (s *BusinessesService) Get(ctx context.Context, id uuid.UUID) (entity.Business, error) {
	return s.repo.FindByID(ctx, id)
}

// Create validates and stores a new business.
func (s *BusinessesService) Create(ctx context.Context, req dto.BusinessRequest) (entity.Business, error) {
	if err := validateBusiness(req); err != nil {
		return entity.Business{}, err
	}
	business := BusinessFromRequest(req)
	if err := s.repo.Create(ctx, &business); err != nil {
		return entity.Business{}, err
	}
	return business, nil
}

// Update replaces the editable fields of a business. Enrichment results are
// kept unless the request asks for the targets to be reset.
func (s *BusinessesService) Update(ctx context.Context, id uuid.UUID, req dto.BusinessRequest) (entity.Business, error) {
	if err := validateBusiness(req); err != nil {
		return entity.Business{}, err
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return entity.Business{}, err
	}
	applyRequest(&existing, req)
	if req.ResetEnrichment {
		existing.Details.Reset()
		existing.Presence.Reset()
	}
	return s.repo.UpdateByID(ctx, existing)
}

// Delete removes a business and its reviews.
func (s *BusinessesService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// BulkImport validates each payload and upserts the valid ones on corporate id.
func (s *BusinessesService) BulkImport(ctx context.Context, reqs []dto.BusinessRequest) (dto.ImportSummary, error) {
	if len(reqs) == 0 {
		return dto.ImportSummary{}, ValidationError{Message: "businesses must be a non-empty array"}
	}

	var (
		summary dto.ImportSummary
		records = make([]entity.Business, 0, len(reqs))
	)
	for i, req := range reqs {
		if err := validateBusiness(req); err != nil {
			summary.Errors = append(summary.Errors, dto.ImportRowError{Row: i + 1, Message: err.Error()})
			continue
		}
		records = append(records, BusinessFromRequest(req))
	}
	return s.store(ctx, records, summary, len(reqs))
}

func (s *BusinessesService) store(ctx context.Context, records []entity.Business, summary dto.ImportSummary, total int) (dto.ImportSummary, error) {
	summary.Skipped = len(summary.Errors)
	summary.Total = total

	result, err := s.repo.BulkUpsert(ctx, records)
	if err != nil {
		return dto.ImportSummary{}, err
	}
	summary.Inserted = result.Inserted
	summary.Updated = result.Updated
	return summary, nil
}

func validateBusiness(req dto.BusinessRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	for day := range req.Hours {
		if !slices.Contains(entity.Weekdays, day) {
			return ValidationError{Message: "invalid payload", Fields: map[string]string{"hours": fmt.Sprintf("has unknown day %q", day)}}
		}
	}
	return nil
}

// BusinessFromRequest builds a new record from a payload. Contact fields the
// payload leaves blank hold the placeholder, so the enrichment pipeline sees
// them as unknown rather than absent.
func BusinessFromRequest(req dto.BusinessRequest) entity.Business {
	var b entity.Business
	applyRequest(&b, req)
	for _, f := range []*entity.Field{
		&b.CorporateID, &b.Category, &b.Phone, &b.Mobile, &b.Email,
		&b.Website, &b.ContactPerson, &b.MemberClass, &b.Designation,
	} {
		*f = f.OrUnknown()
	}
	b.SchemaVersion = entity.SchemaVersion
	return b
}

func applyRequest(b *entity.Business, req dto.BusinessRequest) {
	b.CorporateID = entity.Known(req.CorporateID)
	b.Name = req.Name
	b.Description = entity.Known(req.Description)
	b.Category = entity.Known(req.Category)
	b.Address = req.Address
	b.Phone = entity.Known(req.Phone)
	b.Mobile = entity.Known(req.Mobile)
	b.Email = entity.Known(req.Email)
	b.Website = entity.Known(req.Website)
	b.ContactPerson = entity.Known(req.ContactPerson)
	b.MemberClass = entity.Known(req.MemberClass)
	b.Designation = entity.Known(req.Designation)
	b.Hours = req.Hours
	b.Logo = req.Logo
	b.CoverPhoto = req.CoverPhoto
}

func totalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// IsNotFound reports whether err means the business does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrBusinessNotFound)
}
