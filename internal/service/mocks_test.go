package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/octobees/business-directory/api/internal/dto"
	"github.com/octobees/business-directory/api/internal/enrichment"
	"github.com/octobees/business-directory/api/internal/entity"
	"github.com/octobees/business-directory/api/internal/repository"
)

type mockBusinessesRepository struct {
	create       func(ctx context.Context, business *entity.Business) error
	findByID     func(ctx context.Context, id uuid.UUID) (entity.Business, error)
	list         func(ctx context.Context, filter dto.BusinessListFilter) ([]entity.Business, int, error)
	updateByID   func(ctx context.Context, business entity.Business) (entity.Business, error)
	delete       func(ctx context.Context, id uuid.UUID) error
	bulkUpsert   func(ctx context.Context, records []entity.Business) (repository.BulkUpsertResult, error)
	updateRating func(ctx context.Context, id uuid.UUID, rating float64) error
}

func (m *mockBusinessesRepository) Create(ctx context.Context, business *entity.Business) error {
	if m.create != nil {
		return m.create(ctx, business)
	}
	return errors.New("create not implemented")
}

func (m *mockBusinessesRepository) FindByID(ctx context.Context, id uuid.UUID) (entity.Business, error) {
	if m.findByID != nil {
		return m.findByID(ctx, id)
	}
	return entity.Business{}, errors.New("findByID not implemented")
}

func (m *mockBusinessesRepository) List(ctx context.Context, filter dto.BusinessListFilter) ([]entity.Business, int, error) {
	if m.list != nil {
		return m.list(ctx, filter)
	}
	return nil, 0, errors.New("list not implemented")
}

func (m *mockBusinessesRepository) UpdateByID(ctx context.Context, business entity.Business) (entity.Business, error) {
	if m.updateByID != nil {
		return m.updateByID(ctx, business)
	}
	return entity.Business{}, errors.New("updateByID not implemented")
}

func (m *mockBusinessesRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.delete != nil {
		return m.delete(ctx, id)
	}
	return errors.New("delete not implemented")
}

func (m *mockBusinessesRepository) BulkUpsert(ctx context.Context, records []entity.Business) (repository.BulkUpsertResult, error) {
	if m.bulkUpsert != nil {
		return m.bulkUpsert(ctx, records)
	}
	return repository.BulkUpsertResult{}, errors.New("bulkUpsert not implemented")
}

func (m *mockBusinessesRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating float64) error {
	if m.updateRating != nil {
		return m.updateRating(ctx, id, rating)
	}
	return errors.New("updateRating not implemented")
}

func (m *mockBusinessesRepository) FindEligible(context.Context, enrichment.EligibleQuery) ([]entity.Business, error) {
	return nil, errors.New("findEligible not implemented")
}

func (m *mockBusinessesRepository) CountEligible(context.Context, enrichment.Filter) (int, error) {
	return 0, errors.New("countEligible not implemented")
}

func (m *mockBusinessesRepository) ListLegacy(context.Context, int64, int) ([]entity.Business, error) {
	return nil, errors.New("listLegacy not implemented")
}

func (m *mockBusinessesRepository) ListAll(context.Context, int64, int) ([]entity.Business, error) {
	return nil, errors.New("listAll not implemented")
}

func (m *mockBusinessesRepository) Counts(context.Context) (repository.BusinessCounts, error) {
	return repository.BusinessCounts{}, errors.New("counts not implemented")
}

type mockReviewsRepository struct {
	create         func(ctx context.Context, review *entity.Review) error
	listByBusiness func(ctx context.Context, businessID uuid.UUID, page, limit int) ([]entity.Review, int, error)
	ratingCounts   func(ctx context.Context, businessID uuid.UUID) (map[int]int, error)
}

func (m *mockReviewsRepository) Create(ctx context.Context, review *entity.Review) error {
	if m.create != nil {
		return m.create(ctx, review)
	}
	return errors.New("create not implemented")
}

func (m *mockReviewsRepository) ListByBusiness(ctx context.Context, businessID uuid.UUID, page, limit int) ([]entity.Review, int, error) {
	if m.listByBusiness != nil {
		return m.listByBusiness(ctx, businessID, page, limit)
	}
	return nil, 0, errors.New("listByBusiness not implemented")
}

func (m *mockReviewsRepository) RatingCounts(ctx context.Context, businessID uuid.UUID) (map[int]int, error) {
	if m.ratingCounts != nil {
		return m.ratingCounts(ctx, businessID)
	}
	return nil, errors.New("ratingCounts not implemented")
}
