package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/octobees/business-directory/api/internal/dto"
	"github.com/octobees/business-directory/api/internal/entity"
	"github.com/octobees/business-directory/api/internal/repository"
)

const defaultReviewPageSize = 10

// ReviewsService manages customer reviews and the rating kept on each business.
type ReviewsService struct {
	reviews    repository.ReviewsRepository
	businesses repository.BusinessesRepository
}

// NewReviewsService builds a new ReviewsService.
func NewReviewsService(reviews repository.ReviewsRepository, businesses repository.BusinessesRepository) *ReviewsService {
	return &ReviewsService{reviews: reviews, businesses: businesses}
}

// List returns a page of reviews, newest first, with the average rating.
func (s *ReviewsService) List(ctx context.Context, businessID uuid.UUID, page, limit int) (dto.ReviewListResponse, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultReviewPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	reviews, total, err := s.reviews.ListByBusiness(ctx, businessID, page, limit)
	if err != nil {
		return dto.ReviewListResponse{}, err
	}
	stats, err := s.Stats(ctx, businessID)
	if err != nil {
		return dto.ReviewListResponse{}, err
	}
	return dto.ReviewListResponse{
		Reviews:       reviews,
		CurrentPage:   page,
		TotalPages:    totalPages(total, limit),
		TotalReviews:  total,
		AverageRating: stats.AverageRating,
	}, nil
}

// Create stores a review for an existing business and refreshes its rating.
func (s *ReviewsService) Create(ctx context.Context, businessID uuid.UUID, req dto.ReviewRequest) (entity.Review, error) {
	if err := validateStruct(req); err != nil {
		return entity.Review{}, err
	}
	if _, err := s.businesses.FindByID(ctx, businessID); err != nil {
		return entity.Review{}, err
	}

	review := entity.Review{
		BusinessID:    businessID,
		Rating:        req.Rating,
		Comment:       req.Comment,
		ReviewerName:  req.ReviewerName,
		ReviewerEmail: req.ReviewerEmail,
	}
	if err := s.reviews.Create(ctx, &review); err != nil {
		return entity.Review{}, err
	}

	stats, err := s.Stats(ctx, businessID)
	if err != nil {
		return entity.Review{}, err
	}
	if err := s.businesses.UpdateRating(ctx, businessID, stats.AverageRating); err != nil {
		return entity.Review{}, fmt.Errorf("refresh business rating: %w", err)
	}
	return review, nil
}

// Stats returns the average, count and per-star distribution of a
// business's reviews. A business without reviews has all zeros.
func (s *ReviewsService) Stats(ctx context.Context, businessID uuid.UUID) (entity.ReviewStats, error) {
	counts, err := s.reviews.RatingCounts(ctx, businessID)
	if err != nil {
		return entity.ReviewStats{}, err
	}
	return computeStats(counts), nil
}

func computeStats(counts map[int]int) entity.ReviewStats {
	stats := entity.ReviewStats{RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	sum := decimal.Zero
	for rating, n := range counts {
		if rating < 1 || rating > 5 || n <= 0 {
			continue
		}
		stats.RatingDistribution[rating] = n
		stats.TotalReviews += n
		sum = sum.Add(decimal.NewFromInt(int64(rating * n)))
	}
	if stats.TotalReviews == 0 {
		return stats
	}
	avg := sum.Div(decimal.NewFromInt(int64(stats.TotalReviews))).Round(2)
	stats.AverageRating, _ = avg.Float64()
	return stats
}
