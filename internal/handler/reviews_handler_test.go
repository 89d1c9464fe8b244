package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/octobees/business-directory/api/internal/entity"
	"github.com/octobees/business-directory/api/internal/repository"
	"github.com/octobees/business-directory/api/internal/service"
)

func newReviewsHandler(reviews *stubReviewsRepo, businesses *stubBusinessesRepo) *ReviewsHandler {
	return NewReviewsHandler(service.NewReviewsService(reviews, businesses))
}

func TestReviewsHandler_List(t *testing.T) {
	e := echo.New()
	id := uuid.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?page=1&limit=2", nil), rec)
	withID(c, "businessId", id.String())

	reviews := &stubReviewsRepo{
		list: func(ctx context.Context, businessID uuid.UUID, page, limit int) ([]entity.Review, int, error) {
			if businessID != id || limit != 2 {
				t.Fatalf("unexpected query: %s %d", businessID, limit)
			}
			return []entity.Review{{ID: uuid.New(), BusinessID: id, Rating: 4}}, 3, nil
		},
		ratingCounts: func(ctx context.Context, businessID uuid.UUID) (map[int]int, error) {
			return map[int]int{4: 2, 5: 1}, nil
		},
	}
	_ = newReviewsHandler(reviews, &stubBusinessesRepo{}).List(c)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["totalPages"] != float64(2) || payload["averageRating"] != 4.33 {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestReviewsHandler_Create(t *testing.T) {
	e := echo.New()
	id := uuid.New()

	tests := []struct {
		name    string
		body    string
		missing bool
		status  int
	}{
		{name: "invalid payload", body: "{", status: http.StatusBadRequest},
		{name: "rating out of range", body: `{"rating":6,"comment":"ok","reviewerName":"Sam"}`, status: http.StatusBadRequest},
		{name: "unknown business", body: `{"rating":5,"comment":"great","reviewerName":"Sam"}`, missing: true, status: http.StatusNotFound},
		{name: "created", body: `{"rating":5,"comment":"great","reviewerName":"Sam"}`, status: http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := jsonRequest(http.MethodPost, "/", tt.body)
			c := e.NewContext(req, rec)
			withID(c, "businessId", id.String())

			var rated float64
			businesses := &stubBusinessesRepo{
				findByID: func(ctx context.Context, got uuid.UUID) (entity.Business, error) {
					if tt.missing {
						return entity.Business{}, repository.ErrBusinessNotFound
					}
					return entity.Business{ID: got, Name: "Acme"}, nil
				},
				updateRating: func(ctx context.Context, got uuid.UUID, rating float64) error {
					rated = rating
					return nil
				},
			}
			reviews := &stubReviewsRepo{
				create: func(ctx context.Context, review *entity.Review) error {
					review.ID = uuid.New()
					return nil
				},
				ratingCounts: func(ctx context.Context, businessID uuid.UUID) (map[int]int, error) {
					return map[int]int{5: 1}, nil
				},
			}

			_ = newReviewsHandler(reviews, businesses).Create(c)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.status == http.StatusCreated && rated != 5 {
				t.Fatalf("expected rating refresh to 5, got %v", rated)
			}
		})
	}
}

func TestReviewsHandler_Stats(t *testing.T) {
	e := echo.New()

	t.Run("invalid id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		withID(c, "businessId", "nope")
		_ = newReviewsHandler(&stubReviewsRepo{}, &stubBusinessesRepo{}).Stats(c)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("distribution", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		withID(c, "businessId", uuid.NewString())

		reviews := &stubReviewsRepo{
			ratingCounts: func(ctx context.Context, businessID uuid.UUID) (map[int]int, error) {
				return map[int]int{1: 1, 4: 1}, nil
			},
		}
		_ = newReviewsHandler(reviews, &stubBusinessesRepo{}).Stats(c)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var stats entity.ReviewStats
		if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if stats.AverageRating != 2.5 || stats.TotalReviews != 2 || stats.RatingDistribution[3] != 0 || stats.RatingDistribution[4] != 1 {
			t.Fatalf("unexpected stats: %+v", stats)
		}
	})
}
