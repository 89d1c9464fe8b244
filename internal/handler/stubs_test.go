package handler

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/octobees/business-directory/api/internal/dto"
	"github.com/octobees/business-directory/api/internal/enrichment/batch"
	"github.com/octobees/business-directory/api/internal/entity"
	"github.com/octobees/business-directory/api/internal/repository"
)

// stubBusinessesRepo panics on methods a test did not stub.
type stubBusinessesRepo struct {
	repository.BusinessesRepository

	create       func(ctx context.Context, business *entity.Business) error
	findByID     func(ctx context.Context, id uuid.UUID) (entity.Business, error)
	list         func(ctx context.Context, filter dto.BusinessListFilter) ([]entity.Business, int, error)
	updateByID   func(ctx context.Context, business entity.Business) (entity.Business, error)
	deleteFn     func(ctx context.Context, id uuid.UUID) error
	bulkUpsert   func(ctx context.Context, records []entity.Business) (repository.BulkUpsertResult, error)
	updateRating func(ctx context.Context, id uuid.UUID, rating float64) error
}

func (s *stubBusinessesRepo) Create(ctx context.Context, business *entity.Business) error {
	return s.create(ctx, business)
}

func (s *stubBusinessesRepo) FindByID(ctx context.Context, id uuid.UUID) (entity.Business, error) {
	return s.findByID(ctx, id)
}

func (s *stubBusinessesRepo) List(ctx context.Context, filter dto.BusinessListFilter) ([]entity.Business, int, error) {
	return s.list(ctx, filter)
}

func (s *stubBusinessesRepo) UpdateByID(ctx context.Context, business entity.Business) (entity.Business, error) {
	return s.updateByID(ctx, business)
}

func (s *stubBusinessesRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return s.deleteFn(ctx, id)
}

func (s *stubBusinessesRepo) BulkUpsert(ctx context.Context, records []entity.Business) (repository.BulkUpsertResult, error) {
	return s.bulkUpsert(ctx, records)
}

func (s *stubBusinessesRepo) UpdateRating(ctx context.Context, id uuid.UUID, rating float64) error {
	return s.updateRating(ctx, id, rating)
}

type stubReviewsRepo struct {
	create       func(ctx context.Context, review *entity.Review) error
	list         func(ctx context.Context, businessID uuid.UUID, page, limit int) ([]entity.Review, int, error)
	ratingCounts func(ctx context.Context, businessID uuid.UUID) (map[int]int, error)
}

func (s *stubReviewsRepo) Create(ctx context.Context, review *entity.Review) error {
	return s.create(ctx, review)
}

func (s *stubReviewsRepo) ListByBusiness(ctx context.Context, businessID uuid.UUID, page, limit int) ([]entity.Review, int, error) {
	return s.list(ctx, businessID, page, limit)
}

func (s *stubReviewsRepo) RatingCounts(ctx context.Context, businessID uuid.UUID) (map[int]int, error) {
	if s.ratingCounts == nil {
		return map[int]int{}, nil
	}
	return s.ratingCounts(ctx, businessID)
}

type stubEnricher struct {
	enrichOne func(ctx context.Context, id uuid.UUID, target entity.EnrichmentTarget) (batch.RecordResult, error)
}

func (s *stubEnricher) EnrichOne(ctx context.Context, id uuid.UUID, target entity.EnrichmentTarget) (batch.RecordResult, error) {
	return s.enrichOne(ctx, id, target)
}

type memoryStore struct {
	keys []string
}

func (m *memoryStore) Put(_ context.Context, key, _ string, _ []byte) (string, error) {
	m.keys = append(m.keys, key)
	return "/uploads/" + key, nil
}

func jsonRequest(method, target, body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func multipartRequest(t *testing.T, field, filename string, content []byte, values map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range values {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req, httptest.NewRecorder()
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	img := imaging.New(8, 8, color.NRGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func withID(c echo.Context, name, value string) {
	c.SetParamNames(name)
	c.SetParamValues(value)
}
