package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/octobees/business-directory/api/internal/dto"
	"github.com/octobees/business-directory/api/internal/enrichment"
	"github.com/octobees/business-directory/api/internal/enrichment/batch"
	"github.com/octobees/business-directory/api/internal/entity"
	"github.com/octobees/business-directory/api/internal/service"
)

// Enricher runs one record through the enrichment pipeline.
type Enricher interface {
	EnrichOne(ctx context.Context, id uuid.UUID, target entity.EnrichmentTarget) (batch.RecordResult, error)
}

// BusinessesHandler exposes the directory endpoints.
type BusinessesHandler struct {
	service  *service.BusinessesService
	enricher Enricher
}

// NewBusinessesHandler creates a new handler instance. enricher may be nil,
// which disables the enrich endpoint.
func NewBusinessesHandler(svc *service.BusinessesService, enricher Enricher) *BusinessesHandler {
	return &BusinessesHandler{service: svc, enricher: enricher}
}

// List handles GET /api/businesses. The body is the bare listing.
func (h *BusinessesHandler) List(c echo.Context) error {
	filter := dto.BusinessListFilter{
		Query:       strings.TrimSpace(firstNonEmpty(c.QueryParam("filter"), c.QueryParam("q"))),
		Category:    strings.TrimSpace(c.QueryParam("category")),
		ScrapedOnly: c.QueryParam("scrapedOnly") == "true",
		Page:        parseIntDefault(c.QueryParam("page"), 1),
		Limit:       parseIntDefault(c.QueryParam("limit"), 20),
	}

	resp, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return fail(c, err, "failed to list businesses")
	}
	return c.JSON(http.StatusOK, resp)
}

// Get handles GET /api/businesses/:id. The body is the bare record.
func (h *BusinessesHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return Error(c, http.StatusNotFound, "business not found")
	}
	business, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err, "failed to fetch business")
	}
	return c.JSON(http.StatusOK, business)
}

// Create handles POST /api/businesses.
func (h *BusinessesHandler) Create(c echo.Context) error {
	var req dto.BusinessRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	business, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return fail(c, err, "failed to create business")
	}
	return Success(c, http.StatusCreated, "business created", business)
}

// Update handles PUT /api/businesses/:id.
func (h *BusinessesHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid business id")
	}
	var req dto.BusinessRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	business, err := h.service.Update(c.Request().Context(), id, req)
	if err != nil {
		return fail(c, err, "failed to update business")
	}
	return Success(c, http.StatusOK, "business updated", business)
}

// Delete handles DELETE /api/businesses/:id.
func (h *BusinessesHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid business id")
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return fail(c, err, "failed to delete business")
	}
	return Success(c, http.StatusOK, "business deleted", nil)
}

// BulkImport handles POST /api/businesses/bulk. The body is a JSON array of
// businesses or an object with a "businesses" array.
func (h *BusinessesHandler) BulkImport(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	var reqs []dto.BusinessRequest
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &reqs)
	} else {
		var wrapped dto.BulkImportRequest
		err = json.Unmarshal(trimmed, &wrapped)
		reqs = wrapped.Businesses
	}
	if err != nil || reqs == nil {
		return Error(c, http.StatusBadRequest, "businesses must be an array")
	}

	summary, err := h.service.BulkImport(c.Request().Context(), reqs)
	if err != nil {
		return fail(c, err, "failed to import businesses")
	}
	return Success(c, http.StatusCreated, "businesses imported", summary)
}

// Enrich handles POST /api/businesses/:id/enrich and runs the pipeline for
// one record synchronously. The target defaults to presence. A failed or
// skipped attempt is still a 200 with the outcome in the body.
func (h *BusinessesHandler) Enrich(c echo.Context) error {
	if h.enricher == nil {
		return Error(c, http.StatusServiceUnavailable, "enrichment is not configured")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid business id")
	}

	var req dto.EnrichRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	if req.Target == "" {
		req.Target = c.QueryParam("target")
	}
	if req.Target == "" {
		req.Target = string(entity.TargetPresence)
	}
	target, err := entity.ParseEnrichmentTarget(req.Target)
	if err != nil {
		return Error(c, http.StatusBadRequest, err.Error())
	}

	res, err := h.enricher.EnrichOne(c.Request().Context(), id, target)
	if err != nil {
		if errors.Is(err, enrichment.ErrNotFound) {
			return Error(c, http.StatusNotFound, "business not found")
		}
		return fail(c, err, "failed to enrich business")
	}

	resp := dto.EnrichResponse{
		Business: res.Business,
		Outcome:  string(res.Result),
		Changed:  res.Changed,
	}
	if res.Err != nil {
		resp.ErrorClass = string(enrichment.Classify(res.Err))
		resp.Error = res.Err.Error()
	}

	return Success(c, http.StatusOK, "enrichment "+string(res.Result), resp)
}

func parseIntDefault(input string, fallback int) int {
	if input == "" {
		return fallback
	}
	if value, err := strconv.Atoi(input); err == nil {
		return value
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
