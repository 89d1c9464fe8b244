package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/business-directory/api/internal/dto"
	"github.com/octobees/business-directory/api/internal/service"
)

// ReviewsHandler exposes review endpoints.
type ReviewsHandler struct {
	service *service.ReviewsService
}

// NewReviewsHandler constructs a ReviewsHandler.
func NewReviewsHandler(svc *service.ReviewsService) *ReviewsHandler {
	return &ReviewsHandler{service: svc}
}

// List handles GET /api/reviews/business/:businessId.
func (h *ReviewsHandler) List(c echo.Context) error {
	id, ok := parseID(c, "businessId")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid business id")
	}
	page := parseIntDefault(c.QueryParam("page"), 1)
	limit := parseIntDefault(c.QueryParam("limit"), 10)

	resp, err := h.service.List(c.Request().Context(), id, page, limit)
	if err != nil {
		return fail(c, err, "failed to list reviews")
	}
	return c.JSON(http.StatusOK, resp)
}

// Create handles POST /api/reviews/business/:businessId.
func (h *ReviewsHandler) Create(c echo.Context) error {
	id, ok := parseID(c, "businessId")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid business id")
	}
	var req dto.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	review, err := h.service.Create(c.Request().Context(), id, req)
	if err != nil {
		return fail(c, err, "failed to create review")
	}
	return Success(c, http.StatusCreated, "review created", review)
}

// Stats handles GET /api/reviews/business/:businessId/stats.
func (h *ReviewsHandler) Stats(c echo.Context) error {
	id, ok := parseID(c, "businessId")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid business id")
	}
	stats, err := h.service.Stats(c.Request().Context(), id)
	if err != nil {
		return fail(c, err, "failed to load review stats")
	}
	return c.JSON(http.StatusOK, stats)
}
