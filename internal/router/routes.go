package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/business-directory/api/internal/auth"
	"github.com/octobees/business-directory/api/internal/config"
	"github.com/octobees/business-directory/api/internal/handler"
	middlewarepkg "github.com/octobees/business-directory/api/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Auth        *handler.AuthHandler
	Businesses  *handler.BusinessesHandler
	Reviews     *handler.ReviewsHandler
	AdminUpload *handler.AdminUploadHandler
}

// Register wires all HTTP routes for the API. uploadDir is served under
// /uploads when set.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers, uploadDir string) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})
	if uploadDir != "" {
		e.Static("/uploads", uploadDir)
	}

	e.POST("/auth/login", handlers.Auth.Login)

	requireAdmin := []echo.MiddlewareFunc{
		middlewarepkg.JWT(jwtManager),
		middlewarepkg.RequireRole(auth.RoleAdmin),
	}

	businesses := e.Group("/api/businesses")
	businesses.GET("", handlers.Businesses.List)
	businesses.POST("", handlers.Businesses.Create)
	businesses.GET("/:id", handlers.Businesses.Get)
	businesses.PUT("/:id", handlers.Businesses.Update, requireAdmin...)
	businesses.DELETE("/:id", handlers.Businesses.Delete, requireAdmin...)
	businesses.POST("/bulk", handlers.Businesses.BulkImport, requireAdmin...)
	businesses.POST("/import", handlers.AdminUpload.ImportFile, requireAdmin...)
	businesses.POST("/:id/images", handlers.AdminUpload.UploadImage, requireAdmin...)
	businesses.POST("/:id/enrich", handlers.Businesses.Enrich,
		middlewarepkg.JWT(jwtManager),
		middlewarepkg.RequireRole(auth.RoleAdmin),
		middlewarepkg.RateLimit(cfg.RateLimitEnrich),
	)

	reviews := e.Group("/api/reviews/business/:businessId")
	reviews.GET("", handlers.Reviews.List)
	reviews.POST("", handlers.Reviews.Create)
	reviews.GET("/stats", handlers.Reviews.Stats)
}
