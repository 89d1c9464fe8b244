package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/octobees/business-directory/api/internal/app"
	"github.com/octobees/business-directory/api/internal/auth"
	"github.com/octobees/business-directory/api/internal/config"
	"github.com/octobees/business-directory/api/internal/database"
	"github.com/octobees/business-directory/api/internal/handler"
	"github.com/octobees/business-directory/api/internal/logging"
	middlewarepkg "github.com/octobees/business-directory/api/internal/middleware"
	"github.com/octobees/business-directory/api/internal/repository"
	"github.com/octobees/business-directory/api/internal/router"
	"github.com/octobees/business-directory/api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		logrus.WithError(err).Fatal("failed to configure logging")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL, 0)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect database")
	}
	defer pool.Close()

	if err := database.ApplySchema(ctx, pool); err != nil {
		logger.WithError(err).Fatal("failed to apply schema")
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	if cfg.AdminEmail == "" || cfg.AdminPasswordHash == "" {
		logger.Warn("ADMIN_EMAIL or ADMIN_PASSWORD_HASH not set, admin login disabled")
	}

	businessesRepo := repository.NewPGXBusinessesRepository(pool)
	reviewsRepo := repository.NewPGXReviewsRepository(pool)

	imageStore, closeStore, err := app.NewImageStore(context.Background(), cfg.Image)
	if err != nil {
		logger.WithError(err).Fatal("failed to set up image storage")
	}
	defer closeStore()

	pipeline, closePipeline, err := app.NewPipeline(context.Background(), cfg, businessesRepo, logger, app.PipelineOptions{
		// single-record runs from the API never take the batch lock
		DisableLock: true,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to build enrichment pipeline")
	}
	defer closePipeline()

	authService := service.NewAuthService(cfg.AdminEmail, cfg.AdminPasswordHash, jwtManager)
	businessesService := service.NewBusinessesService(businessesRepo)
	reviewsService := service.NewReviewsService(reviewsRepo, businessesRepo)
	imagesService := service.NewImagesService(businessesRepo, imageStore, cfg.Image.MaxBytes)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(logger))
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{AllowOrigins: cfg.CORSOrigins}))
	e.Use(echoMiddleware.BodyLimit("10M"))

	uploadDir := ""
	if cfg.Image.Store != "gcs" {
		uploadDir = cfg.Image.UploadDir
	}
	router.Register(e, cfg, jwtManager, router.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Businesses:  handler.NewBusinessesHandler(businessesService, pipeline),
		Reviews:     handler.NewReviewsHandler(reviewsService),
		AdminUpload: handler.NewAdminUploadHandler(businessesService, imagesService),
	}, uploadDir)

	serverErr := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.Port).Info("http server listening")
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.WithField("signal", sig.String()).Info("shutting down")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server error")
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}
