// Package app assembles the enrichment pipeline and image storage from
// configuration for the API server and the operator CLI.
package app

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/octobees/business-directory/api/internal/config"
	"github.com/octobees/business-directory/api/internal/enrichment"
	"github.com/octobees/business-directory/api/internal/enrichment/batch"
	"github.com/octobees/business-directory/api/internal/enrichment/clean"
	"github.com/octobees/business-directory/api/internal/enrichment/extract"
	"github.com/octobees/business-directory/api/internal/enrichment/fetch"
	"github.com/octobees/business-directory/api/internal/imagestore"
)

// PipelineOptions overrides the configured run scope.
type PipelineOptions struct {
	Filter      enrichment.Filter
	PageSize    int
	DisableLock bool
}

// NewPipeline builds a coordinator over store. The returned func releases
// the browser and redis connections.
func NewPipeline(ctx context.Context, cfg *config.Config, store batch.Store, log *logrus.Logger, opts PipelineOptions) (*batch.Coordinator, func(), error) {
	mode, err := fetch.ParseMode(cfg.Fetch.Mode)
	if err != nil {
		return nil, nil, err
	}

	fetcher, closeFetcher, err := fetch.New(ctx, fetch.Options{
		Mode:         mode,
		Timeout:      cfg.Fetch.Timeout,
		RatePerSec:   cfg.Fetch.Rate,
		UserAgent:    cfg.Fetch.UserAgent,
		SearchURL:    cfg.Fetch.SearchURL,
		ChromePath:   cfg.Fetch.ChromePath,
		Headless:     cfg.Fetch.Headless,
		GoogleAPIKey: cfg.GoogleAPIKey,
		GoogleCSEID:  cfg.GoogleCSEID,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build fetcher: %w", err)
	}
	closers := []func(){closeFetcher}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var cleanOpts []clean.Option
	if cfg.Enrich.VerifyEmailMX {
		cleanOpts = append(cleanOpts, clean.WithMXResolver(clean.NewDNSResolver(cfg.Enrich.DNSServers)))
	}

	filter := opts.Filter
	if filter.DetailURLPattern == "" {
		filter.DetailURLPattern = cfg.Enrich.DetailURLPattern
	}
	pageSize := cfg.Enrich.PageSize
	if opts.PageSize > 0 {
		pageSize = opts.PageSize
	}

	coordOpts := []batch.Option{batch.WithCleaner(clean.NewProcessor(cfg.Enrich.PhoneRegion, cleanOpts...))}
	if cfg.RedisURL != "" && !opts.DisableLock {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(redisOpts)
		closers = append(closers, func() {
			if err := rdb.Close(); err != nil {
				log.WithError(err).Warn("close redis client")
			}
		})
		coordOpts = append(coordOpts, batch.WithLocker(batch.NewRedisLocker(rdb)))
	}

	coordinator := batch.New(store, fetcher, extract.New(), batch.Config{
		Filter:        filter,
		PageSize:      pageSize,
		RecordDelay:   cfg.Enrich.RecordDelay,
		BatchPause:    cfg.Enrich.BatchPause,
		RecordTimeout: cfg.Enrich.RecordTimeout,
		LockTTL:       cfg.Enrich.LockTTL,
	}, log, coordOpts...)

	return coordinator, closeAll, nil
}

// NewImageStore returns the configured image backend and a func that closes it.
func NewImageStore(ctx context.Context, cfg config.ImageConfig) (imagestore.Store, func(), error) {
	switch strings.ToLower(cfg.Store) {
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("create storage client: %w", err)
		}
		return imagestore.NewGCS(client, cfg.GCSBucket), func() { _ = client.Close() }, nil
	default:
		local, err := imagestore.NewLocal(cfg.UploadDir, "")
		if err != nil {
			return nil, nil, err
		}
		return local, func() {}, nil
	}
}
