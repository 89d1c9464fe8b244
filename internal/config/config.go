// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// Decode implements envconfig.Decoder for values like "5/min".
func (r *RateLimitConfig) Decode(value string) error {
	parsed, err := parseRateLimit(value)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"json"`
}

// EnrichConfig bounds the enrichment runs.
type EnrichConfig struct {
	PageSize         int           `envconfig:"PAGE_SIZE" default:"100"`
	RecordDelay      time.Duration `envconfig:"RECORD_DELAY" default:"1s"`
	BatchPause       time.Duration `envconfig:"BATCH_PAUSE" default:"5s"`
	RecordTimeout    time.Duration `envconfig:"RECORD_TIMEOUT" default:"90s"`
	LockTTL          time.Duration `envconfig:"LOCK_TTL" default:"2m"`
	DetailURLPattern string        `envconfig:"DETAIL_URL_PATTERN" default:"scci\\.com\\.pk/member-detail"`
	PhoneRegion      string        `envconfig:"PHONE_REGION" default:"PK"`
	VerifyEmailMX    bool          `envconfig:"VERIFY_EMAIL_MX" default:"false"`
	DNSServers       []string      `envconfig:"DNS_SERVERS" default:"8.8.8.8:53,1.1.1.1:53"`
}

// FetchConfig configures how external pages and searches are retrieved.
type FetchConfig struct {
	Mode       string        `envconfig:"MODE" default:"browser"`
	Timeout    time.Duration `envconfig:"TIMEOUT" default:"30s"`
	Rate       float64       `envconfig:"RATE" default:"1"`
	ChromePath string        `envconfig:"CHROME_PATH"`
	Headless   bool          `envconfig:"HEADLESS" default:"true"`
	UserAgent  string        `envconfig:"USER_AGENT"`
	SearchURL  string        `envconfig:"SEARCH_URL" default:"https://www.google.com/search"`
}

// ImageConfig selects where uploaded images are stored.
type ImageConfig struct {
	Store     string `envconfig:"STORE" default:"local"`
	UploadDir string `envconfig:"UPLOAD_DIR" default:"uploads"`
	GCSBucket string `envconfig:"GCS_BUCKET"`
	MaxBytes  int64  `envconfig:"MAX_BYTES" default:"5242880"`
}

// Config aggregates application-wide configuration values.
type Config struct {
	DatabaseURL       string          `envconfig:"DATABASE_URL"`
	Port              string          `envconfig:"PORT" default:"5000"`
	JWTSecret         string          `envconfig:"JWT_SECRET" default:"dev-secret"`
	TokenTTL          time.Duration   `envconfig:"JWT_TTL" default:"24h"`
	AdminEmail        string          `envconfig:"ADMIN_EMAIL"`
	AdminPasswordHash string          `envconfig:"ADMIN_PASSWORD_HASH"`
	CORSOrigins       []string        `envconfig:"CORS_ORIGINS" default:"*"`
	RateLimitEnrich   RateLimitConfig `envconfig:"RATE_LIMIT_ENRICH" default:"5/min"`
	RedisURL          string          `envconfig:"REDIS_URL"`
	GoogleAPIKey      string          `envconfig:"GOOGLE_API_KEY"`
	GoogleCSEID       string          `envconfig:"GOOGLE_CSE_ID"`

	Log    LogConfig    `envconfig:"LOG"`
	Enrich EnrichConfig `envconfig:"ENRICH"`
	Fetch  FetchConfig  `envconfig:"FETCH"`
	Image  ImageConfig  `envconfig:"IMAGE"`
}

// Load reads configuration from environment variables and applies defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Enrich.PageSize <= 0 {
		return nil, fmt.Errorf("ENRICH_PAGE_SIZE must be positive, got %d", cfg.Enrich.PageSize)
	}
	switch strings.ToLower(cfg.Image.Store) {
	case "local", "gcs":
	default:
		return nil, fmt.Errorf("IMAGE_STORE must be local or gcs, got %q", cfg.Image.Store)
	}
	if strings.EqualFold(cfg.Image.Store, "gcs") && cfg.Image.GCSBucket == "" {
		return nil, fmt.Errorf("IMAGE_GCS_BUCKET is required when IMAGE_STORE=gcs")
	}
	return &cfg, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}
