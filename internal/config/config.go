package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/ndvi-service/internal/common"
	"github.com/i474232898/ndvi-service/internal/ndvi"
)

type AppConfig struct {
	Port string

	// Catalog search.
	STACAPIURL     string
	Collection     string
	MaxCloudCover  float64       // percent, strict upper bound
	SearchWindow   time.Duration // datetime range length after the query timestamp
	SearchLimit    int
	SearchMaxPages int

	RedAsset string
	NIRAsset string

	// Outbound HTTP and whole-request deadlines.
	HTTPTimeout    time.Duration
	RequestTimeout time.Duration

	// Asset signing.
	SignAssets      bool
	SASTokenURL     string
	SubscriptionKey string

	// Token cache. Redis is used when RedisAddr is set.
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	TokenPruneInterval time.Duration

	BoundsDensify int
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}
	var err error

	cfg.Port = getenvDefault("PORT", "8080")

	cfg.STACAPIURL = getenvDefault("STAC_API_URL", "https://planetarycomputer.microsoft.com/api/stac/v1")
	cfg.Collection = getenvDefault("STAC_COLLECTION", "sentinel-2-l2a")

	if cfg.MaxCloudCover, err = getenvFloat("MAX_CLOUD_COVER", 20); err != nil {
		return nil, err
	}
	if cfg.MaxCloudCover <= 0 || cfg.MaxCloudCover > 100 {
		return nil, fmt.Errorf("invalid MAX_CLOUD_COVER: %v is outside (0, 100]", cfg.MaxCloudCover)
	}

	// 5 days.
	if cfg.SearchWindow, err = getenvDuration("SEARCH_WINDOW", "120h"); err != nil {
		return nil, err
	}
	if cfg.SearchWindow <= 0 {
		return nil, fmt.Errorf("invalid SEARCH_WINDOW: must be positive")
	}

	if cfg.SearchLimit, err = getenvInt("SEARCH_LIMIT", 100); err != nil {
		return nil, err
	}
	if cfg.SearchMaxPages, err = getenvInt("SEARCH_MAX_PAGES", 10); err != nil {
		return nil, err
	}

	cfg.RedAsset = getenvDefault("RED_ASSET", "B04")
	cfg.NIRAsset = getenvDefault("NIR_ASSET", "B08")

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getenvDuration("REQUEST_TIMEOUT", "2m"); err != nil {
		return nil, err
	}

	if cfg.SignAssets, err = getenvBool("SIGN_ASSETS", true); err != nil {
		return nil, err
	}
	cfg.SASTokenURL = getenvDefault("SAS_TOKEN_URL", "https://planetarycomputer.microsoft.com/api/sas/v1/token")
	cfg.SubscriptionKey = common.FirstNonEmpty(os.Getenv("PC_SDK_SUBSCRIPTION_KEY"), os.Getenv("PC_SUBSCRIPTION_KEY"))

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if cfg.RedisDB, err = getenvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.TokenPruneInterval, err = getenvDuration("TOKEN_PRUNE_INTERVAL", "10m"); err != nil {
		return nil, err
	}

	if cfg.BoundsDensify, err = getenvInt("BOUNDS_DENSIFY", 21); err != nil {
		return nil, err
	}

	return cfg, nil
}

// PipelineOptions maps the configuration onto the query pipeline options.
func (c *AppConfig) PipelineOptions() ndvi.Options {
	return ndvi.Options{
		Search: ndvi.SearchOptions{
			Collection:    c.Collection,
			MaxCloudCover: c.MaxCloudCover,
			Window:        c.SearchWindow,
			Limit:         c.SearchLimit,
		},
		RedAsset: c.RedAsset,
		NIRAsset: c.NIRAsset,
		Timeout:  c.RequestTimeout,
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
