// Package config loads the aggregator's configuration from the
// environment (via godotenv) with documented defaults, the same
// getEnvOrDefault/getEnvAsIntOrDefault shape the teacher's config
// package used, generalized to this module's upstreams and cache knobs.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/aggerr"
)

// UpstreamConfig describes one upstream adapter's endpoint, rate limit
// and retry budget.
type UpstreamConfig struct {
	Tag         string        `yaml:"tag"`
	BaseURL     string        `yaml:"base_url"`
	RatePoints  int           `yaml:"rate_points"`
	RateWindow  time.Duration `yaml:"rate_window"`
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

// Config is the aggregator's full runtime configuration.
type Config struct {
	CacheURL           string
	CacheTTL            time.Duration
	UpdateInterval      time.Duration
	BatchSize           int
	MaxTokens           int
	ListenPort          int
	LogLevel            string

	Upstreams []UpstreamConfig
}

// Load reads environment variables (after loading a .env file, if
// present — absence of a .env file is not an error) into a Config,
// falling back to the documented defaults, then layers an optional YAML
// file named by CONFIG_FILE on top for additional upstreams.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional; missing file is not fatal

	cfg := &Config{
		CacheURL:       getEnvOrDefault("CACHE_URL", "sqlite://aggregator-cache.db"),
		CacheTTL:       getEnvDurationOrDefault("CACHE_TTL", 30*time.Second),
		UpdateInterval: getEnvDurationOrDefault("UPDATE_INTERVAL", 10*time.Second),
		BatchSize:      getEnvAsIntOrDefault("BATCH_SIZE", 50),
		MaxTokens:      getEnvAsIntOrDefault("MAX_TOKENS", 1000),
		ListenPort:     getEnvAsIntOrDefault("LISTEN_PORT", 8080),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
	}

	cfg.Upstreams = []UpstreamConfig{
		{
			Tag:         "dex",
			BaseURL:     getEnvOrDefault("DEX_BASE_URL", "https://api.dexscreener.com/latest/dex"),
			RatePoints:  getEnvAsIntOrDefault("DEX_RATE_POINTS", 300),
			RateWindow:  getEnvDurationOrDefault("DEX_RATE_WINDOW", 60*time.Second),
			MaxAttempts: getEnvAsIntOrDefault("DEX_MAX_ATTEMPTS", 3),
			BaseDelay:   getEnvDurationOrDefault("DEX_BASE_DELAY", time.Second),
		},
		{
			Tag:         "market",
			BaseURL:     getEnvOrDefault("MARKET_BASE_URL", "https://api.coingecko.com/api/v3"),
			RatePoints:  getEnvAsIntOrDefault("MARKET_RATE_POINTS", 50),
			RateWindow:  getEnvDurationOrDefault("MARKET_RATE_WINDOW", 60*time.Second),
			MaxAttempts: getEnvAsIntOrDefault("MARKET_MAX_ATTEMPTS", 3),
			BaseDelay:   getEnvDurationOrDefault("MARKET_BASE_DELAY", time.Second),
		},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		extra, err := loadUpstreamsFile(path)
		if err != nil {
			return nil, &aggerr.ConfigError{Detail: "loading CONFIG_FILE: " + err.Error()}
		}
		for _, u := range extra {
			if u.Tag == "dex" || u.Tag == "market" {
				continue // the built-in upstreams are configured by env vars only
			}
			cfg.Upstreams = append(cfg.Upstreams, u)
		}
	}

	if cfg.MaxTokens <= 0 {
		return nil, &aggerr.ConfigError{Detail: "MAX_TOKENS must be positive"}
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
