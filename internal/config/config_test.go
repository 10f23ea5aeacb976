package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t, "CACHE_TTL", "UPDATE_INTERVAL", "BATCH_SIZE", "MAX_TOKENS", "CONFIG_FILE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("CacheTTL = %v, want 30s", cfg.CacheTTL)
	}
	if cfg.UpdateInterval != 10*time.Second {
		t.Errorf("UpdateInterval = %v, want 10s", cfg.UpdateInterval)
	}
	if cfg.BatchSize != 50 {
		t.Errorf("BatchSize = %d, want 50", cfg.BatchSize)
	}
	if cfg.MaxTokens != 1000 {
		t.Errorf("MaxTokens = %d, want 1000", cfg.MaxTokens)
	}
	if len(cfg.Upstreams) != 2 {
		t.Fatalf("expected 2 built-in upstreams, got %d", len(cfg.Upstreams))
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t, "MAX_TOKENS", "UPDATE_INTERVAL")
	os.Setenv("MAX_TOKENS", "500")
	os.Setenv("UPDATE_INTERVAL", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxTokens != 500 {
		t.Errorf("MaxTokens = %d, want 500", cfg.MaxTokens)
	}
	if cfg.UpdateInterval != 5*time.Second {
		t.Errorf("UpdateInterval = %v, want 5s", cfg.UpdateInterval)
	}
}

func TestLoad_InvalidMaxTokensIsConfigError(t *testing.T) {
	clearEnv(t, "MAX_TOKENS")
	os.Setenv("MAX_TOKENS", "0")

	_, err := Load()
	if err == nil {
		t.Fatal("expected a ConfigError for MAX_TOKENS=0")
	}
}

func TestLoad_ConfigFileAddsUpstreams(t *testing.T) {
	clearEnv(t, "CONFIG_FILE")

	dir := t.TempDir()
	path := dir + "/upstreams.yaml"
	contents := []byte("upstreams:\n  - tag: backup\n    base_url: https://example.test\n    rate_points: 10\n    rate_window: 1m\n    max_attempts: 2\n    base_delay: 500ms\n")
	if err := os.WriteFile(path, contents, 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	os.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Upstreams) != 3 {
		t.Fatalf("expected 3 upstreams (2 built-in + 1 from file), got %d", len(cfg.Upstreams))
	}
	if cfg.Upstreams[2].Tag != "backup" {
		t.Errorf("expected extra upstream tag 'backup', got %q", cfg.Upstreams[2].Tag)
	}
}
