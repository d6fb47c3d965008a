package configloader

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
tracker:
  ownerAddress: "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default level info, got %s", cfg.Logging.Level)
	}
	if cfg.CoinGecko.BaseURL != "https://api.coingecko.com/api/v3" {
		t.Errorf("unexpected default base URL %s", cfg.CoinGecko.BaseURL)
	}
	if cfg.CoinGecko.VsCurrency != "usd" {
		t.Errorf("expected default vs currency usd, got %s", cfg.CoinGecko.VsCurrency)
	}
	if cfg.CoinGecko.RateLimitPerSecond != 0.5 {
		t.Errorf("expected default rate limit 0.5, got %f", cfg.CoinGecko.RateLimitPerSecond)
	}
	if cfg.PriceSvc.CacheTTLSeconds != 60 {
		t.Errorf("expected default cache TTL 60, got %d", cfg.PriceSvc.CacheTTLSeconds)
	}
	if cfg.PriceSvc.MaxRetries != 2 {
		t.Errorf("expected default max retries 2, got %d", cfg.PriceSvc.MaxRetries)
	}
	if cfg.Tracker.PollIntervalSeconds != 60 {
		t.Errorf("expected default poll interval 60, got %d", cfg.Tracker.PollIntervalSeconds)
	}
	if cfg.Performance.MaxConcurrentRoutines != 10 {
		t.Errorf("expected default concurrency 10, got %d", cfg.Performance.MaxConcurrentRoutines)
	}
	if cfg.CatalogPath != "data/catalog.yaml" {
		t.Errorf("unexpected default catalog path %s", cfg.CatalogPath)
	}
}

func TestLoad_ExplicitValuesKept(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  port: "9090"
coingecko:
  apiKey: "demo-key"
  rateLimitPerSecond: 2
priceService:
  cacheTTLSeconds: 30
  maxRetries: -1
tracker:
  ownerAddress: "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"
  pollIntervalSeconds: 15
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.CoinGecko.APIKey != "demo-key" {
		t.Errorf("expected api key to be kept, got %q", cfg.CoinGecko.APIKey)
	}
	if cfg.PriceSvc.CacheTTLSeconds != 30 {
		t.Errorf("expected cache TTL 30, got %d", cfg.PriceSvc.CacheTTLSeconds)
	}
	// Negative retries clamp to zero instead of falling back to the default.
	if cfg.PriceSvc.MaxRetries != 0 {
		t.Errorf("expected max retries 0, got %d", cfg.PriceSvc.MaxRetries)
	}
	if cfg.Tracker.PollIntervalSeconds != 15 {
		t.Errorf("expected poll interval 15, got %d", cfg.Tracker.PollIntervalSeconds)
	}
}

func TestLoad_MissingOwnerAddress(t *testing.T) {
	if _, err := Load(writeConfig(t, "server:\n  port: \"8080\"\n")); err == nil {
		t.Error("expected an error when ownerAddress is unset")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
