package configloader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// CoinGeckoConfig holds CoinGecko API specific configuration.
type CoinGeckoConfig struct {
	APIKey               string  `yaml:"apiKey"`
	BaseURL              string  `yaml:"baseURL"`
	ClientTimeoutSeconds int     `yaml:"clientTimeoutSeconds"`
	VsCurrency           string  `yaml:"vsCurrency"`
	RateLimitPerSecond   float64 `yaml:"rateLimitPerSecond"`
}

// PriceServiceConfig holds configuration for the price cache service.
type PriceServiceConfig struct {
	CacheTTLSeconds int `yaml:"cacheTTLSeconds"`
	MaxRetries      int `yaml:"maxRetries"`
	RetryDelayMs    int `yaml:"retryDelayMs"`
}

// TrackerConfig holds configuration for the background refresh loop.
type TrackerConfig struct {
	OwnerAddress        string `yaml:"ownerAddress"`
	PollIntervalSeconds int    `yaml:"pollIntervalSeconds"`
}

// PerformanceConfig holds performance-related configuration.
type PerformanceConfig struct {
	MaxConcurrentRoutines int `yaml:"max_concurrent_routines"`
	RPCCallTimeoutSeconds int `yaml:"rpc_call_timeout_seconds"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server      ServerConfig       `yaml:"server"`
	Logging     LoggingConfig      `yaml:"logging"`
	CoinGecko   CoinGeckoConfig    `yaml:"coingecko"`
	PriceSvc    PriceServiceConfig `yaml:"priceService"`
	Tracker     TrackerConfig      `yaml:"tracker"`
	Performance PerformanceConfig  `yaml:"performance"`
	CatalogPath string             `yaml:"catalogPath"`
}

// Load reads the YAML configuration file from the given path,
// unmarshals it and applies defaults for every unset knob.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if cfg.Tracker.OwnerAddress == "" {
		return nil, fmt.Errorf("tracker.ownerAddress is required in %s", path)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.CoinGecko.BaseURL == "" {
		cfg.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.CoinGecko.ClientTimeoutSeconds <= 0 {
		cfg.CoinGecko.ClientTimeoutSeconds = 10
	}
	if cfg.CoinGecko.VsCurrency == "" {
		cfg.CoinGecko.VsCurrency = "usd"
	}
	if cfg.CoinGecko.RateLimitPerSecond <= 0 {
		// Public CoinGecko allows roughly 30 calls/min.
		cfg.CoinGecko.RateLimitPerSecond = 0.5
	}

	if cfg.PriceSvc.CacheTTLSeconds <= 0 {
		cfg.PriceSvc.CacheTTLSeconds = 60
	}
	if cfg.PriceSvc.MaxRetries < 0 {
		cfg.PriceSvc.MaxRetries = 0
	} else if cfg.PriceSvc.MaxRetries == 0 {
		cfg.PriceSvc.MaxRetries = 2
	}
	if cfg.PriceSvc.RetryDelayMs <= 0 {
		cfg.PriceSvc.RetryDelayMs = 500
	}

	if cfg.Tracker.PollIntervalSeconds <= 0 {
		cfg.Tracker.PollIntervalSeconds = 60
	}

	if cfg.Performance.MaxConcurrentRoutines <= 0 {
		cfg.Performance.MaxConcurrentRoutines = 10
	}
	if cfg.Performance.RPCCallTimeoutSeconds <= 0 {
		cfg.Performance.RPCCallTimeoutSeconds = 10
	}

	if cfg.CatalogPath == "" {
		cfg.CatalogPath = "data/catalog.yaml"
	}
}
