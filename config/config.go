package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"carwash-backend/internal/washbay"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Pricing    PricingConfig    `yaml:"pricing"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for "car ready" web push notifications.
// Notifications are disabled when either key is empty.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are configured.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	RateLimitPerSec float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
	CacheTTLSeconds int           `yaml:"cache_ttl_seconds"`
	CacheTTL        time.Duration `yaml:"-"`
}

// PricingConfig holds the price list as decimal strings, e.g. "1.50".
type PricingConfig struct {
	Base          string            `yaml:"base"`
	PreWashByHand string            `yaml:"pre_wash_by_hand"`
	HandDry       string            `yaml:"hand_dry"`
	Waxing        string            `yaml:"waxing"`
	Prices        washbay.PriceList `yaml:"-"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // "postgres" or "sqlite"
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied, suitable for local runs and tests.
func Default() *Config {
	var cfg Config
	if err := cfg.applyDefaults(); err != nil {
		// defaults are constants and always parse
		panic(err)
	}
	return &cfg
}

func (cfg *Config) applyDefaults() error {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}
	cfg.Server.CacheTTL = time.Duration(cfg.Server.CacheTTLSeconds) * time.Second

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Driver != "sqlite" && cfg.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "lavadero.db"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	prices, err := cfg.Pricing.parse()
	if err != nil {
		return err
	}
	cfg.Pricing.Prices = prices
	return nil
}

func (p PricingConfig) parse() (washbay.PriceList, error) {
	prices := washbay.DefaultPrices
	fields := []struct {
		key string
		raw string
		dst *decimal.Decimal
	}{
		{"pricing.base", p.Base, &prices.Base},
		{"pricing.pre_wash_by_hand", p.PreWashByHand, &prices.PreWashByHand},
		{"pricing.hand_dry", p.HandDry, &prices.HandDry},
		{"pricing.waxing", p.Waxing, &prices.Waxing},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		amount, err := decimal.NewFromString(f.raw)
		if err != nil {
			return washbay.PriceList{}, fmt.Errorf("invalid %s %q: %w", f.key, f.raw, err)
		}
		if amount.IsNegative() {
			return washbay.PriceList{}, fmt.Errorf("invalid %s %q: must not be negative", f.key, f.raw)
		}
		*f.dst = amount
	}
	return prices, nil
}
