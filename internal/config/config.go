// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type CacheConfig struct {
	Driver   string        `yaml:"driver"` // memory or sqlite
	Filename string        `yaml:"filename,omitempty"`
	TTL      time.Duration `yaml:"ttl"`
}

type BookingConfig struct {
	// Timezone is the reference timezone for "today" and the same-day
	// booking cutoff. The property calendar is local, never UTC.
	Timezone          string  `yaml:"timezone"`
	DefaultMinStay    int     `yaml:"default_min_stay"`
	DefaultTaxPercent float64 `yaml:"default_tax_percent"`
}

type UpstreamConfig struct {
	AvailabilityURL string        `yaml:"availability_url"`
	CatalogURL      string        `yaml:"catalog_url"`
	VoucherURL      string        `yaml:"voucher_url"`
	Timeout         time.Duration `yaml:"timeout"`
	APIKey          string        `yaml:"-"` // Loaded from environment
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
	} `yaml:"app"`

	Booking  BookingConfig  `yaml:"booking"`
	Cache    CacheConfig    `yaml:"cache"`
	Upstream UpstreamConfig `yaml:"upstream"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	// Read and parse YAML config
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Load sensitive values from environment
	cfg.Upstream.APIKey = os.Getenv("UPSTREAM_API_KEY")

	cfg.applyDefaults()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "Europe/Rome"
	}
	if c.Booking.DefaultMinStay == 0 {
		c.Booking.DefaultMinStay = 1
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 5 * time.Minute
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("invalid booking timezone %q: %w", c.Booking.Timezone, err)
	}
	if c.Upstream.AvailabilityURL == "" {
		return fmt.Errorf("availability service URL is required")
	}

	switch c.Cache.Driver {
	case "memory":
	case "sqlite":
		if c.Cache.Filename == "" {
			return fmt.Errorf("cache filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported cache driver: %s", c.Cache.Driver)
	}

	return nil
}
