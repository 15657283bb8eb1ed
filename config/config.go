package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AlphaVantage AlphaVantageConfig `mapstructure:"alphavantage"`
	Market       MarketConfig       `mapstructure:"market"`
	Refresh      RefreshConfig      `mapstructure:"refresh"`
	Server       ServerConfig       `mapstructure:"server"`
	Warmup       WarmupConfig       `mapstructure:"warmup"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Log          LogConfig          `mapstructure:"log"`
	Postgres     PostgresConfig     `mapstructure:"postgres"`
}

type AlphaVantageConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	APIKey           string        `mapstructure:"api_key"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RateLimit        int           `mapstructure:"rate_limit"`        // calls per minute, 0 = unlimited
	CompactThreshold int           `mapstructure:"compact_threshold"` // days above this request the full series
}

// MarketConfig pins the exchange calendar: one timezone, one publication cutoff.
type MarketConfig struct {
	Timezone string `mapstructure:"timezone"` // e.g. "America/New_York"
	Cutoff   string `mapstructure:"cutoff"`   // "HH:MM" exchange-local
}

type RefreshConfig struct {
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`
	SingleFlight    bool          `mapstructure:"single_flight"`
}

type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	DefaultDays int    `mapstructure:"default_days"`
}

type WarmupConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Cron    string   `mapstructure:"cron"` // seconds-enabled cron spec, exchange timezone
	Symbols []string `mapstructure:"symbols"`
	Days    int      `mapstructure:"days"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"` // "postgres" or "memory"
}

// Options defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// Load loads application configuration using Viper.
// It reads from config.yaml and overrides with environment variables.
func Load() *Config {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	if p := os.Getenv("STOCKCACHE_CONFIG_DIR"); p != "" {
		v.AddConfigPath(p)
	}
	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		v.AddConfigPath(filepath.Join(pwd, "../../config"))
	} else {
		v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
	}

	SetDefaults(v)

	// Support environment variables with dot notation (e.g., ALPHAVANTAGE_API_KEY)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	cfg, err := Unmarshal(v)
	if err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	return cfg
}

// SetDefaults registers the values used when config.yaml leaves a key out.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("alphavantage.base_url", "https://www.alphavantage.co")
	v.SetDefault("alphavantage.timeout", 10*time.Second)
	v.SetDefault("alphavantage.rate_limit", 5)
	v.SetDefault("alphavantage.compact_threshold", 100)
	v.SetDefault("market.timezone", "America/New_York")
	v.SetDefault("market.cutoff", "16:15")
	v.SetDefault("refresh.provider_timeout", 15*time.Second)
	v.SetDefault("refresh.single_flight", false)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.default_days", 20)
	v.SetDefault("warmup.enabled", false)
	v.SetDefault("warmup.cron", "0 30 16 * * 1-5")
	v.SetDefault("warmup.days", 100)
	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.environment", "dev")
}

// Unmarshal decodes v into a Config.
func Unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Market.Timezone); err != nil {
		return fmt.Errorf("market.timezone: %w", err)
	}
	if _, err := time.Parse("15:04", c.Market.Cutoff); err != nil {
		return fmt.Errorf("market.cutoff must be HH:MM: %w", err)
	}
	if c.AlphaVantage.CompactThreshold <= 0 {
		return fmt.Errorf("alphavantage.compact_threshold must be positive")
	}
	if c.AlphaVantage.RateLimit < 0 {
		return fmt.Errorf("alphavantage.rate_limit must not be negative")
	}
	if c.Server.DefaultDays < 0 {
		return fmt.Errorf("server.default_days must not be negative")
	}
	switch c.Storage.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("storage.driver must be postgres or memory, got %q", c.Storage.Driver)
	}
	return nil
}
