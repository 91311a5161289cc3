// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/jonathan/asset-scout/internal/marketplace"
	"github.com/jonathan/asset-scout/internal/schemas"
	"github.com/jonathan/asset-scout/internal/types"
)

// EnvPrefix is prepended to every environment variable the loader reads,
// e.g. ASSET_SCOUT_MARKETPLACE_BASE_URL.
const EnvPrefix = "ASSET_SCOUT"

// Defaults
const (
	DefaultFetchAttempts    = 3
	DefaultFetchTimeout     = 30 * time.Second
	DefaultScanConcurrency  = 2
	DefaultCacheType        = "memory"
	DefaultCacheTTL         = 24 * time.Hour
	DefaultPort             = 8080
	DefaultRateLimit        = 1000
	DefaultRateLimitWindow  = time.Minute
	DefaultCleanupInterval  = 5 * time.Minute
	DefaultRescanSchedule   = ""
	DefaultSelectorsFileEnv = "SELECTORS_FILE"
)

// Config is the full application configuration. Every field is optional in
// the file; missing values come from the environment or the defaults.
type Config struct {
	DatabaseURL string            `mapstructure:"database_url"`
	Marketplace MarketplaceConfig `mapstructure:"marketplace"`
	Scan        ScanConfig        `mapstructure:"scan"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Server      ServerConfig      `mapstructure:"server"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
	Locations   []types.Location  `mapstructure:"locations" validate:"dive"`
}

// MarketplaceConfig controls how the marketplace is reached.
type MarketplaceConfig struct {
	BaseURL       string        `mapstructure:"base_url" validate:"required,url"`
	SelectorsFile string        `mapstructure:"selectors_file"`
	FetchAttempts int           `mapstructure:"fetch_attempts" validate:"gte=1,lte=10"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// ScanConfig controls location scanning.
type ScanConfig struct {
	Concurrency    int    `mapstructure:"concurrency" validate:"gte=1,lte=32"`
	RescanSchedule string `mapstructure:"rescan_schedule"`
}

// CacheConfig selects the listing cache.
type CacheConfig struct {
	Type     string        `mapstructure:"type" validate:"oneof=none memory redis"`
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int      `mapstructure:"port" validate:"gte=1,lte=65535"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig holds per-client request limits for the HTTP server.
type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DefaultLimit    int           `mapstructure:"default_limit" validate:"gte=0"`
	DefaultWindow   time.Duration `mapstructure:"default_window" validate:"gte=0"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"gte=0"`
	Whitelist       []string      `mapstructure:"whitelist"`
	Blacklist       []string      `mapstructure:"blacklist"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Marketplace: MarketplaceConfig{
			BaseURL:       marketplace.DefaultBaseURL,
			FetchAttempts: DefaultFetchAttempts,
			Timeout:       DefaultFetchTimeout,
		},
		Scan: ScanConfig{
			Concurrency:    DefaultScanConcurrency,
			RescanSchedule: DefaultRescanSchedule,
		},
		Cache: CacheConfig{
			Type: DefaultCacheType,
			TTL:  DefaultCacheTTL,
		},
		Server: ServerConfig{
			Port:           DefaultPort,
			AllowedOrigins: []string{"*"},
		},
		RateLimit: RateLimitConfig{
			Enabled:         true,
			DefaultLimit:    DefaultRateLimit,
			DefaultWindow:   DefaultRateLimitWindow,
			CleanupInterval: DefaultCleanupInterval,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("database_url", "")

	v.SetDefault("marketplace.base_url", d.Marketplace.BaseURL)
	v.SetDefault("marketplace.selectors_file", "")
	v.SetDefault("marketplace.fetch_attempts", d.Marketplace.FetchAttempts)
	v.SetDefault("marketplace.timeout", d.Marketplace.Timeout)

	v.SetDefault("scan.concurrency", d.Scan.Concurrency)
	v.SetDefault("scan.rescan_schedule", d.Scan.RescanSchedule)

	v.SetDefault("cache.type", d.Cache.Type)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", d.Cache.TTL)

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)

	v.SetDefault("ratelimit.enabled", d.RateLimit.Enabled)
	v.SetDefault("ratelimit.default_limit", d.RateLimit.DefaultLimit)
	v.SetDefault("ratelimit.default_window", d.RateLimit.DefaultWindow)
	v.SetDefault("ratelimit.cleanup_interval", d.RateLimit.CleanupInterval)
	v.SetDefault("ratelimit.whitelist", []string{})
	v.SetDefault("ratelimit.blacklist", []string{})
}

// LoadConfig reads configuration from path (JSON, TOML or YAML, chosen by
// extension) layered under ASSET_SCOUT_* environment variables. An empty path
// loads the environment and defaults only. DATABASE_URL and SELECTORS_FILE
// are honoured without the prefix.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	_ = v.BindEnv("database_url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("marketplace.selectors_file", EnvPrefix+"_MARKETPLACE_SELECTORS_FILE", DefaultSelectorsFileEnv)
	_ = v.BindEnv("cache.redis_url", EnvPrefix+"_CACHE_REDIS_URL", "REDIS_URL")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks field ranges and the cross-field rules that struct tags
// cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if _, err := marketplace.NewEndpoints(c.Marketplace.BaseURL); err != nil {
		return fmt.Errorf("config error: 'marketplace.base_url': %w", err)
	}

	if c.Cache.Type == "redis" && c.Cache.RedisURL == "" {
		return fmt.Errorf("config error: 'cache.redis_url' is required when cache type is 'redis'")
	}

	if c.Scan.RescanSchedule != "" {
		if _, err := cron.ParseStandard(c.Scan.RescanSchedule); err != nil {
			return fmt.Errorf("config error: invalid 'scan.rescan_schedule' %q: %w", c.Scan.RescanSchedule, err)
		}
	}

	if c.Marketplace.SelectorsFile != "" {
		if _, err := os.Stat(c.Marketplace.SelectorsFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: selectors file not found: %s", c.Marketplace.SelectorsFile)
		}
		if err := schemas.ValidateSelectorsFile(c.Marketplace.SelectorsFile); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}

	seen := make(map[string]bool, len(c.Locations))
	for _, loc := range c.Locations {
		if seen[loc.ID] {
			return fmt.Errorf("config error: duplicate location id %q", loc.ID)
		}
		seen[loc.ID] = true
	}

	return nil
}

// Location returns the configured location with the given ID.
func (c *Config) Location(id string) (types.Location, bool) {
	for _, loc := range c.Locations {
		if loc.ID == id {
			return loc, true
		}
	}
	return types.Location{}, false
}

// MergeWithDefaults returns a copy of c with zero fields filled from defaults.
// The CLI uses it to layer flag values over the loaded file.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	if result.Marketplace.BaseURL == "" {
		result.Marketplace.BaseURL = defaults.Marketplace.BaseURL
	}
	if result.Marketplace.SelectorsFile == "" {
		result.Marketplace.SelectorsFile = defaults.Marketplace.SelectorsFile
	}
	if result.Marketplace.FetchAttempts == 0 {
		result.Marketplace.FetchAttempts = defaults.Marketplace.FetchAttempts
	}
	if result.Marketplace.Timeout == 0 {
		result.Marketplace.Timeout = defaults.Marketplace.Timeout
	}

	if result.Scan.Concurrency == 0 {
		result.Scan.Concurrency = defaults.Scan.Concurrency
	}
	if result.Scan.RescanSchedule == "" {
		result.Scan.RescanSchedule = defaults.Scan.RescanSchedule
	}

	if result.Cache.Type == "" {
		result.Cache.Type = defaults.Cache.Type
	}
	if result.Cache.RedisURL == "" {
		result.Cache.RedisURL = defaults.Cache.RedisURL
	}
	if result.Cache.TTL == 0 {
		result.Cache.TTL = defaults.Cache.TTL
	}

	if result.Server.Port == 0 {
		result.Server.Port = defaults.Server.Port
	}
	if len(result.Server.AllowedOrigins) == 0 {
		result.Server.AllowedOrigins = defaults.Server.AllowedOrigins
	}

	// Rate limit settings travel as a block; Enabled cannot tell unset from false.
	if result.RateLimit.DefaultLimit == 0 && result.RateLimit.DefaultWindow == 0 {
		result.RateLimit = defaults.RateLimit
	}

	if len(result.Locations) == 0 {
		result.Locations = defaults.Locations
	}

	return result
}
