package ratelimit

import (
	"strings"
	"time"

	"github.com/jonathan/asset-scout/internal/config"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// FromSettings builds a limiter configuration from the application settings.
func FromSettings(s config.RateLimitConfig) *Config {
	if !s.Enabled {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    s.DefaultLimit,
		DefaultWindow:   s.DefaultWindow,
		CleanupInterval: s.CleanupInterval,
		Whitelist:       ipSet(s.Whitelist),
		Blacklist:       ipSet(s.Blacklist),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Scans walk whole libraries and hit the marketplace per folder
		{Path: "/locations/", Method: "POST", Limit: 10, Window: time.Minute, Burst: 2},
		{Path: "/scans/cancel-all", Method: "POST", Limit: 10, Window: time.Minute, Burst: 2},

		// Single marketplace lookups
		{Path: "/resolve", Method: "GET", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/marketplace/access", Method: "GET", Limit: 10, Window: time.Minute, Burst: 2},
		{Path: "/assets/", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/assets/", Method: "PUT", Limit: 60, Window: time.Minute, Burst: 10},

		// Everything else uses the default limit; health checks are unlimited
	}
}

func ipSet(list []string) map[string]bool {
	result := make(map[string]bool, len(list))
	for _, ip := range list {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}
	return result
}
