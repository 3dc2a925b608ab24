package ratelimit

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EndpointConfig is the limit for requests matching Path and Method.
// Path is a pattern; see MatchEndpoint.
type EndpointConfig struct {
	Path   string
	Method string // empty matches any method
	Limit  int    // requests per Window; 0 means unlimited
	Window time.Duration
	Burst  int // defaults to Limit
}

// LoadConfig reads RATE_LIMIT_* environment variables:
// ENABLED, DEFAULT_LIMIT, DEFAULT_WINDOW, CLEANUP_INTERVAL, IDLE_TTL,
// WHITELIST and BLACKLIST (comma separated client IPs).
func LoadConfig() *Config {
	v := viper.New()
	v.SetEnvPrefix("rate_limit")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("enabled", true)
	v.SetDefault("default_limit", 1000)
	v.SetDefault("default_window", time.Minute)
	v.SetDefault("cleanup_interval", 5*time.Minute)
	v.SetDefault("idle_ttl", time.Hour)

	if !v.GetBool("enabled") {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    v.GetInt("default_limit"),
		DefaultWindow:   v.GetDuration("default_window"),
		CleanupInterval: v.GetDuration("cleanup_interval"),
		IdleTTL:         v.GetDuration("idle_ttl"),
		Whitelist:       parseIPList(v.GetString("whitelist")),
		Blacklist:       parseIPList(v.GetString("blacklist")),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the limits for the run endpoints.
// Creating a plan runs selection, so it gets the strictest limit.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		{Path: "/runs/*/selection-plan", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/runs/", Method: "GET", Limit: 600, Window: time.Minute, Burst: 60},
	}
}

// parseIPList parses a comma-separated list of IP addresses into a set
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
