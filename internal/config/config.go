// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file and LOBBYRISK_* env vars.
// - Validation failures wrap ErrInvalidConfig; loader failures wrap ErrLoadConfig.
package config

import (
	"fmt"
	"time"
)

// Cache backend names accepted by CacheBackend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address, e.g. ":3000".
	Addr string `koanf:"addr"`

	// PoolSize is the number of concurrent fetch-and-score pipelines (K).
	PoolSize int `koanf:"pool_size"`
	// QueueSize bounds how many tasks may wait for a free slot before Submit blocks.
	QueueSize int `koanf:"queue_size"`
	// RenderTimeoutMS bounds each document fetch.
	RenderTimeoutMS int `koanf:"render_timeout_ms"`
	// BatchTimeoutMS bounds how long a request waits for stragglers; 0 waits for all.
	BatchTimeoutMS int `koanf:"batch_timeout_ms"`
	// MaxBatchSize caps identities per request; 0 means unlimited.
	MaxBatchSize int `koanf:"max_batch_size"`

	// CacheBackend selects the snapshot store: memory, redis or badger.
	CacheBackend string `koanf:"cache_backend"`
	// RedisURL is a redis:// URL used by the redis backend.
	RedisURL string `koanf:"redis_url"`
	// BadgerPath is the directory used by the badger backend.
	BadgerPath string `koanf:"badger_path"`
	// CacheTTLSeconds is the snapshot retention window.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`
	// CacheKeyPrefix is prepended to every identity key.
	CacheKeyPrefix string `koanf:"cache_key_prefix"`

	// ProfileBaseURL is the root under which /{identity}/ and /{identity}/allcomments live.
	ProfileBaseURL string `koanf:"profile_base_url"`
	// UserAgent is sent on every outbound fetch.
	UserAgent string `koanf:"user_agent"`
	// RenderRatePerSec throttles outbound fetches; 0 disables throttling.
	RenderRatePerSec float64 `koanf:"render_rate_per_sec"`
	// RenderBurst is the token bucket size when throttling is enabled.
	RenderBurst int `koanf:"render_burst"`

	// ReferenceGameID names the title whose playtime feeds the scorer.
	ReferenceGameID string `koanf:"reference_game_id"`
	// SuspiciousTerms flag a profile when any comment contains one of them.
	SuspiciousTerms []string `koanf:"suspicious_terms"`
	// BanMarkers mark a profile as VAC banned when found in its ban status text.
	BanMarkers []string `koanf:"ban_markers"`

	// CORSAllowedOrigins lists origins allowed by the CORS middleware.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":3000",
		PoolSize:         5,
		QueueSize:        1_000,
		RenderTimeoutMS:  60_000,
		BatchTimeoutMS:   0,
		MaxBatchSize:     0,
		CacheBackend:     BackendMemory,
		CacheTTLSeconds:  604_800,
		ProfileBaseURL:   "https://steamcommunity.com/profiles",
		UserAgent:        "lobbyrisk/1.0",
		RenderRatePerSec: 0,
		RenderBurst:      5,
		ReferenceGameID:  "730",
		SuspiciousTerms:  []string{"cheater", "wall", "xitado", "xiter", "denúncia"},
		BanMarkers:       []string{"VAC ban", "banimento VAC"},
		CORSAllowedOrigins: []string{
			"*",
		},
	}
}

// RenderTimeout returns RenderTimeoutMS as a duration.
func (c *Config) RenderTimeout() time.Duration {
	return time.Duration(c.RenderTimeoutMS) * time.Millisecond
}

// BatchTimeout returns BatchTimeoutMS as a duration.
func (c *Config) BatchTimeout() time.Duration {
	return time.Duration(c.BatchTimeoutMS) * time.Millisecond
}

// CacheTTL returns CacheTTLSeconds as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.PoolSize < 1:
		return fmt.Errorf("%w: pool_size must be at least 1", ErrInvalidConfig)
	case c.RenderTimeoutMS < 1:
		return fmt.Errorf("%w: render_timeout_ms must be positive", ErrInvalidConfig)
	case c.CacheTTLSeconds < 1:
		return fmt.Errorf("%w: cache_ttl_seconds must be positive", ErrInvalidConfig)
	case c.ProfileBaseURL == "":
		return fmt.Errorf("%w: profile_base_url must not be empty", ErrInvalidConfig)
	}

	switch c.CacheBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%w: redis_url is required for the redis backend", ErrInvalidConfig)
		}
	case BackendBadger:
		if c.BadgerPath == "" {
			return fmt.Errorf("%w: badger_path is required for the badger backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown cache_backend %q", ErrInvalidConfig, c.CacheBackend)
	}
	return nil
}
