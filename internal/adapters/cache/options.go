package cache

import (
	"time"

	"github.com/okian/lobbyrisk/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTTL sets how long snapshots are retained.
func WithTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithKeyPrefix prepends prefix to every identity key.
func WithKeyPrefix(prefix string) Option {
	return func(c *Client) {
		c.prefix = prefix
	}
}

// WithBackendName labels the client for logs and stats.
func WithBackendName(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.backend = name
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
