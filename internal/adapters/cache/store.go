// Package cache stores scored profile snapshots with a retention window and
// serves cached scores back to the lobby orchestrator.
package cache

import (
	"context"
	"time"
)

// Store is a key-value store with per-entry expiry.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value stored under key. A missing or expired key is
	// reported as found == false with a nil error.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set stores value under key, replacing any prior entry and resetting its expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Close releases the store's resources.
	Close() error
}

// MultiGetter is implemented by stores that can fetch many keys in one round trip.
// Missing keys are absent from the returned map.
type MultiGetter interface {
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)
}
