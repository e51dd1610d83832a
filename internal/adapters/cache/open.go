package cache

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// Settings selects and locates a backend.
type Settings struct {
	Backend    string
	RedisURL   string
	BadgerPath string
}

// Open creates the Store named by s.Backend.
func Open(ctx context.Context, s Settings) (Store, error) {
	switch s.Backend {
	case BackendMemory, "":
		return NewMemoryStore(ctx), nil
	case BackendRedis:
		return NewRedisStore(ctx, s.RedisURL)
	case BackendBadger:
		return OpenBadger(ctx, s.BadgerPath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, s.Backend)
	}
}
