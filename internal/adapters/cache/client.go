package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/lobbyrisk/internal/domain/model"
	"github.com/okian/lobbyrisk/pkg/logger"
	"github.com/okian/lobbyrisk/pkg/metrics"
)

// DefaultTTL is the snapshot retention window.
const DefaultTTL = 7 * 24 * time.Hour

// Client reads and writes profile snapshots on top of a Store.
type Client struct {
	store   Store
	ttl     time.Duration
	prefix  string
	backend string
	logger  logger.Logger
}

// NewClient creates a Client over store.
func NewClient(store Store, opts ...Option) *Client {
	c := &Client{
		store:   store,
		ttl:     DefaultTTL,
		backend: "custom",
		logger:  logger.Get().Named("cache"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Backend names the underlying store.
func (c *Client) Backend() string { return c.backend }

// TTL returns the retention window applied on Set.
func (c *Client) TTL() time.Duration { return c.ttl }

// BatchGet returns the cached risk score of every identity with a live entry.
// Store failures and undecodable entries are logged and treated as misses.
func (c *Client) BatchGet(ctx context.Context, ids []model.Identity) map[model.Identity]float64 {
	hits := make(map[model.Identity]float64, len(ids))
	if len(ids) == 0 {
		return hits
	}

	raw := c.fetch(ctx, ids)
	for id, value := range raw {
		score, err := decodeScore(value)
		if err != nil {
			c.degradedRead(ctx, id, err)
			continue
		}
		hits[id] = score
	}

	metrics.RecordCacheHits(len(hits))
	metrics.RecordCacheMisses(len(ids) - len(hits))
	return hits
}

// fetch returns the raw values found for ids, keyed by identity.
func (c *Client) fetch(ctx context.Context, ids []model.Identity) map[model.Identity][]byte {
	out := make(map[model.Identity][]byte, len(ids))

	if multi, ok := c.store.(MultiGetter); ok {
		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = c.key(id)
		}
		values, err := multi.GetMany(ctx, keys)
		if err != nil {
			c.degradedRead(ctx, "", err)
			return out
		}
		for i, id := range ids {
			if v, ok := values[keys[i]]; ok {
				out[id] = v
			}
		}
		return out
	}

	for _, id := range ids {
		v, found, err := c.store.Get(ctx, c.key(id))
		if err != nil {
			c.degradedRead(ctx, id, err)
			continue
		}
		if found {
			out[id] = v
		}
	}
	return out
}

// Get returns the full cached snapshot for one identity.
func (c *Client) Get(ctx context.Context, id model.Identity) (model.ProfileSnapshot, bool, error) {
	v, found, err := c.store.Get(ctx, c.key(id))
	if err != nil {
		return model.ProfileSnapshot{}, false, fmt.Errorf("%w: %s: %w", ErrReadDegraded, id, err)
	}
	if !found {
		return model.ProfileSnapshot{}, false, nil
	}
	var snap model.ProfileSnapshot
	if err := json.Unmarshal(v, &snap); err != nil {
		return model.ProfileSnapshot{}, false, fmt.Errorf("%w: %s: %w", ErrReadDegraded, id, err)
	}
	return snap, true, nil
}

// Set stores snap under its identity, replacing any prior entry and resetting its expiry.
func (c *Client) Set(ctx context.Context, snap model.ProfileSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		metrics.RecordCacheWriteDegraded()
		return fmt.Errorf("%w: %s: %w", ErrWriteDegraded, snap.Identity, err)
	}
	if err := c.store.Set(ctx, c.key(snap.Identity), raw, c.ttl); err != nil {
		metrics.RecordCacheWriteDegraded()
		metrics.RecordErrorByComponent("cache", "write_degraded")
		return fmt.Errorf("%w: %s: %w", ErrWriteDegraded, snap.Identity, err)
	}
	metrics.RecordCacheWrite()
	return nil
}

// Close closes the underlying store.
func (c *Client) Close() error {
	return c.store.Close()
}

func (c *Client) key(id model.Identity) string {
	return c.prefix + id
}

func (c *Client) degradedRead(ctx context.Context, id model.Identity, err error) {
	metrics.RecordCacheReadDegraded()
	metrics.RecordErrorByComponent("cache", "read_degraded")
	c.logger.Warn(ctx, "cache read degraded, treating as miss",
		logger.String("backend", c.backend),
		logger.String("identity", id),
		logger.Error(fmt.Errorf("%w: %w", ErrReadDegraded, err)),
	)
}

var errNoScore = errors.New("entry has no riskScore")

// decodeScore extracts riskScore from a stored snapshot.
func decodeScore(raw []byte) (float64, error) {
	var rec struct {
		RiskScore *json.Number `json:"riskScore"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return 0, err
	}
	if rec.RiskScore == nil {
		return 0, errNoScore
	}
	return rec.RiskScore.Float64()
}
