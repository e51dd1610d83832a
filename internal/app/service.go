// Package service assembles the lobby risk engine from configuration and
// implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/lobbyrisk/internal/adapters/cache"
	"github.com/okian/lobbyrisk/internal/adapters/mq/queue"
	"github.com/okian/lobbyrisk/internal/adapters/mq/worker"
	"github.com/okian/lobbyrisk/internal/adapters/parse"
	"github.com/okian/lobbyrisk/internal/adapters/render"
	"github.com/okian/lobbyrisk/internal/config"
	"github.com/okian/lobbyrisk/internal/domain/lobby"
	"github.com/okian/lobbyrisk/internal/domain/model"
	"github.com/okian/lobbyrisk/internal/domain/profile"
	"github.com/okian/lobbyrisk/internal/domain/scoring"
	"github.com/okian/lobbyrisk/internal/domain/terms"
	"github.com/okian/lobbyrisk/internal/domain/types"
	"github.com/okian/lobbyrisk/pkg/logger"
	"github.com/okian/lobbyrisk/pkg/metrics"
)

// ErrNotStarted is returned by Resolve before Start or after Stop.
var ErrNotStarted = fmt.Errorf("service not started: %w", lobby.ErrUnavailable)

// Service implements the API dependencies for the lobby risk engine.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Injected collaborators; nil means build from cfg.
	store    cache.Store
	renderer profile.Renderer

	// Core components
	cache        *cache.Client
	queue        *queue.InMemoryQueue
	pool         *worker.Pool
	orchestrator *lobby.Orchestrator

	// State
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig replaces the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore uses store instead of opening the configured cache backend.
func WithStore(store cache.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithRenderer replaces the HTTP document renderer.
func WithRenderer(r profile.Renderer) Option {
	return func(s *Service) {
		s.renderer = r
	}
}

// New constructs a new Service. Components are built by Start.
func New(opts ...Option) *Service {
	s := &Service{cfg: config.New()}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the cache and launches the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	if err := s.cfg.Validate(); err != nil {
		return err
	}

	store := s.store
	if store == nil {
		opened, err := cache.Open(context.WithoutCancel(ctx), cache.Settings{
			Backend:    s.cfg.CacheBackend,
			RedisURL:   s.cfg.RedisURL,
			BadgerPath: s.cfg.BadgerPath,
		})
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		store = opened
	}

	s.cache = cache.NewClient(store,
		cache.WithTTL(s.cfg.CacheTTL()),
		cache.WithKeyPrefix(s.cfg.CacheKeyPrefix),
		cache.WithBackendName(s.cfg.CacheBackend),
	)

	renderer := s.renderer
	if renderer == nil {
		renderer = render.New(
			render.WithTimeout(s.cfg.RenderTimeout()),
			render.WithUserAgent(s.cfg.UserAgent),
			render.WithRateLimit(s.cfg.RenderRatePerSec, s.cfg.RenderBurst),
		)
	}

	pipeline := profile.NewPipeline(renderer, parse.New(), s.cache,
		profile.WithBaseURL(s.cfg.ProfileBaseURL),
		profile.WithBanMarkers(s.cfg.BanMarkers),
		profile.WithMatcher(terms.NewMatcher(s.cfg.SuspiciousTerms)),
		profile.WithScorer(scoring.New(scoring.WithReferenceGame(s.cfg.ReferenceGameID))),
	)

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.cfg.QueueSize))
	s.pool = worker.NewPool(s.cfg.PoolSize, s.queue, pipeline)
	// The pool outlives the start context; Stop ends it.
	s.pool.Start(context.WithoutCancel(ctx))

	s.orchestrator = lobby.NewOrchestrator(s.cache, s.pool,
		lobby.WithBatchTimeout(s.cfg.BatchTimeout()),
		lobby.WithMaxBatchSize(s.cfg.MaxBatchSize),
	)

	s.started = true
	s.startedAt = time.Now()
	metrics.UpdateQueueCapacity(s.queue.Cap())
	s.logger.Info(ctx, "lobby service started",
		logger.Int("pool_size", s.pool.Size()),
		logger.Int("queue_size", s.queue.Cap()),
		logger.String("cache_backend", s.cache.Backend()),
		logger.Duration("cache_ttl", s.cache.TTL()),
	)

	return nil
}

// Stop drains the pool and closes the cache. It is safe to call more than once.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping lobby service...")

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown pool: %w", err))
	}
	if err := s.cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close cache: %w", err))
	}

	s.started = false
	s.logger.Info(ctx, "lobby service stopped")
	return errors.Join(errs...)
}

// Resolve scores every identity in ids and aggregates the lobby risk.
func (s *Service) Resolve(ctx context.Context, ids []model.Identity) (model.LobbyResult, error) {
	s.mu.RLock()
	orchestrator := s.orchestrator
	started := s.started
	s.mu.RUnlock()

	if !started {
		return model.LobbyResult{}, ErrNotStarted
	}
	return orchestrator.Resolve(ctx, ids)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.Stats{
		PoolSize:     s.cfg.PoolSize,
		CacheBackend: s.cfg.CacheBackend,
	}
	if !s.started {
		return stats
	}

	stats.ActiveTasks = s.pool.Active()
	stats.QueueLength = s.pool.QueueLen(context.Background())
	stats.QueueCapacity = s.pool.QueueCap()
	stats.UptimeSeconds = int64(time.Since(s.startedAt).Seconds())

	metrics.UpdatePoolActive(int(stats.ActiveTasks))
	return stats
}
