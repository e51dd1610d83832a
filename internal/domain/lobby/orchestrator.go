package lobby

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/okian/lobbyrisk/internal/domain/model"
	"github.com/okian/lobbyrisk/pkg/logger"
	"github.com/okian/lobbyrisk/pkg/metrics"
)

const tracerName = "github.com/okian/lobbyrisk/internal/domain/lobby"

// Cache returns the cached score of every identity with a live entry.
// Read failures are misses; they are never returned.
type Cache interface {
	BatchGet(ctx context.Context, ids []model.Identity) map[model.Identity]float64
}

// Dispatcher schedules one fetch-and-score task and returns the channel on
// which its single result will arrive.
type Dispatcher interface {
	Submit(ctx context.Context, id model.Identity) (<-chan model.TaskResult, error)
}

// Option applies a configuration option to the Orchestrator.
type Option func(*Orchestrator)

// WithBatchTimeout bounds how long Resolve waits for outstanding tasks.
// Zero waits for all of them.
func WithBatchTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.batchTimeout = d
		}
	}
}

// WithMaxBatchSize rejects batches with more distinct identities than n. Zero is unlimited.
func WithMaxBatchSize(n int) Option {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.maxBatch = n
		}
	}
}

// WithLogger sets a custom logger for the orchestrator.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTracer overrides the tracer used for batch spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

// Orchestrator resolves batches of identities: cached scores are served
// directly, misses go through the dispatcher, and everything is folded
// with Aggregate.
type Orchestrator struct {
	cache        Cache
	pool         Dispatcher
	flights      singleflight.Group
	batchTimeout time.Duration
	maxBatch     int
	logger       logger.Logger
	tracer       trace.Tracer
}

// NewOrchestrator creates an Orchestrator over the given cache and dispatcher.
func NewOrchestrator(cache Cache, pool Dispatcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cache:  cache,
		pool:   pool,
		logger: logger.Get().Named("lobby"),
		tracer: otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

type outcome struct {
	id     model.Identity
	result model.TaskResult
}

// Resolve computes per-identity scores and the lobby risk for a batch.
func (o *Orchestrator) Resolve(ctx context.Context, ids []model.Identity) (model.LobbyResult, error) {
	start := time.Now()

	distinct, err := o.distinct(ids)
	if err != nil {
		return model.LobbyResult{}, err
	}

	batchID := uuid.NewString()
	log := o.logger.With(logger.String("batch", batchID))

	ctx, span := o.tracer.Start(ctx, "lobby.resolve", trace.WithAttributes(
		attribute.String("lobby.batch_id", batchID),
		attribute.Int("lobby.size", len(distinct)),
	))
	defer span.End()

	hits := o.cache.BatchGet(ctx, distinct)

	profiles := make(map[model.Identity]float64, len(distinct))
	misses := make([]model.Identity, 0, len(distinct))
	for _, id := range distinct {
		if score, ok := hits[id]; ok {
			profiles[id] = score
			continue
		}
		misses = append(misses, id)
	}
	span.SetAttributes(attribute.Int("lobby.cache_hits", len(profiles)), attribute.Int("lobby.dispatched", len(misses)))

	var failed []model.Identity
	if len(misses) > 0 {
		outcomes := o.dispatch(ctx, misses)
		unavailable := 0
		for _, out := range outcomes {
			switch {
			case out.result.Err == nil:
				profiles[out.id] = out.result.RiskScore
			case errors.Is(out.result.Err, ErrUnavailable):
				unavailable++
			default:
				failed = append(failed, out.id)
				log.Warn(ctx, "profile task failed", logger.String("identity", out.id), logger.Error(out.result.Err))
			}
		}
		if unavailable > 0 {
			span.SetStatus(codes.Error, "dispatcher unavailable")
			log.Error(ctx, "dispatcher rejected tasks", logger.Int("rejected", unavailable))
			return model.LobbyResult{}, fmt.Errorf("%w: %d tasks rejected", ErrUnavailable, unavailable)
		}
	}

	risk := AggregateMap(profiles)
	latency := time.Since(start)
	metrics.RecordLobbyResolved(len(distinct), risk, float64(latency.Milliseconds()))
	span.SetAttributes(attribute.Float64("lobby.risk", risk), attribute.Int("lobby.failed", len(failed)))
	log.Info(ctx, "lobby resolved",
		logger.Int("size", len(distinct)),
		logger.Int("cache_hits", len(distinct)-len(misses)),
		logger.Int("failed", len(failed)),
		logger.Float64("lobby_risk", risk),
		logger.Duration("latency", latency),
	)

	return model.LobbyResult{Profiles: profiles, LobbyRisk: risk, Failed: failed}, nil
}

// distinct validates the batch and drops repeated identities, keeping first-seen order.
func (o *Orchestrator) distinct(ids []model.Identity) ([]model.Identity, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no identities", ErrInvalidRequest)
	}

	seen := make(map[model.Identity]struct{}, len(ids))
	out := make([]model.Identity, 0, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("%w: blank identity", ErrInvalidRequest)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	if o.maxBatch > 0 && len(out) > o.maxBatch {
		return nil, fmt.Errorf("%w: %d identities exceeds limit %d", ErrInvalidRequest, len(out), o.maxBatch)
	}
	return out, nil
}

// dispatch submits every miss and waits for all of them, or until the batch
// deadline or ctx ends. Abandoned tasks keep running and still populate the cache.
func (o *Orchestrator) dispatch(ctx context.Context, misses []model.Identity) []outcome {
	waitCtx := ctx
	if o.batchTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, o.batchTimeout)
		defer cancel()
	}

	results := make(chan outcome, len(misses))
	for _, id := range misses {
		go func(id model.Identity) {
			flight := o.flights.DoChan(id, func() (any, error) {
				return o.run(context.WithoutCancel(ctx), id)
			})
			select {
			case res := <-flight:
				if res.Shared {
					metrics.RecordTaskCoalesced()
				}
				if res.Err != nil {
					results <- outcome{id: id, result: model.TaskResult{Identity: id, Err: res.Err}}
					return
				}
				results <- outcome{id: id, result: res.Val.(model.TaskResult)}
			case <-waitCtx.Done():
				results <- outcome{id: id, result: model.TaskResult{
					Identity: id,
					Err:      fmt.Errorf("%w: %w", ErrAbandoned, waitCtx.Err()),
				}}
			}
		}(id)
	}

	outcomes := make([]outcome, 0, len(misses))
	for range misses {
		outcomes = append(outcomes, <-results)
	}
	return outcomes
}

// run submits one task and blocks for its result. Task failures travel in
// TaskResult.Err; only dispatch failures are returned as errors.
func (o *Orchestrator) run(ctx context.Context, id model.Identity) (model.TaskResult, error) {
	reply, err := o.pool.Submit(ctx, id)
	if err != nil {
		return model.TaskResult{}, err
	}
	res, ok := <-reply
	if !ok {
		return model.TaskResult{}, fmt.Errorf("%w: reply channel closed", ErrUnavailable)
	}
	return res, nil
}
