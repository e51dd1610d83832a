// Package profile runs the per-identity fetch, parse and score pipeline.
package profile

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/lobbyrisk/internal/domain/model"
	"github.com/okian/lobbyrisk/internal/domain/scoring"
	"github.com/okian/lobbyrisk/internal/domain/terms"
	"github.com/okian/lobbyrisk/pkg/logger"
	"github.com/okian/lobbyrisk/pkg/metrics"
)

const (
	tracerName       = "github.com/okian/lobbyrisk/internal/domain/profile"
	defaultBaseURL   = "https://steamcommunity.com/profiles"
	commentsPathLeaf = "allcomments"
)

// DefaultBanMarkers are searched for in the ban status text.
var DefaultBanMarkers = []string{"VAC ban", "banimento VAC"} //nolint:gochecknoglobals // default set

// Renderer fetches the document at a URL.
type Renderer interface {
	Render(ctx context.Context, url string) ([]byte, error)
}

// Parser extracts structured fields from rendered documents.
type Parser interface {
	ParseProfile(doc []byte) (model.ProfileDocument, error)
	ParseComments(doc []byte) ([]string, error)
}

// SnapshotWriter persists a scored snapshot.
type SnapshotWriter interface {
	Set(ctx context.Context, snap model.ProfileSnapshot) error
}

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithBaseURL sets the root under which profile pages live.
func WithBaseURL(base string) Option {
	return func(p *Pipeline) {
		if base != "" {
			p.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithBanMarkers sets the substrings that identify a VAC ban.
func WithBanMarkers(markers []string) Option {
	return func(p *Pipeline) {
		var folded []string
		for _, m := range markers {
			if f := terms.Fold(strings.TrimSpace(m)); f != "" {
				folded = append(folded, f)
			}
		}
		if len(folded) > 0 {
			p.banMarkers = folded
		}
	}
}

// WithMatcher sets the suspicious-term matcher used on comments.
func WithMatcher(m *terms.Matcher) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.matcher = m
		}
	}
}

// WithScorer sets the scorer that builds snapshots.
func WithScorer(s *scoring.Scorer) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.scorer = s
		}
	}
}

// WithLogger sets a custom logger for the pipeline.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// Pipeline resolves one identity into a risk score: it renders and parses the
// profile page, reads the comment feed for public profiles, scores the result
// and writes the snapshot to the cache.
type Pipeline struct {
	renderer   Renderer
	parser     Parser
	cache      SnapshotWriter
	scorer     *scoring.Scorer
	matcher    *terms.Matcher
	baseURL    string
	banMarkers []string
	logger     logger.Logger
	tracer     trace.Tracer
}

// NewPipeline creates a Pipeline with default scorer, matcher and ban markers.
func NewPipeline(renderer Renderer, parser Parser, cache SnapshotWriter, opts ...Option) *Pipeline {
	p := &Pipeline{
		renderer: renderer,
		parser:   parser,
		cache:    cache,
		scorer:   scoring.New(),
		matcher:  terms.NewMatcher(nil),
		baseURL:  defaultBaseURL,
		logger:   logger.Get().Named("profile"),
		tracer:   otel.Tracer(tracerName),
	}
	WithBanMarkers(DefaultBanMarkers)(p)

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run resolves id and returns its risk score.
func (p *Pipeline) Run(ctx context.Context, id model.Identity) (float64, error) {
	ctx, span := p.tracer.Start(ctx, "profile.resolve", trace.WithAttributes(attribute.String("profile.identity", id)))
	defer span.End()

	snap, err := p.resolve(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	if err := p.cache.Set(ctx, snap); err != nil {
		p.logger.Warn(ctx, "snapshot not cached",
			logger.String("identity", id),
			logger.Error(err),
		)
	}

	metrics.RecordProfileRisk(snap.RiskScore)
	span.SetAttributes(
		attribute.Bool("profile.private", snap.IsPrivate),
		attribute.Float64("profile.risk", snap.RiskScore),
	)
	return snap.RiskScore, nil
}

func (p *Pipeline) resolve(ctx context.Context, id model.Identity) (model.ProfileSnapshot, error) {
	page, err := p.render(ctx, p.profileURL(id, ""))
	if err != nil {
		return model.ProfileSnapshot{}, err
	}

	doc, err := p.parser.ParseProfile(page)
	if err != nil {
		return model.ProfileSnapshot{}, fmt.Errorf("%w: profile page of %s: %w", ErrParse, id, err)
	}

	if doc.IsPrivate || len(doc.RecentGames) == 0 {
		return p.scorer.Private(id), nil
	}

	feed, err := p.render(ctx, p.profileURL(id, commentsPathLeaf))
	if err != nil {
		return model.ProfileSnapshot{}, err
	}

	comments, err := p.parser.ParseComments(feed)
	if err != nil {
		return model.ProfileSnapshot{}, fmt.Errorf("%w: comments of %s: %w", ErrParse, id, err)
	}

	return p.scorer.Public(id, doc, p.banned(doc.BanStatus), p.matcher.Any(comments)), nil
}

func (p *Pipeline) render(ctx context.Context, target string) ([]byte, error) {
	start := time.Now()
	body, err := p.renderer.Render(ctx, target)
	metrics.RecordRenderLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s: %w", ErrFetchTimeout, target, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, target, err)
	}
	return body, nil
}

func (p *Pipeline) banned(status string) bool {
	folded := terms.Fold(status)
	for _, m := range p.banMarkers {
		if strings.Contains(folded, m) {
			return true
		}
	}
	return false
}

func (p *Pipeline) profileURL(id model.Identity, leaf string) string {
	return p.baseURL + "/" + url.PathEscape(id) + "/" + leaf
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
