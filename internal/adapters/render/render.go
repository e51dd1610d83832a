// Package render fetches server-rendered documents over HTTP.
package render

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout  = 60 * time.Second
	defaultMaxBytes = 8 << 20
	defaultAgent    = "lobbyrisk/1.0"
)

// Option applies a configuration option to the Renderer.
type Option func(*Renderer)

// WithTimeout bounds each Render call, including the wait for a rate token.
func WithTimeout(d time.Duration) Option {
	return func(r *Renderer) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(r *Renderer) {
		if ua != "" {
			r.userAgent = ua
		}
	}
}

// WithRateLimit throttles outbound requests to perSecond with the given burst.
// A non-positive rate disables throttling.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(r *Renderer) {
		if perSecond <= 0 {
			r.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Renderer) {
		if c != nil {
			r.client = c
		}
	}
}

// WithMaxBytes caps the accepted document size.
func WithMaxBytes(n int64) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.maxBytes = n
		}
	}
}

// Renderer issues GET requests and returns the response body.
// It is safe for concurrent use.
type Renderer struct {
	client    *http.Client
	limiter   *rate.Limiter
	timeout   time.Duration
	userAgent string
	maxBytes  int64
}

// New creates a Renderer with a 60 second timeout and no throttling.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		client:    &http.Client{},
		timeout:   defaultTimeout,
		userAgent: defaultAgent,
		maxBytes:  defaultMaxBytes,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Render fetches url. A timeout surfaces as an error wrapping context.DeadlineExceeded.
func (r *Renderer) Render(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("rate limit wait: %w", ctx.Err())
			}
			// The limiter refuses waits that would outlast the deadline.
			return nil, fmt.Errorf("rate limit wait: %w: %w", context.DeadlineExceeded, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, r.maxBytes))
		return nil, fmt.Errorf("%w: %s returned %d", ErrStatus, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(body)) > r.maxBytes {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, url)
	}
	return body, nil
}
