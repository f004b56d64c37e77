package embedding

import (
	"context"
	"sync"
	"time"
)

// RateLimitConfig bounds calls against hosted embedding APIs. Ingestion runs
// embed thousands of chunks back to back; hosted tiers throttle well below
// that.
type RateLimitConfig struct {
	// RequestsPerMinute limits API calls per minute (0 = unlimited).
	RequestsPerMinute int
	// BurstSize allows a temporary burst above the steady rate.
	BurstSize int
}

// DefaultRateLimitConfig returns conservative defaults for hosted APIs.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerMinute: 60,
		BurstSize:         5,
	}
}

// RateLimitProvider wraps a Provider with a token-bucket request limiter.
type RateLimitProvider struct {
	inner  Provider
	config *RateLimitConfig

	mu            sync.Mutex
	requestTokens int
	lastRefill    time.Time
}

// NewRateLimitProvider creates a rate-limited provider wrapper.
func NewRateLimitProvider(inner Provider, config *RateLimitConfig) *RateLimitProvider {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	burst := config.BurstSize
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitProvider{
		inner:         inner,
		config:        config,
		requestTokens: burst,
		lastRefill:    time.Now(),
	}
}

func (r *RateLimitProvider) Name() string   { return r.inner.Name() }
func (r *RateLimitProvider) Dimension() int { return r.inner.Dimension() }

func (r *RateLimitProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.waitForCapacity(ctx); err != nil {
		return nil, err
	}
	return r.inner.EmbedDocuments(ctx, texts)
}

func (r *RateLimitProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := r.waitForCapacity(ctx); err != nil {
		return nil, err
	}
	return r.inner.EmbedQuery(ctx, text)
}

// waitForCapacity blocks until the bucket grants a request token.
func (r *RateLimitProvider) waitForCapacity(ctx context.Context) error {
	for {
		r.mu.Lock()
		r.refill()

		if r.config.RequestsPerMinute == 0 {
			r.mu.Unlock()
			return nil
		}
		if r.requestTokens > 0 {
			r.requestTokens--
			r.mu.Unlock()
			return nil
		}

		perToken := time.Minute / time.Duration(r.config.RequestsPerMinute)
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(perToken):
		}
	}
}

func (r *RateLimitProvider) refill() {
	if r.config.RequestsPerMinute <= 0 {
		return
	}
	now := time.Now()
	add := int(now.Sub(r.lastRefill).Minutes() * float64(r.config.RequestsPerMinute))
	if add <= 0 {
		return
	}
	r.requestTokens += add
	burst := r.config.BurstSize
	if burst <= 0 {
		burst = 1
	}
	if r.requestTokens > burst {
		r.requestTokens = burst
	}
	r.lastRefill = now
}

// WithRateLimit wraps a provider with rate limiting.
func WithRateLimit(p Provider, config *RateLimitConfig) Provider {
	if p == nil {
		return nil
	}
	return NewRateLimitProvider(p, config)
}

var _ Provider = (*RateLimitProvider)(nil)
