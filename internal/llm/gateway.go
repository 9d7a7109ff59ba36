package llm

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/claimsift/claimsift/internal/cache"
	"github.com/claimsift/claimsift/internal/worker"
	"github.com/m-mizutani/goerr/v2"
)

const (
	defaultMaxAttempts = 5

	// Exponential backoff bounds, per attempt: 1s * 2^n clamped to [4s, 20s].
	backoffBase = 1 * time.Second
	backoffMin  = 4 * time.Second
	backoffMax  = 20 * time.Second

	// Quota errors back off much harder than generic transient failures.
	rateLimitMultiplier = 10
)

// Gateway is the single entry point for LLM calls. It acquires a governor
// slot for every outbound attempt, retries transient failures with
// exponential backoff, fails fast on fatal error classes, optionally caches
// responses, and counts calls for budget reporting.
type Gateway struct {
	provider    Provider
	governor    *worker.Governor
	cache       cache.Cache
	cacheTTL    time.Duration
	maxAttempts int
	logger      *slog.Logger
	calls       atomic.Int64

	sleep func(ctx context.Context, d time.Duration) error
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithCache enables response caching with the given TTL.
func WithCache(c cache.Cache, ttl time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.cache = c
		g.cacheTTL = ttl
	}
}

// WithMaxAttempts overrides the retry ceiling.
func WithMaxAttempts(n int) GatewayOption {
	return func(g *Gateway) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		g.logger = l
	}
}

// NewGateway creates a gateway over the given provider, governed by gov.
func NewGateway(provider Provider, gov *worker.Governor, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		provider:    provider,
		governor:    gov,
		maxAttempts: defaultMaxAttempts,
		logger:      slog.Default(),
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CallCount reports how many provider calls (attempts included) this
// gateway has issued.
func (g *Gateway) CallCount() int64 {
	return g.calls.Load()
}

// Complete sends the conversation to the provider and returns its text.
// Transient failures are retried with exponential backoff; rate-limit
// failures back off 10x harder; fatal classes (auth, context length) fail
// immediately. On retry exhaustion the last error is returned; callers
// treat any error as "no response" and degrade, they never crash on it.
func (g *Gateway) Complete(ctx context.Context, messages []Message, temperature float64) (string, error) {
	key := g.cacheKey(messages, temperature)
	if g.cache != nil {
		if cached, ok := g.cache.Get(key); ok {
			g.logger.Debug("llm cache hit", "provider", g.provider.Name())
			return string(cached), nil
		}
	}

	var lastErr error
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if err := g.governorAcquire(ctx); err != nil {
			return "", goerr.Wrap(err, "governor acquire")
		}

		g.calls.Add(1)
		g.logger.Debug("llm call",
			"provider", g.provider.Name(),
			"attempt", attempt+1,
			"max_attempts", g.maxAttempts,
			"messages", len(messages))

		text, err := g.provider.Complete(ctx, messages, temperature)
		g.governorRelease()

		if err == nil {
			if g.cache != nil {
				_ = g.cache.Set(key, []byte(text), g.cacheTTL)
			}
			return text, nil
		}

		lastErr = err
		if IsFatal(err) {
			g.logger.Warn("llm call failed with non-retryable error",
				"provider", g.provider.Name(), "attempt", attempt+1, "error", err)
			return "", err
		}

		delay := backoffDelay(attempt)
		if IsRateLimit(err) {
			delay *= rateLimitMultiplier
		}
		g.logger.Warn("llm call failed, backing off",
			"provider", g.provider.Name(),
			"attempt", attempt+1,
			"backoff", delay,
			"rate_limited", IsRateLimit(err),
			"error", err)

		if attempt < g.maxAttempts-1 {
			if err := g.sleep(ctx, delay); err != nil {
				return "", goerr.Wrap(err, "backoff interrupted")
			}
		}
	}

	return "", goerr.Wrap(lastErr, "retries exhausted", goerr.V("attempts", g.maxAttempts))
}

func (g *Gateway) governorAcquire(ctx context.Context) error {
	if g.governor == nil {
		return nil
	}
	return g.governor.Acquire(ctx)
}

func (g *Gateway) governorRelease() {
	if g.governor != nil {
		g.governor.Release()
	}
}

func (g *Gateway) cacheKey(messages []Message, temperature float64) string {
	parts := make([]string, 0, len(messages)+2)
	parts = append(parts, g.provider.Name(), fmt.Sprintf("%.3f", temperature))
	for _, m := range messages {
		parts = append(parts, m.Role, m.Content)
	}
	return cache.Key(parts...)
}

func backoffDelay(attempt int) time.Duration {
	d := backoffBase << attempt
	if d < backoffMin {
		d = backoffMin
	}
	if d > backoffMax {
		d = backoffMax
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
