package llm

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
)

// RetryConfig bounds WithRetry's backoff.
type RetryConfig struct {
	MaxAttempts  int // including the first try; default 3
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	RateLimitMarkers []string // substrings that mark a provider error as a rate limit
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 500 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 20 * time.Second
	}
	if len(c.RateLimitMarkers) == 0 {
		c.RateLimitMarkers = []string{"rate limit", "too many requests", "429"}
	}
	return c
}

type retrying struct {
	inner Provider
	cfg   RetryConfig
}

// WithRetry wraps p so Generate retries on transient failures
// (network/timeout errors, provider-declared overload, and anything
// matching cfg.RateLimitMarkers) with exponential backoff and jitter.
// context.Canceled and anything else re-raise immediately.
// GenerateStream is not retried: once streaming has started, replaying a
// partially-delivered response to the caller would be incorrect.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &retrying{inner: p, cfg: cfg.withDefaults()}
}

func (r *retrying) Generate(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		out, err := r.inner.Generate(ctx, req)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isRetryable(err, r.cfg.RateLimitMarkers) {
			return "", err
		}
		if attempt == r.cfg.MaxAttempts {
			break
		}
		delay := backoff(attempt, r.cfg.BaseDelay, r.cfg.MaxDelay)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
	return "", deepwikierr.Join([]error{deepwikierr.ErrLLM, lastErr})
}

func (r *retrying) GenerateStream(ctx context.Context, req Request) (<-chan string, <-chan error) {
	return r.inner.GenerateStream(ctx, req)
}

func (r *retrying) Name() string { return r.inner.Name() }

func isRetryable(err error, markers []string) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && (netErr.Timeout() || netErr.Temporary()) {
		return true
	}
	lower := strings.ToLower(err.Error())
	for _, m := range markers {
		if strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return strings.Contains(lower, "timeout") || strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "overloaded") || strings.Contains(lower, "service unavailable")
}

func backoff(attempt int, base, max time.Duration) time.Duration {
	d := base * time.Duration(1<<uint(attempt-1))
	if d > max {
		d = max
	}
	jitter := time.Duration(rand.Int63n(int64(d)/2 + 1))
	return d + jitter
}
