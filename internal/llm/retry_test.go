package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	base := NewMockProvider()
	base.Responder = func(req Request) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("connection reset by peer")
		}
		return "ok", nil
	}
	p := WithRetry(base, RetryConfig{MaxAttempts: 5, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond})

	out, err := p.Generate(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	base := NewMockProvider()
	base.Responder = func(req Request) (string, error) {
		return "", errors.New("rate limit exceeded")
	}
	p := WithRetry(base, RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond})

	_, err := p.Generate(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.Len(t, base.Calls(), 2)
}

func TestWithRetryDoesNotRetryNonRetryable(t *testing.T) {
	attempts := 0
	base := NewMockProvider()
	base.Responder = func(req Request) (string, error) {
		attempts++
		return "", errors.New("invalid api key")
	}
	p := WithRetry(base, RetryConfig{MaxAttempts: 5, BaseDelay: time.Millisecond})

	_, err := p.Generate(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithRetryPropagatesCancellationImmediately(t *testing.T) {
	base := NewMockProvider()
	base.Responder = func(req Request) (string, error) {
		return "", context.Canceled
	}
	p := WithRetry(base, RetryConfig{MaxAttempts: 5, BaseDelay: time.Millisecond})

	_, err := p.Generate(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.Equal(t, 1, len(base.Calls()))
}
