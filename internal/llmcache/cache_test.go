package llmcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepwiki-go/deepwiki/internal/embed"
	"github.com/deepwiki-go/deepwiki/internal/llm"
)

func TestCacheExactKeyHit(t *testing.T) {
	base := llm.NewMockProvider()
	calls := 0
	base.Responder = func(req llm.Request) (string, error) {
		calls++
		return "answer", nil
	}
	c, err := New(base, embed.NewMockProvider(8), Config{Enabled: true, TTL: time.Minute})
	require.NoError(t, err)

	req := llm.Request{Prompt: "what is x", Temperature: 0.1}
	out1, err := c.Generate(context.Background(), req)
	require.NoError(t, err)
	out2, err := c.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "answer", out1)
	assert.Equal(t, out1, out2)
	assert.Equal(t, 1, calls, "second identical request should hit the exact-key cache")
}

func TestCacheBypassedAboveMaxTemperature(t *testing.T) {
	base := llm.NewMockProvider()
	calls := 0
	base.Responder = func(req llm.Request) (string, error) {
		calls++
		return "answer", nil
	}
	c, err := New(base, embed.NewMockProvider(8), Config{Enabled: true, MaxCacheableTemperature: 0.3})
	require.NoError(t, err)

	req := llm.Request{Prompt: "creative", Temperature: 0.9}
	_, err = c.Generate(context.Background(), req)
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, calls, "high-temperature requests must bypass both cache layers")
}

func TestCacheSimilarityFallback(t *testing.T) {
	base := llm.NewMockProvider()
	calls := 0
	base.Responder = func(req llm.Request) (string, error) {
		calls++
		return "cached-answer", nil
	}
	c, err := New(base, embed.NewMockProvider(8), Config{Enabled: true, SimilarityThreshold: 0.0, TTL: time.Minute})
	require.NoError(t, err)

	first := llm.Request{Prompt: "explain the indexer", Temperature: 0.1, MaxTokens: 100}
	_, err = c.Generate(context.Background(), first)
	require.NoError(t, err)

	// Different prompt text, same temperature/max_tokens: exact-key misses,
	// but with threshold 0.0 any stored embedding counts as similar enough.
	second := llm.Request{Prompt: "a totally different prompt", Temperature: 0.1, MaxTokens: 100}
	out, err := c.Generate(context.Background(), second)
	require.NoError(t, err)

	assert.Equal(t, "cached-answer", out)
	assert.Equal(t, 1, calls, "similarity fallback should avoid a second generation call")
}

func TestCacheSimilarityRequiresExactSystemMatch(t *testing.T) {
	base := llm.NewMockProvider()
	calls := 0
	base.Responder = func(req llm.Request) (string, error) {
		calls++
		return "answer", nil
	}
	c, err := New(base, embed.NewMockProvider(8), Config{Enabled: true, SimilarityThreshold: 0.0, TTL: time.Minute})
	require.NoError(t, err)

	first := llm.Request{System: "decomposition prompt", Prompt: "explain the indexer", Temperature: 0.1, MaxTokens: 100}
	_, err = c.Generate(context.Background(), first)
	require.NoError(t, err)

	// Same prompt body, different system prompt: even a perfect embedding
	// match must not cross-contaminate a different call site's cache.
	second := llm.Request{System: "gap analysis prompt", Prompt: "explain the indexer", Temperature: 0.1, MaxTokens: 100}
	_, err = c.Generate(context.Background(), second)
	require.NoError(t, err)

	assert.Equal(t, 2, calls, "a different system prompt must bypass the similarity cache")
}
