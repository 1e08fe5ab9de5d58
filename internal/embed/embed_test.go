package embed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProviderDeterministic(t *testing.T) {
	p := NewMockProvider(16)
	a, err := p.Embed(context.Background(), []string{"hello", "world"})
	require.NoError(t, err)
	b, err := p.Embed(context.Background(), []string{"hello", "world"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a[0], a[1])
	assert.Len(t, a[0], 16)
}

func TestMockProviderEmbedError(t *testing.T) {
	p := NewMockProvider(4)
	p.SetEmbedError(errors.New("boom"))
	_, err := p.Embed(context.Background(), []string{"x"})
	assert.Error(t, err)
}

func TestBatchedEmbedWithProgress(t *testing.T) {
	p := NewMockProvider(4)
	b := &Batched{Provider: p, BatchSize: 2}

	var reports []Progress
	texts := []string{"a", "b", "c", "d", "e"}
	out, err := b.EmbedWithProgress(context.Background(), texts, func(pr Progress) {
		reports = append(reports, pr)
	})
	require.NoError(t, err)
	require.Len(t, out, 5)
	for _, v := range out {
		assert.Len(t, v, 4)
	}
	require.Len(t, reports, 3) // batches of 2,2,1
	assert.Equal(t, 5, reports[len(reports)-1].ProcessedChunks)
}

func TestBatchedEmbedPartialFailureIsolated(t *testing.T) {
	p := NewMockProvider(4)
	b := &Batched{Provider: p, BatchSize: 1}

	texts := []string{"ok1", "fail", "ok2"}
	callCount := 0
	failing := providerFunc{embed: func(ctx context.Context, ts []string) ([][]float32, error) {
		callCount++
		if ts[0] == "fail" {
			return nil, errors.New("embedding boom")
		}
		return p.Embed(ctx, ts)
	}}
	b.Provider = failing

	out, err := b.EmbedWithProgress(context.Background(), texts, nil)
	require.Error(t, err)
	require.Len(t, out, 3)
	assert.NotNil(t, out[0])
	assert.Nil(t, out[1])
	assert.NotNil(t, out[2])
	assert.Equal(t, 3, callCount)
}

// providerFunc adapts a function to Provider for narrow test scenarios.
type providerFunc struct {
	embed func(ctx context.Context, texts []string) ([][]float32, error)
}

func (f providerFunc) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return f.embed(ctx, texts)
}
func (f providerFunc) Dimensions() int { return 4 }
func (f providerFunc) Name() string    { return "test" }
func (f providerFunc) Close() error    { return nil }
