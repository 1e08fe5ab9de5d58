package embed

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"sync"
)

// MockProvider generates deterministic embeddings from a text hash, for
// tests that need a Provider without a running daemon or network access.
type MockProvider struct {
	mu         sync.Mutex
	dims       int
	embedErr   error
	closeErr   error
	closeCalls int
}

// NewMockProvider constructs a MockProvider with the given vector width.
func NewMockProvider(dims int) *MockProvider {
	if dims <= 0 {
		dims = 384
	}
	return &MockProvider{dims: dims}
}

// SetEmbedError makes subsequent Embed calls fail with err.
func (p *MockProvider) SetEmbedError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.embedErr = err
}

// SetCloseError makes Close return err.
func (p *MockProvider) SetCloseError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeErr = err
}

// CloseCalls returns how many times Close has been invoked.
func (p *MockProvider) CloseCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeCalls
}

// Embed implements Provider, hashing each text into a fixed-width vector so
// identical input always produces an identical vector.
func (p *MockProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	err := p.embedErr
	dims := p.dims
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = hashEmbedding(text, dims)
	}
	return out, nil
}

// hashEmbedding derives a dims-wide vector from repeated re-hashing of
// text, so the same text always yields the same vector and different text
// (almost certainly) yields a different one.
func hashEmbedding(text string, dims int) []float32 {
	vec := make([]float32, dims)
	block := sha256.Sum256([]byte(text))
	for i := 0; i < dims; i++ {
		if i > 0 && i%len(block) == 0 {
			block = sha256.Sum256(block[:])
		}
		off := i % (len(block) - 3)
		v := binary.LittleEndian.Uint32(block[off : off+4])
		vec[i] = float32(v%2000)/1000.0 - 1.0
	}
	return vec
}

// Dimensions implements Provider.
func (p *MockProvider) Dimensions() int { return p.dims }

// Name implements Provider.
func (p *MockProvider) Name() string { return "mock" }

// Close implements Provider.
func (p *MockProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeCalls++
	return p.closeErr
}
