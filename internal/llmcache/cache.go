// Package llmcache wraps an llm.Provider with two layers of caching: an
// exact-key cache for byte-identical repeat prompts, and an
// embedding-similarity fallback for near-duplicate prompts that would
// otherwise miss the exact-key lookup and re-pay a full generation call.
package llmcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/maypok86/otter"
	"github.com/philippgille/chromem-go"

	"github.com/deepwiki-go/deepwiki/internal/embed"
	"github.com/deepwiki-go/deepwiki/internal/llm"
)

// Config bounds cache behavior; mirrors the `llm_cache:` section of the
// on-disk config.
type Config struct {
	Enabled                  bool
	TTL                      time.Duration
	MaxEntries               int
	SimilarityThreshold      float64 // cosine similarity, (0,1]; zero or less selects 0.97
	MaxCacheableTemperature  float64
}

func (c Config) withDefaults() Config {
	if c.MaxEntries <= 0 {
		c.MaxEntries = 10_000
	}
	if c.TTL <= 0 {
		c.TTL = 24 * time.Hour
	}
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = 0.97
	}
	if c.MaxCacheableTemperature <= 0 {
		c.MaxCacheableTemperature = 0.3
	}
	return c
}

type cachedEntry struct {
	response    string
	temperature float64
	maxTokens   int
}

// Cache wraps an llm.Provider and an embed.Provider to answer repeat and
// near-duplicate prompts without a new generation call.
type Cache struct {
	inner    llm.Provider
	embedder embed.Provider
	cfg      Config

	exact otter.Cache[string, cachedEntry]

	mu         sync.Mutex
	db         *chromem.DB
	collection *chromem.Collection
	seq        int
}

// New constructs a Cache. embedder may be nil only when cfg.Enabled is
// false, since the similarity fallback requires an embedding provider.
func New(inner llm.Provider, embedder embed.Provider, cfg Config) (*Cache, error) {
	cfg = cfg.withDefaults()
	exact, err := otter.MustBuilder[string, cachedEntry](cfg.MaxEntries).
		WithTTL(cfg.TTL).
		CollectStats().
		Build()
	if err != nil {
		return nil, fmt.Errorf("build exact-key cache: %w", err)
	}

	c := &Cache{inner: inner, embedder: embedder, cfg: cfg, exact: exact}
	if cfg.Enabled && embedder != nil {
		c.db = chromem.NewDB()
		collection, err := c.db.CreateCollection("llm-responses", nil, nil)
		if err != nil {
			return nil, fmt.Errorf("create similarity collection: %w", err)
		}
		c.collection = collection
	}
	return c, nil
}

func exactKey(req llm.Request) string {
	sum := sha256.Sum256([]byte(req.System + "\x00" + req.Prompt))
	return fmt.Sprintf("%s:%.2f:%d", hex.EncodeToString(sum[:]), req.Temperature, req.MaxTokens)
}

func (c *Cache) cacheable(req llm.Request) bool {
	return c.cfg.Enabled && req.Temperature <= c.cfg.MaxCacheableTemperature
}

// Generate answers req from the exact-key cache, then the similarity
// fallback, then the wrapped provider, writing a fresh entry to both
// cache layers on a successful miss.
func (c *Cache) Generate(ctx context.Context, req llm.Request) (string, error) {
	if !c.cacheable(req) {
		return c.inner.Generate(ctx, req)
	}

	key := exactKey(req)
	if entry, ok := c.exact.Get(key); ok {
		return entry.response, nil
	}

	if hit, ok, err := c.similarityLookup(ctx, req); err != nil {
		return "", err
	} else if ok {
		c.exact.Set(key, cachedEntry{response: hit, temperature: req.Temperature, maxTokens: req.MaxTokens})
		return hit, nil
	}

	out, err := c.inner.Generate(ctx, req)
	if err != nil {
		return "", err
	}

	c.exact.Set(key, cachedEntry{response: out, temperature: req.Temperature, maxTokens: req.MaxTokens})
	c.storeSimilarity(ctx, req, out)
	return out, nil
}

// similarityLookup matches on embedding similarity of the prompt alone,
// gated on an exact match of system/temperature/max_tokens: the system
// prompt is the fixed per-call-site template (decomposition, gap
// analysis, synthesis, wiki page generation) and varies far less than the
// prompt body, so requiring it to match exactly before considering
// similarity keeps unrelated call sites from cross-contaminating the
// similarity cache.
func (c *Cache) similarityLookup(ctx context.Context, req llm.Request) (string, bool, error) {
	if c.collection == nil {
		return "", false, nil
	}
	vectors, err := c.embedder.Embed(ctx, []string{req.Prompt})
	if err != nil {
		return "", false, fmt.Errorf("embed prompt for similarity lookup: %w", err)
	}
	if len(vectors) == 0 {
		return "", false, nil
	}

	c.mu.Lock()
	collection := c.collection
	c.mu.Unlock()

	docs, err := collection.QueryEmbedding(ctx, vectors[0], 1, nil, nil)
	if err != nil || len(docs) == 0 {
		return "", false, nil
	}
	best := docs[0]
	if best.Similarity < float32(c.cfg.SimilarityThreshold) {
		return "", false, nil
	}
	if best.Metadata["system"] != req.System {
		return "", false, nil
	}
	storedTemp := best.Metadata["temperature"]
	storedTokens := best.Metadata["max_tokens"]
	if storedTemp != fmt.Sprintf("%.2f", req.Temperature) || storedTokens != fmt.Sprintf("%d", req.MaxTokens) {
		return "", false, nil
	}
	return best.Content, true, nil
}

func (c *Cache) storeSimilarity(ctx context.Context, req llm.Request, response string) {
	if c.collection == nil {
		return
	}
	vectors, err := c.embedder.Embed(ctx, []string{req.Prompt})
	if err != nil || len(vectors) == 0 {
		return
	}
	c.mu.Lock()
	c.seq++
	id := fmt.Sprintf("entry-%d", c.seq)
	c.mu.Unlock()

	_ = c.collection.AddDocument(ctx, chromem.Document{
		ID:        id,
		Content:   response,
		Embedding: vectors[0],
		Metadata: map[string]string{
			"system":      req.System,
			"temperature": fmt.Sprintf("%.2f", req.Temperature),
			"max_tokens":  fmt.Sprintf("%d", req.MaxTokens),
		},
	})
}

// GenerateStream passes through to the wrapped provider uncached: a
// streamed response cannot be replayed from a cache hit without buffering
// defeating the point of streaming.
func (c *Cache) GenerateStream(ctx context.Context, req llm.Request) (<-chan string, <-chan error) {
	return c.inner.GenerateStream(ctx, req)
}

// Name implements llm.Provider.
func (c *Cache) Name() string { return c.inner.Name() }

var _ llm.Provider = (*Cache)(nil)

// cosineSimilarity is unused by the chromem path (chromem computes its own)
// but is kept available for direct vector comparisons in tests.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
