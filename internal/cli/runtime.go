package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/deepwiki-go/deepwiki/internal/config"
	"github.com/deepwiki-go/deepwiki/internal/embed"
	"github.com/deepwiki-go/deepwiki/internal/indexer"
	"github.com/deepwiki-go/deepwiki/internal/llm"
	"github.com/deepwiki-go/deepwiki/internal/llmcache"
	"github.com/deepwiki-go/deepwiki/internal/parser"
	"github.com/deepwiki-go/deepwiki/internal/research"
	"github.com/deepwiki-go/deepwiki/internal/vectorstore"
	"github.com/deepwiki-go/deepwiki/internal/wiki"
)

// runtime bundles one repository's wired components for a single CLI
// invocation. Unlike internal/facade's Registry, it is built fresh per
// command and closed when the command returns; the CLI is a one-shot
// process, not a long-lived server caching multiple repositories.
type runtime struct {
	root     string
	cfg      *config.Config
	store    vectorstore.Store
	embedder embed.Provider
	llm      llm.Provider
	indexer  *indexer.Indexer
	wiki     *wiki.Generator
	research *research.Pipeline
}

func newRuntime(ctx context.Context, root string) (*runtime, error) {
	cfg, err := config.LoadFromDir(root)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	embedder, err := embed.New(ctx, embeddingConfig(cfg.Embedding))
	if err != nil {
		return nil, fmt.Errorf("starting embedding provider: %w", err)
	}

	llmProvider, err := llm.New(llmConfig(cfg.LLM))
	if err != nil {
		embedder.Close()
		return nil, fmt.Errorf("building llm provider: %w", err)
	}

	cached, err := llmcache.New(llmProvider, embedder, llmcache.Config{
		Enabled:                 cfg.LLMCache.Enabled,
		TTL:                     time.Duration(cfg.LLMCache.TTLSeconds) * time.Second,
		MaxEntries:              cfg.LLMCache.MaxEntries,
		SimilarityThreshold:     cfg.LLMCache.SimilarityThreshold,
		MaxCacheableTemperature: cfg.LLMCache.MaxCacheableTemperature,
	})
	if err != nil {
		embedder.Close()
		return nil, fmt.Errorf("building llm cache: %w", err)
	}

	storePath := filepath.Join(root, ".deepwiki", "vectors.lance", "chunks.db")
	if err := os.MkdirAll(filepath.Dir(storePath), 0o755); err != nil {
		embedder.Close()
		return nil, fmt.Errorf("creating .deepwiki directory: %w", err)
	}
	store, err := vectorstore.Open(storePath, embedder.Dimensions())
	if err != nil {
		embedder.Close()
		return nil, fmt.Errorf("opening vector store: %w", err)
	}

	p := parser.New(cfg.Parsing.MaxFileSize)

	return &runtime{
		root:     root,
		cfg:      cfg,
		store:    store,
		embedder: embedder,
		llm:      cached,
		indexer:  indexer.New(p, embedder, store),
		wiki:     wiki.New(store, embedder, cached, cfg.Wiki),
		research: research.New(cached, embedder, store),
	}, nil
}

func (rt *runtime) Close() {
	rt.store.Close()   //nolint:errcheck
	rt.embedder.Close() //nolint:errcheck
}

func embeddingConfig(cfg config.EmbeddingConfig) embed.Config {
	dims := 768
	switch cfg.Model {
	case "text-embedding-3-large":
		dims = 3072
	case "text-embedding-3-small", "text-embedding-ada-002":
		dims = 1536
	}
	switch cfg.Provider {
	case "openai":
		return embed.Config{Provider: "remote", Endpoint: cfg.BaseURL, APIKey: os.Getenv("OPENAI_API_KEY"), Model: cfg.Model, Dimensions: dims}
	default:
		return embed.Config{Provider: "local", BinaryPath: cfg.BaseURL, Model: cfg.Model, Dimensions: dims}
	}
}

func llmConfig(cfg config.LLMConfig) llm.Config {
	var apiKey string
	switch cfg.Provider {
	case "anthropic":
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	return llm.Config{Provider: cfg.Provider, Model: cfg.Model, Endpoint: cfg.BaseURL, APIKey: apiKey}
}
