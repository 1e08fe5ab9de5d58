package facade

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
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

// repo bundles every per-repository dependency a tool handler needs: the
// opened vector store, the constructed embedder/LLM (the latter wrapped in
// an llmcache.Cache), and the three pipelines built on top of them.
type repo struct {
	root      string
	cfg       *config.Config
	store     vectorstore.Store
	embedderP embed.Provider
	llmP      llm.Provider // the llmcache.Cache-wrapped provider
	indexer   *indexer.Indexer
	wiki      *wiki.Generator
	research  *research.Pipeline
}

func (r *repo) embedder() embed.Provider { return r.embedderP }
func (r *repo) llm() llm.Provider        { return r.llmP }

func (r *repo) Close() error {
	return r.store.Close()
}

// Registry opens and caches one *repo per repository root so repeated tool
// calls against the same repo_path reuse the same store/provider/pipeline
// set instead of re-opening the SQLite file and re-spawning the local
// embedding daemon on every call.
type Registry struct {
	logger *slog.Logger

	mu    sync.Mutex
	repos map[string]*repo
}

// NewRegistry constructs an empty Registry. logger is used for every repo's
// component wiring failures; pass slog.Default() if the caller has none.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger, repos: make(map[string]*repo)}
}

// Get returns the cached repo for root, opening and wiring one on first
// use. root is expected to already be an absolute, cleaned path; callers
// resolve and validate repo_path arguments before calling Get.
func (reg *Registry) Get(ctx context.Context, root string) (*repo, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if r, ok := reg.repos[root]; ok {
		return r, nil
	}

	cfg, err := config.LoadFromDir(root)
	if err != nil {
		return nil, fmt.Errorf("loading config for %s: %w", root, err)
	}

	embedder, err := buildEmbedder(ctx, cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("building embedder for %s: %w", root, err)
	}

	llmProvider, err := buildLLM(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("building llm provider for %s: %w", root, err)
	}

	cached, err := llmcache.New(llmProvider, embedder, llmcache.Config{
		Enabled:                 cfg.LLMCache.Enabled,
		TTL:                     time.Duration(cfg.LLMCache.TTLSeconds) * time.Second,
		MaxEntries:              cfg.LLMCache.MaxEntries,
		SimilarityThreshold:     cfg.LLMCache.SimilarityThreshold,
		MaxCacheableTemperature: cfg.LLMCache.MaxCacheableTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("building llm cache for %s: %w", root, err)
	}

	storePath := filepath.Join(root, ".deepwiki", "vectors.lance", "chunks.db")
	if err := os.MkdirAll(filepath.Dir(storePath), 0o755); err != nil {
		return nil, fmt.Errorf("creating vector store directory for %s: %w", root, err)
	}
	store, err := vectorstore.Open(storePath, embedder.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("opening vector store for %s: %w", root, err)
	}

	p := parser.New(cfg.Parsing.MaxFileSize)

	r := &repo{
		root:      root,
		cfg:       cfg,
		store:     store,
		embedderP: embedder,
		llmP:      cached,
		indexer:   indexer.New(p, embedder, store),
		wiki:      wiki.New(store, embedder, cached, cfg.Wiki),
		research:  research.New(cached, embedder, store),
	}
	reg.repos[root] = r
	reg.logger.Info("opened repository", "root", root)
	return r, nil
}

// Close closes every cached repo's store, collecting (not stopping on) the
// first error encountered so one bad close doesn't leak the rest.
func (reg *Registry) Close() error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var firstErr error
	for root, r := range reg.repos {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing repo %s: %w", root, err)
		}
	}
	reg.repos = make(map[string]*repo)
	return firstErr
}
