package wiki

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/deepwiki-go/deepwiki/internal/config"
	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
	"github.com/deepwiki-go/deepwiki/internal/embed"
	"github.com/deepwiki-go/deepwiki/internal/llm"
	"github.com/deepwiki-go/deepwiki/internal/parsetree"
	"github.com/deepwiki-go/deepwiki/internal/vectorstore"
)

// Generator builds and incrementally refreshes the fixed wiki catalog plus
// one page per source file.
type Generator struct {
	Store    vectorstore.Store
	Embedder embed.Provider
	LLM      llm.Provider // typically an *llmcache.Cache
	Config   config.WikiConfig
}

// New constructs a Generator. llmProvider is usually an *llmcache.Cache so
// that repeated or near-duplicate page prompts across runs are cached.
func New(store vectorstore.Store, embedder embed.Provider, llmProvider llm.Provider, cfg config.WikiConfig) *Generator {
	return &Generator{Store: store, Embedder: embedder, LLM: llmProvider, Config: cfg}
}

type pageTask struct {
	path    string
	title   string
	sources []parsetree.Chunk
}

// Run regenerates every page whose contributing sources changed (or that
// is missing) and reuses everything else, then rewrites the derived
// toc.json and search.json against the full, current page set.
func (g *Generator) Run(ctx context.Context, repoRoot string) (*RunResult, error) {
	started := time.Now()
	wikiDir := filepath.Join(repoRoot, ".deepwiki")
	filesDir := filepath.Join(wikiDir, "files")
	if err := os.MkdirAll(filesDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create wiki dir: %v", deepwikierr.ErrStore, err)
	}

	allChunks, err := g.Store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	registry := BuildEntityRegistry(allChunks)

	files, err := g.Store.ListFiles(ctx)
	if err != nil {
		return nil, err
	}
	var docFiles []string
	for _, f := range files {
		if !isTestFile(f) {
			docFiles = append(docFiles, f)
		}
	}
	sort.Strings(docFiles)

	embedText := func(ctx context.Context, text string) ([]float32, error) {
		vecs, err := g.Embedder.Embed(ctx, []string{text})
		if err != nil {
			return nil, fmt.Errorf("%w: embed page query: %v", deepwikierr.ErrEmbedding, err)
		}
		return vecs[0], nil
	}

	tasks, err := g.buildTasks(ctx, embedText, allChunks, docFiles)
	if err != nil {
		return nil, err
	}

	prior, err := loadStatus(repoRoot)
	if err != nil {
		return nil, err
	}
	var priorPages map[string]*PageStatus
	if prior != nil {
		priorPages = prior.Pages
	}

	allSources := make(map[string]map[string]bool, len(tasks))
	for _, t := range tasks {
		allSources[t.path] = sourceFileSet(t.sources)
	}

	sem := semaphore.NewWeighted(int64(maxConcurrent(g.Config.MaxConcurrentLLMCalls)))
	var mu sync.Mutex
	result := &RunResult{
		Status: &GenerationStatus{IndexHash: indexHash(allChunks), GeneratedAt: time.Now(), Pages: make(map[string]*PageStatus)},
		Failed: make(map[string]string),
	}

	var wg sync.WaitGroup
	var firstErr error
	for _, t := range tasks {
		t := t
		hashes := hashSources(groupContentsByFile(t.sources))
		if !needsRegeneration(priorPages[t.path], t.path, wikiDir, hashes) {
			mu.Lock()
			result.Status.Pages[t.path] = priorPages[t.path]
			result.Reused = append(result.Reused, t.path)
			mu.Unlock()
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			status, genErr := g.generatePage(ctx, t, registry, sourceFileSet(t.sources), allSources, wikiDir)
			mu.Lock()
			defer mu.Unlock()
			if genErr != nil {
				result.Failed[t.path] = genErr.Error()
				return
			}
			status.SourceHashes = hashes
			for path := range hashes {
				status.Sources = append(status.Sources, path)
			}
			sort.Strings(status.Sources)
			result.Status.Pages[t.path] = status
			result.Regenerated = append(result.Regenerated, t.path)
		}()
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	if err := writeTOC(wikiDir, tasks); err != nil {
		return nil, err
	}
	if err := writeSearchIndex(wikiDir, result.Status.Pages, tasks); err != nil {
		return nil, err
	}

	if err := saveStatus(repoRoot, result.Status); err != nil {
		return nil, err
	}
	result.Duration = time.Since(started)
	return result, nil
}

func (g *Generator) buildTasks(ctx context.Context, embedText func(context.Context, string) ([]float32, error), allChunks []parsetree.Chunk, docFiles []string) ([]pageTask, error) {
	var tasks []pageTask

	for _, spec := range fixedPages() {
		chunks, err := gatherChunks(ctx, g.Store, embedText, spec.queries, searchLimitFor(spec.Path, g.Config))
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, pageTask{path: spec.Path, title: spec.Title, sources: chunks})
	}

	var classChunks []parsetree.Chunk
	for _, c := range allChunks {
		if c.Kind == parsetree.KindClass || c.Kind == parsetree.KindClassSumm {
			classChunks = append(classChunks, c)
		}
	}
	tasks = append(tasks, pageTask{path: "inheritance.md", title: "Inheritance", sources: classChunks})

	for _, f := range docFiles {
		chunks, err := g.Store.ListByFile(ctx, f)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, pageTask{path: filePageLink(f), title: f, sources: chunks})
	}
	return tasks, nil
}

func (g *Generator) generatePage(ctx context.Context, t pageTask, registry *EntityRegistry, pageSources map[string]bool, allSources map[string]map[string]bool, wikiDir string) (*PageStatus, error) {
	var content string
	if t.path == "inheritance.md" {
		c, err := g.renderInheritancePage(ctx, t)
		if err != nil {
			return nil, err
		}
		content = c
	} else {
		system, user := pagePrompt(t.title, t.sources)
		answer, err := g.LLM.Generate(ctx, llm.Request{System: system, Prompt: user, Temperature: 0.2, MaxTokens: 2048})
		if err != nil {
			return nil, fmt.Errorf("%w: generate page %s: %v", deepwikierr.ErrLLM, t.path, err)
		}
		content = answer
	}

	sourceFiles := make([]string, 0, len(pageSources))
	for f := range pageSources {
		sourceFiles = append(sourceFiles, f)
	}
	content = crossLink(content, registry, sourceFiles)
	content = appendSourceRefs(content, t.sources)
	links := computeSeeAlso(t.path, pageSources, allSources, 5)
	content = appendSeeAlso(content, links)

	fullPath := filepath.Join(wikiDir, t.path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", deepwikierr.ErrStore, filepath.Dir(fullPath), err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("%w: write page %s: %v", deepwikierr.ErrStore, t.path, err)
	}

	return &PageStatus{Path: t.path, ContentHash: hashContent(content), GeneratedAt: time.Now()}, nil
}

func (g *Generator) renderInheritancePage(ctx context.Context, t pageTask) (string, error) {
	graph := buildInheritanceGraph(t.sources)
	mermaid, err := renderInheritanceMermaid(graph)
	if err != nil {
		return "", err
	}
	system, user := pagePrompt(t.title, t.sources)
	prose, err := g.LLM.Generate(ctx, llm.Request{System: system, Prompt: user, Temperature: 0.2, MaxTokens: 1024})
	if err != nil {
		return "", fmt.Errorf("%w: generate page inheritance.md: %v", deepwikierr.ErrLLM, err)
	}
	return "# Inheritance\n\n" + mermaid + "\n" + prose, nil
}

func sourceFileSet(chunks []parsetree.Chunk) map[string]bool {
	set := make(map[string]bool)
	for _, c := range chunks {
		set[c.FilePath] = true
	}
	return set
}

func groupContentsByFile(chunks []parsetree.Chunk) map[string][]string {
	out := make(map[string][]string)
	for _, c := range chunks {
		out[c.FilePath] = append(out[c.FilePath], c.Content)
	}
	return out
}

func indexHash(chunks []parsetree.Chunk) string {
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	sort.Strings(ids)
	h := sha256.New()
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func maxConcurrent(n int) int {
	if n <= 0 {
		return 4
	}
	return n
}
