package wiki

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/deepwiki-go/deepwiki/internal/config"
	"github.com/deepwiki-go/deepwiki/internal/parsetree"
	"github.com/deepwiki-go/deepwiki/internal/vectorstore"
)

// pageSpec declares, for one fixed page, its output path, its title, and
// the search queries whose unioned hits make up its contributing chunks.
type pageSpec struct {
	Path    string
	Title   string
	queries []string // search queries run in parallel and unioned
}

// fixedPages is the catalog from spec.md, excluding inheritance.md (built
// from the class/interface graph rather than search) and per-file pages
// (generated separately, one per source file).
func fixedPages() []pageSpec {
	return []pageSpec{
		{Path: "index.md", Title: "Overview", queries: []string{"project overview", "entry point", "main purpose"}},
		{Path: "architecture.md", Title: "Architecture", queries: []string{"core components", "patterns", "data flow"}},
		{Path: "dependencies.md", Title: "Dependencies", queries: []string{"imports", "external dependencies", "module structure"}},
		{Path: "coverage.md", Title: "Indexing Coverage", queries: []string{"test files", "untested code", "coverage"}},
		{Path: "changelog.md", Title: "Changelog", queries: []string{"recent changes", "version history", "deprecated"}},
		{Path: "glossary.md", Title: "Glossary", queries: []string{"terminology", "domain concepts", "definitions"}},
		{Path: "freshness.md", Title: "Freshness", queries: []string{"recently modified", "stale documentation", "outdated"}},
	}
}

// gatherChunks runs every query in spec concurrently against store and
// returns the union, deduplicated by chunk id, in a stable order.
func gatherChunks(ctx context.Context, store vectorstore.Store, embedText func(context.Context, string) ([]float32, error), queries []string, limit int) ([]parsetree.Chunk, error) {
	type found struct {
		chunks []parsetree.Chunk
	}
	results := make([]found, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			vec, err := embedText(gctx, q)
			if err != nil {
				return err
			}
			hits, err := store.Search(gctx, vec, vectorstore.SearchOptions{Limit: limit})
			if err != nil {
				return err
			}
			chunks := make([]parsetree.Chunk, len(hits))
			for j, h := range hits {
				chunks[j] = h.Chunk
			}
			results[i] = found{chunks: chunks}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []parsetree.Chunk
	for _, r := range results {
		for _, c := range r.chunks {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FilePath != out[j].FilePath {
			return out[i].FilePath < out[j].FilePath
		}
		return out[i].StartLine < out[j].StartLine
	})
	return out, nil
}

func pagePrompt(title string, chunks []parsetree.Chunk) (system, user string) {
	system = fmt.Sprintf("You write one page of a generated software documentation wiki. "+
		"Write the %q page in clear technical prose using only the provided code evidence. "+
		"Reference identifiers with backticks so they can be cross-linked.", title)
	var b strings.Builder
	fmt.Fprintf(&b, "Page: %s\n\nEvidence:\n", title)
	for _, c := range chunks {
		fmt.Fprintf(&b, "--- %s:%d-%d (%s %s) ---\n%s\n\n", c.FilePath, c.StartLine, c.EndLine, c.Kind, c.Name, c.Content)
	}
	user = b.String()
	return
}

// filePageCatalog returns files, minus those excludeTestFiles rejects, in
// sorted order: one per-file page each.
func filePageCatalog(files []string, excludeTestFiles func(string) bool) []string {
	var out []string
	for _, f := range files {
		if excludeTestFiles != nil && excludeTestFiles(f) {
			continue
		}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// isTestFile applies the common *_test.go / test_*.py / *.spec.ts style
// file naming conventions.
func isTestFile(path string) bool {
	base := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		base = path[i+1:]
	}
	for _, suffix := range []string{"_test.go", "_test.py", ".test.ts", ".test.js", ".spec.ts", ".spec.js"} {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	if strings.HasPrefix(base, "test_") {
		return true
	}
	return false
}

func searchLimitFor(path string, cfg config.WikiConfig) int {
	switch path {
	case "dependencies.md":
		return cfg.ImportSearchLimit
	case "index.md", "architecture.md":
		return cfg.ContextSearchLimit
	default:
		return cfg.FallbackSearchLimit
	}
}
