package wiki

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepwiki-go/deepwiki/internal/config"
	"github.com/deepwiki-go/deepwiki/internal/embed"
	"github.com/deepwiki-go/deepwiki/internal/llm"
	"github.com/deepwiki-go/deepwiki/internal/parsetree"
	"github.com/deepwiki-go/deepwiki/internal/vectorstore"
)

func newTestGenerator(t *testing.T) (*Generator, vectorstore.Store, string) {
	t.Helper()
	repoRoot := t.TempDir()
	store, err := vectorstore.Open(filepath.Join(t.TempDir(), "chunks.db"), 8)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	embedder := embed.NewMockProvider(8)
	ctx := context.Background()

	chunk := parsetree.Chunk{
		ID: "c1", FilePath: "a.go", Language: "go", Kind: parsetree.KindFunction,
		Name: "Foo", Content: "func Foo() {}", StartLine: 1, EndLine: 3,
	}
	vecs, err := embedder.Embed(ctx, []string{chunk.Content})
	require.NoError(t, err)
	require.NoError(t, store.Upsert(ctx, []parsetree.Chunk{chunk}, vecs))

	mockLLM := &llm.MockProvider{Responder: func(req llm.Request) (string, error) {
		return "Foo does X (a.go:1-3)", nil
	}}
	cfg := config.Default().Wiki
	gen := New(store, embedder, mockLLM, cfg)
	return gen, store, repoRoot
}

func TestRunGeneratesEveryFixedAndFilePage(t *testing.T) {
	gen, _, repoRoot := newTestGenerator(t)

	result, err := gen.Run(context.Background(), repoRoot)
	require.NoError(t, err)
	assert.Empty(t, result.Failed)
	assert.Contains(t, result.Regenerated, "index.md")
	assert.Contains(t, result.Regenerated, "inheritance.md")
	assert.Contains(t, result.Regenerated, "files/a.go.md")

	for _, path := range fixedPageOrder {
		_, err := os.Stat(filepath.Join(repoRoot, ".deepwiki", path))
		assert.NoError(t, err, "expected %s to be written", path)
	}
	_, err = os.Stat(filepath.Join(repoRoot, ".deepwiki", "toc.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(repoRoot, ".deepwiki", "search.json"))
	assert.NoError(t, err)
}

func TestRunSecondPassWithNoChangesReusesEveryPage(t *testing.T) {
	gen, _, repoRoot := newTestGenerator(t)
	ctx := context.Background()

	first, err := gen.Run(ctx, repoRoot)
	require.NoError(t, err)
	require.NotEmpty(t, first.Regenerated)

	second, err := gen.Run(ctx, repoRoot)
	require.NoError(t, err)
	assert.Empty(t, second.Regenerated, "no source changed, nothing should regenerate")
	assert.NotEmpty(t, second.Reused)

	for path, status := range second.Status.Pages {
		assert.Equal(t, first.Status.Pages[path].ContentHash, status.ContentHash)
	}
}

func TestRunRegeneratesOnlyPagesWhoseSourceChanged(t *testing.T) {
	gen, store, repoRoot := newTestGenerator(t)
	ctx := context.Background()

	_, err := gen.Run(ctx, repoRoot)
	require.NoError(t, err)

	changed := parsetree.Chunk{
		ID: "c1", FilePath: "a.go", Language: "go", Kind: parsetree.KindFunction,
		Name: "Foo", Content: "func Foo() { return 1 }", StartLine: 1, EndLine: 3,
	}
	vecs, err := gen.Embedder.Embed(ctx, []string{changed.Content})
	require.NoError(t, err)
	require.NoError(t, store.Upsert(ctx, []parsetree.Chunk{changed}, vecs))

	second, err := gen.Run(ctx, repoRoot)
	require.NoError(t, err)
	assert.Contains(t, second.Regenerated, "files/a.go.md")
	assert.Contains(t, second.Reused, "inheritance.md", "inheritance.md has no changed source")
}

func TestNeedsRegenerationOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	prior := &PageStatus{Path: "index.md", Sources: []string{"a.go"}, SourceHashes: map[string]string{"a.go": "h1"}}
	assert.True(t, needsRegeneration(prior, "index.md", dir, map[string]string{"a.go": "h1"}))
}

func TestNeedsRegenerationFalseWhenUnchangedAndPresent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.md"), []byte("x"), 0o644))
	prior := &PageStatus{Path: "index.md", Sources: []string{"a.go"}, SourceHashes: map[string]string{"a.go": "h1"}}
	assert.False(t, needsRegeneration(prior, "index.md", dir, map[string]string{"a.go": "h1"}))
}

func TestNeedsRegenerationTrueWhenHashChanged(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.md"), []byte("x"), 0o644))
	prior := &PageStatus{Path: "index.md", Sources: []string{"a.go"}, SourceHashes: map[string]string{"a.go": "h1"}}
	assert.True(t, needsRegeneration(prior, "index.md", dir, map[string]string{"a.go": "h2"}))
}

func TestNeedsRegenerationTrueWhenSourceSetChanged(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.md"), []byte("x"), 0o644))
	prior := &PageStatus{Path: "index.md", Sources: []string{"a.go"}, SourceHashes: map[string]string{"a.go": "h1"}}
	assert.True(t, needsRegeneration(prior, "index.md", dir, map[string]string{"a.go": "h1", "b.go": "h2"}))
}
