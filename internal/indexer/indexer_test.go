package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepwiki-go/deepwiki/internal/embed"
	"github.com/deepwiki-go/deepwiki/internal/parser"
	"github.com/deepwiki-go/deepwiki/internal/vectorstore"
)

func newTestIndexer(t *testing.T) (*Indexer, vectorstore.Store) {
	t.Helper()
	store, err := vectorstore.Open(filepath.Join(t.TempDir(), "chunks.db"), 384)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(parser.New(0), embed.NewMockProvider(384), store), store
}

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const samplePy = `"""a module."""


def greet(name):
    return "hi " + name
`

const sampleGo = `package sample

func Add(a, b int) int {
	return a + b
}
`

func TestRunFreshIndexesAllDiscoveredFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", samplePy)
	writeFile(t, dir, "b.go", sampleGo)

	ix, store := newTestIndexer(t)
	stats, err := ix.Run(context.Background(), RunOptions{RepoRoot: dir})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FilesAdded)
	assert.Equal(t, 0, stats.FilesChanged)
	assert.Equal(t, 0, stats.FilesRemoved)
	assert.Greater(t, stats.ChunksTotal, 0)
	assert.Empty(t, stats.FailedFiles)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stats.ChunksTotal, count)

	_, err = os.Stat(manifestPath(dir))
	require.NoError(t, err)
}

func TestRunIncrementalOnlyReindexesChangedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", samplePy)
	bPath := writeFile(t, dir, "b.go", sampleGo)

	ix, store := newTestIndexer(t)
	ctx := context.Background()
	_, err := ix.Run(ctx, RunOptions{RepoRoot: dir})
	require.NoError(t, err)

	filesBefore, err := store.ListFiles(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{
		filepath.ToSlash(mustAbs(t, dir, "a.py")),
		filepath.ToSlash(mustAbs(t, dir, "b.go")),
	}, toSlashAll(filesBefore))

	renamed := `package sample

func Sum(a, b int) int {
	return a + b
}
`
	require.NoError(t, os.WriteFile(bPath, []byte(renamed), 0o644))

	stats, err := ix.Run(ctx, RunOptions{RepoRoot: dir})
	require.NoError(t, err)

	assert.Equal(t, 0, stats.FilesAdded)
	assert.Equal(t, 1, stats.FilesChanged)
	assert.Equal(t, 0, stats.FilesRemoved)

	queryVec, err := ix.Embedder.Embed(ctx, []string{"func Sum(a, b int) int"})
	require.NoError(t, err)
	results, err := store.Search(ctx, queryVec[0], vectorstore.SearchOptions{Limit: 50})
	require.NoError(t, err)
	foundSum, foundAdd := false, false
	for _, r := range results {
		if r.Chunk.Name == "Sum" {
			foundSum = true
		}
		if r.Chunk.Name == "Add" {
			foundAdd = true
		}
	}
	assert.True(t, foundSum, "renamed function should be indexed")
	assert.False(t, foundAdd, "stale chunk from before the rename must be gone")
}

func TestRunRemovesChunksForDeletedFile(t *testing.T) {
	dir := t.TempDir()
	aPath := writeFile(t, dir, "a.py", samplePy)
	writeFile(t, dir, "b.go", sampleGo)

	ix, store := newTestIndexer(t)
	ctx := context.Background()
	_, err := ix.Run(ctx, RunOptions{RepoRoot: dir})
	require.NoError(t, err)

	require.NoError(t, os.Remove(aPath))

	stats, err := ix.Run(ctx, RunOptions{RepoRoot: dir})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesRemoved)

	files, err := store.ListFiles(ctx)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestRunSecondPassWithNoChangesIsANoop(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", samplePy)

	ix, _ := newTestIndexer(t)
	ctx := context.Background()
	_, err := ix.Run(ctx, RunOptions{RepoRoot: dir})
	require.NoError(t, err)

	stats, err := ix.Run(ctx, RunOptions{RepoRoot: dir})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesAdded)
	assert.Equal(t, 0, stats.FilesChanged)
	assert.Equal(t, 0, stats.FilesRemoved)
}

func mustAbs(t *testing.T, dir, rel string) string {
	t.Helper()
	abs, err := filepath.Abs(filepath.Join(dir, rel))
	require.NoError(t, err)
	return abs
}

func toSlashAll(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.ToSlash(p)
	}
	return out
}
