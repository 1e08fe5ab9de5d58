package vectorstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepwiki-go/deepwiki/internal/parsetree"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	dir := t.TempDir()
	store, err := Open(filepath.Join(dir, "chunks.db"), 4)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func vec(vals ...float32) []float32 { return vals }

func TestUpsertAndGetByID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	chunk := parsetree.Chunk{
		ID: "abc123", FilePath: "a.go", Language: "go", Kind: parsetree.KindFunction,
		Name: "Foo", Content: "func Foo() {}", StartLine: 1, EndLine: 1,
		Metadata: map[string]any{"parent_classes": []string{"Base"}},
	}
	require.NoError(t, store.Upsert(ctx, []parsetree.Chunk{chunk}, [][]float32{vec(1, 0, 0, 0)}))

	got, ok, err := store.GetByID(ctx, "abc123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Foo", got.Name)
	assert.Equal(t, "a.go", got.FilePath)
}

func TestSearchOrdersByDistance(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	chunks := []parsetree.Chunk{
		{ID: "near", FilePath: "a.go", Language: "go", Kind: parsetree.KindFunction, Name: "Near", Content: "x", StartLine: 1, EndLine: 1},
		{ID: "far", FilePath: "a.go", Language: "go", Kind: parsetree.KindFunction, Name: "Far", Content: "x", StartLine: 2, EndLine: 2},
	}
	vectors := [][]float32{vec(1, 0, 0, 0), vec(0, 1, 0, 0)}
	require.NoError(t, store.Upsert(ctx, chunks, vectors))

	results, err := store.Search(ctx, vec(1, 0, 0, 0), SearchOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "near", results[0].Chunk.ID)
	assert.LessOrEqual(t, results[0].Distance, results[1].Distance)
}

func TestSearchFiltersByKindAndLanguage(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	chunks := []parsetree.Chunk{
		{ID: "fn", FilePath: "a.go", Language: "go", Kind: parsetree.KindFunction, Name: "Fn", Content: "x", StartLine: 1, EndLine: 1},
		{ID: "cls", FilePath: "b.py", Language: "python", Kind: parsetree.KindClass, Name: "Cls", Content: "x", StartLine: 1, EndLine: 1},
	}
	vectors := [][]float32{vec(1, 0, 0, 0), vec(1, 0, 0, 0)}
	require.NoError(t, store.Upsert(ctx, chunks, vectors))

	results, err := store.Search(ctx, vec(1, 0, 0, 0), SearchOptions{Limit: 10, Kind: parsetree.KindClass})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "cls", results[0].Chunk.ID)

	_, err = store.Search(ctx, vec(1, 0, 0, 0), SearchOptions{Limit: 10, Kind: "not-a-kind"})
	assert.Error(t, err)
}

func TestDeleteByFileRemovesChunksAndVectors(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	chunks := []parsetree.Chunk{
		{ID: "a1", FilePath: "a.go", Language: "go", Kind: parsetree.KindFunction, Name: "A", Content: "x", StartLine: 1, EndLine: 1},
		{ID: "b1", FilePath: "b.go", Language: "go", Kind: parsetree.KindFunction, Name: "B", Content: "x", StartLine: 1, EndLine: 1},
	}
	vectors := [][]float32{vec(1, 0, 0, 0), vec(0, 1, 0, 0)}
	require.NoError(t, store.Upsert(ctx, chunks, vectors))

	require.NoError(t, store.DeleteByFile(ctx, []string{"a.go"}))

	_, ok, err := store.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.False(t, ok)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	files, err := store.ListFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.go"}, files)
}

func TestListByFileAndListAll(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	chunks := []parsetree.Chunk{
		{ID: "a1", FilePath: "a.go", Language: "go", Kind: parsetree.KindFunction, Name: "A", Content: "x", StartLine: 1, EndLine: 1},
		{ID: "a2", FilePath: "a.go", Language: "go", Kind: parsetree.KindFunction, Name: "A2", Content: "y", StartLine: 5, EndLine: 6},
		{ID: "b1", FilePath: "b.go", Language: "go", Kind: parsetree.KindFunction, Name: "B", Content: "z", StartLine: 1, EndLine: 1},
	}
	vectors := [][]float32{vec(1, 0, 0, 0), vec(0, 1, 0, 0), vec(0, 0, 1, 0)}
	require.NoError(t, store.Upsert(ctx, chunks, vectors))

	forA, err := store.ListByFile(ctx, "a.go")
	require.NoError(t, err)
	require.Len(t, forA, 2)
	assert.Equal(t, "a1", forA[0].ID)
	assert.Equal(t, "a2", forA[1].ID)

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpsertIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	chunk := parsetree.Chunk{ID: "x1", FilePath: "a.go", Language: "go", Kind: parsetree.KindFunction, Name: "X", Content: "v1", StartLine: 1, EndLine: 1}
	require.NoError(t, store.Upsert(ctx, []parsetree.Chunk{chunk}, [][]float32{vec(1, 0, 0, 0)}))

	chunk.Content = "v2"
	require.NoError(t, store.Upsert(ctx, []parsetree.Chunk{chunk}, [][]float32{vec(0, 1, 0, 0)}))

	got, ok, err := store.GetByID(ctx, "x1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", got.Content)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "re-upserting the same id must not duplicate rows")
}
