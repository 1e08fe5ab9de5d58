package chunker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepwiki-go/deepwiki/internal/parser"
	"github.com/deepwiki-go/deepwiki/internal/parsetree"
)

func parseFixture(t *testing.T, path string) *parser.Tree {
	t.Helper()
	p := parser.New(0)
	tree, err := p.ParseFile(context.Background(), path)
	require.NoError(t, err)
	return tree
}

func TestChunkGoSimple(t *testing.T) {
	tree := parseFixture(t, "../../testdata/code/go/simple.go")
	chunks := Chunk(tree, "testdata/code/go/simple.go", "go", 0)

	var kinds []parsetree.Kind
	for _, c := range chunks {
		kinds = append(kinds, c.Kind)
	}
	assert.Contains(t, kinds, parsetree.KindModule)
	assert.Contains(t, kinds, parsetree.KindImport)
	assert.Contains(t, kinds, parsetree.KindClass)
	assert.Contains(t, kinds, parsetree.KindFunction)

	for _, c := range chunks {
		assert.LessOrEqual(t, c.StartLine, c.EndLine, "chunk %s has inverted range", c.Name)
		assert.Equal(t, "testdata/code/go/simple.go", c.FilePath)
	}

	modules := 0
	for _, c := range chunks {
		if c.Kind == parsetree.KindModule {
			modules++
		}
	}
	assert.Equal(t, 1, modules, "expected exactly one module chunk per file")
}

func TestChunkGoMethodSurfacesAsFunction(t *testing.T) {
	tree := parseFixture(t, "../../testdata/code/go/simple.go")
	chunks := Chunk(tree, "testdata/code/go/simple.go", "go", 0)

	byName := map[string]parsetree.Chunk{}
	for _, c := range chunks {
		byName[c.Name] = c
	}

	// ServeHTTP is a Go method_declaration; the go classNodeTypes is
	// type_spec (struct Handler), so ServeHTTP surfaces as a
	// top-level function chunk rather than nested under a class chunk
	// in this language's grammar shape.
	_, hasHandler := byName["Handler"]
	assert.True(t, hasHandler)
	assert.Equal(t, parsetree.KindFunction, byName["ServeHTTP"].Kind)
}

func TestChunkPythonClassSplit(t *testing.T) {
	tree := parseFixture(t, "../../testdata/code/python/simple.py")

	// Force a split by using a tiny threshold; Greeter has 2 methods.
	chunks := Chunk(tree, "testdata/code/python/simple.py", "python", 1)

	var summary *parsetree.Chunk
	methodCount := 0
	for i := range chunks {
		c := &chunks[i]
		if c.Kind == parsetree.KindClassSumm && c.Name == "Greeter" {
			summary = c
		}
		if c.Kind == parsetree.KindMethod && c.ParentName == "Greeter" {
			methodCount++
		}
	}
	require.NotNil(t, summary)
	assert.Equal(t, 2, methodCount)
}

func TestChunkPythonClassNoSplit(t *testing.T) {
	tree := parseFixture(t, "../../testdata/code/python/simple.py")
	chunks := Chunk(tree, "testdata/code/python/simple.py", "python", DefaultClassSplitThreshold)

	found := false
	for _, c := range chunks {
		if c.Kind == parsetree.KindClass && c.Name == "Greeter" {
			found = true
			assert.Equal(t, "Greets people by name.", c.Docstring)
		}
	}
	assert.True(t, found)
}

func TestChunkIDsStableAcrossRuns(t *testing.T) {
	tree := parseFixture(t, "../../testdata/code/go/simple.go")
	a := Chunk(tree, "testdata/code/go/simple.go", "go", 0)
	b := Chunk(tree, "testdata/code/go/simple.go", "go", 0)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID)
	}
}
