package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFileGo(t *testing.T) {
	p := New(0)
	tree, err := p.ParseFile(context.Background(), "../../testdata/code/go/simple.go")
	require.NoError(t, err)
	assert.Equal(t, "go", tree.Language)

	spec := specByName("go")
	functions := tree.FindAll(spec.functionNodeTypes)
	require.Len(t, functions, 2)
	assert.Equal(t, "NewHandler", functions[0].DeclaredName())
	assert.Equal(t, "ServeHTTP", functions[1].DeclaredName())

	classes := tree.FindAll(spec.classNodeTypes)
	assert.GreaterOrEqual(t, len(classes), 1)
}

func TestParseFilePythonDocstrings(t *testing.T) {
	p := New(0)
	tree, err := p.ParseFile(context.Background(), "../../testdata/code/python/simple.py")
	require.NoError(t, err)
	assert.Equal(t, "python", tree.Language)

	spec := specByName("python")
	classes := tree.FindAll(spec.classNodeTypes)
	require.Len(t, classes, 1)
	assert.Equal(t, "Greeter", classes[0].DeclaredName())
	assert.Equal(t, "Greets people by name.", DocString(tree, classes[0]))

	funcs := tree.FindAllRecursive(spec.functionNodeTypes)
	var greet *Node
	for _, f := range funcs {
		if f.DeclaredName() == "greet" {
			greet = f
		}
	}
	require.NotNil(t, greet)
	assert.Equal(t, "Return a greeting string.", DocString(tree, greet))
}

func TestParseFileUnrecognizedExtension(t *testing.T) {
	p := New(0)
	_, err := p.ParseFile(context.Background(), "../../testdata/code/go/simple.notareallang")
	require.Error(t, err)
}

func TestParseFileMaxSizeSkip(t *testing.T) {
	p := New(1) // one byte max; simple.go is larger
	_, err := p.ParseFile(context.Background(), "../../testdata/code/go/simple.go")
	require.Error(t, err)
}

func TestLanguageForPath(t *testing.T) {
	lang, ok := LanguageForPath("foo/bar.rs")
	require.True(t, ok)
	assert.Equal(t, "rust", lang)

	_, ok = LanguageForPath("foo/bar.unknown")
	assert.False(t, ok)
}
