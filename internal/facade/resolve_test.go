package facade

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
)

func TestResolveRepoRoot(t *testing.T) {
	t.Parallel()

	t.Run("empty path", func(t *testing.T) {
		_, err := resolveRepoRoot("")
		require.Error(t, err)
		assert.True(t, errors.Is(err, deepwikierr.ErrInput))
	})

	t.Run("relative path is absolutized", func(t *testing.T) {
		got, err := resolveRepoRoot(".")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
	})

	t.Run("already clean absolute path is unchanged", func(t *testing.T) {
		got, err := resolveRepoRoot("/tmp/repo")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/repo", got)
	})
}

func TestResolveWikiPage(t *testing.T) {
	t.Parallel()

	root := "/repos/example"
	base := filepath.Join(root, ".deepwiki")

	t.Run("empty page", func(t *testing.T) {
		_, err := resolveWikiPage(root, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, deepwikierr.ErrInput))
	})

	t.Run("simple page resolves under wiki root", func(t *testing.T) {
		got, err := resolveWikiPage(root, "overview.md")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(base, "overview.md"), got)
	})

	t.Run("nested page resolves under wiki root", func(t *testing.T) {
		got, err := resolveWikiPage(root, "modules/indexer.md")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(base, "modules", "indexer.md"), got)
	})

	t.Run("parent traversal is rejected", func(t *testing.T) {
		_, err := resolveWikiPage(root, "../../../etc/passwd")
		require.Error(t, err)
		assert.True(t, errors.Is(err, deepwikierr.ErrInput))
		assert.Contains(t, err.Error(), "escapes wiki root")
	})

	t.Run("single-level traversal is rejected", func(t *testing.T) {
		_, err := resolveWikiPage(root, "../secrets.txt")
		require.Error(t, err)
		assert.True(t, errors.Is(err, deepwikierr.ErrInput))
	})

	t.Run("embedded traversal that lands outside the wiki directory is rejected", func(t *testing.T) {
		// filepath.Clean collapses this to <root>/escape.md: inside the
		// repository root but outside .deepwiki, so the Rel check refuses it.
		_, err := resolveWikiPage(root, "sub/../../escape.md")
		require.Error(t, err)
	})

	t.Run("absolute path pointing elsewhere is rejected", func(t *testing.T) {
		_, err := resolveWikiPage(root, "/etc/passwd")
		require.Error(t, err)
	})
}
