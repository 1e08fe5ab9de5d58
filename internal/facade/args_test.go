package facade

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
)

func TestArgsMap(t *testing.T) {
	t.Parallel()

	t.Run("valid map", func(t *testing.T) {
		m, err := argsMap(map[string]interface{}{"a": "b"})
		require.NoError(t, err)
		assert.Equal(t, "b", m["a"])
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := argsMap("not-a-map")
		require.Error(t, err)
		assert.True(t, errors.Is(err, deepwikierr.ErrInput))
	})

	t.Run("nil", func(t *testing.T) {
		_, err := argsMap(nil)
		require.Error(t, err)
	})
}

func TestRequireString(t *testing.T) {
	t.Parallel()

	t.Run("present", func(t *testing.T) {
		args := map[string]interface{}{"repo_path": "/tmp/repo"}
		got, err := requireString(args, "repo_path")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/repo", got)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := requireString(map[string]interface{}{}, "repo_path")
		require.Error(t, err)
		assert.True(t, errors.Is(err, deepwikierr.ErrInput))
		assert.Contains(t, err.Error(), "repo_path parameter is required")
	})

	t.Run("empty", func(t *testing.T) {
		args := map[string]interface{}{"repo_path": ""}
		_, err := requireString(args, "repo_path")
		require.Error(t, err)
	})

	t.Run("wrong type", func(t *testing.T) {
		args := map[string]interface{}{"repo_path": 42}
		_, err := requireString(args, "repo_path")
		require.Error(t, err)
	})
}

func TestOptionalString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "default", optionalString(map[string]interface{}{}, "k", "default"))
	assert.Equal(t, "v", optionalString(map[string]interface{}{"k": "v"}, "k", "default"))
	assert.Equal(t, "default", optionalString(map[string]interface{}{"k": 42}, "k", "default"))
}

func TestClampInt(t *testing.T) {
	t.Parallel()

	t.Run("within bounds", func(t *testing.T) {
		args := map[string]interface{}{"max_context": float64(5)}
		assert.Equal(t, 5, clampInt(args, "max_context", 3, 1, 20))
	})

	t.Run("below minimum", func(t *testing.T) {
		args := map[string]interface{}{"max_context": float64(-5)}
		assert.Equal(t, 1, clampInt(args, "max_context", 3, 1, 20))
	})

	t.Run("above maximum", func(t *testing.T) {
		args := map[string]interface{}{"max_context": float64(100)}
		assert.Equal(t, 20, clampInt(args, "max_context", 3, 1, 20))
	})

	t.Run("missing uses default", func(t *testing.T) {
		assert.Equal(t, 3, clampInt(map[string]interface{}{}, "max_context", 3, 1, 20))
	})

	t.Run("wrong type uses default", func(t *testing.T) {
		args := map[string]interface{}{"max_context": "five"}
		assert.Equal(t, 3, clampInt(args, "max_context", 3, 1, 20))
	})
}

func TestOptionalBool(t *testing.T) {
	t.Parallel()

	assert.True(t, optionalBool(map[string]interface{}{"full_rebuild": true}, "full_rebuild", false))
	assert.False(t, optionalBool(map[string]interface{}{}, "full_rebuild", false))
	assert.True(t, optionalBool(map[string]interface{}{"full_rebuild": "yes"}, "full_rebuild", true))
}

func TestEnumArg(t *testing.T) {
	t.Parallel()

	t.Run("allowed value", func(t *testing.T) {
		args := map[string]interface{}{"preset": "thorough"}
		got, err := enumArg(args, "preset", "default", "quick", "default", "thorough")
		require.NoError(t, err)
		assert.Equal(t, "thorough", got)
	})

	t.Run("missing uses default", func(t *testing.T) {
		got, err := enumArg(map[string]interface{}{}, "preset", "default", "quick", "default", "thorough")
		require.NoError(t, err)
		assert.Equal(t, "default", got)
	})

	t.Run("disallowed value", func(t *testing.T) {
		args := map[string]interface{}{"preset": "extreme"}
		_, err := enumArg(args, "preset", "default", "quick", "default", "thorough")
		require.Error(t, err)
		assert.True(t, errors.Is(err, deepwikierr.ErrInput))
	})
}

func TestValidateSubsetOf(t *testing.T) {
	t.Parallel()

	allowed := []string{"go", "python", "typescript"}

	t.Run("all present", func(t *testing.T) {
		err := validateSubsetOf([]string{"go", "python"}, allowed)
		require.NoError(t, err)
	})

	t.Run("empty input", func(t *testing.T) {
		err := validateSubsetOf(nil, allowed)
		require.NoError(t, err)
	})

	t.Run("unknown value", func(t *testing.T) {
		err := validateSubsetOf([]string{"go", "rust"}, allowed)
		require.Error(t, err)
		assert.True(t, errors.Is(err, deepwikierr.ErrInput))
		assert.Contains(t, err.Error(), `"rust"`)
	})
}

func TestStringArrayArg(t *testing.T) {
	t.Parallel()

	t.Run("present", func(t *testing.T) {
		args := map[string]interface{}{"languages": []interface{}{"go", "python"}}
		assert.Equal(t, []string{"go", "python"}, stringArrayArg(args, "languages"))
	})

	t.Run("missing", func(t *testing.T) {
		assert.Nil(t, stringArrayArg(map[string]interface{}{}, "languages"))
	})

	t.Run("mixed types filters non-strings", func(t *testing.T) {
		args := map[string]interface{}{"languages": []interface{}{"go", 42, "python", true}}
		assert.Equal(t, []string{"go", "python"}, stringArrayArg(args, "languages"))
	})

	t.Run("wrong type", func(t *testing.T) {
		args := map[string]interface{}{"languages": "go"}
		assert.Nil(t, stringArrayArg(args, "languages"))
	})
}
