package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Validate(Default()))
}

func TestLoadFromDirUsesDefaultsWhenNoFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Embedding.Provider)
	assert.Equal(t, 100, cfg.Chunking.ClassSplitThreshold)
}

func TestLoadFromDirReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".deepwiki"), 0o755))
	yaml := []byte("embedding:\n  provider: local\n  model: custom-model\nchunking:\n  class_split_threshold: 50\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".deepwiki", "config.yml"), yaml, 0o644))

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "custom-model", cfg.Embedding.Model)
	assert.Equal(t, 50, cfg.Chunking.ClassSplitThreshold)
}

func TestLoadFromDirEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".deepwiki"), 0o755))
	yaml := []byte("embedding:\n  model: from-file\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".deepwiki", "config.yml"), yaml, 0o644))

	t.Setenv("DEEPWIKI_EMBEDDING_MODEL", "from-env")

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Embedding.Model)
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Provider = "not-a-provider"
	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidEmbeddingProvider)
}

func TestValidateRejectsNonPositiveBatchSize(t *testing.T) {
	cfg := Default()
	cfg.Chunking.BatchSize = 0
	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidChunking)
}

func TestDeepResearchResolveUsesPreset(t *testing.T) {
	cfg := Default()
	cfg.DeepResearch.ActivePreset = "quick"
	resolved := cfg.DeepResearch.Resolve()
	assert.Equal(t, cfg.DeepResearch.Presets["quick"].MaxSubQuestions, resolved.MaxSubQuestions)
}

func TestWithOverrideScopesToContext(t *testing.T) {
	custom := Default()
	custom.Embedding.Model = "scoped-model"

	ctx := WithOverride(context.Background(), custom)
	assert.Equal(t, "scoped-model", FromContext(ctx).Embedding.Model)
	assert.NotEqual(t, "scoped-model", FromContext(context.Background()).Embedding.Model)
}
