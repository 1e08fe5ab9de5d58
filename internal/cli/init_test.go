package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/deepwiki-go/deepwiki/internal/config"
)

func TestRunInitWritesDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	cfgFile = dir
	initForceFlag = false
	defer func() { cfgFile = ""; initForceFlag = false }()

	err := runInit(initCmd, nil)
	require.NoError(t, err)

	path := filepath.Join(dir, ".deepwiki", "config.yml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, config.Default().Embedding.Provider, cfg.Embedding.Provider)
	assert.Equal(t, config.Default().Chunking.ClassSplitThreshold, cfg.Chunking.ClassSplitThreshold)
}

func TestRunInitRefusesToOverwriteWithoutForce(t *testing.T) {
	dir := t.TempDir()
	cfgFile = dir
	initForceFlag = false
	defer func() { cfgFile = ""; initForceFlag = false }()

	require.NoError(t, runInit(initCmd, nil))
	err := runInit(initCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRunInitForceOverwrites(t *testing.T) {
	dir := t.TempDir()
	cfgFile = dir
	defer func() { cfgFile = ""; initForceFlag = false }()

	initForceFlag = false
	require.NoError(t, runInit(initCmd, nil))

	initForceFlag = true
	err := runInit(initCmd, nil)
	require.NoError(t, err)
}
