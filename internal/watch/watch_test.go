package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatchesExistingDirectory(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, nil)
	require.NoError(t, err)
	require.NotNil(t, w)
	require.NoError(t, w.Stop())
}

func TestWriteFiresCallbackAfterDebounce(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, nil)
	require.NoError(t, err)
	w.debounce = 50 * time.Millisecond
	defer w.Stop()

	fired := make(chan []string, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx, func(changed []string) { fired <- changed })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a"), 0o644))

	select {
	case changed := <-fired:
		assert.NotEmpty(t, changed)
	case <-time.After(2 * time.Second):
		t.Fatal("callback did not fire")
	}
}

func TestExcludedDirectoryIsSkipped(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "vendor"), 0o755))

	w, err := New(dir, func(rel string) bool { return rel == "vendor" })
	require.NoError(t, err)
	defer w.Stop()
	w.debounce = 50 * time.Millisecond

	fired := make(chan []string, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx, func(changed []string) { fired <- changed })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor", "ignored.go"), []byte("x"), 0o644))

	select {
	case <-fired:
		t.Fatal("callback fired for excluded directory")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestPauseAccumulatesThenResumeFlushes(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, nil)
	require.NoError(t, err)
	defer w.Stop()
	w.debounce = 50 * time.Millisecond

	fired := make(chan []string, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx, func(changed []string) { fired <- changed })
	w.Pause()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte("package b"), 0o644))
	time.Sleep(150 * time.Millisecond)

	select {
	case <-fired:
		t.Fatal("callback fired while paused")
	default:
	}

	w.Resume()
	select {
	case changed := <-fired:
		assert.NotEmpty(t, changed)
	case <-time.After(2 * time.Second):
		t.Fatal("callback did not fire after resume")
	}
}
