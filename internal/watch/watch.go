// Package watch triggers an incremental re-index when files change under a
// repository root, debouncing bursts of edits into a single re-index run.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is the quiet period after the last observed change
// before Callback fires, absorbing editor save bursts and git checkouts.
const defaultDebounce = 500 * time.Millisecond

// Callback is invoked with the set of changed file paths once a debounce
// window has elapsed with no further activity.
type Callback func(changed []string)

// Watcher recursively watches a repository root and fires a debounced
// Callback on create/write/remove/rename events, skipping excluded
// directories so editor swap files and build output never trigger a
// re-index.
type Watcher struct {
	fsw      *fsnotify.Watcher
	root     string
	debounce time.Duration
	exclude  func(path string) bool

	mu       sync.Mutex
	pending  map[string]bool
	timer    *time.Timer
	paused   bool
	cb       Callback
	stopOnce sync.Once
	done     chan struct{}
}

// New watches root recursively. exclude, if non-nil, is consulted with
// each candidate directory's path (relative to root) and skips it (and
// its subtree) when it returns true; a nil exclude watches everything.
func New(root string, exclude func(relPath string) bool) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:      fsw,
		root:     root,
		debounce: defaultDebounce,
		exclude:  exclude,
		pending:  make(map[string]bool),
		done:     make(chan struct{}),
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr == nil && w.exclude != nil && w.exclude(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// Start begins watching in a background goroutine, firing cb after
// debounce settles on every burst of events, until ctx is cancelled or
// Stop is called.
func (w *Watcher) Start(ctx context.Context, cb Callback) {
	w.mu.Lock()
	w.cb = cb
	w.mu.Unlock()
	go w.loop(ctx)
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.recordEvent(ev)
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) recordEvent(ev fsnotify.Event) {
	if strings.HasSuffix(ev.Name, "~") || strings.Contains(ev.Name, ".swp") {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && ev.Op&fsnotify.Create != 0 {
		w.addTree(ev.Name) //nolint:errcheck
	}

	w.pending[ev.Name] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if w.paused || len(w.pending) == 0 || w.cb == nil {
		w.mu.Unlock()
		return
	}
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	w.pending = make(map[string]bool)
	cb := w.cb
	w.mu.Unlock()

	cb(changed)
}

// Pause stops callbacks from firing while events keep accumulating.
func (w *Watcher) Pause() {
	w.mu.Lock()
	w.paused = true
	w.mu.Unlock()
}

// Resume re-enables callbacks, firing immediately if events accumulated
// while paused.
func (w *Watcher) Resume() {
	w.mu.Lock()
	w.paused = false
	hadPending := len(w.pending) > 0
	w.mu.Unlock()
	if hadPending {
		w.flush()
	}
}

// Stop closes the underlying fsnotify watcher and waits for the watch
// loop to exit.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		err = w.fsw.Close()
		<-w.done
	})
	return err
}
