// Package watcher drives incremental re-indexing from filesystem
// events. It implements the debounce state machine from §4.8: Idle,
// Pending (accumulating a dirty set and resetting a timer on every
// event), and Indexing (a single full diff pass over the workspace).
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// State is the watcher's debounce state.
type State int

const (
	StateIdle State = iota
	StatePending
	StateIndexing
)

// Indexer is the subset of *index.Indexer the watcher depends on.
type Indexer interface {
	Index(ctx context.Context, root string, force bool) error
}

// Watcher subscribes to filesystem events under root and debounces
// them into indexing runs. Exactly one indexing run is in flight at a
// time; events that arrive while one is running are coalesced into a
// new Pending cycle that starts once it finishes.
type Watcher struct {
	root     string
	debounce time.Duration
	indexer  Indexer
	fsw      *fsnotify.Watcher

	mu      sync.Mutex
	state   State
	dirty   map[string]struct{}
	timer   *time.Timer
	pending bool // an event arrived while Indexing was running

	runDone chan struct{} // fires once per completed indexing run, for tests
}

// New creates a Watcher for root with the given debounce window.
func New(root string, debounce time.Duration, indexer Indexer) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	return &Watcher{
		root:     absRoot,
		debounce: debounce,
		indexer:  indexer,
		fsw:      fsw,
		state:    StateIdle,
		dirty:    make(map[string]struct{}),
		runDone:  make(chan struct{}, 1),
	}, nil
}

// Run watches root until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.addRecursive(w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	defer func() { _ = w.fsw.Close() }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

// addRecursive registers every directory under root with fsnotify,
// skipping hidden directories (including .git). .gitignore rules are
// not consulted here, so directories they exclude are still watched.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && path != root {
			return fs.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// handleEvent applies a raw fsnotify event to the debounce state
// machine. Events under .git are dropped here. Events from directories
// excluded only by .gitignore are not filtered and still trigger a
// run; that run's walk skips those files, along with the file-level
// filters (extension allowlist, binary check).
func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if strings.Contains(ev.Name, string(filepath.Separator)+".git"+string(filepath.Separator)) {
		return
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = w.fsw.Add(ev.Name)
		}
	}

	switch w.state {
	case StateIndexing:
		w.pending = true
		w.dirty[ev.Name] = struct{}{}
		return
	case StateIdle:
		w.state = StatePending
	}

	w.dirty[ev.Name] = struct{}{}
	w.resetTimer(ctx)
}

func (w *Watcher) resetTimer(ctx context.Context) {
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.fire(ctx) })
}

// fire transitions Pending -> Indexing, runs one full diff pass, then
// returns to Idle (or immediately re-enters Pending if events arrived
// during the run).
func (w *Watcher) fire(ctx context.Context) {
	w.mu.Lock()
	if w.state != StatePending {
		w.mu.Unlock()
		return
	}
	w.state = StateIndexing
	w.dirty = make(map[string]struct{})
	w.mu.Unlock()

	if err := w.indexer.Index(ctx, w.root, false); err != nil {
		slog.Warn("watch-triggered index run failed", slog.String("error", err.Error()))
	}

	select {
	case w.runDone <- struct{}{}:
	default:
	}

	w.mu.Lock()
	w.state = StateIdle
	if w.pending {
		w.pending = false
		w.state = StatePending
		w.resetTimer(ctx)
	}
	w.mu.Unlock()
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Done returns a channel that receives once after every completed
// indexing run, for callers (tests, CLI progress output) that need to
// observe the debounce timer firing.
func (w *Watcher) Done() <-chan struct{} {
	return w.runDone
}
