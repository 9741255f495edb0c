// Package lock provides the single advisory writer lock that
// guarantees at most one indexing process per workspace.
package lock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// WriterLock is the advisory lock file under the index directory.
// Readers (search, status) never take it; only the indexer and
// watcher do.
type WriterLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// New creates a writer lock for the given index directory. The lock
// file is created at <indexDir>/lock.
func New(indexDir string) *WriterLock {
	path := filepath.Join(indexDir, "lock")
	return &WriterLock{path: path, flock: flock.New(path)}
}

// TryLock attempts to acquire the lock without blocking. It returns
// false, nil when another process already holds it.
func (l *WriterLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("create index directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Unlock releases the lock. Safe to call multiple times.
func (l *WriterLock) Unlock() error {
	if !l.locked {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	l.locked = false
	return nil
}

// Path returns the lock file's path.
func (l *WriterLock) Path() string { return l.path }
