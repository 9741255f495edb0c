package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingIndexer struct {
	calls atomic.Int32
}

func (c *countingIndexer) Index(_ context.Context, _ string, _ bool) error {
	c.calls.Add(1)
	return nil
}

func TestFiveRapidEditsTriggerExactlyOneRun(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a\n"), 0o644))

	indexer := &countingIndexer{}
	w, err := New(root, 50*time.Millisecond, indexer)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = w.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("package a\n// edit\n"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-w.Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for debounced index run")
	}

	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(1), indexer.calls.Load())
}
