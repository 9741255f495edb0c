package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brobert1/seekr/internal/embed"
	"github.com/brobert1/seekr/internal/index"
	"github.com/brobert1/seekr/internal/lexical"
	"github.com/brobert1/seekr/internal/watcher"
)

func TestWatcher_FileEditTriggersReindexVisibleToSearch(t *testing.T) {
	workspace := t.TempDir()
	writeFiles(t, workspace, map[string]string{
		"a.go": "package a\n\nfunc original() {}\n",
	})

	layout := index.NewLayout(t.TempDir())
	ix, err := index.New(layout, embed.NewStaticEmbedder())
	require.NoError(t, err)
	defer func() { _ = ix.Close() }()
	require.NoError(t, ix.Index(context.Background(), workspace, false))

	w, err := watcher.New(workspace, 50*time.Millisecond, ix)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(workspace, "b.go"), []byte("package a\n\nfunc addedLater() {}\n"), 0o644))

	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for debounced index run")
	}
	// Give the committed stores a moment to settle before reopening.
	time.Sleep(50 * time.Millisecond)

	lex, err := lexical.Open(layout.LexicalDir())
	require.NoError(t, err)
	defer func() { _ = lex.Close() }()
	hits, err := lex.Search(context.Background(), "addedLater", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits, "watcher-triggered reindex should have picked up the new file")
}
