package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brobert1/seekr/internal/embed"
	seekrerrors "github.com/brobert1/seekr/internal/errors"
	"github.com/brobert1/seekr/internal/index"
)

func indexFixture(t *testing.T, files map[string]string) (string, index.Layout) {
	t.Helper()
	workspace := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(workspace, name), []byte(content), 0o644))
	}

	layout := index.NewLayout(t.TempDir())
	embedder := embed.NewStaticEmbedder()
	ix, err := index.New(layout, embedder)
	require.NoError(t, err)
	defer func() { _ = ix.Close() }()
	require.NoError(t, ix.Index(context.Background(), workspace, false))

	return workspace, layout
}

func TestLexicalSearchReturnsSingleHit(t *testing.T) {
	workspace, layout := indexFixture(t, map[string]string{
		"a.py": "def authenticate(user): return True\n",
	})
	origDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(workspace))
	defer func() { _ = os.Chdir(origDir) }()

	engine, err := Open(layout, embed.NewStaticEmbedder())
	require.NoError(t, err)
	defer func() { _ = engine.Close() }()

	results, err := engine.Search(context.Background(), Query{Text: "authenticate", Mode: ModeLexical, K: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "a.py", results[0].Path)
	require.Equal(t, 1, results[0].StartLine)
}

func TestEmptyQueryReturnsEmptyResultNotError(t *testing.T) {
	_, layout := indexFixture(t, map[string]string{"a.py": "def f(): pass\n"})
	engine, err := Open(layout, embed.NewStaticEmbedder())
	require.NoError(t, err)
	defer func() { _ = engine.Close() }()

	results, err := engine.Search(context.Background(), Query{Text: "", Mode: ModeLexical, K: 10})
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestHybridAlphaOneMatchesLexicalOrder(t *testing.T) {
	workspace, layout := indexFixture(t, map[string]string{
		"a.py": "def authenticate(user): return True\n",
		"b.py": "def login(): pass\n",
	})
	origDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(workspace))
	defer func() { _ = os.Chdir(origDir) }()

	engine, err := Open(layout, embed.NewStaticEmbedder())
	require.NoError(t, err)
	defer func() { _ = engine.Close() }()

	lexResults, err := engine.Search(context.Background(), Query{Text: "login authenticate", Mode: ModeLexical, K: 10})
	require.NoError(t, err)

	hybridResults, err := engine.Search(context.Background(), Query{Text: "login authenticate", Mode: ModeHybrid, K: 10, Alpha: 1})
	require.NoError(t, err)

	require.Equal(t, len(lexResults), len(hybridResults))
	for i := range lexResults {
		require.Equal(t, lexResults[i].ChunkID, hybridResults[i].ChunkID)
	}
}

func TestMissingIndexReturnsIndexMissing(t *testing.T) {
	layout := index.NewLayout(t.TempDir())
	_, err := Open(layout, embed.NewStaticEmbedder())
	require.Error(t, err)
	require.Equal(t, seekrerrors.KindIndexMissing, seekrerrors.GetKind(err))
}

func TestMissingSemanticIndexFallsBackToLexical(t *testing.T) {
	workspace, layout := indexFixture(t, map[string]string{
		"a.py": "def authenticate(user): return True\n",
	})
	origDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(workspace))
	defer func() { _ = os.Chdir(origDir) }()

	// Simulate a workspace indexed before the semantic store existed.
	require.NoError(t, os.Remove(layout.GraphPath()))

	engine, err := Open(layout, embed.NewStaticEmbedder())
	require.NoError(t, err)
	defer func() { _ = engine.Close() }()
	require.False(t, engine.semanticAvailable)

	results, err := engine.Search(context.Background(), Query{Text: "authenticate", Mode: ModeSemantic, K: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, ModeLexical, results[0].Mode)

	results, err = engine.Search(context.Background(), Query{Text: "authenticate", Mode: ModeHybrid, K: 10, Alpha: 0.5})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, ModeLexical, results[0].Mode)
}
