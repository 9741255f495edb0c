package walk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWalkReturnsAllowlistedFilesInLexicographicOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.py", "def login(): pass\n")
	writeFile(t, root, "a.py", "def authenticate(user): return True\n")
	writeFile(t, root, "notes.txt", "not allowlisted\n")

	w, err := New()
	require.NoError(t, err)

	files, err := w.Walk(root)
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "a.py", files[0].Path)
	require.Equal(t, "python", files[0].LanguageTag)
	require.Equal(t, "b.py", files[1].Path)
}

func TestWalkHonorsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "ignored/\n")
	writeFile(t, root, "ignored/a.go", "package ignored\n")
	writeFile(t, root, "kept.go", "package kept\n")

	w, err := New()
	require.NoError(t, err)

	files, err := w.Walk(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "kept.go", files[0].Path)
}

func TestWalkSkipsBinaryFiles(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "blob.go")
	require.NoError(t, os.WriteFile(path, []byte("package x\x00binary"), 0o644))

	w, err := New()
	require.NoError(t, err)

	files, err := w.Walk(root)
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestWalkSkipsHiddenDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".hidden/a.go", "package hidden\n")
	writeFile(t, root, "visible.go", "package visible\n")

	w, err := New()
	require.NoError(t, err)

	files, err := w.Walk(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "visible.go", files[0].Path)
}
