package sidecar

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutAndGet(t *testing.T) {
	tbl := New()
	tbl.Put(Record{ChunkID: 1, Path: "a.go", StartLine: 1, EndLine: 3, Text: "x", LanguageTag: "go"})

	r, ok := tbl.Get(1)
	require.True(t, ok)
	require.Equal(t, "a.go", r.Path)
}

func TestDeleteByPathReturnsDeletedIDs(t *testing.T) {
	tbl := New()
	tbl.Put(Record{ChunkID: 1, Path: "a.go"})
	tbl.Put(Record{ChunkID: 2, Path: "a.go"})
	tbl.Put(Record{ChunkID: 3, Path: "b.go"})

	deleted := tbl.DeleteByPath("a.go")
	require.ElementsMatch(t, []uint64{1, 2}, deleted)

	_, ok := tbl.Get(1)
	require.False(t, ok)
	_, ok = tbl.Get(3)
	require.True(t, ok)
}

func TestSaveAndReopenRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.bin")

	tbl := New()
	tbl.Put(Record{ChunkID: 1, Path: "a.go", StartLine: 1, EndLine: 10, Text: "hello\nworld", LanguageTag: "go"})
	tbl.Put(Record{ChunkID: 2, Path: "b.py", StartLine: 5, EndLine: 9, Text: "def f(): pass", LanguageTag: "python"})
	require.NoError(t, tbl.Save(path))

	reopened, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, 2, reopened.Len())

	r, ok := reopened.Get(1)
	require.True(t, ok)
	require.Equal(t, "a.go", r.Path)
	require.Equal(t, 1, r.StartLine)
	require.Equal(t, 10, r.EndLine)
	require.Equal(t, "hello\nworld", r.Text)
	require.Equal(t, "go", r.LanguageTag)
}

func TestOpenMissingFileReturnsEmptyTable(t *testing.T) {
	tbl, err := Open(filepath.Join(t.TempDir(), "missing.bin"))
	require.NoError(t, err)
	require.Equal(t, 0, tbl.Len())
}
