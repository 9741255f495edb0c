package index

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brobert1/seekr/internal/lexical"
	"github.com/brobert1/seekr/internal/semantic"
	"github.com/brobert1/seekr/internal/sidecar"
)

func newConsistencyFixture(t *testing.T) (*lexical.Index, *semantic.Index, *sidecar.Table) {
	t.Helper()
	lex, err := lexical.Open(filepath.Join(t.TempDir(), "lexical"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = lex.Close() })

	sem := semantic.New()
	table := sidecar.New()
	return lex, sem, table
}

func TestCheckFindsNoIssuesOnConsistentStores(t *testing.T) {
	lex, sem, table := newConsistencyFixture(t)

	require.NoError(t, lex.Add([]lexical.Document{{ChunkID: 1, Path: "a.go", Text: "func f() {}"}}))
	require.NoError(t, sem.Add(1, "a.go", make([]float32, semantic.Dimensions)))
	table.Put(sidecar.Record{ChunkID: 1, Path: "a.go"})

	checker := NewConsistencyChecker(lex, sem, table)
	result, err := checker.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Checked)
	require.Empty(t, result.Inconsistencies)
}

func TestCheckFindsOrphanLexicalChunk(t *testing.T) {
	lex, sem, table := newConsistencyFixture(t)

	// Indexed lexically but never committed to the sidecar table.
	require.NoError(t, lex.Add([]lexical.Document{{ChunkID: 1, Path: "a.go", Text: "func f() {}"}}))

	checker := NewConsistencyChecker(lex, sem, table)
	result, err := checker.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Inconsistencies, 1)
	require.Equal(t, InconsistencyOrphanLexical, result.Inconsistencies[0].Type)
	require.Equal(t, uint64(1), result.Inconsistencies[0].ChunkID)
}

func TestCheckFindsMissingSemanticChunk(t *testing.T) {
	lex, sem, table := newConsistencyFixture(t)

	require.NoError(t, lex.Add([]lexical.Document{{ChunkID: 1, Path: "a.go", Text: "func f() {}"}}))
	table.Put(sidecar.Record{ChunkID: 1, Path: "a.go"})
	// No corresponding sem.Add call: the embedder failed for this chunk.

	checker := NewConsistencyChecker(lex, sem, table)
	result, err := checker.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Inconsistencies, 1)
	require.Equal(t, InconsistencyMissingSemantic, result.Inconsistencies[0].Type)
}

func TestRepairDeletesOrphanChunks(t *testing.T) {
	lex, sem, table := newConsistencyFixture(t)

	require.NoError(t, lex.Add([]lexical.Document{
		{ChunkID: 1, Path: "a.go", Text: "func keep() {}"},
		{ChunkID: 2, Path: "b.go", Text: "func orphan() {}"},
	}))
	require.NoError(t, sem.Add(1, "a.go", make([]float32, semantic.Dimensions)))
	require.NoError(t, sem.Add(2, "b.go", make([]float32, semantic.Dimensions)))
	table.Put(sidecar.Record{ChunkID: 1, Path: "a.go"})
	// chunk_id 2 never made it into the sidecar table.

	checker := NewConsistencyChecker(lex, sem, table)
	result, err := checker.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Inconsistencies, 2) // orphan in both lexical and semantic

	require.NoError(t, checker.Repair(context.Background(), result.Inconsistencies))

	ids, err := lex.AllIDs(context.Background())
	require.NoError(t, err)
	require.ElementsMatch(t, []uint64{1}, ids)
	require.ElementsMatch(t, []uint64{1}, sem.AllIDs())

	result, err = checker.Check(context.Background())
	require.NoError(t, err)
	require.Empty(t, result.Inconsistencies)
}
