package semantic

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func unitVec(t *testing.T, seed float32) []float32 {
	t.Helper()
	v := make([]float32, Dimensions)
	for i := range v {
		v[i] = seed
	}
	return v
}

func TestAddAndSearchReturnsNearestChunk(t *testing.T) {
	idx := New()
	defer idx.Close()

	require.NoError(t, idx.Add(1, "a.py", unitVec(t, 1.0)))
	require.NoError(t, idx.Add(2, "b.py", unitVec(t, -1.0)))

	hits, err := idx.Search(unitVec(t, 1.0), 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, uint64(1), hits[0].ChunkID)
}

func TestDeleteByPathHidesItsChunks(t *testing.T) {
	idx := New()
	defer idx.Close()

	require.NoError(t, idx.Add(1, "a.py", unitVec(t, 1.0)))
	require.NoError(t, idx.Add(2, "a.py", unitVec(t, 0.9)))
	require.NoError(t, idx.Add(3, "b.py", unitVec(t, -1.0)))

	idx.DeleteByPath("a.py")

	hits, err := idx.Search(unitVec(t, 1.0), 10)
	require.NoError(t, err)
	for _, h := range hits {
		require.NotEqual(t, uint64(1), h.ChunkID)
		require.NotEqual(t, uint64(2), h.ChunkID)
	}
}

func TestSaveAndReopenPreservesChunks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.hnsw")

	idx := New()
	require.NoError(t, idx.Add(7, "a.py", unitVec(t, 1.0)))
	require.NoError(t, idx.Save(path))
	require.NoError(t, idx.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	hits, err := reopened.Search(unitVec(t, 1.0), 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, uint64(7), hits[0].ChunkID)
}

func TestWrongDimensionVectorRejected(t *testing.T) {
	idx := New()
	defer idx.Close()
	err := idx.Add(1, "a.py", make([]float32, 10))
	require.Error(t, err)
}
