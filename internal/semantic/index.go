// Package semantic implements the approximate nearest-neighbor index
// over chunk embeddings, backed by coder/hnsw.
package semantic

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"
)

// Dimensions is the fixed embedding width every vector in the index
// must have.
const Dimensions = 384

// Construction parameters pinned by the spec. ef_construction is not
// applied below: coder/hnsw derives build-time search width from M and
// Ml rather than exposing a separate knob, so there is nothing to set it
// on; it is kept here only as a record of the pinned value.
const (
	M              = 16
	EfConstruction = 128
	EfSearch       = 64
)

// Hit is a ranked semantic search result.
type Hit struct {
	ChunkID    uint64
	Similarity float32
}

// Index is the persistent HNSW vector index. Deletion is lazy: removed
// chunk IDs are dropped from the id set but their nodes are left
// orphaned in the graph, matching coder/hnsw's own guidance against
// deleting the last remaining node.
type Index struct {
	mu        sync.RWMutex
	graph     *hnsw.Graph[uint64]
	live      map[uint64]struct{}   // chunk IDs currently visible
	byPath    map[string]map[uint64]struct{}
	closed    bool
}

type meta struct {
	Live   map[uint64]struct{}
	ByPath map[string]map[uint64]struct{}
}

// New creates an empty in-memory index with the spec's HNSW parameters.
func New() *Index {
	g := hnsw.NewGraph[uint64]()
	g.M = M
	g.EfSearch = EfSearch
	g.Ml = 0.25 // coder/hnsw's default level-generation factor
	g.Distance = hnsw.CosineDistance

	return &Index{
		graph:  g,
		live:   make(map[uint64]struct{}),
		byPath: make(map[string]map[uint64]struct{}),
	}
}

// Open loads an index previously written by Save, or creates a fresh
// one if graphPath does not exist.
func Open(graphPath string) (*Index, error) {
	idx := New()

	if _, err := os.Stat(graphPath); os.IsNotExist(err) {
		return idx, nil
	}

	if err := idx.load(graphPath); err != nil {
		return nil, fmt.Errorf("open semantic index: %w", err)
	}
	return idx, nil
}

// Add inserts or replaces the vector for chunkID under path.
func (idx *Index) Add(chunkID uint64, path string, vector []float32) error {
	if len(vector) != Dimensions {
		return fmt.Errorf("semantic: expected %d-dim vector, got %d", Dimensions, len(vector))
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return fmt.Errorf("semantic index is closed")
	}

	v := make([]float32, len(vector))
	copy(v, vector)
	normalizeInPlace(v)

	idx.graph.Add(hnsw.MakeNode(chunkID, v))
	idx.live[chunkID] = struct{}{}

	if idx.byPath[path] == nil {
		idx.byPath[path] = make(map[uint64]struct{})
	}
	idx.byPath[path][chunkID] = struct{}{}

	return nil
}

// DeleteByPath removes every chunk indexed under path.
func (idx *Index) DeleteByPath(path string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for chunkID := range idx.byPath[path] {
		delete(idx.live, chunkID)
	}
	delete(idx.byPath, path)
}

// AllIDs returns every currently-live chunk ID, for cross-index
// consistency checking.
func (idx *Index) AllIDs() []uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ids := make([]uint64, 0, len(idx.live))
	for id := range idx.live {
		ids = append(ids, id)
	}
	return ids
}

// DeleteByID removes the given chunk IDs directly, wherever their path
// bucket is, used to repair orphaned entries the consistency checker
// finds. The underlying graph node is left orphaned, matching
// DeleteByPath's lazy-deletion approach.
func (idx *Index) DeleteByID(ids []uint64) {
	if len(ids) == 0 {
		return
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	toDelete := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		toDelete[id] = struct{}{}
		delete(idx.live, id)
	}
	for path, set := range idx.byPath {
		for id := range toDelete {
			delete(set, id)
		}
		if len(set) == 0 {
			delete(idx.byPath, path)
		}
	}
}

// Search returns the top-k nearest chunks to the query vector by cosine
// similarity, restricted to currently-live (non-deleted) chunk IDs.
func (idx *Index) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != Dimensions {
		return nil, fmt.Errorf("semantic: expected %d-dim query vector, got %d", Dimensions, len(query))
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, fmt.Errorf("semantic index is closed")
	}
	if idx.graph.Len() == 0 {
		return nil, nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	normalizeInPlace(q)

	// Over-fetch to compensate for lazily-deleted nodes the graph still
	// returns candidates for.
	fetch := k
	if orphans := idx.graph.Len() - len(idx.live); orphans > 0 {
		fetch = k + orphans
		if fetch > idx.graph.Len() {
			fetch = idx.graph.Len()
		}
	}
	nodes := idx.graph.Search(q, fetch)

	hits := make([]Hit, 0, k)
	for _, n := range nodes {
		if _, ok := idx.live[n.Key]; !ok {
			continue
		}
		dist := idx.graph.Distance(q, n.Value)
		hits = append(hits, Hit{ChunkID: n.Key, Similarity: 1 - dist})
		if len(hits) == k {
			break
		}
	}
	return hits, nil
}

// Save persists the graph and chunk-ID metadata to disk, atomically.
func (idx *Index) Save(graphPath string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(graphPath), 0o755); err != nil {
		return fmt.Errorf("create semantic dir: %w", err)
	}

	tmp := graphPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create graph file: %w", err)
	}
	if err := idx.graph.Export(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("export graph: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, graphPath); err != nil {
		os.Remove(tmp)
		return err
	}

	return idx.saveMeta(graphPath + ".meta")
}

func (idx *Index) saveMeta(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(meta{Live: idx.live, ByPath: idx.byPath}); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func (idx *Index) load(graphPath string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	f, err := os.Open(graphPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := idx.graph.Import(bufio.NewReader(f)); err != nil {
		return fmt.Errorf("import graph: %w", err)
	}

	metaFile, err := os.Open(graphPath + ".meta")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer metaFile.Close()

	var m meta
	if err := gob.NewDecoder(metaFile).Decode(&m); err != nil {
		return fmt.Errorf("decode semantic metadata: %w", err)
	}
	idx.live = m.Live
	idx.byPath = m.ByPath
	return nil
}

// Close releases resources.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.closed = true
	idx.graph = nil
	return nil
}

func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}
