// Package lexical implements the BM25 full-text index over chunk
// documents, backed by bleve.
package lexical

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"
)

const (
	codeTokenizerName = "seekr_code_tokenizer"
	codeAnalyzerName  = "seekr_code_analyzer"
)

func init() {
	_ = registry.RegisterTokenizer(codeTokenizerName, codeTokenizerConstructor)
}

// Document is a chunk as seen by the lexical index.
type Document struct {
	ChunkID     uint64
	Path        string
	Text        string
	LanguageTag string
}

// Hit is a ranked lexical search result.
type Hit struct {
	ChunkID uint64
	Score   float64
}

// Index is the persistent BM25 index over chunk documents. Bleve's
// scorch backend scores matches with BM25 using k1=1.2/b=0.75, matching
// the fixed parameters the spec calls for, so no scoring override is
// needed here.
type Index struct {
	mu    sync.RWMutex
	bleve bleve.Index
}

type bleveDoc struct {
	ChunkID     string `json:"chunk_id"`
	Path        string `json:"path"`
	Text        string `json:"text"`
	LanguageTag string `json:"language_tag"`
}

// Open creates or opens the index at path.
func Open(path string) (*Index, error) {
	im, err := buildMapping()
	if err != nil {
		return nil, fmt.Errorf("build index mapping: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, im)
	}
	if err != nil {
		return nil, fmt.Errorf("open lexical index: %w", err)
	}

	return &Index{bleve: idx}, nil
}

func buildMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	if err := im.AddCustomAnalyzer(codeAnalyzerName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     codeTokenizerName,
		"token_filters": []string{lowercase.Name},
	}); err != nil {
		return nil, err
	}
	im.DefaultAnalyzer = codeAnalyzerName

	docMapping := bleve.NewDocumentMapping()

	chunkIDField := bleve.NewTextFieldMapping()
	chunkIDField.Analyzer = "keyword"
	docMapping.AddFieldMappingsAt("chunk_id", chunkIDField)

	pathField := bleve.NewTextFieldMapping()
	docMapping.AddFieldMappingsAt("path", pathField)

	textField := bleve.NewTextFieldMapping()
	docMapping.AddFieldMappingsAt("text", textField)

	langField := bleve.NewTextFieldMapping()
	langField.Analyzer = "keyword"
	docMapping.AddFieldMappingsAt("language_tag", langField)

	im.DefaultMapping = docMapping
	return im, nil
}

// Add inserts or replaces documents; visible immediately (bleve commits
// each batch synchronously).
func (idx *Index) Add(docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	batch := idx.bleve.NewBatch()
	for _, d := range docs {
		id := chunkIDKey(d.ChunkID)
		if err := batch.Index(id, bleveDoc{
			ChunkID:     id,
			Path:        d.Path,
			Text:        d.Text,
			LanguageTag: d.LanguageTag,
		}); err != nil {
			return fmt.Errorf("index chunk %d: %w", d.ChunkID, err)
		}
	}
	return idx.bleve.Batch(batch)
}

// DeleteByPath removes every document indexed under path.
func (idx *Index) DeleteByPath(ctx context.Context, path string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	// The path field is tokenized, so match its tokens and keep only
	// hits whose stored path is exactly path.
	q := bleve.NewMatchQuery(path)
	q.SetField("path")
	req := bleve.NewSearchRequest(q)
	req.Size = 1 << 20
	req.Fields = []string{"path"}

	res, err := idx.bleve.SearchInContext(ctx, req)
	if err != nil {
		return fmt.Errorf("find chunks for %s: %w", path, err)
	}
	if len(res.Hits) == 0 {
		return nil
	}

	batch := idx.bleve.NewBatch()
	for _, hit := range res.Hits {
		if p, _ := hit.Fields["path"].(string); p == path {
			batch.Delete(hit.ID)
		}
	}
	return idx.bleve.Batch(batch)
}

// Search returns the top-k lexical hits for query, a disjunction of
// terms scored by BM25. Ties are broken by ascending chunk ID.
func (idx *Index) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	mq := bleve.NewMatchQuery(query)
	mq.SetField("text")

	req := bleve.NewSearchRequest(mq)
	req.Size = k

	res, err := idx.bleve.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		chunkID, err := parseChunkIDKey(h.ID)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{ChunkID: chunkID, Score: h.Score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	return hits, nil
}

// AllIDs returns every chunk ID currently stored, for cross-index
// consistency checking.
func (idx *Index) AllIDs(ctx context.Context) ([]uint64, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	count, err := idx.bleve.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count lexical documents: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(count)
	req.Fields = nil

	res, err := idx.bleve.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("list lexical documents: %w", err)
	}

	ids := make([]uint64, 0, len(res.Hits))
	for _, h := range res.Hits {
		chunkID, err := parseChunkIDKey(h.ID)
		if err != nil {
			continue
		}
		ids = append(ids, chunkID)
	}
	return ids, nil
}

// DeleteByID removes the given chunk IDs directly, used to repair
// orphaned entries the consistency checker finds.
func (idx *Index) DeleteByID(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	batch := idx.bleve.NewBatch()
	for _, id := range ids {
		batch.Delete(chunkIDKey(id))
	}
	return idx.bleve.Batch(batch)
}

// Close closes the underlying bleve index.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.bleve.Close()
}

func chunkIDKey(id uint64) string {
	return strconv.FormatUint(id, 36)
}

func parseChunkIDKey(key string) (uint64, error) {
	return strconv.ParseUint(key, 36, 64)
}

func codeTokenizerConstructor(_ map[string]interface{}, _ *registry.Cache) (analysis.Tokenizer, error) {
	return &codeTokenizer{}, nil
}

type codeTokenizer struct{}

func (t *codeTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)
	tokens := tokenizeCode(text)

	stream := make(analysis.TokenStream, 0, len(tokens))
	offset := 0
	for i, tok := range tokens {
		start := strings.Index(strings.ToLower(text[offset:]), tok)
		if start == -1 {
			start = offset
		} else {
			start += offset
		}
		end := start + len(tok)
		stream = append(stream, &analysis.Token{
			Term:     []byte(tok),
			Start:    start,
			End:      end,
			Position: i + 1,
			Type:     analysis.AlphaNumeric,
		})
		if end <= len(text) {
			offset = end
		}
	}
	return stream
}
