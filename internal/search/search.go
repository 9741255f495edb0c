// Package search implements the query engine: lexical, semantic, and
// hybrid (Reciprocal Rank Fusion) retrieval over a committed index.
package search

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/brobert1/seekr/internal/embed"
	seekrerrors "github.com/brobert1/seekr/internal/errors"
	"github.com/brobert1/seekr/internal/index"
	"github.com/brobert1/seekr/internal/lexical"
	"github.com/brobert1/seekr/internal/semantic"
	"github.com/brobert1/seekr/internal/sidecar"
)

// Mode selects which retrieval path a query takes.
type Mode string

const (
	ModeLexical  Mode = "lexical"
	ModeSemantic Mode = "semantic"
	ModeHybrid   Mode = "hybrid"
)

// RRFConstant is the fixed RRF smoothing parameter named in §4.7.
const RRFConstant = 60

// Query is a single search request.
type Query struct {
	Text         string
	Mode         Mode
	K            int
	Alpha        float64
	ContextLines int
}

// Result is one enriched, ranked hit.
type Result struct {
	ChunkID   uint64
	Path      string
	StartLine int
	EndLine   int
	Score     float64
	Mode      Mode
	Snippet   string
}

// Engine answers queries against the last committed snapshot of a
// workspace's three stores. It is read-only and safe for concurrent
// use by multiple queries while an indexing run proceeds separately.
type Engine struct {
	lex               *lexical.Index
	sem               *semantic.Index
	table             *sidecar.Table
	embedder          embed.Embedder
	root              string
	semanticAvailable bool
}

// Open opens the lexical index, semantic index, and sidecar table for
// read access. Returns IndexMissing only if the workspace itself has
// never been indexed (no lexical index or sidecar table). A workspace
// indexed before the semantic store existed, or with embeddings
// disabled, still opens: semantic and hybrid queries against it
// degrade to lexical-only at Search time rather than failing outright.
// Chunk paths are resolved against the workspace root persisted by the
// last `seekr index` run, so the caller need not share a working
// directory with it.
func Open(layout index.Layout, embedder embed.Embedder) (*Engine, error) {
	if _, err := os.Stat(layout.LexicalDir()); err != nil {
		return nil, seekrerrors.IndexMissing("lexical index has not been built yet; run `seekr index`", err)
	}
	if _, err := os.Stat(layout.SidecarPath()); err != nil {
		return nil, seekrerrors.IndexMissing("sidecar chunk table has not been built yet; run `seekr index`", err)
	}
	semanticAvailable := true
	if _, err := os.Stat(layout.GraphPath()); err != nil {
		semanticAvailable = false
	}

	lex, err := lexical.Open(layout.LexicalDir())
	if err != nil {
		return nil, seekrerrors.IndexMissing("open lexical index", err)
	}
	sem, err := semantic.Open(layout.GraphPath())
	if err != nil {
		_ = lex.Close()
		return nil, seekrerrors.IndexMissing("open semantic index", err)
	}
	table, err := sidecar.Open(layout.SidecarPath())
	if err != nil {
		_ = lex.Close()
		return nil, seekrerrors.IndexMissing("open sidecar table", err)
	}
	root, _ := index.ReadWorkspaceFile(layout)
	return &Engine{
		lex:               lex,
		sem:               sem,
		table:             table,
		embedder:          embedder,
		root:              root,
		semanticAvailable: semanticAvailable,
	}, nil
}

// Close releases the engine's lexical index handle.
func (e *Engine) Close() error {
	return e.lex.Close()
}

// Search executes q and returns enriched, ranked results.
func (e *Engine) Search(ctx context.Context, q Query) ([]Result, error) {
	if q.Text == "" {
		return nil, nil
	}
	k := q.K
	if k <= 0 {
		k = 10
	}

	mode := q.Mode
	if !e.semanticAvailable && (mode == ModeSemantic || mode == ModeHybrid) {
		slog.Warn("no semantic index for this workspace, falling back to lexical search",
			slog.String("requested_mode", string(mode)))
		mode = ModeLexical
	}

	var ranked []rankedHit
	var err error
	switch mode {
	case ModeSemantic:
		ranked, err = e.semanticRanked(ctx, q.Text, k)
	case ModeHybrid:
		ranked, err = e.hybridRanked(ctx, q.Text, k, q.Alpha)
	default:
		ranked, err = e.lexicalRanked(ctx, q.Text, k)
	}
	if err != nil {
		return nil, err
	}

	return e.enrich(ranked, mode, q.ContextLines), nil
}

type rankedHit struct {
	chunkID uint64
	score   float64
	mode    Mode
}

func (e *Engine) lexicalRanked(ctx context.Context, text string, k int) ([]rankedHit, error) {
	hits, err := e.lex.Search(ctx, text, k)
	if err != nil {
		return nil, seekrerrors.IoError("lexical search", err)
	}
	out := make([]rankedHit, len(hits))
	for i, h := range hits {
		out[i] = rankedHit{chunkID: h.ChunkID, score: h.Score, mode: ModeLexical}
	}
	return out, nil
}

func (e *Engine) semanticRanked(ctx context.Context, text string, k int) ([]rankedHit, error) {
	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, seekrerrors.EmbedderError("embed query", err)
	}
	hits, err := e.sem.Search(vec, k)
	if err != nil {
		return nil, seekrerrors.IoError("semantic search", err)
	}
	out := make([]rankedHit, len(hits))
	for i, h := range hits {
		out[i] = rankedHit{chunkID: h.ChunkID, score: float64(h.Similarity), mode: ModeSemantic}
	}
	return out, nil
}

// hybridRanked fuses lexical and semantic rankings with weighted RRF
// per §4.7: weight_lexical = alpha, weight_semantic = 1 - alpha, ties
// broken by higher lexical rank then ascending chunk_id. The lexical
// search and the embed-then-semantic-search leg run concurrently since
// neither depends on the other's result.
func (e *Engine) hybridRanked(ctx context.Context, text string, k int, alpha float64) ([]rankedHit, error) {
	kFetch := k * 2
	if kFetch < 50 {
		kFetch = 50
	}

	var lexHits []lexical.Hit
	var semHits []semantic.Hit

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := e.lex.Search(gctx, text, kFetch)
		if err != nil {
			return seekrerrors.IoError("lexical search", err)
		}
		lexHits = hits
		return nil
	})
	g.Go(func() error {
		vec, err := e.embedder.Embed(gctx, text)
		if err != nil {
			return seekrerrors.EmbedderError("embed query", err)
		}
		hits, err := e.sem.Search(vec, kFetch)
		if err != nil {
			return seekrerrors.IoError("semantic search", err)
		}
		semHits = hits
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	type fused struct {
		chunkID  uint64
		score    float64
		lexRank  int // 0 means absent
	}
	byID := make(map[uint64]*fused)

	for rank, h := range lexHits {
		r := rank + 1
		f, ok := byID[h.ChunkID]
		if !ok {
			f = &fused{chunkID: h.ChunkID}
			byID[h.ChunkID] = f
		}
		f.score += alpha / float64(RRFConstant+r)
		f.lexRank = r
	}
	for rank, h := range semHits {
		r := rank + 1
		f, ok := byID[h.ChunkID]
		if !ok {
			f = &fused{chunkID: h.ChunkID}
			byID[h.ChunkID] = f
		}
		f.score += (1 - alpha) / float64(RRFConstant+r)
	}

	all := make([]*fused, 0, len(byID))
	for _, f := range byID {
		all = append(all, f)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		li, lj := all[i].lexRank, all[j].lexRank
		if li == 0 {
			li = int(^uint(0) >> 1)
		}
		if lj == 0 {
			lj = int(^uint(0) >> 1)
		}
		if li != lj {
			return li < lj
		}
		return all[i].chunkID < all[j].chunkID
	})

	if len(all) > k {
		all = all[:k]
	}
	out := make([]rankedHit, len(all))
	for i, f := range all {
		out[i] = rankedHit{chunkID: f.chunkID, score: f.score, mode: ModeHybrid}
	}
	return out, nil
}

// enrich resolves each chunk ID against the sidecar table, opens its
// source file, and extracts the context-padded line span. Unreadable
// files are omitted rather than failing the whole query.
func (e *Engine) enrich(hits []rankedHit, mode Mode, contextLines int) []Result {
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		rec, ok := e.table.Get(h.chunkID)
		if !ok {
			continue
		}
		abs := rec.Path
		if e.root != "" && !filepath.IsAbs(abs) {
			abs = filepath.Join(e.root, rec.Path)
		}
		snippet, err := readSpan(abs, rec.StartLine, rec.EndLine, contextLines)
		if err != nil {
			continue
		}
		results = append(results, Result{
			ChunkID:   h.chunkID,
			Path:      rec.Path,
			StartLine: rec.StartLine,
			EndLine:   rec.EndLine,
			Score:     h.score,
			Mode:      mode,
			Snippet:   snippet,
		})
	}
	return results
}

// readSpan reads [startLine-contextLines, endLine+contextLines] from
// path, clamped to the file's bounds. path is opened as given; enrich
// joins it to the persisted workspace root when one is known, and a
// relative path is otherwise resolved against the current directory.
func readSpan(path string, startLine, endLine, contextLines int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	lo := startLine - contextLines
	if lo < 1 {
		lo = 1
	}
	hi := endLine + contextLines

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if line < lo {
			continue
		}
		if line > hi {
			break
		}
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out, nil
}
