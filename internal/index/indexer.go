// Package index orchestrates the diff-and-update pass that keeps the
// lexical index, semantic index, and sidecar chunk table consistent
// with the workspace tree and with each other.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/brobert1/seekr/internal/chunk"
	"github.com/brobert1/seekr/internal/embed"
	seekrerrors "github.com/brobert1/seekr/internal/errors"
	"github.com/brobert1/seekr/internal/fingerprint"
	"github.com/brobert1/seekr/internal/lexical"
	"github.com/brobert1/seekr/internal/lock"
	"github.com/brobert1/seekr/internal/semantic"
	"github.com/brobert1/seekr/internal/sidecar"
	"github.com/brobert1/seekr/internal/walk"
)

// changeType classifies a path between two fingerprint snapshots.
type changeType int

const (
	changeUnchanged changeType = iota
	changeAdded
	changeModified
	changeDeleted
)

// Layout is the on-disk layout of a workspace's index directory,
// rooted at ~/.seekr per §6.
type Layout struct {
	Dir string
}

// NewLayout builds a Layout under the given home directory.
func NewLayout(homeDir string) Layout { return Layout{Dir: homeDir} }

func (l Layout) LexicalDir() string      { return filepath.Join(l.Dir, "index") }
func (l Layout) SemanticDir() string     { return filepath.Join(l.Dir, "semantic") }
func (l Layout) GraphPath() string       { return filepath.Join(l.SemanticDir(), "vectors.hnsw") }
func (l Layout) SidecarPath() string     { return filepath.Join(l.SemanticDir(), "chunks.bin") }
func (l Layout) FingerprintPath() string { return filepath.Join(l.Dir, "file_cache.json") }
func (l Layout) WorkspaceFile() string   { return filepath.Join(l.Dir, "workspace.txt") }

// Status is the snapshot returned by the status command.
type Status struct {
	Workspace         string
	FileCount         int
	ChunkCount        int
	LexicalSizeBytes  int64
	SemanticSizeBytes int64
	LastIndexTime     time.Time
	Healthy           bool
}

// Indexer drives a single workspace's index lifecycle.
type Indexer struct {
	layout   Layout
	walker   *walk.Walker
	chunker  *chunk.Chunker
	embedder embed.Embedder
}

// New constructs an Indexer for the given layout and embedder.
func New(layout Layout, embedder embed.Embedder) (*Indexer, error) {
	w, err := walk.New()
	if err != nil {
		return nil, fmt.Errorf("create walker: %w", err)
	}
	return &Indexer{
		layout:   layout,
		walker:   w,
		chunker:  chunk.New(),
		embedder: embedder,
	}, nil
}

// Close releases the chunker's parser resources.
func (ix *Indexer) Close() error {
	ix.chunker.Close()
	return nil
}

type pathChange struct {
	path   string
	kind   changeType
	abs    string
	lang   string
}

// Index runs one diff-and-update pass over root. force deletes all
// three stores and the fingerprint cache first, forcing a full
// rebuild.
func (ix *Indexer) Index(ctx context.Context, root string, force bool) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return seekrerrors.WorkspaceMissing("resolve workspace path", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil || !info.IsDir() {
		return seekrerrors.WorkspaceMissing(fmt.Sprintf("workspace %q does not exist or is not a directory", absRoot), err)
	}

	writerLock := lock.New(ix.layout.Dir)
	acquired, err := writerLock.TryLock()
	if err != nil {
		return seekrerrors.IoError("acquire writer lock", err)
	}
	if !acquired {
		return seekrerrors.IoError("another seekr process is already indexing this workspace", nil)
	}
	defer func() { _ = writerLock.Unlock() }()

	if force {
		if err := ix.wipe(); err != nil {
			return seekrerrors.IoError("force rebuild: clear existing stores", err)
		}
	}

	fpStore, err := fingerprint.Open(ix.layout.FingerprintPath())
	if err != nil {
		return seekrerrors.IoError("open fingerprint store", err)
	}

	lex, err := lexical.Open(ix.layout.LexicalDir())
	if err != nil {
		return seekrerrors.IndexCorrupt("open lexical index", err)
	}
	defer func() { _ = lex.Close() }()

	sem, err := semantic.Open(ix.layout.GraphPath())
	if err != nil {
		return seekrerrors.IndexCorrupt("open semantic index", err)
	}
	defer func() { _ = sem.Close() }()

	table, err := sidecar.Open(ix.layout.SidecarPath())
	if err != nil {
		return seekrerrors.IndexCorrupt("open sidecar table", err)
	}

	if !force {
		ix.sweepOrphans(ctx, lex, sem, table)
	}

	files, err := ix.walker.Walk(absRoot)
	if err != nil {
		return seekrerrors.IoError("walk workspace", err)
	}

	changes := classify(files, fpStore)

	for _, ch := range changes {
		if err := ctx.Err(); err != nil {
			return ix.commitPartial(lex, sem, table, fpStore, seekrerrors.Cancelled("indexing cancelled", err))
		}

		switch ch.kind {
		case changeDeleted:
			ix.removePath(ctx, lex, sem, table, fpStore, ch.path)
		case changeAdded, changeModified:
			if ch.kind == changeModified {
				ix.removePath(ctx, lex, sem, table, fpStore, ch.path)
			}
			if err := ix.indexPath(ctx, lex, sem, table, fpStore, ch); err != nil {
				slog.Warn("failed to index file", slog.String("path", ch.path), slog.String("error", err.Error()))
			}
		}
	}

	if err := writeWorkspaceFile(ix.layout.WorkspaceFile(), absRoot); err != nil {
		return seekrerrors.IoError("persist workspace path", err)
	}
	if err := sem.Save(ix.layout.GraphPath()); err != nil {
		return seekrerrors.IndexCorrupt("commit semantic index", err)
	}
	if err := table.Save(ix.layout.SidecarPath()); err != nil {
		return seekrerrors.IndexCorrupt("commit sidecar table", err)
	}
	if err := fpStore.Save(ix.layout.FingerprintPath()); err != nil {
		return seekrerrors.IoError("commit fingerprint store", err)
	}

	return nil
}

// commitPartial persists whatever has already been committed to the
// stores before returning err, so the fingerprint store only reflects
// successfully processed paths.
func (ix *Indexer) commitPartial(lex *lexical.Index, sem *semantic.Index, table *sidecar.Table, fpStore *fingerprint.Store, err error) error {
	_ = sem.Save(ix.layout.GraphPath())
	_ = table.Save(ix.layout.SidecarPath())
	_ = fpStore.Save(ix.layout.FingerprintPath())
	return err
}

// sweepOrphans runs the cross-store consistency check before a normal
// (non-force) indexing pass, per §7/§9: any chunk present in the
// lexical or semantic store but not referenced by the sidecar table is
// orphaned and gets deleted here rather than lingering until the next
// query surfaces it.
func (ix *Indexer) sweepOrphans(ctx context.Context, lex *lexical.Index, sem *semantic.Index, table *sidecar.Table) {
	checker := NewConsistencyChecker(lex, sem, table)
	result, err := checker.Check(ctx)
	if err != nil {
		slog.Warn("startup consistency check failed", slog.String("error", err.Error()))
		return
	}
	if len(result.Inconsistencies) == 0 {
		return
	}
	slog.Warn("found index inconsistencies, repairing", slog.Int("count", len(result.Inconsistencies)))
	if err := checker.Repair(ctx, result.Inconsistencies); err != nil {
		slog.Warn("consistency repair failed", slog.String("error", err.Error()))
	}
}

func (ix *Indexer) wipe() error {
	for _, p := range []string{ix.layout.LexicalDir(), ix.layout.SemanticDir(), ix.layout.FingerprintPath()} {
		if err := os.RemoveAll(p); err != nil {
			return err
		}
	}
	return nil
}

func classify(files []walk.File, fpStore *fingerprint.Store) []pathChange {
	seen := make(map[string]bool, len(files))
	changes := make([]pathChange, 0, len(files))

	for _, f := range files {
		seen[f.Path] = true
		info, err := os.Stat(f.AbsPath)
		if err != nil {
			continue
		}
		existing, had := fpStore.Get(f.Path)
		current := fingerprint.Fingerprint{MTimeNS: info.ModTime().UnixNano(), Size: info.Size()}

		switch {
		case !had:
			changes = append(changes, pathChange{path: f.Path, kind: changeAdded, abs: f.AbsPath, lang: f.LanguageTag})
		case !fingerprint.Equal(existing, current):
			changes = append(changes, pathChange{path: f.Path, kind: changeModified, abs: f.AbsPath, lang: f.LanguageTag})
		}
	}

	for _, p := range fpStore.Paths() {
		if !seen[p] {
			changes = append(changes, pathChange{path: p, kind: changeDeleted})
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].path < changes[j].path
	})

	return changes
}

func (ix *Indexer) removePath(ctx context.Context, lex *lexical.Index, sem *semantic.Index, table *sidecar.Table, fpStore *fingerprint.Store, path string) {
	_ = lex.DeleteByPath(ctx, path)
	sem.DeleteByPath(path)
	table.DeleteByPath(path)
	fpStore.Delete(path)
}

func (ix *Indexer) indexPath(ctx context.Context, lex *lexical.Index, sem *semantic.Index, table *sidecar.Table, fpStore *fingerprint.Store, ch pathChange) error {
	content, err := os.ReadFile(ch.abs)
	if err != nil {
		return seekrerrors.IoError(fmt.Sprintf("read %s", ch.path), err)
	}

	chunks := ix.chunker.Chunk(ctx, ch.path, content, ch.lang)
	if len(chunks) == 0 {
		info, statErr := os.Stat(ch.abs)
		if statErr == nil {
			fpStore.Set(ch.path, fingerprint.Of(info, content))
		}
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, embedErr := embedBatched(ctx, ix.embedder, texts)
	lexicalOnly := embedErr != nil
	if embedErr != nil {
		slog.Warn("embedder failed for batch, indexing lexically only", slog.String("path", ch.path), slog.String("error", embedErr.Error()))
	}

	docs := make([]lexical.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = lexical.Document{ChunkID: c.ID, Path: c.Path, Text: c.Text, LanguageTag: c.LanguageTag}
		table.Put(sidecar.Record{ChunkID: c.ID, Path: c.Path, StartLine: c.StartLine, EndLine: c.EndLine, Text: c.Text, LanguageTag: c.LanguageTag})
	}
	if err := lex.Add(docs); err != nil {
		return seekrerrors.IndexCorrupt("add lexical documents", err)
	}

	if !lexicalOnly {
		for i, c := range chunks {
			if err := sem.Add(c.ID, c.Path, vectors[i]); err != nil {
				return seekrerrors.EmbedderError("add semantic vector", err)
			}
		}
	}

	info, err := os.Stat(ch.abs)
	if err != nil {
		return seekrerrors.IoError(fmt.Sprintf("stat %s", ch.path), err)
	}
	fpStore.Set(ch.path, fingerprint.Of(info, content))
	return nil
}

// embedBatched embeds texts in EMBED_BATCH-sized groups, retrying a
// failed batch up to twice more (after 100ms, then 400ms) before
// giving up on it.
func embedBatched(ctx context.Context, embedder embed.Embedder, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embed.DefaultBatchSize {
		end := start + embed.DefaultBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		vectors, err := embedder.EmbedBatch(ctx, batch)
		if err != nil {
			vectors, err = retryEmbed(ctx, embedder, batch)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func retryEmbed(ctx context.Context, embedder embed.Embedder, batch []string) ([][]float32, error) {
	delays := []time.Duration{100 * time.Millisecond, 400 * time.Millisecond}
	var lastErr error
	for _, d := range delays {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		vectors, err := embedder.EmbedBatch(ctx, batch)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// Status reports the current state of a workspace's index.
func (ix *Indexer) Status(root string) (Status, error) {
	fpStore, err := fingerprint.Open(ix.layout.FingerprintPath())
	if err != nil {
		return Status{}, seekrerrors.IoError("open fingerprint store", err)
	}

	table, err := sidecar.Open(ix.layout.SidecarPath())
	if err != nil {
		return Status{}, seekrerrors.IndexMissing("open sidecar table", err)
	}

	lexSize, _ := dirSize(ix.layout.LexicalDir())
	semSize, _ := dirSize(ix.layout.SemanticDir())

	var lastIndexTime time.Time
	if info, err := os.Stat(ix.layout.FingerprintPath()); err == nil {
		lastIndexTime = info.ModTime()
	}

	lex, lexErr := lexical.Open(ix.layout.LexicalDir())
	if lex != nil {
		defer func() { _ = lex.Close() }()
	}
	sem, semErr := semantic.Open(ix.layout.GraphPath())
	if sem != nil {
		defer func() { _ = sem.Close() }()
	}

	// Healthy means the workspace has actually been indexed at least
	// once, both per-chunk stores opened cleanly, and the same
	// cross-index invariant check that drives startup repair (§7) finds
	// nothing wrong.
	healthy := false
	if _, fpErr := os.Stat(ix.layout.FingerprintPath()); fpErr == nil && lexErr == nil && semErr == nil {
		checker := NewConsistencyChecker(lex, sem, table)
		result, checkErr := checker.Check(context.Background())
		healthy = checkErr == nil && len(result.Inconsistencies) == 0
	}

	return Status{
		Workspace:         root,
		FileCount:         fpStore.Len(),
		ChunkCount:        table.Len(),
		LexicalSizeBytes:  lexSize,
		SemanticSizeBytes: semSize,
		LastIndexTime:     lastIndexTime,
		Healthy:           healthy,
	}, nil
}

func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}

func writeWorkspaceFile(path, workspace string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(workspace+"\n"), 0o644)
}

// ReadWorkspaceFile returns the absolute workspace path persisted by
// the last successful Index call under layout, so commands other than
// the one that ran the indexing (e.g. search, status) can
// resolve chunk paths without depending on the current working
// directory.
func ReadWorkspaceFile(layout Layout) (string, error) {
	data, err := os.ReadFile(layout.WorkspaceFile())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
