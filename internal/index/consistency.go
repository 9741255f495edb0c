package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brobert1/seekr/internal/lexical"
	"github.com/brobert1/seekr/internal/semantic"
	"github.com/brobert1/seekr/internal/sidecar"
)

// InconsistencyType categorizes a violation of the cross-index
// invariant named in the core spec: lexical_ids == semantic_ids ==
// sidecar_ids.
type InconsistencyType int

const (
	// InconsistencyOrphanLexical: a chunk_id in the lexical index has no sidecar record.
	InconsistencyOrphanLexical InconsistencyType = iota
	// InconsistencyOrphanSemantic: a chunk_id in the semantic index has no sidecar record.
	InconsistencyOrphanSemantic
	// InconsistencyMissingLexical: a sidecar chunk_id is absent from the lexical index.
	InconsistencyMissingLexical
	// InconsistencyMissingSemantic: a sidecar chunk_id is absent from the semantic index.
	InconsistencyMissingSemantic
)

// String returns a human-readable description of the inconsistency type.
func (t InconsistencyType) String() string {
	switch t {
	case InconsistencyOrphanLexical:
		return "orphan_lexical"
	case InconsistencyOrphanSemantic:
		return "orphan_semantic"
	case InconsistencyMissingLexical:
		return "missing_lexical"
	case InconsistencyMissingSemantic:
		return "missing_semantic"
	default:
		return "unknown"
	}
}

// Inconsistency is one detected cross-index invariant violation.
type Inconsistency struct {
	Type    InconsistencyType
	ChunkID uint64
}

// CheckResult is the outcome of a consistency Check.
type CheckResult struct {
	// Checked is the number of chunks in the sidecar reference set.
	Checked int
	// Inconsistencies lists every mismatch found.
	Inconsistencies []Inconsistency
}

// ConsistencyChecker validates and repairs the cross-index invariant
// between the lexical index, the semantic index, and the sidecar
// table. The sidecar table is the reference set: every chunk a run
// commits is written to it, so a chunk_id missing from it was never
// really indexed.
type ConsistencyChecker struct {
	lex   *lexical.Index
	sem   *semantic.Index
	table *sidecar.Table
}

// NewConsistencyChecker builds a checker over a workspace's three
// per-chunk stores.
func NewConsistencyChecker(lex *lexical.Index, sem *semantic.Index, table *sidecar.Table) *ConsistencyChecker {
	return &ConsistencyChecker{lex: lex, sem: sem, table: table}
}

// Check compares chunk_id sets across all three stores.
func (c *ConsistencyChecker) Check(ctx context.Context) (*CheckResult, error) {
	sidecarIDs := c.table.AllIDs()
	sidecarSet := make(map[uint64]struct{}, len(sidecarIDs))
	for _, id := range sidecarIDs {
		sidecarSet[id] = struct{}{}
	}

	lexIDs, err := c.lex.AllIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lexical chunk ids: %w", err)
	}
	semIDs := c.sem.AllIDs()

	lexSet := make(map[uint64]struct{}, len(lexIDs))
	for _, id := range lexIDs {
		lexSet[id] = struct{}{}
	}
	semSet := make(map[uint64]struct{}, len(semIDs))
	for _, id := range semIDs {
		semSet[id] = struct{}{}
	}

	var issues []Inconsistency
	for _, id := range lexIDs {
		if _, ok := sidecarSet[id]; !ok {
			issues = append(issues, Inconsistency{Type: InconsistencyOrphanLexical, ChunkID: id})
		}
	}
	for _, id := range semIDs {
		if _, ok := sidecarSet[id]; !ok {
			issues = append(issues, Inconsistency{Type: InconsistencyOrphanSemantic, ChunkID: id})
		}
	}
	for id := range sidecarSet {
		if _, ok := lexSet[id]; !ok {
			issues = append(issues, Inconsistency{Type: InconsistencyMissingLexical, ChunkID: id})
		}
		if _, ok := semSet[id]; !ok {
			issues = append(issues, Inconsistency{Type: InconsistencyMissingSemantic, ChunkID: id})
		}
	}

	return &CheckResult{Checked: len(sidecarSet), Inconsistencies: issues}, nil
}

// Repair deletes orphaned chunk_ids from the lexical/semantic indexes
// so they no longer disagree with the sidecar table, per §7's
// IndexCorrupt repair policy. Missing entries are only logged: a
// pervasive pattern of them calls for a `--force` rebuild rather than
// a best-effort patch.
func (c *ConsistencyChecker) Repair(ctx context.Context, issues []Inconsistency) error {
	var orphanLexical, orphanSemantic []uint64
	var missing int

	for _, issue := range issues {
		switch issue.Type {
		case InconsistencyOrphanLexical:
			orphanLexical = append(orphanLexical, issue.ChunkID)
		case InconsistencyOrphanSemantic:
			orphanSemantic = append(orphanSemantic, issue.ChunkID)
		case InconsistencyMissingLexical, InconsistencyMissingSemantic:
			missing++
		}
	}

	if len(orphanLexical) > 0 {
		if err := c.lex.DeleteByID(ctx, orphanLexical); err != nil {
			slog.Warn("failed to delete orphan lexical chunks",
				slog.Int("count", len(orphanLexical)), slog.String("error", err.Error()))
		} else {
			slog.Info("deleted orphan lexical chunks", slog.Int("count", len(orphanLexical)))
		}
	}

	if len(orphanSemantic) > 0 {
		c.sem.DeleteByID(orphanSemantic)
		slog.Info("deleted orphan semantic chunks", slog.Int("count", len(orphanSemantic)))
	}

	if missing > 0 {
		slog.Warn("index has entries missing from lexical or semantic store, run 'seekr index --force' to rebuild",
			slog.Int("missing_count", missing))
	}

	return nil
}
