package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brobert1/seekr/internal/config"
	"github.com/brobert1/seekr/internal/embed"
	"github.com/brobert1/seekr/internal/index"
	"github.com/brobert1/seekr/internal/output"
	"github.com/brobert1/seekr/internal/search"
)

func newSearchCmd() *cobra.Command {
	var (
		limit        int
		contextLines int
		semantic     bool
		hybrid       bool
		alpha        float64
		jsonOutput   bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed workspace",
		Long: `Search runs lexical (BM25) retrieval by default. Pass --semantic for
vector nearest-neighbor retrieval, or --hybrid to fuse both rankings
with weighted Reciprocal Rank Fusion.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if semantic && hybrid {
				return fmt.Errorf("--semantic and --hybrid are mutually exclusive")
			}
			mode := search.ModeLexical
			switch {
			case hybrid:
				mode = search.ModeHybrid
			case semantic:
				mode = search.ModeSemantic
			}
			query := strings.Join(args, " ")
			return runSearch(cmd, query, mode, limit, contextLines, alpha, jsonOutput)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of results")
	cmd.Flags().IntVar(&contextLines, "context", 3, "Lines of context around each hit")
	cmd.Flags().BoolVar(&semantic, "semantic", false, "Use semantic (vector) search")
	cmd.Flags().BoolVar(&hybrid, "hybrid", false, "Use hybrid (RRF-fused) search")
	cmd.Flags().Float64Var(&alpha, "alpha", 0.5, "Hybrid fusion weight: lexical vs semantic (0..1)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, mode search.Mode, limit, contextLines int, alpha float64, jsonOutput bool) error {
	embedder := embed.NewStaticEmbedder()
	defer func() { _ = embedder.Close() }()

	layout := index.NewLayout(config.HomeDir())
	engine, err := search.Open(layout, embedder)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	q := search.Query{
		Text:         query,
		Mode:         mode,
		K:            limit,
		Alpha:        alpha,
		ContextLines: contextLines,
	}

	results, err := engine.Search(cmd.Context(), q)
	if err != nil {
		return err
	}

	rendered := make([]output.SearchResult, len(results))
	for i, r := range results {
		rendered[i] = output.SearchResult{
			Path:      r.Path,
			StartLine: r.StartLine,
			EndLine:   r.EndLine,
			Score:     r.Score,
			Mode:      string(r.Mode),
			Snippet:   r.Snippet,
		}
	}

	if jsonOutput {
		return output.WriteJSON(cmd.OutOrStdout(), rendered)
	}
	output.NewAuto(cmd.OutOrStdout()).WriteHuman(rendered)
	return nil
}
