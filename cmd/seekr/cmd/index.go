package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/brobert1/seekr/internal/config"
	"github.com/brobert1/seekr/internal/embed"
	"github.com/brobert1/seekr/internal/index"
	"github.com/brobert1/seekr/internal/output"
)

func newIndexCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Build or update the index for a directory",
		Long: `Index walks path, chunks every indexable file, and updates the
lexical and semantic indexes to match. Unchanged files are skipped by
comparing fingerprints against the previous run; use --force to wipe
the existing index and rebuild from scratch.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runIndex(cmd, path, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Clear the existing index and rebuild from scratch")

	return cmd
}

func runIndex(cmd *cobra.Command, path string, force bool) error {
	out := output.NewAuto(cmd.OutOrStdout())

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	root, err := config.ResolveWorkspace(path, cfg)
	if err != nil {
		return err
	}

	embedder := embed.NewStaticEmbedder()
	defer func() { _ = embedder.Close() }()

	layout := index.NewLayout(config.HomeDir())
	ix, err := index.New(layout, embedder)
	if err != nil {
		return fmt.Errorf("create indexer: %w", err)
	}
	defer func() { _ = ix.Close() }()

	out.Statusf("🔎", "Indexing %s...", root)
	start := time.Now()
	if err := ix.Index(cmd.Context(), root, force); err != nil {
		return err
	}
	out.Successf("Indexed %s in %s", root, time.Since(start).Round(time.Millisecond))
	return nil
}
