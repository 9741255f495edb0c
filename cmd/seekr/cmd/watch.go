package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brobert1/seekr/internal/config"
	"github.com/brobert1/seekr/internal/embed"
	"github.com/brobert1/seekr/internal/index"
	"github.com/brobert1/seekr/internal/output"
	"github.com/brobert1/seekr/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Watch a directory and keep its index up to date",
		Long: `Watch subscribes to filesystem events under path (or the current
directory) and debounces them into incremental re-index runs, 500ms
after the last event in a burst. If no index exists yet, watch builds
one before it starts watching.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runWatch(cmd, path)
		},
	}
	return cmd
}

func runWatch(cmd *cobra.Command, path string) error {
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

	if _, statErr := os.Stat(layout.FingerprintPath()); os.IsNotExist(statErr) {
		out.Statusf("🔎", "No index found, building one for %s...", root)
		if err := ix.Index(cmd.Context(), root, false); err != nil {
			return err
		}
	}

	w, err := watcher.New(root, cfg.DebounceDuration(), ix)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out.Statusf("👀", "Watching %s for changes (Ctrl+C to stop)...", root)
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
