// Package cmd provides the CLI commands for Seekr.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	seekrerrors "github.com/brobert1/seekr/internal/errors"
	"github.com/brobert1/seekr/internal/logging"
	"github.com/brobert1/seekr/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd builds the seekr root command and its subcommands.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "seekr",
		Short: "Local, privacy-preserving code search",
		Long: `Seekr indexes a source tree and answers free-text queries with
lexical (BM25), semantic (vector), or hybrid (RRF-fused) search.

All indexing and retrieval run in-process; no network I/O at query time.`,
		Version: version.Version,
	}
	root.SetVersionTemplate("seekr version {{.Version}}\n")

	root.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.seekr/logs/")
	root.PersistentPreRunE = setupLogging
	root.PersistentPostRunE = teardownLogging

	root.AddCommand(
		newInitCmd(),
		newIndexCmd(),
		newSearchCmd(),
		newStatusCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)

	return root
}

// setupLogging installs the file-backed slog logger before any
// subcommand runs. CLI output goes through internal/output, not
// stderr, so logs stay file-only regardless of --debug.
func setupLogging(_ *cobra.Command, _ []string) error {
	cfg := logging.DefaultConfig()
	cfg.WriteToStderr = false
	if debugMode {
		cfg = logging.DebugConfig()
		cfg.WriteToStderr = false
	}

	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	slog.SetDefault(logger)
	loggingCleanup = cleanup
	return nil
}

func teardownLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// ExitCode maps err to the process exit code named in §6 of the core
// spec.
func ExitCode(err error) int {
	return seekrerrors.ExitCode(err)
}
