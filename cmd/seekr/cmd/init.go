package cmd

import (
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Build a fresh index for a directory",
		Long: `Init builds an index for path (or the current directory if omitted).

It is equivalent to 'seekr index path', offered as a friendlier
first-run command name.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runIndex(cmd, path, false)
		},
	}
	return cmd
}
