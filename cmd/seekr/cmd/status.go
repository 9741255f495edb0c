package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brobert1/seekr/internal/config"
	"github.com/brobert1/seekr/internal/embed"
	"github.com/brobert1/seekr/internal/index"
	"github.com/brobert1/seekr/internal/output"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current workspace's index health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")

	return cmd
}

// statusView is the status command's own presentation of index.Status,
// independent of the internal Status struct's field set.
type statusView struct {
	Workspace         string `json:"workspace"`
	FileCount         int    `json:"file_count"`
	ChunkCount        int    `json:"chunk_count"`
	LexicalSizeBytes  int64  `json:"lexical_size_bytes"`
	SemanticSizeBytes int64  `json:"semantic_size_bytes"`
	LastIndexTime     string `json:"last_index_time,omitempty"`
	Healthy           bool   `json:"healthy"`
}

func runStatus(cmd *cobra.Command, jsonOutput bool) error {
	layout := index.NewLayout(config.HomeDir())

	embedder := embed.NewStaticEmbedder()
	defer func() { _ = embedder.Close() }()

	ix, err := index.New(layout, embedder)
	if err != nil {
		return fmt.Errorf("create indexer: %w", err)
	}
	defer func() { _ = ix.Close() }()

	root, _ := index.ReadWorkspaceFile(layout)
	st, err := ix.Status(root)
	if err != nil {
		return err
	}

	view := statusView{
		Workspace:         st.Workspace,
		FileCount:         st.FileCount,
		ChunkCount:        st.ChunkCount,
		LexicalSizeBytes:  st.LexicalSizeBytes,
		SemanticSizeBytes: st.SemanticSizeBytes,
		Healthy:           st.Healthy,
	}
	if !st.LastIndexTime.IsZero() {
		view.LastIndexTime = st.LastIndexTime.Format("2006-01-02T15:04:05Z07:00")
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	out := output.NewAuto(cmd.OutOrStdout())
	out.Statusf("📁", "Workspace: %s", view.Workspace)
	out.Statusf("", "Files:     %d", view.FileCount)
	out.Statusf("", "Chunks:    %d", view.ChunkCount)
	out.Statusf("", "Lexical:   %d bytes", view.LexicalSizeBytes)
	out.Statusf("", "Semantic:  %d bytes", view.SemanticSizeBytes)
	if view.LastIndexTime != "" {
		out.Statusf("", "Indexed:   %s", view.LastIndexTime)
	}
	if view.Healthy {
		out.Success("Index healthy")
	} else {
		out.Warning("Index may be corrupt; run 'seekr index --force' to rebuild")
	}
	return nil
}
