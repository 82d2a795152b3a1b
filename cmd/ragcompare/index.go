package main

import (
	"fmt"
	"time"

	"ragcompare-backend/app"

	"github.com/spf13/cobra"
)

var indexRebuild bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the retrieval index from the corpus",
	Long: `Load every supported file from the configured storage, split it into chunks,
embed the chunks, and write them to the configured retriever backend.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.BuildIndex(ctx, indexRebuild)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d documents into %d chunks (avg %.0f chars) in %s\n",
			stats.Documents, stats.Chunks, stats.AvgChunkSize, stats.Duration.Round(time.Millisecond))
		if len(stats.SkippedFiles) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Skipped %d already indexed files\n", len(stats.SkippedFiles))
		}
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexRebuild, "rebuild", false, "Re-index files that already have stored chunks (pgvector)")
}
