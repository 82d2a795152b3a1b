package main

import (
	"context"
	"fmt"
	"os"

	"ragcompare-backend/app"
	"ragcompare-backend/config"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"
)

var (
	// Global state, set by the root pre-run hook
	cfg    *config.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "ragcompare",
	Short: "Compare retrieval-augmented answers with model-only answers",
	Long: `ragcompare answers questions with and without retrieval over a document corpus,
cites the documents it used, and scores both answers with model-judged quality metrics.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, logger, err = app.Bootstrap()
		return err
	},
}

func init() {
	rootCmd.AddCommand(askCmd, evaluateCmd, indexCmd, schemaCmd, serveCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// startApp connects clients and builds the answering services
func startApp(ctx context.Context) (*app.App, error) {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := a.InitServices(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}
