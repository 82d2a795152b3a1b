package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"ragcompare-backend/app"
)

func main() {
	rebuild := flag.Bool("rebuild", false, "Re-index files that already have stored chunks")
	flag.Parse()

	cfg, logger, err := app.Bootstrap()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize clients")
	}
	defer a.Close()

	logger.Info().
		Str("retriever", cfg.Retriever.Type).
		Str("storage", cfg.Storage.Type).
		Msg("Building index")

	stats, err := a.BuildIndex(ctx, *rebuild)
	if err != nil {
		logger.Fatal().Err(err).Msg("Index build failed")
	}

	logger.Info().
		Int("documents", stats.Documents).
		Int("chunks", stats.Chunks).
		Int("skipped_files", len(stats.SkippedFiles)).
		Msg("Index build complete")
}
