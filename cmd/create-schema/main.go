package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"ragcompare-backend/app"
	"ragcompare-backend/repository"
)

func main() {
	drop := flag.Bool("drop", false, "Drop the existing document_chunks table first")
	flag.Parse()

	cfg, logger, err := app.Bootstrap()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := app.OpenPool(ctx, cfg.Retriever.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := repository.CreateSchema(ctx, pool, repository.SchemaOptions{DropExisting: *drop}, logger); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create schema")
	}
	logger.Info().Msg("Schema created successfully")
}
