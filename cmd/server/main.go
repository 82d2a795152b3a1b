package main

import (
	"context"
	"fmt"
	"os"

	"ragcompare-backend/app"
)

func main() {
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

	if err := a.InitServices(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize services")
	}

	if err := a.Serve(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server stopped")
	}
}
