package main

import (
	"ragcompare-backend/app"
	"ragcompare-backend/repository"

	"github.com/spf13/cobra"
)

var schemaDrop bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the pgvector document_chunks table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pool, err := app.OpenPool(ctx, cfg.Retriever.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer pool.Close()

		return repository.CreateSchema(ctx, pool, repository.SchemaOptions{DropExisting: schemaDrop}, logger)
	},
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaDrop, "drop", false, "Drop the existing table first")
}
