package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ternarybob/arbor"
)

// SchemaOptions controls schema creation
type SchemaOptions struct {
	// DropExisting removes the table before creating it
	DropExisting bool
}

var documentChunksTable = fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS document_chunks (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),

    -- Provenance
    source_file VARCHAR(255) NOT NULL,
    source TEXT NOT NULL,
    page INTEGER NOT NULL DEFAULT 0,
    chunk_index INTEGER NOT NULL,

    -- Content
    content TEXT NOT NULL,
    metadata JSONB DEFAULT '{}'::jsonb,

    embedding vector(%d),

    created_at TIMESTAMP DEFAULT NOW(),

    CONSTRAINT chunk_order_unique UNIQUE (source_file, chunk_index)
);`, EmbeddingDimensions)

var documentChunkIndexes = []struct {
	name string
	sql  string
}{
	{
		name: "Vector similarity search (HNSW)",
		sql: `CREATE INDEX IF NOT EXISTS idx_document_chunks_embedding_hnsw ON document_chunks
USING hnsw (embedding vector_cosine_ops)
WITH (m = 16, ef_construction = 64);`,
	},
	{
		name: "Source file filtering",
		sql:  "CREATE INDEX IF NOT EXISTS idx_document_chunks_source_file ON document_chunks(source_file);",
	},
	{
		name: "Metadata JSONB filtering",
		sql:  "CREATE INDEX IF NOT EXISTS idx_document_chunks_metadata_gin ON document_chunks USING gin (metadata);",
	},
}

// CreateSchema enables pgvector and creates the document_chunks table with its indexes.
// Index failures are logged and skipped.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool, opts SchemaOptions, logger arbor.ILogger) error {
	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		logger.Warn().Err(err).Msg("Failed to create pgvector extension")
	} else {
		logger.Info().Msg("pgvector extension enabled")
	}

	if opts.DropExisting {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS document_chunks CASCADE"); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
		logger.Info().Msg("Dropped existing document_chunks table")
	}

	if _, err := pool.Exec(ctx, documentChunksTable); err != nil {
		return fmt.Errorf("failed to create document_chunks table: %w", err)
	}
	logger.Info().Int("dimensions", EmbeddingDimensions).Msg("Created document_chunks table")

	for _, idx := range documentChunkIndexes {
		if _, err := pool.Exec(ctx, idx.sql); err != nil {
			logger.Warn().Err(err).Str("index", idx.name).Msg("Failed to create index")
			continue
		}
		logger.Info().Str("index", idx.name).Msg("Created index")
	}
	return nil
}
