package repository

import (
	"context"
	"fmt"

	"ragcompare-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// EmbeddingDimensions is the vector width of the document_chunks table
const EmbeddingDimensions = 768

// DocumentChunkRepository handles database operations for document chunks
type DocumentChunkRepository struct {
	db *pgxpool.Pool
}

// NewDocumentChunkRepository creates a new document chunk repository
func NewDocumentChunkRepository(db *pgxpool.Pool) *DocumentChunkRepository {
	return &DocumentChunkRepository{db: db}
}

// Search returns the chunks nearest to embedding by cosine distance, closest first
func (r *DocumentChunkRepository) Search(ctx context.Context, embedding []float32, limit int) ([]models.DocumentChunk, error) {
	if len(embedding) != EmbeddingDimensions {
		return nil, fmt.Errorf("embedding must be %d dimensions, got %d", EmbeddingDimensions, len(embedding))
	}

	query := `
		SELECT
			id,
			source_file,
			source,
			page,
			chunk_index,
			content,
			metadata,
			created_at,
			embedding <=> $1 AS distance
		FROM document_chunks
		ORDER BY embedding <=> $1
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query document chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.DocumentChunk
	for rows.Next() {
		var chunk models.DocumentChunk
		err := rows.Scan(
			&chunk.ID,
			&chunk.SourceFile,
			&chunk.Source,
			&chunk.Page,
			&chunk.ChunkIndex,
			&chunk.Content,
			&chunk.Metadata,
			&chunk.CreatedAt,
			&chunk.Distance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document chunks: %w", err)
	}

	return chunks, nil
}

// Insert stores chunks in a single transaction, replacing any chunk with the same source and index
func (r *DocumentChunkRepository) Insert(ctx context.Context, chunks []models.DocumentChunk) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO document_chunks (
			id, source_file, source, page, chunk_index, content, metadata, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (source_file, chunk_index) DO UPDATE SET
			source = EXCLUDED.source,
			page = EXCLUDED.page,
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding`

	for _, chunk := range chunks {
		if len(chunk.Embedding) != EmbeddingDimensions {
			return fmt.Errorf("chunk %d of %s has %d dimensions, want %d",
				chunk.ChunkIndex, chunk.SourceFile, len(chunk.Embedding), EmbeddingDimensions)
		}

		_, err = tx.Exec(ctx, query,
			chunk.ID, chunk.SourceFile, chunk.Source, chunk.Page, chunk.ChunkIndex, chunk.Content,
			chunk.Metadata, pgvector.NewVector(chunk.Embedding),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", chunk.ChunkIndex, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteBySource removes every stored chunk of the given source files
func (r *DocumentChunkRepository) DeleteBySource(ctx context.Context, sourceFiles []string) (int64, error) {
	if len(sourceFiles) == 0 {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM document_chunks WHERE source_file = ANY($1)`, sourceFiles)
	if err != nil {
		return 0, fmt.Errorf("failed to delete document chunks: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountBySource returns the number of stored chunks per source file
func (r *DocumentChunkRepository) CountBySource(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT source_file, COUNT(*) FROM document_chunks GROUP BY source_file`)
	if err != nil {
		return nil, fmt.Errorf("failed to count document chunks: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan chunk count: %w", err)
		}
		counts[source] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunk counts: %w", err)
	}
	return counts, nil
}
