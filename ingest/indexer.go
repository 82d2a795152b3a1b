package ingest

import (
	"context"
	"fmt"
	"time"

	"ragcompare-backend/logging"
	"ragcompare-backend/models"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
)

const defaultBatchSize = 100

// BatchEmbedder embeds texts, preserving order
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkWriter persists embedded chunks
type ChunkWriter interface {
	Insert(ctx context.Context, chunks []models.DocumentChunk) error
}

// SourceCounter reports chunks already stored per source file
type SourceCounter interface {
	CountBySource(ctx context.Context) (map[string]int, error)
}

// SourceReplacer removes stored chunks of source files before they are re-indexed
type SourceReplacer interface {
	DeleteBySource(ctx context.Context, sourceFiles []string) (int64, error)
}

// Stats summarises an index build
type Stats struct {
	Documents    int           `json:"documents"`
	Chunks       int           `json:"chunks"`
	AvgChunkSize float64       `json:"avg_chunk_size"`
	SkippedFiles []string      `json:"skipped_files,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// Indexer loads, splits, embeds and stores the corpus
type Indexer struct {
	loader    *Loader
	splitter  *Splitter
	embedder  BatchEmbedder
	writer    ChunkWriter
	existing  SourceCounter
	replacer  SourceReplacer
	batchSize int
	logger    arbor.ILogger
}

// IndexerOption configures an Indexer
type IndexerOption func(*Indexer)

// WithBatchSize sets how many chunks are embedded and written at once
func WithBatchSize(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.batchSize = n
		}
	}
}

// WithSkipExisting skips source files that already have stored chunks
func WithSkipExisting(counter SourceCounter) IndexerOption {
	return func(ix *Indexer) {
		ix.existing = counter
	}
}

// WithReplaceExisting deletes the stored chunks of every loaded source file
// before its new chunks are written
func WithReplaceExisting(replacer SourceReplacer) IndexerOption {
	return func(ix *Indexer) {
		ix.replacer = replacer
	}
}

// WithIndexerLogger sets the logger
func WithIndexerLogger(logger arbor.ILogger) IndexerOption {
	return func(ix *Indexer) {
		ix.logger = logger
	}
}

// NewIndexer creates an indexer
func NewIndexer(loader *Loader, splitter *Splitter, embedder BatchEmbedder, writer ChunkWriter, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		loader:    loader,
		splitter:  splitter,
		embedder:  embedder,
		writer:    writer,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(ix)
	}
	ix.logger = logging.OrNoOp(ix.logger)
	return ix
}

// Build runs the full ingestion pipeline
func (ix *Indexer) Build(ctx context.Context) (*Stats, error) {
	start := time.Now()
	stats, err := ix.build(ctx)
	if err != nil {
		logging.LogError(ix.logger, logging.KindIndexBuild, err, "index build")
		return nil, err
	}
	stats.Duration = time.Since(start)
	ix.logger.Info().Float64("seconds", stats.Duration.Seconds()).Msg("Index build completed")
	return stats, nil
}

func (ix *Indexer) build(ctx context.Context) (*Stats, error) {
	docs, err := ix.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	if ix.existing != nil {
		docs, stats.SkippedFiles, err = ix.skipIndexed(ctx, docs)
		if err != nil {
			return nil, err
		}
	}
	stats.Documents = len(docs)

	pieces := ix.splitter.SplitDocuments(docs)
	stats.Chunks = len(pieces)
	totalChars := 0
	for _, piece := range pieces {
		totalChars += len([]rune(piece.Content))
	}
	if len(pieces) > 0 {
		stats.AvgChunkSize = float64(totalChars) / float64(len(pieces))
	}
	ix.logger.Info().Msgf("%d docs -> %d chunks (avg: %.0f chars)", stats.Documents, stats.Chunks, stats.AvgChunkSize)

	if ix.replacer != nil {
		if err := ix.removeStale(ctx, docs); err != nil {
			return nil, err
		}
	}

	for start := 0; start < len(pieces); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(pieces) {
			end = len(pieces)
		}
		if err := ix.indexBatch(ctx, pieces[start:end]); err != nil {
			return nil, fmt.Errorf("failed to index chunks %d-%d: %w", start, end, err)
		}
		ix.logger.Debug().Int("from", start).Int("to", end).Msg("Indexed chunk batch")
	}
	return stats, nil
}

func (ix *Indexer) indexBatch(ctx context.Context, pieces []models.Document) error {
	vectors, err := ix.embedder.EmbedBatch(ctx, models.Contents(pieces))
	if err != nil {
		return err
	}
	if len(vectors) != len(pieces) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(pieces))
	}

	chunks := make([]models.DocumentChunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = ToChunk(piece, vectors[i])
	}
	return ix.writer.Insert(ctx, chunks)
}

func (ix *Indexer) removeStale(ctx context.Context, docs []models.Document) error {
	var files []string
	seen := make(map[string]bool)
	for _, doc := range docs {
		file := stringMeta(doc.Metadata, models.MetaSourceFile)
		if !seen[file] {
			seen[file] = true
			files = append(files, file)
		}
	}
	if len(files) == 0 {
		return nil
	}

	removed, err := ix.replacer.DeleteBySource(ctx, files)
	if err != nil {
		return fmt.Errorf("failed to remove existing chunks: %w", err)
	}
	ix.logger.Info().Int("files", len(files)).Int("chunks", int(removed)).Msg("Removed existing chunks before re-indexing")
	return nil
}

func (ix *Indexer) skipIndexed(ctx context.Context, docs []models.Document) ([]models.Document, []string, error) {
	counts, err := ix.existing.CountBySource(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check existing chunks: %w", err)
	}

	var kept []models.Document
	var skipped []string
	seen := make(map[string]bool)
	for _, doc := range docs {
		file := stringMeta(doc.Metadata, models.MetaSourceFile)
		if counts[file] > 0 {
			if !seen[file] {
				seen[file] = true
				skipped = append(skipped, file)
				ix.logger.Info().Str("file", file).Int("chunks", counts[file]).Msg("Skipping already indexed file")
			}
			continue
		}
		kept = append(kept, doc)
	}
	return kept, skipped, nil
}

// ToChunk converts a split document and its embedding into a storable chunk
func ToChunk(doc models.Document, embedding []float32) models.DocumentChunk {
	extra := make(models.ChunkMetadata)
	for k, v := range doc.Metadata {
		switch k {
		case models.MetaSource, models.MetaSourceFile, models.MetaPage, models.MetaChunkID:
		default:
			extra[k] = v
		}
	}
	return models.DocumentChunk{
		ID:         uuid.New(),
		SourceFile: stringMeta(doc.Metadata, models.MetaSourceFile),
		Source:     stringMeta(doc.Metadata, models.MetaSource),
		Page:       intMeta(doc.Metadata, models.MetaPage),
		ChunkIndex: intMeta(doc.Metadata, models.MetaChunkID),
		Content:    doc.Content,
		Metadata:   extra,
		Embedding:  embedding,
	}
}

func stringMeta(metadata map[string]interface{}, key string) string {
	if v, ok := metadata[key].(string); ok {
		return v
	}
	return ""
}

func intMeta(metadata map[string]interface{}, key string) int {
	if v, ok := metadata[key].(int); ok {
		return v
	}
	return 0
}
