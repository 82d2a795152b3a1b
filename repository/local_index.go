package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"ragcompare-backend/models"
	"ragcompare-backend/service"

	"github.com/philippgille/chromem-go"
)

// CollectionName is the chromem collection holding corpus chunks
const CollectionName = "knowledge-base"

// LocalIndex is an in-process vector index persisted as a gob file
type LocalIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	topK       int
}

// NewLocalIndex creates an empty in-memory index. embed is used for queries
// and for chunks added without a precomputed embedding.
func NewLocalIndex(embed chromem.EmbeddingFunc, topK int) (*LocalIndex, error) {
	return newLocalIndex(chromem.NewDB(), embed, topK)
}

// LoadLocalIndex reads a previously saved index from path
func LoadLocalIndex(path string, embed chromem.EmbeddingFunc, topK int) (*LocalIndex, error) {
	db := chromem.NewDB()
	if err := db.Import(path, ""); err != nil {
		return nil, fmt.Errorf("failed to load local index %s: %w", path, err)
	}
	return newLocalIndex(db, embed, topK)
}

func newLocalIndex(db *chromem.DB, embed chromem.EmbeddingFunc, topK int) (*LocalIndex, error) {
	if embed == nil {
		return nil, errors.New("embedding function is required")
	}
	collection, err := db.GetOrCreateCollection(CollectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection: %w", err)
	}
	if topK <= 0 {
		topK = 4
	}
	return &LocalIndex{db: db, collection: collection, topK: topK}, nil
}

// Count returns the number of stored chunks
func (ix *LocalIndex) Count() int {
	return ix.collection.Count()
}

// Add stores chunks. Chunk ids must be unique or earlier chunks are overwritten.
func (ix *LocalIndex) Add(ctx context.Context, chunks []models.DocumentChunk) error {
	docs := make([]chromem.Document, 0, len(chunks))
	for _, chunk := range chunks {
		docs = append(docs, chromem.Document{
			ID:        chunkKey(chunk),
			Content:   chunk.Content,
			Embedding: chunk.Embedding,
			Metadata:  chunkMetadata(chunk),
		})
	}
	if len(docs) == 0 {
		return nil
	}
	if err := ix.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Insert stores chunks; it lets the local index stand in for the pgvector table during ingestion
func (ix *LocalIndex) Insert(ctx context.Context, chunks []models.DocumentChunk) error {
	return ix.Add(ctx, chunks)
}

// Save writes the index to path as an uncompressed gob file
func (ix *LocalIndex) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create index directory: %w", err)
		}
	}
	if err := ix.db.Export(path, false, ""); err != nil {
		return fmt.Errorf("failed to save local index %s: %w", path, err)
	}
	return nil
}

// Retrieve returns the chunks most similar to question, most similar first
func (ix *LocalIndex) Retrieve(ctx context.Context, question string) ([]models.Document, error) {
	n := ix.topK
	if count := ix.collection.Count(); count < n {
		n = count
	}
	if n == 0 {
		return []models.Document{}, nil
	}

	results, err := ix.collection.Query(ctx, question, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query local index: %w", err)
	}

	docs := make([]models.Document, 0, len(results))
	for _, result := range results {
		if strings.TrimSpace(result.Content) == "" {
			return nil, fmt.Errorf("%w: document %s has no content", service.ErrMalformedRetrieval, result.ID)
		}
		docs = append(docs, models.Document{
			Content:  result.Content,
			Metadata: documentMetadata(result.Metadata),
		})
	}
	return docs, nil
}

func chunkKey(chunk models.DocumentChunk) string {
	return fmt.Sprintf("%s#%d", chunk.SourceFile, chunk.ChunkIndex)
}

// chunkMetadata flattens chunk metadata into the string map chromem stores
func chunkMetadata(chunk models.DocumentChunk) map[string]string {
	metadata := make(map[string]string, len(chunk.Metadata)+4)
	for k, v := range chunk.Metadata {
		metadata[k] = fmt.Sprint(v)
	}
	metadata[models.MetaSource] = chunk.Source
	metadata[models.MetaSourceFile] = chunk.SourceFile
	metadata[models.MetaPage] = strconv.Itoa(chunk.Page)
	metadata[models.MetaChunkID] = strconv.Itoa(chunk.ChunkIndex)
	return metadata
}

// documentMetadata restores numeric fields flattened by chunkMetadata
func documentMetadata(stored map[string]string) map[string]interface{} {
	metadata := make(map[string]interface{}, len(stored))
	for k, v := range stored {
		metadata[k] = v
	}
	for _, key := range []string{models.MetaPage, models.MetaChunkID} {
		if raw, ok := stored[key]; ok {
			if n, err := strconv.Atoi(raw); err == nil {
				metadata[key] = n
			}
		}
	}
	return metadata
}
