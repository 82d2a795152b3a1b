package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ragcompare-backend/models"
	"ragcompare-backend/service"
)

// QueryEmbedder embeds a search query
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChunkSearcher finds the chunks nearest to an embedding
type ChunkSearcher interface {
	Search(ctx context.Context, embedding []float32, limit int) ([]models.DocumentChunk, error)
}

// VectorRetriever answers retrieval queries from the pgvector chunk table
type VectorRetriever struct {
	searcher ChunkSearcher
	embedder QueryEmbedder
	topK     int
}

// NewVectorRetriever creates a retriever returning at most topK documents
func NewVectorRetriever(searcher ChunkSearcher, embedder QueryEmbedder, topK int) *VectorRetriever {
	if topK <= 0 {
		topK = 4
	}
	return &VectorRetriever{searcher: searcher, embedder: embedder, topK: topK}
}

// Retrieve embeds question and returns the nearest chunks in rank order
func (r *VectorRetriever) Retrieve(ctx context.Context, question string) ([]models.Document, error) {
	if r.searcher == nil || r.embedder == nil {
		return nil, errors.New("vector retriever not configured")
	}

	embedding, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	chunks, err := r.searcher.Search(ctx, embedding, r.topK)
	if err != nil {
		return nil, err
	}

	docs := make([]models.Document, 0, len(chunks))
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk.Content) == "" {
			return nil, fmt.Errorf("%w: chunk %s has no content", service.ErrMalformedRetrieval, chunk.ID)
		}
		docs = append(docs, chunk.ToDocument())
	}
	return docs, nil
}
