package service

import (
	"context"
	"errors"

	"ragcompare-backend/models"
)

// Generator invokes a language model with a single prompt
type Generator interface {
	Invoke(ctx context.Context, prompt string) (models.ModelResponse, error)
}

// Retriever returns evidence documents ordered by relevance rank.
// Implementations return ErrMalformedRetrieval when the index yields
// something that cannot be read as a document sequence.
type Retriever interface {
	Retrieve(ctx context.Context, question string) ([]models.Document, error)
}

// Scorer computes one reference-free metric for one answer
type Scorer interface {
	Score(ctx context.Context, metric models.Metric, sample models.Sample) (float64, error)
}

var (
	ErrMalformedRetrieval = errors.New("retriever returned a malformed result")
	ErrRetrievalFailed    = errors.New("failed to retrieve documents")
	ErrGenerationFailed   = errors.New("failed to generate content")
	ErrGeneratorNotSet    = errors.New("generator not set")
	ErrRetrieverNotSet    = errors.New("retriever not set")
)
