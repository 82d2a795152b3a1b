// Package llm adapts the Gemini API to the generation and embedding
// contracts used by the services.
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"ragcompare-backend/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/ternarybob/arbor"
	"google.golang.org/api/option"
)

const (
	DefaultGenerationModel = "gemini-1.5-flash"
	DefaultEmbeddingModel  = "text-embedding-004"

	// maxBatchSize is the API limit on texts per batch embedding request
	maxBatchSize = 100
)

var (
	ErrPromptBlocked  = errors.New("API blocked prompt")
	ErrNoCandidates   = errors.New("API returned no candidates")
	ErrEmptyContent   = errors.New("API returned empty content")
	ErrEmptyEmbedding = errors.New("API returned an empty embedding")
)

// GeminiClient generates text and embeddings through the Gemini API
type GeminiClient struct {
	client          *genai.Client
	generationModel string
	embeddingModel  string
	temperature     float32
	logger          arbor.ILogger
}

// GeminiOption is a functional option for GeminiClient
type GeminiOption func(*GeminiClient)

// WithGenerationModel sets the model used for text generation
func WithGenerationModel(name string) GeminiOption {
	return func(c *GeminiClient) {
		if name != "" {
			c.generationModel = name
		}
	}
}

// WithEmbeddingModel sets the model used for embeddings
func WithEmbeddingModel(name string) GeminiOption {
	return func(c *GeminiClient) {
		if name != "" {
			c.embeddingModel = name
		}
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float32) GeminiOption {
	return func(c *GeminiClient) {
		c.temperature = t
	}
}

// WithLogger sets the logger
func WithLogger(logger arbor.ILogger) GeminiOption {
	return func(c *GeminiClient) {
		c.logger = logger
	}
}

// NewGeminiClient connects to Gemini with apiKey
func NewGeminiClient(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &GeminiClient{
		client:          client,
		generationModel: DefaultGenerationModel,
		embeddingModel:  DefaultEmbeddingModel,
		temperature:     0.2,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = arbor.NewNoOpLogger()
	}
	return c, nil
}

// Close releases the underlying connection
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Invoke sends prompt to the generation model and returns the reply as a message
func (c *GeminiClient) Invoke(ctx context.Context, prompt string) (models.ModelResponse, error) {
	text, err := c.GenerateText(ctx, prompt)
	if err != nil {
		return models.ModelResponse{}, err
	}
	return models.MessageResponse(text), nil
}

// GenerateText sends prompt to the generation model and returns the joined text parts
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.generationModel)
	model.SetTemperature(c.temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return c.responseText(resp)
}

// responseText joins the text parts of every candidate
func (c *GeminiClient) responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrNoCandidates
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("%w: %s", ErrPromptBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrNoCandidates
	}

	var builder strings.Builder
	for i, candidate := range resp.Candidates {
		if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
			c.logger.Warn().
				Int("candidate", i).
				Str("finish_reason", candidate.FinishReason.String()).
				Msg("Candidate finished early")
		}
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				builder.WriteString(string(text))
			}
		}
	}

	result := strings.TrimRightFunc(builder.String(), unicode.IsSpace)
	if result == "" {
		return "", ErrEmptyContent
	}
	return result, nil
}

// Embed returns the L2-normalized embedding of text
func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	em := c.client.EmbeddingModel(c.embeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return Normalize(res.Embedding.Values), nil
}

// EmbedBatch returns the L2-normalized embeddings of texts, preserving order
func (c *GeminiClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	em := c.client.EmbeddingModel(c.embeddingModel)
	em.TaskType = genai.TaskTypeRetrievalDocument

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch := em.NewBatch()
		for _, text := range texts[start:end] {
			batch.AddContent(genai.Text(text))
		}
		res, err := em.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch %d-%d: %w", start, end, err)
		}
		if len(res.Embeddings) != end-start {
			return nil, fmt.Errorf("batch %d-%d returned %d embeddings", start, end, len(res.Embeddings))
		}
		for _, e := range res.Embeddings {
			if e == nil || len(e.Values) == 0 {
				return nil, ErrEmptyEmbedding
			}
			vectors = append(vectors, Normalize(e.Values))
		}
	}
	return vectors, nil
}

// Normalize scales v to unit length in place and returns it
func Normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}
