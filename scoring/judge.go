// Package scoring implements reference-free answer metrics by asking a
// language model to judge statements, questions and contexts.
package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"ragcompare-backend/models"

	"github.com/ternarybob/arbor"
)

// TextGenerator returns the plain text completion of a prompt
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Embedder turns text into a dense vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

var (
	ErrUnknownMetric    = errors.New("unknown metric")
	ErrNoJSON           = errors.New("judge response contains no JSON object")
	ErrVerdictMismatch  = errors.New("judge returned a verdict count that does not match the contexts")
	ErrEmbedderNotSet   = errors.New("embedder not set")
	ErrGeneratorMissing = errors.New("judge generator not set")
)

// JudgeScorer scores answers with a language model judge
type JudgeScorer struct {
	generator          TextGenerator
	embedder           Embedder
	relevancyQuestions int
	answerAsReference  bool
	logger             arbor.ILogger
}

// JudgeOption is a functional option for JudgeScorer
type JudgeOption func(*JudgeScorer)

// WithGenerator sets the judging model
func WithGenerator(generator TextGenerator) JudgeOption {
	return func(s *JudgeScorer) {
		s.generator = generator
	}
}

// WithEmbedder sets the embedder used by answer relevancy
func WithEmbedder(embedder Embedder) JudgeOption {
	return func(s *JudgeScorer) {
		s.embedder = embedder
	}
}

// WithRelevancyQuestions sets how many questions are generated from an answer
func WithRelevancyQuestions(n int) JudgeOption {
	return func(s *JudgeScorer) {
		if n > 0 {
			s.relevancyQuestions = n
		}
	}
}

// WithAnswerAsReference makes context precision judge contexts against the
// candidate answer instead of the question alone. This substitutes the answer
// for a missing ground truth and is not a standard precision measure.
func WithAnswerAsReference(enabled bool) JudgeOption {
	return func(s *JudgeScorer) {
		s.answerAsReference = enabled
	}
}

// WithLogger sets the logger
func WithLogger(logger arbor.ILogger) JudgeOption {
	return func(s *JudgeScorer) {
		s.logger = logger
	}
}

// NewJudgeScorer creates a new model-as-judge scorer
func NewJudgeScorer(opts ...JudgeOption) *JudgeScorer {
	s := &JudgeScorer{
		relevancyQuestions: 3,
		answerAsReference:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = arbor.NewNoOpLogger()
	}
	return s
}

// Score computes one metric for sample
func (s *JudgeScorer) Score(ctx context.Context, metric models.Metric, sample models.Sample) (float64, error) {
	if s.generator == nil {
		return 0, ErrGeneratorMissing
	}
	switch metric {
	case models.MetricFaithfulness:
		return s.faithfulness(ctx, sample)
	case models.MetricAnswerRelevancy:
		return s.answerRelevancy(ctx, sample)
	case models.MetricContextPrecision:
		return s.contextPrecision(ctx, sample)
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownMetric, metric)
	}
}

type statementVerdicts struct {
	Statements []struct {
		Statement string `json:"statement"`
		Supported bool   `json:"supported"`
	} `json:"statements"`
}

// faithfulness is the share of answer statements supported by the contexts
func (s *JudgeScorer) faithfulness(ctx context.Context, sample models.Sample) (float64, error) {
	var verdicts statementVerdicts
	if err := s.judge(ctx, faithfulnessPrompt(sample), &verdicts); err != nil {
		return 0, err
	}
	if len(verdicts.Statements) == 0 {
		return 0, nil
	}

	supported := 0
	for _, v := range verdicts.Statements {
		if v.Supported {
			supported++
		}
	}
	s.logger.Debug().
		Int("statements", len(verdicts.Statements)).
		Int("supported", supported).
		Msg("Faithfulness judged")
	return float64(supported) / float64(len(verdicts.Statements)), nil
}

type generatedQuestions struct {
	Questions    []string `json:"questions"`
	Noncommittal bool     `json:"noncommittal"`
}

// answerRelevancy is the mean cosine similarity between the question and
// questions generated back from the answer
func (s *JudgeScorer) answerRelevancy(ctx context.Context, sample models.Sample) (float64, error) {
	if s.embedder == nil {
		return 0, ErrEmbedderNotSet
	}

	var generated generatedQuestions
	if err := s.judge(ctx, relevancyPrompt(sample, s.relevancyQuestions), &generated); err != nil {
		return 0, err
	}
	if generated.Noncommittal || len(generated.Questions) == 0 {
		return 0, nil
	}

	original, err := s.embedder.Embed(ctx, sample.Question)
	if err != nil {
		return 0, fmt.Errorf("failed to embed question: %w", err)
	}

	total := 0.0
	for _, q := range generated.Questions {
		vec, err := s.embedder.Embed(ctx, q)
		if err != nil {
			return 0, fmt.Errorf("failed to embed generated question: %w", err)
		}
		total += Cosine(original, vec)
	}
	return total / float64(len(generated.Questions)), nil
}

type contextVerdicts struct {
	Verdicts []bool `json:"verdicts"`
}

// contextPrecision is the average precision of useful contexts over their ranks
func (s *JudgeScorer) contextPrecision(ctx context.Context, sample models.Sample) (float64, error) {
	if len(sample.Contexts) == 0 {
		return 0, nil
	}

	var verdicts contextVerdicts
	if err := s.judge(ctx, precisionPrompt(sample, s.answerAsReference), &verdicts); err != nil {
		return 0, err
	}
	if len(verdicts.Verdicts) != len(sample.Contexts) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrVerdictMismatch, len(verdicts.Verdicts), len(sample.Contexts))
	}
	return AveragePrecision(verdicts.Verdicts), nil
}

// judge sends prompt and decodes the JSON object in the reply into out
func (s *JudgeScorer) judge(ctx context.Context, prompt string, out interface{}) error {
	reply, err := s.generator.GenerateText(ctx, prompt)
	if err != nil {
		return fmt.Errorf("judge call failed: %w", err)
	}
	raw, err := ExtractJSON(reply)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to decode judge response: %w", err)
	}
	return nil
}

// ExtractJSON locates the outermost JSON object in a model reply, tolerating
// markdown code fences and surrounding prose
func ExtractJSON(reply string) (string, error) {
	text := strings.TrimSpace(reply)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSON
	}
	return text[start : end+1], nil
}

// AveragePrecision is the mean of precision@k over the ranks k holding a useful item
func AveragePrecision(verdicts []bool) float64 {
	relevant := 0
	sum := 0.0
	for i, useful := range verdicts {
		if !useful {
			continue
		}
		relevant++
		sum += float64(relevant) / float64(i+1)
	}
	if relevant == 0 {
		return 0
	}
	return sum / float64(relevant)
}

// Cosine returns the cosine similarity of a and b, or 0 when undefined
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
