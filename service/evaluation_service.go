package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"ragcompare-backend/logging"
	"ragcompare-backend/models"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
)

// minTextLength is the shortest trimmed answer or evidence text worth scoring
const minTextLength = 10

// EvidenceAnswerer produces an uncited grounded answer with the evidence behind it
type EvidenceAnswerer interface {
	AnswerWithEvidence(ctx context.Context, question string) (string, []models.Document, error)
}

// QuestionAnswerer produces a model-only answer
type QuestionAnswerer interface {
	AnswerQuestion(ctx context.Context, question string) string
}

// evaluationStage names one step of a single-question evaluation
type evaluationStage string

const (
	stageCollectRAG evaluationStage = "COLLECT_RAG_DATA"
	stageCollectLLM evaluationStage = "COLLECT_LLM_DATA"
	stageScoreRAG   evaluationStage = "SCORE_RAG"
	stageScoreLLM   evaluationStage = "SCORE_LLM"
	stageInterpret  evaluationStage = "INTERPRET"
	stageCompare    evaluationStage = "COMPARE"
	stageRecommend  evaluationStage = "RECOMMEND"
	stageDone       evaluationStage = "DONE"
)

var errCollectionPanic = errors.New("answer collection panicked")

// EvaluationService scores the RAG and model-only answers to a question and compares them
type EvaluationService struct {
	rag    EvidenceAnswerer
	llm    QuestionAnswerer
	scorer Scorer
	logger arbor.ILogger
	now    func() time.Time
}

// EvaluationServiceOption is a functional option for EvaluationService
type EvaluationServiceOption func(*EvaluationService)

// EvalWithRAG sets the grounded answer source
func EvalWithRAG(rag EvidenceAnswerer) EvaluationServiceOption {
	return func(s *EvaluationService) {
		s.rag = rag
	}
}

// EvalWithLLM sets the model-only answer source
func EvalWithLLM(llm QuestionAnswerer) EvaluationServiceOption {
	return func(s *EvaluationService) {
		s.llm = llm
	}
}

// EvalWithScorer sets the metric backend
func EvalWithScorer(scorer Scorer) EvaluationServiceOption {
	return func(s *EvaluationService) {
		s.scorer = scorer
	}
}

// EvalWithLogger sets the logger
func EvalWithLogger(logger arbor.ILogger) EvaluationServiceOption {
	return func(s *EvaluationService) {
		s.logger = logger
	}
}

// NewEvaluationService creates a new evaluation orchestrator
func NewEvaluationService(opts ...EvaluationServiceOption) *EvaluationService {
	s := &EvaluationService{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrNoOp(s.logger)
	return s
}

// EvaluateSingleQuestion runs both answer paths for question and returns the scored report.
// A failure while collecting either answer reduces the report to its error shape.
func (s *EvaluationService) EvaluateSingleQuestion(ctx context.Context, question string) *models.EvaluationResult {
	start := s.now()
	s.logger.Info().Str("question", logging.Truncate(question, questionLogLength)).Msg("Evaluating question")

	s.enter(stageCollectRAG)
	ragAnswer, evidence, err := s.collectRAG(ctx, question)
	if err != nil {
		return s.failure(question, err)
	}

	s.enter(stageCollectLLM)
	llmAnswer, err := s.collectLLM(ctx, question)
	if err != nil {
		return s.failure(question, err)
	}

	s.enter(stageScoreRAG)
	contexts := usableContexts(evidence)
	ragScores := s.scoreAnswer(ctx, models.RAGMetrics, models.Sample{
		Question: question,
		Answer:   ragAnswer,
		Contexts: contexts,
	}, true)

	s.enter(stageScoreLLM)
	llmScores := s.scoreAnswer(ctx, models.LLMMetrics, models.Sample{
		Question: question,
		Answer:   llmAnswer,
	}, false)

	s.enter(stageInterpret)
	ragInterpretation := Interpret(ragScores)
	llmInterpretation := Interpret(llmScores)

	s.enter(stageCompare)
	comparison := Compare(ragScores, llmScores)

	s.enter(stageRecommend)
	recommendations := Recommend(ragScores, llmScores)

	elapsed := s.now().Sub(start)
	s.enter(stageDone)
	s.logger.Info().
		Float64("seconds", elapsed.Seconds()).
		Int("evidence_count", len(evidence)).
		Msg("Evaluation completed")

	return &models.EvaluationResult{
		EvaluationID: uuid.NewString(),
		EvaluationSummary: &models.EvaluationSummary{
			Timestamp:      start,
			ProcessingTime: RoundSeconds(elapsed),
			QuestionLength: len([]rune(question)),
		},
		RAGEvaluation: &models.RAGEvaluation{
			Answer:         ragAnswer,
			EvidenceCount:  len(evidence),
			Scores:         ragScores,
			Interpretation: ragInterpretation,
		},
		LLMEvaluation: &models.LLMEvaluation{
			Answer:         llmAnswer,
			Scores:         llmScores,
			Interpretation: llmInterpretation,
		},
		Comparison:      &comparison,
		Recommendations: recommendations,
		Recommendation:  strings.Join(recommendations, RecommendationSeparator),
	}
}

func (s *EvaluationService) enter(stage evaluationStage) {
	s.logger.Debug().Str("stage", string(stage)).Msg("Evaluation stage")
}

func (s *EvaluationService) collectRAG(ctx context.Context, question string) (answer string, evidence []models.Document, err error) {
	if s.rag == nil {
		return "", nil, errors.New("rag service not set")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errCollectionPanic, r)
		}
	}()
	return s.rag.AnswerWithEvidence(ctx, question)
}

func (s *EvaluationService) collectLLM(ctx context.Context, question string) (answer string, err error) {
	if s.llm == nil {
		return "", errors.New("llm service not set")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errCollectionPanic, r)
		}
	}()
	return s.llm.AnswerQuestion(ctx, question), nil
}

func (s *EvaluationService) failure(question string, err error) *models.EvaluationResult {
	logging.LogError(s.logger, logging.KindSingleQuestionEvaluation, err, question)
	timestamp := s.now()
	return &models.EvaluationResult{
		Error:     err.Error(),
		Question:  question,
		Timestamp: &timestamp,
	}
}

// scoreAnswer computes every metric for sample. Degenerate input yields zeros
// without calling the backend.
func (s *EvaluationService) scoreAnswer(ctx context.Context, metrics []models.Metric, sample models.Sample, needsEvidence bool) models.ScoreSet {
	scores := zeroScores(metrics)

	if runeLen(strings.TrimSpace(sample.Answer)) < minTextLength {
		s.logger.Debug().Int("answer_length", runeLen(sample.Answer)).Msg("Answer too short to score")
		return scores
	}
	if needsEvidence && len(sample.Contexts) == 0 {
		s.logger.Debug().Msg("No usable evidence to score")
		return scores
	}

	for _, metric := range metrics {
		scores[metric] = s.scoreMetric(ctx, metric, sample)
	}
	return scores
}

// scoreMetric isolates a single metric computation from its siblings
func (s *EvaluationService) scoreMetric(ctx context.Context, metric models.Metric, sample models.Sample) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			logging.LogError(s.logger, logging.KindMetricComputation, fmt.Errorf("%s panicked: %v", metric, r), sample.Question)
			score = 0
		}
	}()

	if s.scorer == nil {
		logging.LogError(s.logger, logging.KindMetricComputation, errors.New("scorer not set"), sample.Question)
		return 0
	}

	raw, err := s.scorer.Score(ctx, metric, sample)
	if err != nil {
		logging.LogError(s.logger, logging.KindMetricComputation, fmt.Errorf("%s: %w", metric, err), sample.Question)
		return 0
	}
	return s.sanitizeScore(metric, raw)
}

// sanitizeScore maps invalid values to 0 and clamps the rest into [0, 1]
func (s *EvaluationService) sanitizeScore(metric models.Metric, raw float64) float64 {
	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw < 0 {
		s.logger.Warn().
			Str("error_kind", logging.KindInvalidMetricValue).
			Str("metric", string(metric)).
			Str("value", fmt.Sprintf("%v", raw)).
			Msg("Invalid metric value")
		return 0
	}
	if raw > 1 {
		return 1
	}
	return raw
}

func zeroScores(metrics []models.Metric) models.ScoreSet {
	scores := make(models.ScoreSet, len(metrics))
	for _, metric := range metrics {
		scores[metric] = 0
	}
	return scores
}

// usableContexts drops evidence whose trimmed content is too short to judge
func usableContexts(docs []models.Document) []string {
	contexts := make([]string, 0, len(docs))
	for _, doc := range docs {
		content := strings.TrimSpace(doc.Content)
		if runeLen(content) < minTextLength {
			continue
		}
		contexts = append(contexts, content)
	}
	return contexts
}

func runeLen(s string) int {
	return len([]rune(s))
}
