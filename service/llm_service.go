package service

import (
	"context"
	"fmt"
	"time"

	"ragcompare-backend/logging"

	"github.com/ternarybob/arbor"
)

// LLMService answers questions from model knowledge alone
type LLMService struct {
	generator Generator
	logger    arbor.ILogger
}

// LLMServiceOption is a functional option for LLMService
type LLMServiceOption func(*LLMService)

// LLMWithGenerator sets the language model
func LLMWithGenerator(generator Generator) LLMServiceOption {
	return func(s *LLMService) {
		s.generator = generator
	}
}

// LLMWithLogger sets the logger
func LLMWithLogger(logger arbor.ILogger) LLMServiceOption {
	return func(s *LLMService) {
		s.logger = logger
	}
}

// NewLLMService creates a new model-only answering service
func NewLLMService(opts ...LLMServiceOption) *LLMService {
	s := &LLMService{}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrNoOp(s.logger)
	return s
}

// AnswerQuestion returns the model's answer to question. Generation failures
// are folded into a displayable error string so the caller always has text.
func (s *LLMService) AnswerQuestion(ctx context.Context, question string) string {
	start := time.Now()

	if s.generator == nil {
		logging.LogError(s.logger, logging.KindLLMQuery, ErrGeneratorNotSet, "Question: "+question)
		return errorAnswer(ErrGeneratorNotSet)
	}

	resp, err := s.generator.Invoke(ctx, buildLLMPrompt(question))
	if err != nil {
		logging.LogError(s.logger, logging.KindLLMQuery, err, "Question: "+question)
		return errorAnswer(err)
	}

	answer := ExtractModelText(resp)
	logQuery(s.logger, "llm_only", question, answer, time.Since(start))
	return answer
}

func buildLLMPrompt(question string) string {
	return fmt.Sprintf(`Answer the following question clearly and accurately.

Question: %s

Answer:`, question)
}

// errorAnswer renders a failure as the visible answer text
func errorAnswer(err error) string {
	return "Error processing question: " + err.Error()
}

// logQuery records one completed query execution
func logQuery(logger arbor.ILogger, method, question, answer string, elapsed time.Duration) {
	logger.Info().
		Str("method", method).
		Int("question_length", len([]rune(question))).
		Int("answer_length", len([]rune(answer))).
		Float64("seconds", elapsed.Seconds()).
		Msg("Query executed")
}
