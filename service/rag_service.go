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

	"github.com/ternarybob/arbor"
)

// MalformedRetrievalAnswer is returned in cited mode when the retriever output is unusable
const MalformedRetrievalAnswer = "Error: invalid format returned by the retriever"

// questionLogLength bounds the question prefix written to logs
const questionLogLength = 50

// RAGService answers questions from retrieved evidence
type RAGService struct {
	generator Generator
	retriever Retriever
	citations *CitationService
	logger    arbor.ILogger
}

// RAGServiceOption is a functional option for RAGService
type RAGServiceOption func(*RAGService)

// RAGWithGenerator sets the language model
func RAGWithGenerator(generator Generator) RAGServiceOption {
	return func(s *RAGService) {
		s.generator = generator
	}
}

// RAGWithRetriever sets the evidence retriever
func RAGWithRetriever(retriever Retriever) RAGServiceOption {
	return func(s *RAGService) {
		s.retriever = retriever
	}
}

// RAGWithCitationService sets the citation formatter
func RAGWithCitationService(citations *CitationService) RAGServiceOption {
	return func(s *RAGService) {
		s.citations = citations
	}
}

// RAGWithLogger sets the logger
func RAGWithLogger(logger arbor.ILogger) RAGServiceOption {
	return func(s *RAGService) {
		s.logger = logger
	}
}

// NewRAGService creates a new retrieval-augmented answering service
func NewRAGService(opts ...RAGServiceOption) *RAGService {
	s := &RAGService{}
	for _, opt := range opts {
		opt(s)
	}
	if s.citations == nil {
		s.citations = NewCitationService()
	}
	s.logger = logging.OrNoOp(s.logger)
	return s
}

// AnswerQuestion answers in cited mode: the annotated answer followed by its source list.
// A malformed retriever result yields a visible error answer; other failures are returned.
func (s *RAGService) AnswerQuestion(ctx context.Context, question string) (string, error) {
	answer, err := s.AnswerQuestionDetailed(ctx, question)
	if err != nil {
		if errors.Is(err, ErrMalformedRetrieval) {
			return MalformedRetrievalAnswer, nil
		}
		return "", err
	}
	return answer.Text(), nil
}

// AnswerQuestionDetailed answers in cited mode and returns the citations and evidence metadata
func (s *RAGService) AnswerQuestionDetailed(ctx context.Context, question string) (*models.RAGAnswer, error) {
	start := time.Now()
	s.logger.Debug().Str("question", logging.Truncate(question, questionLogLength)).Msg("Processing cited RAG query")

	// Numbering is owned by this answer
	counter := s.citations.NewCounter()
	counter.Reset()

	docs, err := s.retrieve(ctx, question)
	if err != nil {
		kind := logging.KindRAGQuery
		if errors.Is(err, ErrMalformedRetrieval) {
			kind = logging.KindRetriever
		}
		logging.LogError(s.logger, kind, err, "Question: "+question)
		return nil, err
	}

	resp, err := s.generate(ctx, buildCitedPrompt(question, docs))
	if err != nil {
		logging.LogError(s.logger, logging.KindRAGQuery, err, "Question: "+question)
		return nil, err
	}
	answer := ExtractChainText(resp)

	citations := make([]models.Citation, 0, len(docs))
	for _, doc := range docs {
		citations = append(citations, counter.Create(doc, Excerpt(doc.Content)))
	}

	formatted := s.citations.FormatResponseWithCitations(answer, citations)
	summary := s.citations.GetCitationSummary(citations)
	elapsed := time.Since(start)

	logQuery(s.logger, "rag_cited", question, answer, elapsed)
	s.logger.Debug().
		Int("total_sources", summary.TotalSources).
		Int("total_files", summary.TotalFiles).
		Strs("files", summary.Files).
		Msg("Citations attached")

	return &models.RAGAnswer{
		Question:  question,
		Answer:    formatted.Answer,
		Sources:   formatted.Sources,
		Citations: citations,
		Metadata: models.AnswerMetadata{
			TotalSources:   summary.TotalSources,
			TotalFiles:     summary.TotalFiles,
			Files:          summary.Files,
			ProcessingTime: RoundSeconds(elapsed),
		},
	}, nil
}

// AnswerQuestionSimple answers without citation markup. Every failure is
// folded into the returned text.
func (s *RAGService) AnswerQuestionSimple(ctx context.Context, question string) string {
	answer, _, err := s.AnswerWithEvidence(ctx, question)
	if err != nil {
		return errorAnswer(err)
	}
	return answer
}

// AnswerWithEvidence answers without citation markup and returns the evidence the
// answer was generated from. Retrieval failures are returned; generation failures
// become a visible error answer.
func (s *RAGService) AnswerWithEvidence(ctx context.Context, question string) (string, []models.Document, error) {
	start := time.Now()
	s.logger.Debug().Str("question", logging.Truncate(question, questionLogLength)).Msg("Processing simple RAG query")

	docs, err := s.retrieve(ctx, question)
	if err != nil {
		logging.LogError(s.logger, logging.KindRAGSimpleQuery, err, "Question: "+question)
		return "", nil, err
	}

	resp, err := s.generate(ctx, buildSimplePrompt(question, docs))
	if err != nil {
		logging.LogError(s.logger, logging.KindRAGSimpleQuery, err, "Question: "+question)
		return errorAnswer(err), docs, nil
	}

	answer := ExtractChainText(resp)
	logQuery(s.logger, "rag_simple", question, answer, time.Since(start))
	return answer, docs, nil
}

func (s *RAGService) retrieve(ctx context.Context, question string) ([]models.Document, error) {
	if s.retriever == nil {
		return nil, ErrRetrieverNotSet
	}
	docs, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrievalFailed, err)
	}
	return docs, nil
}

func (s *RAGService) generate(ctx context.Context, prompt string) (models.ModelResponse, error) {
	if s.generator == nil {
		return models.ModelResponse{}, ErrGeneratorNotSet
	}
	resp, err := s.generator.Invoke(ctx, prompt)
	if err != nil {
		return models.ModelResponse{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	return resp, nil
}

// buildCitedPrompt numbers each document by retrieval rank
func buildCitedPrompt(question string, docs []models.Document) string {
	var numbered strings.Builder
	for i, doc := range docs {
		numbered.WriteString(fmt.Sprintf("[%d] %s\n\n", i+1, doc.Content))
	}

	return fmt.Sprintf(`Based on the following documents, answer the question.
Cite the sources using [1], [2], etc. at the end of the answer.

Documents:
%s
Question: %s

Answer (with citations):`, numbered.String(), question)
}

func buildSimplePrompt(question string, docs []models.Document) string {
	return fmt.Sprintf(`Based on the following context, answer the question directly and concisely.

Context:
%s

Question: %s

Answer:`, strings.Join(models.Contents(docs), "\n\n"), question)
}

// RoundSeconds converts d to seconds rounded to 3 decimals
func RoundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}
