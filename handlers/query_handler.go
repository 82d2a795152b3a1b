package handlers

import (
	"context"
	"net/http"
	"time"

	"ragcompare-backend/logging"
	"ragcompare-backend/models"
	"ragcompare-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/ternarybob/arbor"
)

// Method labels reported with every answer
const (
	MethodLLMOnly          = "LLM_only"
	MethodRAGWithCitations = "RAG_with_citations"
	MethodRAGDetailed      = "RAG_with_citations_detailed"
	MethodRAGEvaluation    = "RAG_with_evaluation"
)

// HallucinationWarning accompanies every answer produced without retrieval
const HallucinationWarning = "This answer may contain hallucinations: it is not grounded in documents"

// ragFailedMessage is the only error text clients see for a failed RAG answer
const ragFailedMessage = "Failed to generate an answer from the documents"

// LLMAnswerer answers from the model alone
type LLMAnswerer interface {
	AnswerQuestion(ctx context.Context, question string) string
}

// RAGAnswerer answers from retrieved documents
type RAGAnswerer interface {
	AnswerQuestion(ctx context.Context, question string) (string, error)
	AnswerQuestionDetailed(ctx context.Context, question string) (*models.RAGAnswer, error)
}

// Evaluator scores a single question across both pipelines
type Evaluator interface {
	EvaluateSingleQuestion(ctx context.Context, question string) *models.EvaluationResult
}

// QueryHandler handles HTTP requests for question answering and evaluation
type QueryHandler struct {
	llm       LLMAnswerer
	rag       RAGAnswerer
	evaluator Evaluator
	logger    arbor.ILogger
}

// QueryHandlerOption configures a QueryHandler
type QueryHandlerOption func(*QueryHandler)

// WithHandlerLogger sets the logger receiving failure details hidden from clients
func WithHandlerLogger(logger arbor.ILogger) QueryHandlerOption {
	return func(h *QueryHandler) {
		h.logger = logger
	}
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(llm LLMAnswerer, rag RAGAnswerer, evaluator Evaluator, opts ...QueryHandlerOption) *QueryHandler {
	h := &QueryHandler{
		llm:       llm,
		rag:       rag,
		evaluator: evaluator,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = logging.OrNoOp(h.logger)
	return h
}

// QuestionRequest represents the request body shared by every query endpoint
type QuestionRequest struct {
	Question string `json:"question" binding:"required"`
}

// AskLLM handles POST /api/llm
func (h *QueryHandler) AskLLM(c *gin.Context) {
	req, ok := bindQuestion(c)
	if !ok {
		return
	}

	start := time.Now()
	answer := h.llm.AnswerQuestion(c.Request.Context(), req.Question)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"question":        req.Question,
			"answer":          answer,
			"method":          MethodLLMOnly,
			"processing_time": service.RoundSeconds(time.Since(start)),
			"warning":         HallucinationWarning,
		},
	})
}

// AskRAG handles POST /api/rag
func (h *QueryHandler) AskRAG(c *gin.Context) {
	req, ok := bindQuestion(c)
	if !ok {
		return
	}

	start := time.Now()
	answer, err := h.rag.AnswerQuestion(c.Request.Context(), req.Question)
	if err != nil {
		h.ragFailed(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"question":        req.Question,
			"answer":          answer,
			"method":          MethodRAGWithCitations,
			"processing_time": service.RoundSeconds(time.Since(start)),
		},
	})
}

// AskRAGDetailed handles POST /api/rag/detailed
func (h *QueryHandler) AskRAGDetailed(c *gin.Context) {
	req, ok := bindQuestion(c)
	if !ok {
		return
	}

	start := time.Now()
	answer, err := h.rag.AnswerQuestionDetailed(c.Request.Context(), req.Question)
	if err != nil {
		h.ragFailed(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"question":        req.Question,
			"answer":          answer.Answer,
			"sources":         answer.Sources,
			"citations":       answer.Citations,
			"metadata":        answer.Metadata,
			"method":          MethodRAGDetailed,
			"processing_time": service.RoundSeconds(time.Since(start)),
		},
	})
}

// Evaluate handles POST /api/evaluate
func (h *QueryHandler) Evaluate(c *gin.Context) {
	req, ok := bindQuestion(c)
	if !ok {
		return
	}

	start := time.Now()
	result := h.evaluator.EvaluateSingleQuestion(c.Request.Context(), req.Question)

	var ragAnswer string
	switch {
	case result.Failed():
		ragAnswer = "Error processing question: " + result.Error
	case result.RAGEvaluation == nil:
		ragAnswer = "Error processing question: no RAG evaluation produced"
	default:
		ragAnswer = result.RAGEvaluation.Answer
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"question":        req.Question,
			"rag_answer":      ragAnswer,
			"method":          MethodRAGEvaluation,
			"processing_time": service.RoundSeconds(time.Since(start)),
			"evaluation":      result,
		},
	})
}

// Health handles GET /health
func (h *QueryHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"endpoints": gin.H{
			"/api/llm":          "LLM only (may hallucinate)",
			"/api/rag":          "RAG with citations",
			"/api/rag/detailed": "RAG with citations and source metadata",
			"/api/evaluate":     "RAG answer with metric evaluation",
		},
	})
}

func bindQuestion(c *gin.Context) (QuestionRequest, bool) {
	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return req, false
	}
	return req, true
}

func (h *QueryHandler) ragFailed(c *gin.Context, err error) {
	h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("RAG answer failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "RAG_FAILED",
			"message": ragFailedMessage,
		},
	})
}
