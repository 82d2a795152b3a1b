package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ragcompare-backend/models"
	"ragcompare-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct{ answer string }

func (s stubLLM) AnswerQuestion(_ context.Context, _ string) string { return s.answer }

type stubRAG struct {
	answer   string
	detailed *models.RAGAnswer
	err      error
}

func (s stubRAG) AnswerQuestion(_ context.Context, _ string) (string, error) {
	return s.answer, s.err
}

func (s stubRAG) AnswerQuestionDetailed(_ context.Context, _ string) (*models.RAGAnswer, error) {
	return s.detailed, s.err
}

type stubEvaluator struct{ result *models.EvaluationResult }

func (s stubEvaluator) EvaluateSingleQuestion(_ context.Context, _ string) *models.EvaluationResult {
	return s.result
}

type envelope struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, h *QueryHandler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	NewRouter(h, nil).ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func defaultHandler() *QueryHandler {
	return NewQueryHandler(
		stubLLM{answer: "Go was released in 2009."},
		stubRAG{
			answer: "Go was released in 2009 [1].\n\nSources:\n[1] go.txt — page 1",
			detailed: &models.RAGAnswer{
				Question:  "When?",
				Answer:    "Go was released in 2009 [1].",
				Sources:   "Sources:\n[1] go.txt — page 1",
				Citations: []models.Citation{{Number: 1, Filename: "go.txt", Page: 1, Excerpt: "Go..."}},
				Metadata:  models.AnswerMetadata{TotalSources: 1, TotalFiles: 1, Files: []string{"go.txt"}},
			},
		},
		stubEvaluator{result: &models.EvaluationResult{
			EvaluationID:  "abc",
			RAGEvaluation: &models.RAGEvaluation{Answer: "Evaluated answer."},
		}},
	)
}

func TestInvalidRequests(t *testing.T) {
	paths := []string{"/api/llm", "/api/rag", "/api/rag/detailed", "/api/evaluate"}
	bodies := []string{``, `{}`, `{"question": ""}`, `not json`}

	for _, path := range paths {
		for _, body := range bodies {
			t.Run(path+" "+body, func(t *testing.T) {
				w, env := serve(t, defaultHandler(), http.MethodPost, path, body)
				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.False(t, env.Success)
				assert.Equal(t, "INVALID_REQUEST", env.Error.Code)
			})
		}
	}
}

func TestAskLLM(t *testing.T) {
	w, env := serve(t, defaultHandler(), http.MethodPost, "/api/llm", `{"question":"When was Go released?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "When was Go released?", env.Data["question"])
	assert.Equal(t, "Go was released in 2009.", env.Data["answer"])
	assert.Equal(t, MethodLLMOnly, env.Data["method"])
	assert.Equal(t, HallucinationWarning, env.Data["warning"])
	assert.Contains(t, env.Data, "processing_time")
}

func TestAskRAG(t *testing.T) {
	w, env := serve(t, defaultHandler(), http.MethodPost, "/api/rag", `{"question":"When?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, MethodRAGWithCitations, env.Data["method"])
	assert.Contains(t, env.Data["answer"], "Sources:")
	assert.NotContains(t, env.Data, "warning")
}

func TestAskRAGDetailed(t *testing.T) {
	w, env := serve(t, defaultHandler(), http.MethodPost, "/api/rag/detailed", `{"question":"When?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, MethodRAGDetailed, env.Data["method"])
	assert.Equal(t, "Go was released in 2009 [1].", env.Data["answer"])

	citations, ok := env.Data["citations"].([]interface{})
	require.True(t, ok)
	require.Len(t, citations, 1)
	assert.Equal(t, "go.txt", citations[0].(map[string]interface{})["filename"])
}

func TestRAGFailures(t *testing.T) {
	h := NewQueryHandler(stubLLM{}, stubRAG{err: errors.New("index offline")}, stubEvaluator{})

	for _, path := range []string{"/api/rag", "/api/rag/detailed"} {
		t.Run(path, func(t *testing.T) {
			w, env := serve(t, h, http.MethodPost, path, `{"question":"When?"}`)
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.False(t, env.Success)
			assert.Equal(t, "RAG_FAILED", env.Error.Code)
			assert.Equal(t, ragFailedMessage, env.Error.Message)
			assert.NotContains(t, w.Body.String(), "index offline")
		})
	}
}

func TestEvaluate(t *testing.T) {
	w, env := serve(t, defaultHandler(), http.MethodPost, "/api/evaluate", `{"question":"When?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, MethodRAGEvaluation, env.Data["method"])
	assert.Equal(t, "Evaluated answer.", env.Data["rag_answer"])

	evaluation, ok := env.Data["evaluation"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "abc", evaluation["evaluation_id"])
}

func TestEvaluateFailureShape(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	h := NewQueryHandler(stubLLM{}, stubRAG{}, stubEvaluator{
		result: &models.EvaluationResult{Error: "index offline", Question: "When?", Timestamp: &ts},
	})

	w, env := serve(t, h, http.MethodPost, "/api/evaluate", `{"question":"When?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Error processing question: index offline", env.Data["rag_answer"])

	evaluation := env.Data["evaluation"].(map[string]interface{})
	assert.Equal(t, "index offline", evaluation["error"])
	assert.Equal(t, "When?", evaluation["question"])
	assert.NotContains(t, evaluation, "rag_evaluation")
}

type countingRetriever struct {
	calls int
	err   error
}

func (r *countingRetriever) Retrieve(_ context.Context, _ string) ([]models.Document, error) {
	r.calls++
	return nil, r.err
}

type echoGenerator struct{}

func (echoGenerator) Invoke(_ context.Context, _ string) (models.ModelResponse, error) {
	return models.TextResponse("An answer."), nil
}

type constantScorer struct{}

func (constantScorer) Score(_ context.Context, _ models.Metric, _ models.Sample) (float64, error) {
	return 0.5, nil
}

func TestEvaluateRetrievesOnceOnFailure(t *testing.T) {
	retriever := &countingRetriever{err: errors.New("index offline")}
	rag := service.NewRAGService(service.RAGWithGenerator(echoGenerator{}), service.RAGWithRetriever(retriever))
	llm := service.NewLLMService(service.LLMWithGenerator(echoGenerator{}))
	evaluation := service.NewEvaluationService(
		service.EvalWithRAG(rag),
		service.EvalWithLLM(llm),
		service.EvalWithScorer(constantScorer{}),
	)

	w, env := serve(t, NewQueryHandler(llm, rag, evaluation), http.MethodPost, "/api/evaluate", `{"question":"When?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, retriever.calls)

	answer, ok := env.Data["rag_answer"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(answer, "Error processing question: "))
	assert.Contains(t, answer, "index offline")
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	NewRouter(defaultHandler(), nil).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestCORS(t *testing.T) {
	r := NewRouter(defaultHandler(), nil, "http://localhost:8080")

	req := httptest.NewRequest(http.MethodOptions, "/api/rag", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:8080", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecovery(t *testing.T) {
	h := NewQueryHandler(panickingLLM{}, stubRAG{}, stubEvaluator{})
	w, env := serve(t, h, http.MethodPost, "/api/llm", `{"question":"When?"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
}

type panickingLLM struct{}

func (panickingLLM) AnswerQuestion(_ context.Context, _ string) string { panic("model exploded") }
