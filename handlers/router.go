// Package handlers exposes the question answering services over HTTP.
package handlers

import (
	"ragcompare-backend/logging"

	"github.com/gin-gonic/gin"
	"github.com/ternarybob/arbor"
)

// NewRouter builds the gin engine serving every endpoint
func NewRouter(h *QueryHandler, logger arbor.ILogger, origins ...string) *gin.Engine {
	logger = logging.OrNoOp(logger)

	r := gin.New()
	r.Use(Recovery(logger), RequestLogger(logger), CORS(origins...))

	// Health check endpoint
	r.GET("/health", h.Health)

	// API routes
	api := r.Group("/api")
	{
		api.POST("/llm", h.AskLLM)
		api.POST("/rag", h.AskRAG)
		api.POST("/rag/detailed", h.AskRAGDetailed)
		api.POST("/evaluate", h.Evaluate)
	}

	return r
}
