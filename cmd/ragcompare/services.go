package main

import (
	"context"

	"ragcompare-backend/app"
	"ragcompare-backend/models"
)

// appAnswerer adapts the wired services to the ask command
type appAnswerer struct {
	a *app.App
}

func (s appAnswerer) llmAnswer(ctx context.Context, question string) string {
	return s.a.LLM.AnswerQuestion(ctx, question)
}

func (s appAnswerer) ragAnswer(ctx context.Context, question string) (string, error) {
	return s.a.RAG.AnswerQuestion(ctx, question)
}

func (s appAnswerer) ragSimple(ctx context.Context, question string) string {
	return s.a.RAG.AnswerQuestionSimple(ctx, question)
}

func (s appAnswerer) ragDetailed(ctx context.Context, question string) (*models.RAGAnswer, error) {
	return s.a.RAG.AnswerQuestionDetailed(ctx, question)
}
