package service

import (
	"context"
	"errors"
	"testing"

	"ragcompare-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLLMServiceAnswerQuestion(t *testing.T) {
	gen := &fakeGenerator{resp: models.MessageResponse("Paris is the capital of France.")}
	svc := NewLLMService(LLMWithGenerator(gen))

	answer := svc.AnswerQuestion(context.Background(), "What is the capital of France?")

	assert.Equal(t, "Paris is the capital of France.", answer)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "What is the capital of France?")
	assert.NotContains(t, gen.prompts[0], "Context:")
}

func TestLLMServiceGenerationFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	svc := NewLLMService(LLMWithGenerator(gen))

	answer := svc.AnswerQuestion(context.Background(), "anything")

	assert.Equal(t, "Error processing question: quota exceeded", answer)
}

func TestLLMServiceWithoutGenerator(t *testing.T) {
	svc := NewLLMService()
	assert.Contains(t, svc.AnswerQuestion(context.Background(), "q"), ErrGeneratorNotSet.Error())
}
