package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{in: "short", n: 10, want: "short"},
		{in: "exactly", n: 7, want: "exactly"},
		{in: "truncate me", n: 8, want: "truncate..."},
		{in: "ééééé", n: 2, want: "éé..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Truncate(tt.in, tt.n), tt.in)
	}
}

func TestOrNoOp(t *testing.T) {
	assert.NotNil(t, OrNoOp(nil))

	logger := arbor.NewNoOpLogger()
	assert.Equal(t, logger, OrNoOp(logger))
}

func TestLogErrorToleratesMissingInputs(t *testing.T) {
	assert.NotPanics(t, func() {
		LogError(nil, KindRAGQuery, errors.New("boom"), "question")
		LogError(arbor.NewNoOpLogger(), KindRAGQuery, nil, "question")
		LogError(arbor.NewNoOpLogger(), KindRetriever, errors.New("boom"), "a long question that is definitely over fifty runes in length")
	})
}
