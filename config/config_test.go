package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, RetrieverLocal, cfg.Retriever.Type)
	assert.Equal(t, 4, cfg.Retriever.TopK)
	assert.Equal(t, 1000, cfg.Chunking.Size)
	assert.Equal(t, 200, cfg.Chunking.Overlap)
	assert.Equal(t, "gemini-1.5-flash", cfg.Gemini.GenerationModel)
	assert.InDelta(t, 0.2, cfg.Gemini.Temperature, 1e-6)
	assert.True(t, cfg.Eval.PrecisionAnswerAsReference)
	assert.Equal(t, 3, cfg.Eval.RelevancyQuestions)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RETRIEVER_TYPE", "pgvector")
	t.Setenv("RETRIEVER_TOP_K", "8")
	t.Setenv("STORAGE_TYPE", "s3")
	t.Setenv("AWS_S3_BUCKET", "corpus")
	t.Setenv("EVAL_PRECISION_ANSWER_AS_REFERENCE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, RetrieverPGVector, cfg.Retriever.Type)
	assert.Equal(t, 8, cfg.Retriever.TopK)
	assert.Equal(t, "corpus", cfg.Storage.S3Bucket)
	assert.False(t, cfg.Eval.PrecisionAnswerAsReference)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Retriever: RetrieverConfig{Type: RetrieverLocal, TopK: 4},
			Storage:   StorageConfig{Type: StorageLocal},
			Chunking:  ChunkingConfig{Size: 1000, Overlap: 200},
			Eval:      EvalConfig{RelevancyQuestions: 3},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown gin mode", mutate: func(c *Config) { c.GinMode = "verbose" }, wantErr: "GIN_MODE"},
		{name: "unknown retriever", mutate: func(c *Config) { c.Retriever.Type = "faiss" }, wantErr: "unknown retriever type"},
		{name: "zero top k", mutate: func(c *Config) { c.Retriever.TopK = 0 }, wantErr: "RETRIEVER_TOP_K"},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Type = "gcs" }, wantErr: "unknown storage type"},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Storage.Type = StorageS3 }, wantErr: "AWS_S3_BUCKET"},
		{name: "overlap equals size", mutate: func(c *Config) { c.Chunking.Overlap = 1000 }, wantErr: "CHUNK_OVERLAP"},
		{name: "zero relevancy questions", mutate: func(c *Config) { c.Eval.RelevancyQuestions = 0 }, wantErr: "EVAL_RELEVANCY_QUESTIONS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
