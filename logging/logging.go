// Package logging builds the arbor logger shared by every binary and
// provides the error-kind helper used by the services.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

// Error kinds attached to failure logs
const (
	KindLLMQuery                 = "LLMQueryError"
	KindRAGQuery                 = "RAGQueryError"
	KindRAGSimpleQuery           = "RAGSimpleQueryError"
	KindRetriever                = "RetrieverError"
	KindMetricComputation        = "MetricComputationError"
	KindInvalidMetricValue       = "InvalidMetricValue"
	KindSingleQuestionEvaluation = "SingleQuestionEvaluationError"
	KindIndexBuild               = "IndexBuildError"
)

// maxContextLength bounds the free-form context attached to error logs
const maxContextLength = 50

// Options controls logger construction
type Options struct {
	Level string
	File  string
}

// New creates a console logger, optionally mirrored to a rotating file
func New(opts Options) arbor.ILogger {
	logger := arbor.NewLogger()

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			fmt.Printf("Warning: Failed to create log directory: %v\n", err)
		} else {
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:             models.LogWriterTypeFile,
				FileName:         opts.File,
				TimeFormat:       "15:04:05",
				MaxSize:          50 * 1024 * 1024, // 50 MB
				MaxBackups:       3,
				TextOutput:       true,
				DisableTimestamp: false,
			})
		}
	}

	logger = logger.WithConsoleWriter(models.WriterConfiguration{
		Type:             models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		TextOutput:       true,
		DisableTimestamp: false,
	})

	level := opts.Level
	if level == "" {
		level = "info"
	}
	return logger.WithLevelFromString(level)
}

// OrNoOp returns logger, or a discarding logger when nil
func OrNoOp(logger arbor.ILogger) arbor.ILogger {
	if logger == nil {
		return arbor.NewNoOpLogger()
	}
	return logger
}

// LogError records a failure with its kind, message and a truncated context string
func LogError(logger arbor.ILogger, kind string, err error, context string) {
	if logger == nil || err == nil {
		return
	}
	logger.Error().
		Str("error_kind", kind).
		Str("context", Truncate(context, maxContextLength)).
		Err(err).
		Msg("Operation failed")
}

// Truncate shortens s to at most n runes, appending "..." when cut
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
