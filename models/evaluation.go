package models

import "time"

// Metric names a reference-free quality metric
type Metric string

const (
	MetricFaithfulness     Metric = "faithfulness"
	MetricAnswerRelevancy  Metric = "answer_relevancy"
	MetricContextPrecision Metric = "context_precision"
)

// RAGMetrics are the metrics computed for a retrieval-grounded answer
var RAGMetrics = []Metric{MetricFaithfulness, MetricAnswerRelevancy, MetricContextPrecision}

// LLMMetrics are the metrics computed for a model-only answer
var LLMMetrics = []Metric{MetricAnswerRelevancy}

// ScoreSet maps a metric to its score in [0, 1]
type ScoreSet map[Metric]float64

// Tier is an ordered qualitative band for a score
type Tier int

const (
	TierLow Tier = iota
	TierModerate
	TierGood
	TierExcellent
)

// String returns the display label of the tier
func (t Tier) String() string {
	switch t {
	case TierExcellent:
		return "Excellent"
	case TierGood:
		return "Good"
	case TierModerate:
		return "Moderate"
	default:
		return "Low"
	}
}

// Interpretation maps a metric to a sentence describing its score tier,
// e.g. "Good faithfulness: the answer is mostly grounded in the documents"
type Interpretation map[Metric]string

// EvaluationSummary describes one evaluation run
type EvaluationSummary struct {
	Timestamp      time.Time `json:"timestamp"`
	ProcessingTime float64   `json:"processing_time"`
	QuestionLength int       `json:"question_length"`
}

// RAGEvaluation holds the scored retrieval-grounded answer
type RAGEvaluation struct {
	Answer         string         `json:"answer"`
	EvidenceCount  int            `json:"evidence_count"`
	Scores         ScoreSet       `json:"scores"`
	Interpretation Interpretation `json:"interpretation"`
}

// LLMEvaluation holds the scored model-only answer
type LLMEvaluation struct {
	Answer         string         `json:"answer"`
	Scores         ScoreSet       `json:"scores"`
	Interpretation Interpretation `json:"interpretation"`
}

// Comparison holds the comparative verdicts between both answers
type Comparison struct {
	AnswerRelevancy string `json:"answer_relevancy,omitempty"`
	Overall         string `json:"overall,omitempty"`
}

// EvaluationResult is the full report of one question evaluation.
// When collection fails only Error, Question and Timestamp are set.
type EvaluationResult struct {
	EvaluationID      string             `json:"evaluation_id,omitempty"`
	EvaluationSummary *EvaluationSummary `json:"evaluation_summary,omitempty"`
	RAGEvaluation     *RAGEvaluation     `json:"rag_evaluation,omitempty"`
	LLMEvaluation     *LLMEvaluation     `json:"llm_evaluation,omitempty"`
	Comparison        *Comparison        `json:"comparison,omitempty"`
	Recommendations   []string           `json:"recommendations,omitempty"`
	Recommendation    string             `json:"recommendation,omitempty"`

	Error     string     `json:"error,omitempty"`
	Question  string     `json:"question,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Failed reports whether the evaluation aborted before scoring
func (r *EvaluationResult) Failed() bool {
	return r.Error != ""
}

// Sample is the input handed to a metric backend for one answer
type Sample struct {
	Question string
	Answer   string
	Contexts []string
}
