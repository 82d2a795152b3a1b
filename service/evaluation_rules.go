package service

import (
	"fmt"

	"ragcompare-backend/models"
)

// Tier thresholds, inclusive lower bounds
const (
	excellentThreshold = 0.8
	goodThreshold      = 0.6
	moderateThreshold  = 0.4

	reliableFaithfulness  = 0.7
	lowScoreThreshold     = 0.6
	retrievalGapThreshold = 0.2
)

const (
	RecommendImproveDocuments = "Improve document quality or adjust chunking"
	RecommendImprovePrompt    = "Improve the prompt or tune the retriever"
	RecommendImproveRetrieval = "Consider improving the retrieval strategy"
	RecommendAdjustChunking   = "Adjust the chunking or embedding strategy"
	RecommendPerformingWell   = "System performing well: keep the current configuration"

	VerdictRAGReliable      = "RAG more reliable: the answer is grounded in the retrieved documents"
	VerdictCheckDocuments   = "RAG may have faithfulness problems: check document quality"
	RecommendationSeparator = " | "
)

// TierFor buckets a score into its qualitative tier
func TierFor(score float64) models.Tier {
	switch {
	case score >= excellentThreshold:
		return models.TierExcellent
	case score >= goodThreshold:
		return models.TierGood
	case score >= moderateThreshold:
		return models.TierModerate
	default:
		return models.TierLow
	}
}

var tierWording = map[models.Metric]map[models.Tier]string{
	models.MetricFaithfulness: {
		models.TierExcellent: "Excellent faithfulness: the answer is grounded in the documents",
		models.TierGood:      "Good faithfulness: the answer is mostly grounded in the documents",
		models.TierModerate:  "Moderate faithfulness: the answer is partially grounded in the documents",
		models.TierLow:       "Low faithfulness: the answer may contain information not found in the documents",
	},
	models.MetricAnswerRelevancy: {
		models.TierExcellent: "Excellent relevancy: the answer directly addresses the question",
		models.TierGood:      "Good relevancy: the answer is related to the question",
		models.TierModerate:  "Moderate relevancy: the answer is partially related to the question",
		models.TierLow:       "Low relevancy: the answer may not be related to the question",
	},
	models.MetricContextPrecision: {
		models.TierExcellent: "Excellent precision: the retrieved contexts are highly relevant",
		models.TierGood:      "Good precision: the retrieved contexts are relevant",
		models.TierModerate:  "Moderate precision: some retrieved contexts are relevant",
		models.TierLow:       "Low precision: few retrieved contexts are relevant",
	},
}

// InterpretScore describes score in the wording of its metric
func InterpretScore(metric models.Metric, score float64) string {
	tier := TierFor(score)
	if wording, ok := tierWording[metric][tier]; ok {
		return wording
	}
	return fmt.Sprintf("%s %s", tier, metric)
}

// Interpret describes every score in the set
func Interpret(scores models.ScoreSet) models.Interpretation {
	interpretation := make(models.Interpretation, len(scores))
	for metric, score := range scores {
		interpretation[metric] = InterpretScore(metric, score)
	}
	return interpretation
}

// Compare contrasts the two answer paths
func Compare(rag, llm models.ScoreSet) models.Comparison {
	var comparison models.Comparison

	ragRel, ragOK := rag[models.MetricAnswerRelevancy]
	llmRel, llmOK := llm[models.MetricAnswerRelevancy]
	if ragOK && llmOK {
		switch {
		case ragRel > llmRel:
			comparison.AnswerRelevancy = fmt.Sprintf("RAG surpasses LLM (%.3f vs %.3f)", ragRel, llmRel)
		case llmRel > ragRel:
			comparison.AnswerRelevancy = fmt.Sprintf("LLM surpasses RAG (%.3f vs %.3f)", llmRel, ragRel)
		default:
			comparison.AnswerRelevancy = fmt.Sprintf("RAG and LLM equivalent (%.3f)", ragRel)
		}
	}

	if faithfulness, ok := rag[models.MetricFaithfulness]; ok {
		if faithfulness >= reliableFaithfulness {
			comparison.Overall = VerdictRAGReliable
		} else {
			comparison.Overall = VerdictCheckDocuments
		}
	}

	return comparison
}

// Recommend applies every independent rule in fixed order
func Recommend(rag, llm models.ScoreSet) []string {
	var recommendations []string

	if faithfulness, ok := rag[models.MetricFaithfulness]; ok && faithfulness < lowScoreThreshold {
		recommendations = append(recommendations, RecommendImproveDocuments)
	}

	ragRel, ragOK := rag[models.MetricAnswerRelevancy]
	llmRel, llmOK := llm[models.MetricAnswerRelevancy]
	if ragOK && llmOK {
		if ragRel < lowScoreThreshold {
			recommendations = append(recommendations, RecommendImprovePrompt)
		}
		if llmRel > ragRel+retrievalGapThreshold {
			recommendations = append(recommendations, RecommendImproveRetrieval)
		}
	}

	if precision, ok := rag[models.MetricContextPrecision]; ok && precision < lowScoreThreshold {
		recommendations = append(recommendations, RecommendAdjustChunking)
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations, RecommendPerformingWell)
	}
	return recommendations
}
