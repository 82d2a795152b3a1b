package scoring

import (
	"fmt"
	"strings"

	"ragcompare-backend/models"
)

func numberedContexts(contexts []string) string {
	var builder strings.Builder
	for i, c := range contexts {
		builder.WriteString(fmt.Sprintf("[%d] %s\n\n", i+1, c))
	}
	return builder.String()
}

func faithfulnessPrompt(sample models.Sample) string {
	return fmt.Sprintf(`You are verifying whether an answer is supported by its context.

Break the answer into short, self-contained factual statements. For each statement decide
whether it can be directly inferred from the context.

Respond with JSON only, in this shape:
{"statements": [{"statement": "...", "supported": true}]}

Context:
%s
Question: %s

Answer: %s`, numberedContexts(sample.Contexts), sample.Question, sample.Answer)
}

func relevancyPrompt(sample models.Sample, n int) string {
	return fmt.Sprintf(`Write %d different questions that the following answer would directly answer.
Also decide whether the answer is noncommittal (evasive, vague or refusing to answer).

Respond with JSON only, in this shape:
{"questions": ["..."], "noncommittal": false}

Answer: %s`, n, sample.Answer)
}

func precisionPrompt(sample models.Sample, answerAsReference bool) string {
	reference := fmt.Sprintf("Question: %s", sample.Question)
	if answerAsReference {
		reference = fmt.Sprintf("Question: %s\n\nReference answer: %s", sample.Question, sample.Answer)
	}

	return fmt.Sprintf(`For each numbered context below, decide whether it was useful for arriving at the reference.

%s

Contexts:
%s
Respond with JSON only, one boolean per context in order, in this shape:
{"verdicts": [true, false]}`, reference, numberedContexts(sample.Contexts))
}
