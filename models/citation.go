package models

// Citation represents a numbered reference to one document used in an answer
type Citation struct {
	Number   int    `json:"number"`
	Filename string `json:"filename"`
	Page     int    `json:"page"`
	Excerpt  string `json:"excerpt"`
}

// FormattedAnswer is an answer annotated with citation markers plus its source list
type FormattedAnswer struct {
	Answer  string `json:"answer"`
	Sources string `json:"sources"`
}

// CitationSummary holds citation counts for logging and telemetry
type CitationSummary struct {
	TotalSources int      `json:"total_sources"`
	TotalFiles   int      `json:"total_files"`
	Files        []string `json:"files"`
}

// AnswerMetadata describes the evidence behind a cited answer
type AnswerMetadata struct {
	TotalSources   int      `json:"total_sources"`
	TotalFiles     int      `json:"total_files"`
	Files          []string `json:"files"`
	ProcessingTime float64  `json:"processing_time"` // seconds
}

// RAGAnswer represents a retrieval-grounded answer with full citation metadata
type RAGAnswer struct {
	Question  string         `json:"question"`
	Answer    string         `json:"answer"`
	Sources   string         `json:"sources"`
	Citations []Citation     `json:"citations"`
	Metadata  AnswerMetadata `json:"metadata"`
}

// Text renders the annotated answer followed by its source list
func (a *RAGAnswer) Text() string {
	if a.Sources == "" {
		return a.Answer
	}
	return a.Answer + "\n\n" + a.Sources
}
