package models

// Metadata keys produced by the ingestion pipeline and understood by the citation layer
const (
	MetaSource      = "source"
	MetaSourceFile  = "source_file"
	MetaPage        = "page"
	MetaChunkID     = "chunk_id"
	MetaProcessedAt = "processed_at"
)

// Document represents a retrieved evidence chunk.
// Documents are produced by a retriever and are never modified afterwards.
type Document struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Contents returns the text content of each document, preserving order
func Contents(docs []Document) []string {
	contents := make([]string, len(docs))
	for i, doc := range docs {
		contents[i] = doc.Content
	}
	return contents
}
