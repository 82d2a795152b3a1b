package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"ragcompare-backend/models"
)

// Default chunking parameters
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// defaultSeparators are tried in order; the empty separator cuts between runes
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter is a recursive character text splitter. Lengths are counted in runes.
type Splitter struct {
	size       int
	overlap    int
	separators []string
}

// NewSplitter creates a splitter producing chunks of at most size runes with
// up to overlap runes shared between neighbours
func NewSplitter(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Splitter{size: size, overlap: overlap, separators: defaultSeparators}, nil
}

// SplitDocuments splits every document and numbers the chunks with a running chunk_id
func (s *Splitter) SplitDocuments(docs []models.Document) []models.Document {
	var chunks []models.Document
	for _, doc := range docs {
		for _, piece := range s.SplitText(doc.Content) {
			metadata := make(map[string]interface{}, len(doc.Metadata)+1)
			for k, v := range doc.Metadata {
				metadata[k] = v
			}
			metadata[models.MetaChunkID] = len(chunks)
			chunks = append(chunks, models.Document{Content: piece, Metadata: metadata})
		}
	}
	return chunks
}

// SplitText splits text into chunks no longer than the chunk size
func (s *Splitter) SplitText(text string) []string {
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	// Pick the first separator present in the text
	sep := separators[len(separators)-1]
	var rest []string
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		pieces = strings.Split(text, "")
	} else {
		pieces = strings.Split(text, sep)
	}

	var chunks []string
	var good []string
	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		if utf8.RuneCountInString(piece) < s.size || len(rest) == 0 {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			chunks = append(chunks, s.merge(good, sep)...)
			good = nil
		}
		chunks = append(chunks, s.split(piece, rest)...)
	}
	if len(good) > 0 {
		chunks = append(chunks, s.merge(good, sep)...)
	}
	return chunks
}

// merge packs pieces into chunks, carrying trailing pieces forward as overlap
func (s *Splitter) merge(pieces []string, sep string) []string {
	sepLen := utf8.RuneCountInString(sep)
	var chunks []string
	var current []string
	total := 0

	joinLen := func() int {
		if len(current) > 0 {
			return sepLen
		}
		return 0
	}

	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if total+n+joinLen() > s.size {
			if len(current) > 0 {
				if chunk := strings.TrimSpace(strings.Join(current, sep)); chunk != "" {
					chunks = append(chunks, chunk)
				}
				for total > s.overlap || (total > 0 && total+n+joinLen() > s.size) {
					total -= utf8.RuneCountInString(current[0])
					if len(current) > 1 {
						total -= sepLen
					}
					current = current[1:]
				}
			}
		}
		current = append(current, piece)
		total += n
		if len(current) > 1 {
			total += sepLen
		}
	}

	if chunk := strings.TrimSpace(strings.Join(current, sep)); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}
