package service

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"ragcompare-backend/models"
)

const (
	// ExcerptLength is the number of runes kept from a document for its citation
	ExcerptLength = 200

	NoSourcesMarker = "No sources used."
	SourcesHeader   = "Sources:"

	unknownDocument = "unknown_document.pdf"
	unknownSource   = "unknown_source.pdf"
)

// CitationService formats answers and their source lists.
// It holds no state; numbering lives in a CitationCounter owned by one answer.
type CitationService struct{}

// NewCitationService creates a new citation service
func NewCitationService() *CitationService {
	return &CitationService{}
}

// CitationCounter numbers the citations of a single answer
type CitationCounter struct {
	next int
}

// NewCounter returns a counter whose next citation is numbered 1
func (s *CitationService) NewCounter() *CitationCounter {
	return &CitationCounter{}
}

// Reset zeroes the counter so the next citation is numbered 1
func (c *CitationCounter) Reset() {
	c.next = 0
}

// Create assigns the next number to doc. It never fails; unreadable
// metadata degrades to placeholder filename and page 1.
func (c *CitationCounter) Create(doc models.Document, excerpt string) models.Citation {
	c.next++
	return models.Citation{
		Number:   c.next,
		Filename: citationFilename(doc.Metadata),
		Page:     citationPage(doc.Metadata),
		Excerpt:  excerpt,
	}
}

// Excerpt returns the bounded preview of content used in citations
func Excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= ExcerptLength {
		return content
	}
	return string(runes[:ExcerptLength]) + "..."
}

// FormatResponseWithCitations annotates answer with citation markers and renders the source list
func (s *CitationService) FormatResponseWithCitations(answer string, citations []models.Citation) models.FormattedAnswer {
	if len(citations) == 0 {
		return models.FormattedAnswer{Answer: answer, Sources: NoSourcesMarker}
	}
	return models.FormattedAnswer{
		Answer:  addCitationMarkers(answer, citations),
		Sources: formatSourcesList(citations),
	}
}

// GetCitationSummary counts citations and the distinct files they reference
func (s *CitationService) GetCitationSummary(citations []models.Citation) models.CitationSummary {
	seen := make(map[string]struct{}, len(citations))
	files := make([]string, 0, len(citations))
	for _, c := range citations {
		if _, ok := seen[c.Filename]; ok {
			continue
		}
		seen[c.Filename] = struct{}{}
		files = append(files, c.Filename)
	}
	sort.Strings(files)

	return models.CitationSummary{
		TotalSources: len(citations),
		TotalFiles:   len(files),
		Files:        files,
	}
}

func addCitationMarkers(answer string, citations []models.Citation) string {
	markers := make([]string, len(citations))
	for i, c := range citations {
		markers[i] = fmt.Sprintf("[%d]", c.Number)
	}
	markersText := " " + strings.Join(markers, " ")

	answer = strings.TrimRightFunc(answer, unicode.IsSpace)
	if strings.HasSuffix(answer, ".") {
		return strings.TrimSuffix(answer, ".") + markersText + "."
	}
	return answer + markersText
}

func formatSourcesList(citations []models.Citation) string {
	var builder strings.Builder
	builder.WriteString(SourcesHeader)
	for _, c := range citations {
		builder.WriteString(fmt.Sprintf("\n[%d] %s — page %d", c.Number, c.Filename, c.Page))
	}
	return builder.String()
}

// citationFilename resolves the display filename from document metadata
func citationFilename(metadata map[string]interface{}) string {
	if raw, ok := metadata[models.MetaSource]; ok {
		source, isString := raw.(string)
		if !isString {
			return unknownSource
		}
		name := basename(source)
		if name == "" {
			return unknownSource
		}
		return name
	}
	if sourceFile, ok := metadata[models.MetaSourceFile].(string); ok && sourceFile != "" {
		return sourceFile
	}
	return unknownDocument
}

// basename strips both forward and backward slash separated directories
func basename(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// citationPage converts the 0-based metadata page into a 1-based display page
func citationPage(metadata map[string]interface{}) int {
	page, ok := toInt(metadata[models.MetaPage])
	if !ok || page < 0 {
		return 1
	}
	return page + 1
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return floatToInt(f)
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}
