package service

import (
	"encoding/json"
	"strings"
	"testing"

	"ragcompare-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCitationNumberingIsSequential(t *testing.T) {
	svc := NewCitationService()
	counter := svc.NewCounter()

	for i := 1; i <= 5; i++ {
		c := counter.Create(doc("content", "docs/a.pdf", 0), "content")
		assert.Equal(t, i, c.Number)
	}

	counter.Reset()
	assert.Equal(t, 1, counter.Create(doc("content", "docs/a.pdf", 0), "").Number)
}

func TestCountersAreIndependent(t *testing.T) {
	svc := NewCitationService()
	first := svc.NewCounter()
	second := svc.NewCounter()

	first.Create(models.Document{}, "")
	first.Create(models.Document{}, "")

	assert.Equal(t, 1, second.Create(models.Document{}, "").Number)
	assert.Equal(t, 3, first.Create(models.Document{}, "").Number)
}

func TestCitationFilenameAndPage(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]interface{}
		filename string
		page     int
	}{
		{name: "unix path", metadata: map[string]interface{}{"source": "/data/assets/report.pdf", "page": 0}, filename: "report.pdf", page: 1},
		{name: "windows path", metadata: map[string]interface{}{"source": `C:\corpus\manual.pdf`, "page": 4}, filename: "manual.pdf", page: 5},
		{name: "float page", metadata: map[string]interface{}{"source": "a.pdf", "page": 2.0}, filename: "a.pdf", page: 3},
		{name: "json number page", metadata: map[string]interface{}{"source": "a.pdf", "page": json.Number("7")}, filename: "a.pdf", page: 8},
		{name: "string page", metadata: map[string]interface{}{"source": "a.pdf", "page": "3"}, filename: "a.pdf", page: 4},
		{name: "missing page", metadata: map[string]interface{}{"source": "a.pdf"}, filename: "a.pdf", page: 1},
		{name: "garbage page", metadata: map[string]interface{}{"source": "a.pdf", "page": []int{1}}, filename: "a.pdf", page: 1},
		{name: "negative page", metadata: map[string]interface{}{"source": "a.pdf", "page": -3}, filename: "a.pdf", page: 1},
		{name: "source file fallback", metadata: map[string]interface{}{"source_file": "b.md"}, filename: "b.md", page: 1},
		{name: "no metadata", metadata: nil, filename: unknownDocument, page: 1},
		{name: "non string source", metadata: map[string]interface{}{"source": 42}, filename: unknownSource, page: 1},
		{name: "empty source", metadata: map[string]interface{}{"source": ""}, filename: unknownSource, page: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := NewCitationService().NewCounter()
			c := counter.Create(models.Document{Content: "x", Metadata: tt.metadata}, "x")
			assert.Equal(t, tt.filename, c.Filename)
			assert.Equal(t, tt.page, c.Page)
		})
	}
}

func TestFormatResponseWithCitations(t *testing.T) {
	svc := NewCitationService()
	citations := []models.Citation{
		{Number: 1, Filename: "a.pdf", Page: 1},
		{Number: 2, Filename: "b.pdf", Page: 3},
	}

	t.Run("no citations", func(t *testing.T) {
		got := svc.FormatResponseWithCitations("Plain answer.", nil)
		assert.Equal(t, "Plain answer.", got.Answer)
		assert.Equal(t, NoSourcesMarker, got.Sources)
	})

	t.Run("markers before trailing period", func(t *testing.T) {
		got := svc.FormatResponseWithCitations("The sky is blue.", citations)
		assert.Equal(t, "The sky is blue [1] [2].", got.Answer)
	})

	t.Run("trailing whitespace ignored", func(t *testing.T) {
		got := svc.FormatResponseWithCitations("The sky is blue.\n \n", citations)
		assert.Equal(t, "The sky is blue [1] [2].", got.Answer)
	})

	t.Run("markers appended", func(t *testing.T) {
		got := svc.FormatResponseWithCitations("The sky is blue", citations)
		assert.Equal(t, "The sky is blue [1] [2]", got.Answer)
	})

	t.Run("source list", func(t *testing.T) {
		got := svc.FormatResponseWithCitations("x", citations)
		lines := strings.Split(got.Sources, "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, SourcesHeader, lines[0])
		assert.Equal(t, "[1] a.pdf — page 1", lines[1])
		assert.Equal(t, "[2] b.pdf — page 3", lines[2])
	})
}

func TestGetCitationSummary(t *testing.T) {
	svc := NewCitationService()

	empty := svc.GetCitationSummary(nil)
	assert.Equal(t, 0, empty.TotalSources)
	assert.Equal(t, 0, empty.TotalFiles)
	assert.Empty(t, empty.Files)

	summary := svc.GetCitationSummary([]models.Citation{
		{Number: 1, Filename: "b.pdf"},
		{Number: 2, Filename: "a.pdf"},
		{Number: 3, Filename: "b.pdf"},
	})
	assert.Equal(t, 3, summary.TotalSources)
	assert.Equal(t, 2, summary.TotalFiles)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, summary.Files)
}

func TestExcerpt(t *testing.T) {
	short := "short content"
	assert.Equal(t, short, Excerpt(short))

	long := strings.Repeat("é", ExcerptLength+10)
	got := Excerpt(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, ExcerptLength+3, len([]rune(got)))
}
