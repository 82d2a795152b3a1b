package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"ragcompare-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }

func TestLoaderLoadsTextPages(t *testing.T) {
	store := &memoryStorage{files: map[string]string{
		"docs/manual.txt": "Page one text.\fPage two text.\f   \fPage four text.",
		"image.png":       "binary",
	}}

	docs, err := NewLoader(store, WithClock(fixedNow)).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "Page one text.", docs[0].Content)
	assert.Equal(t, "docs/manual.txt", docs[0].Metadata[models.MetaSource])
	assert.Equal(t, "manual.txt", docs[0].Metadata[models.MetaSourceFile])
	assert.Equal(t, 0, docs[0].Metadata[models.MetaPage])
	assert.Equal(t, "2024-05-01 09:30:00", docs[0].Metadata[models.MetaProcessedAt])

	// Blank pages are dropped but keep the numbering of later pages
	assert.Equal(t, 1, docs[1].Metadata[models.MetaPage])
	assert.Equal(t, 3, docs[2].Metadata[models.MetaPage])
}

func TestLoaderLoadsMarkdown(t *testing.T) {
	md := "---\ntitle: Go Memory Model\ntags: [go, concurrency]\n---\n" +
		"# Overview\n\nGoroutines share *memory* through channels.\n\n" +
		"- first item\n- second item\n\n" +
		"```go\nfunc main() {}\n```\n"
	store := &memoryStorage{files: map[string]string{"memory.md": md}}

	docs, err := NewLoader(store).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "Go Memory Model", doc.Metadata["title"])
	assert.Equal(t, []interface{}{"go", "concurrency"}, doc.Metadata["tags"])
	assert.Equal(t, 0, doc.Metadata[models.MetaPage])
	assert.Equal(t,
		"Overview\n\nGoroutines share memory through channels.\n\nfirst item\n\nsecond item\n\nfunc main() {}",
		doc.Content)
}

func TestLoaderSkipsFailingFiles(t *testing.T) {
	store := &memoryStorage{
		files: map[string]string{
			"good.txt":  "Useful content.",
			"bad.txt":   "never read",
			"empty.txt": "  \n ",
			"broken.md": "---\ntitle: [unclosed\n---\nbody",
		},
		broken: map[string]bool{"bad.txt": true},
	}

	docs, err := NewLoader(store).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "good.txt", docs[0].Metadata[models.MetaSourceFile])
}

func TestLoaderErrors(t *testing.T) {
	listErr := errors.New("bucket gone")
	tests := []struct {
		name  string
		store *memoryStorage
		want  error
	}{
		{name: "no supported files", store: &memoryStorage{files: map[string]string{"a.pdf": "x"}}, want: ErrNoCorpusFiles},
		{name: "nothing extracted", store: &memoryStorage{files: map[string]string{"a.txt": " "}}, want: ErrEmptyCorpus},
		{name: "list failure", store: &memoryStorage{listErr: listErr}, want: listErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(tt.store).Load(context.Background())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSplitFrontMatter(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantFront string
		wantBody  string
		hasFront  bool
	}{
		{name: "none", in: "# Title\nbody", wantBody: "# Title\nbody"},
		{name: "present", in: "---\na: 1\n---\nbody", wantFront: "a: 1", wantBody: "body", hasFront: true},
		{name: "crlf", in: "---\r\na: 1\r\n---\r\nbody", wantFront: "a: 1", wantBody: "body", hasFront: true},
		{name: "empty block", in: "---\n---\nbody", wantFront: "", wantBody: "body", hasFront: true},
		{name: "unterminated", in: "---\na: 1\nbody", wantBody: "---\na: 1\nbody"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			front, body := splitFrontMatter([]byte(tt.in))
			assert.Equal(t, tt.hasFront, front != nil)
			assert.Equal(t, tt.wantFront, string(front))
			assert.Equal(t, tt.wantBody, string(body))
		})
	}
}

func TestMarkdownText(t *testing.T) {
	got, err := markdownText([]byte("# Title\n\nSome *emphasis* here.\n\n```\ncode line\n```\n"))
	require.NoError(t, err)
	assert.Equal(t, "Title\n\nSome emphasis here.\n\ncode line", got)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a/b.TXT"))
	assert.True(t, Supported("notes.markdown"))
	assert.False(t, Supported("scan.pdf"))
	assert.False(t, Supported("README"))
}
