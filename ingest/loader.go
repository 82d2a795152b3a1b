// Package ingest turns corpus files into embedded, indexed chunks.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"ragcompare-backend/logging"
	"ragcompare-backend/models"
	"ragcompare-backend/storage"

	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// ProcessedAtLayout formats the processed_at metadata field
const ProcessedAtLayout = "2006-01-02 15:04:05"

// pageBreak separates pages in plain text exports
const pageBreak = "\f"

var (
	ErrNoCorpusFiles = errors.New("no supported corpus files found")
	ErrEmptyCorpus   = errors.New("no documents extracted from corpus")
)

// parseFunc extracts page texts and file level metadata from raw file content
type parseFunc func(data []byte) (pages []string, metadata map[string]interface{}, err error)

var parsers = map[string]parseFunc{
	".txt":      parseText,
	".md":       parseMarkdown,
	".markdown": parseMarkdown,
}

// Supported reports whether key has a loadable extension
func Supported(key string) bool {
	_, ok := parsers[strings.ToLower(path.Ext(key))]
	return ok
}

// Loader reads corpus files from storage into page documents
type Loader struct {
	store  storage.Storage
	logger arbor.ILogger
	now    func() time.Time
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithLoaderLogger sets the logger
func WithLoaderLogger(logger arbor.ILogger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithClock overrides the processed_at time source
func WithClock(now func() time.Time) LoaderOption {
	return func(l *Loader) {
		l.now = now
	}
}

// NewLoader creates a loader over store
func NewLoader(store storage.Storage, opts ...LoaderOption) *Loader {
	l := &Loader{store: store, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = logging.OrNoOp(l.logger)
	return l
}

// Load returns one document per non-empty page of every supported file.
// Files that fail to load are logged and skipped.
func (l *Loader) Load(ctx context.Context) ([]models.Document, error) {
	objects, err := l.store.List(ctx)
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, obj := range objects {
		if Supported(obj.Key) {
			keys = append(keys, obj.Key)
		}
	}
	if len(keys) == 0 {
		return nil, ErrNoCorpusFiles
	}
	l.logger.Info().Int("files", len(keys)).Strs("keys", keys).Msg("Discovered corpus files")

	processedAt := l.now().Format(ProcessedAtLayout)
	var docs []models.Document
	loaded := 0
	for _, key := range keys {
		fileDocs, pages, err := l.loadFile(ctx, key, processedAt)
		if err != nil {
			l.logger.Warn().Str("file", key).Err(err).Msg("Failed to load corpus file")
			continue
		}
		if len(fileDocs) == 0 {
			l.logger.Warn().Str("file", key).Msg("Corpus file has no content")
			continue
		}
		l.logger.Info().Str("file", key).Int("pages", pages).Int("docs", len(fileDocs)).Msg("Loaded corpus file")
		docs = append(docs, fileDocs...)
		loaded++
	}

	l.logger.Info().Msgf("%d/%d files processed", loaded, len(keys))
	if len(docs) == 0 {
		return nil, ErrEmptyCorpus
	}
	return docs, nil
}

func (l *Loader) loadFile(ctx context.Context, key, processedAt string) ([]models.Document, int, error) {
	rc, err := l.store.Download(ctx, key)
	if err != nil {
		return nil, 0, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %w", key, err)
	}

	pages, fileMeta, err := parsers[strings.ToLower(path.Ext(key))](data)
	if err != nil {
		return nil, 0, err
	}

	docs := make([]models.Document, 0, len(pages))
	for i, page := range pages {
		if strings.TrimSpace(page) == "" {
			continue
		}
		metadata := make(map[string]interface{}, len(fileMeta)+4)
		for k, v := range fileMeta {
			metadata[k] = v
		}
		metadata[models.MetaSource] = key
		metadata[models.MetaSourceFile] = path.Base(key)
		metadata[models.MetaPage] = i
		metadata[models.MetaProcessedAt] = processedAt
		docs = append(docs, models.Document{Content: page, Metadata: metadata})
	}
	return docs, len(pages), nil
}

func parseText(data []byte) ([]string, map[string]interface{}, error) {
	return strings.Split(string(data), pageBreak), nil, nil
}

// parseMarkdown reads optional YAML front matter and flattens the body to plain text
func parseMarkdown(data []byte) ([]string, map[string]interface{}, error) {
	frontMatter, body := splitFrontMatter(data)

	var metadata map[string]interface{}
	if frontMatter != nil {
		if err := yaml.Unmarshal(frontMatter, &metadata); err != nil {
			return nil, nil, fmt.Errorf("invalid front matter: %w", err)
		}
	}
	content, err := markdownText(body)
	if err != nil {
		return nil, nil, err
	}
	return []string{content}, metadata, nil
}

// splitFrontMatter separates a leading "---" delimited block from the document body
func splitFrontMatter(data []byte) ([]byte, []byte) {
	normalized := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return nil, data
	}
	rest := normalized[len("---\n"):]
	if bytes.HasPrefix(rest, []byte("---\n")) {
		return []byte{}, rest[len("---\n"):]
	}
	end := bytes.Index(rest, []byte("\n---\n"))
	if end < 0 {
		if bytes.HasSuffix(rest, []byte("\n---")) {
			return rest[:len(rest)-len("\n---")], nil
		}
		return nil, data
	}
	return rest[:end], rest[end+len("\n---\n"):]
}

// markdownText walks the goldmark AST and joins block texts with blank lines
func markdownText(source []byte) (string, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var blocks []string
	var buf bytes.Buffer
	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			blocks = append(blocks, s)
		}
		buf.Reset()
	}

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					line := lines.At(i)
					buf.Write(line.Value(source))
				}
				return ast.WalkSkipChildren, nil
			}
		case *ast.HTMLBlock:
			if entering {
				return ast.WalkSkipChildren, nil
			}
		case *ast.Text:
			if entering {
				buf.Write(node.Segment.Value(source))
				if node.SoftLineBreak() || node.HardLineBreak() {
					buf.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				buf.Write(node.Value)
			}
		case *ast.AutoLink:
			if entering {
				buf.Write(node.Label(source))
			}
		}

		if !entering && n.Type() == ast.TypeBlock {
			flush()
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk markdown: %w", err)
	}
	flush()

	return strings.Join(blocks, "\n\n"), nil
}
