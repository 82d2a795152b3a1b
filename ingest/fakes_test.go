package ingest

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"

	"ragcompare-backend/models"
	"ragcompare-backend/storage"
)

type memoryStorage struct {
	files   map[string]string
	broken  map[string]bool
	listErr error
}

func (m *memoryStorage) List(_ context.Context) ([]storage.Object, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var objects []storage.Object
	for key, content := range m.files {
		objects = append(objects, storage.Object{Key: key, Size: int64(len(content))})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (m *memoryStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	if m.broken[key] {
		return nil, errors.New("disk on fire")
	}
	content, ok := m.files[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (e *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = []float32{float32(len(t)), 1}
	}
	return vectors, nil
}

type recordingWriter struct {
	mu      sync.Mutex
	batches [][]models.DocumentChunk
	err     error
}

func (w *recordingWriter) Insert(_ context.Context, chunks []models.DocumentChunk) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.batches = append(w.batches, chunks)
	return nil
}

func (w *recordingWriter) all() []models.DocumentChunk {
	var out []models.DocumentChunk
	for _, b := range w.batches {
		out = append(out, b...)
	}
	return out
}

type fixedCounter map[string]int

func (c fixedCounter) CountBySource(_ context.Context) (map[string]int, error) {
	return c, nil
}

// chunkTable mimics document_chunks keyed by (source_file, chunk_index)
type chunkTable struct {
	rows map[string]map[int]string
}

func newChunkTable() *chunkTable {
	return &chunkTable{rows: make(map[string]map[int]string)}
}

func (t *chunkTable) Insert(_ context.Context, chunks []models.DocumentChunk) error {
	for _, chunk := range chunks {
		if t.rows[chunk.SourceFile] == nil {
			t.rows[chunk.SourceFile] = make(map[int]string)
		}
		t.rows[chunk.SourceFile][chunk.ChunkIndex] = chunk.Content
	}
	return nil
}

func (t *chunkTable) DeleteBySource(_ context.Context, sourceFiles []string) (int64, error) {
	var removed int64
	for _, file := range sourceFiles {
		removed += int64(len(t.rows[file]))
		delete(t.rows, file)
	}
	return removed, nil
}

func (t *chunkTable) contents(file string) []string {
	var indexes []int
	for i := range t.rows[file] {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	out := make([]string, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, t.rows[file][i])
	}
	return out
}
