package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChunkMetadata represents the free-form metadata stored as JSONB next to a chunk
type ChunkMetadata map[string]interface{}

// Value implements driver.Valuer for JSONB
func (m ChunkMetadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB
func (m *ChunkMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata type %T", value)
	}
	return json.Unmarshal(bytes, m)
}

// DocumentChunk represents one indexed chunk of a corpus document
type DocumentChunk struct {
	ID         uuid.UUID     `json:"id"`
	SourceFile string        `json:"source_file"`
	Source     string        `json:"source"`
	Page       int           `json:"page"` // 0-based
	ChunkIndex int           `json:"chunk_index"`
	Content    string        `json:"content"`
	Metadata   ChunkMetadata `json:"metadata,omitempty"`
	Embedding  []float32     `json:"-"`
	CreatedAt  time.Time     `json:"created_at"`
	Distance   float64       `json:"distance,omitempty"` // Vector cosine distance
}

// ToDocument converts the persisted row into a retrieved evidence document
func (c DocumentChunk) ToDocument() Document {
	metadata := make(map[string]interface{}, len(c.Metadata)+4)
	for k, v := range c.Metadata {
		metadata[k] = v
	}
	metadata[MetaSource] = c.Source
	metadata[MetaSourceFile] = c.SourceFile
	metadata[MetaPage] = c.Page
	metadata[MetaChunkID] = c.ChunkIndex
	return Document{Content: c.Content, Metadata: metadata}
}
