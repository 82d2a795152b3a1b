package storage

import (
	"context"
	"fmt"
	"io"

	"ragcompare-backend/config"
)

// Object describes one corpus file in a storage backend
type Object struct {
	Key  string // Path relative to the storage root
	Size int64
}

// Storage interface for corpus file access
type Storage interface {
	// List returns every file below the storage root, sorted by key
	List(ctx context.Context) ([]Object, error)

	// Download retrieves a file by key
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case config.StorageLocal:
		return NewLocalStorage(cfg.LocalPath)
	case config.StorageS3:
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
