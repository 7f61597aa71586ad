package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo contains metadata about a stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// Storage is the object store converted files are published to.
type Storage interface {
	// Upload writes data from reader to the given key.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// Download returns a reader for the object at key.
	// The caller is responsible for closing the returned ReadCloser.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object at key. Missing objects are not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks whether an object exists at key.
	Exists(ctx context.Context, key string) (bool, error)

	// URL returns a locator for the object at key.
	URL(ctx context.Context, key string) (string, error)

	// List returns metadata for all objects whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}
