package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo is one stored object's metadata, as reported by List.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Storage is the streaming interface every backend implements.
type Storage interface {
	// Upload streams reader to path, replacing any existing object.
	Upload(ctx context.Context, path string, reader io.Reader) error

	// Download opens the object at path. The caller closes the reader.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at path; a missing object is not an error.
	Delete(ctx context.Context, path string) error

	// Exists reports whether an object is stored at path.
	Exists(ctx context.Context, path string) (bool, error)

	// URL resolves path to an address a client could fetch it from.
	URL(ctx context.Context, path string) (string, error)

	// List reports every object whose path starts with prefix, sorted
	// by path.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}
