package storage

import (
	"bytes"
	"context"
	"io"
)

// ObjectInfo is the trimmed metadata a ByteClient reports: enough to
// enumerate model bundles without the backend details of FileInfo.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ByteClient is the whole-artifact view of a Storage. Model bundles
// and RTTM exports are small enough to hold in memory, so the service
// works through this instead of streaming.
type ByteClient interface {
	Upload(ctx context.Context, path string, data []byte) error
	Download(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// NewByteClient adapts a streaming Storage to the ByteClient view.
func NewByteClient(s Storage) ByteClient {
	return &artifactClient{store: s}
}

type artifactClient struct {
	store Storage
}

func (c *artifactClient) Upload(ctx context.Context, path string, data []byte) error {
	return c.store.Upload(ctx, path, bytes.NewReader(data))
}

func (c *artifactClient) Download(ctx context.Context, path string) ([]byte, error) {
	rc, err := c.store.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (c *artifactClient) Delete(ctx context.Context, path string) error {
	return c.store.Delete(ctx, path)
}

func (c *artifactClient) Exists(ctx context.Context, path string) (bool, error) {
	return c.store.Exists(ctx, path)
}

func (c *artifactClient) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	files, err := c.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	objects := make([]ObjectInfo, len(files))
	for i, f := range files {
		objects[i] = ObjectInfo{Key: f.Path, Size: f.Size}
	}
	return objects, nil
}
