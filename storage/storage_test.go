package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"
)

// mockStorage implements Storage for testing.
type mockStorage struct {
	data   map[string][]byte
	failOn string // method name to fail on
}

func newMockStorage() *mockStorage {
	return &mockStorage{data: make(map[string][]byte)}
}

func (m *mockStorage) Upload(_ context.Context, path string, reader io.Reader) error {
	if m.failOn == "upload" {
		return fmt.Errorf("mock upload error")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.data[path] = data
	return nil
}

func (m *mockStorage) Download(_ context.Context, path string) (io.ReadCloser, error) {
	if m.failOn == "download" {
		return nil, fmt.Errorf("mock download error")
	}
	data, ok := m.data[path]
	if !ok {
		return nil, fmt.Errorf("not found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockStorage) Delete(_ context.Context, path string) error {
	if m.failOn == "delete" {
		return fmt.Errorf("mock delete error")
	}
	delete(m.data, path)
	return nil
}

func (m *mockStorage) Exists(_ context.Context, path string) (bool, error) {
	if m.failOn == "exists" {
		return false, fmt.Errorf("mock exists error")
	}
	_, ok := m.data[path]
	return ok, nil
}

func (m *mockStorage) URL(_ context.Context, path string) (string, error) {
	return "https://example.com/" + path, nil
}

func (m *mockStorage) List(_ context.Context, prefix string) ([]FileInfo, error) {
	var files []FileInfo
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			files = append(files, FileInfo{Path: k, Size: int64(len(v)), LastModified: time.Now()})
		}
	}
	return files, nil
}

// --- ByteClient tests ---

func TestByteClientUploadDownload(t *testing.T) {
	ms := newMockStorage()
	bc := NewByteClient(ms)
	ctx := context.Background()

	if err := bc.Upload(ctx, "runs/run-1/rec-a.rttm", []byte("SPEAKER rec-a ...")); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	data, err := bc.Download(ctx, "runs/run-1/rec-a.rttm")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if string(data) != "SPEAKER rec-a ..." {
		t.Errorf("Download = %q", string(data))
	}
}

func TestByteClientDownloadMissing(t *testing.T) {
	bc := NewByteClient(newMockStorage())
	if _, err := bc.Download(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for missing object")
	}
}

func TestByteClientList(t *testing.T) {
	ms := newMockStorage()
	bc := NewByteClient(ms)
	ctx := context.Background()

	bc.Upload(ctx, "models/ubm.bin", []byte("u"))
	bc.Upload(ctx, "models/extractor.bin", []byte("ee"))
	bc.Upload(ctx, "runs/out.rttm", []byte("r"))

	objects, err := bc.List(ctx, "models/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(objects) != 2 {
		t.Fatalf("List(models/) = %d objects, want 2", len(objects))
	}
	for _, o := range objects {
		if o.Size == 0 {
			t.Errorf("object %s has zero size", o.Key)
		}
	}
}

func TestByteClientDeleteExists(t *testing.T) {
	ms := newMockStorage()
	bc := NewByteClient(ms)
	ctx := context.Background()

	bc.Upload(ctx, "a.txt", []byte("a"))
	exists, err := bc.Exists(ctx, "a.txt")
	if err != nil || !exists {
		t.Fatalf("Exists = %v, %v; want true", exists, err)
	}
	if err := bc.Delete(ctx, "a.txt"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	exists, _ = bc.Exists(ctx, "a.txt")
	if exists {
		t.Error("Exists should be false after Delete")
	}
}

// --- Config tests ---

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Provider != ProviderLocal {
		t.Errorf("default provider = %q, want %q", cfg.Provider, ProviderLocal)
	}
	if cfg.BasePath != DefaultBasePath {
		t.Errorf("default base path = %q, want %q", cfg.BasePath, DefaultBasePath)
	}
	if cfg.MaxFileSize != DefaultMaxFileSize {
		t.Errorf("default max file size = %d", cfg.MaxFileSize)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid local", Config{Provider: ProviderLocal, BasePath: "/tmp/x"}, false},
		{"local without base path", Config{Provider: ProviderLocal}, true},
		{"valid s3", Config{Provider: ProviderS3, Bucket: "b", Region: "us-east-1"}, false},
		{"s3 without bucket", Config{Provider: ProviderS3, Region: "us-east-1"}, true},
		{"unknown provider", Config{Provider: "ftp"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
