package attach

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestResolver(t *testing.T, maxBytes int64) (*DiskResolver, string) {
	t.Helper()

	dir := t.TempDir()
	r, err := NewDiskResolver(dir, "http://localhost:8080", maxBytes)
	if err != nil {
		t.Fatalf("NewDiskResolver failed: %v", err)
	}
	return r, dir
}

func TestDiskResolver_Store(t *testing.T) {
	r, dir := newTestResolver(t, 1024)

	url, err := r.Store(context.Background(), []byte("fake png bytes"), "image/png")
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if !strings.HasPrefix(url, "http://localhost:8080/uploads/") {
		t.Fatalf("unexpected url: %q", url)
	}
	if !strings.HasSuffix(url, ".png") {
		t.Fatalf("expected .png extension, got %q", url)
	}

	name := url[strings.LastIndex(url, "/")+1:]
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if string(data) != "fake png bytes" {
		t.Fatalf("stored bytes differ: %q", data)
	}
}

func TestDiskResolver_UnknownContentType(t *testing.T) {
	r, _ := newTestResolver(t, 1024)

	url, err := r.Store(context.Background(), []byte("blob"), "application/octet-stream")
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if !strings.HasSuffix(url, ".bin") {
		t.Fatalf("expected .bin fallback extension, got %q", url)
	}
}

func TestDiskResolver_EmptyData(t *testing.T) {
	r, _ := newTestResolver(t, 1024)

	if _, err := r.Store(context.Background(), nil, "image/png"); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestDiskResolver_TooLarge(t *testing.T) {
	r, _ := newTestResolver(t, 8)

	_, err := r.Store(context.Background(), []byte("123456789"), "image/png")
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestDiskResolver_CancelledContext(t *testing.T) {
	r, _ := newTestResolver(t, 1024)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Store(ctx, []byte("data"), "image/png"); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}
