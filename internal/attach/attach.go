// Package attach resolves raw uploads into publicly addressable URLs.
package attach

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var (
	// ErrNoData is returned when an empty upload is submitted.
	ErrNoData = errors.New("no attachment data")
	// ErrTooLarge is returned when an upload exceeds the configured limit.
	ErrTooLarge = errors.New("attachment too large")
)

// Resolver stores uploaded bytes and returns a retrievable URL.
type Resolver interface {
	Store(ctx context.Context, data []byte, contentType string) (string, error)
}

// DiskResolver writes uploads to a local directory served under /uploads.
type DiskResolver struct {
	dir      string
	baseURL  string
	maxBytes int64
}

// NewDiskResolver creates the upload directory if needed.
// baseURL is the public prefix, e.g. "http://localhost:8080".
func NewDiskResolver(dir, baseURL string, maxBytes int64) (*DiskResolver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskResolver{dir: dir, baseURL: baseURL, maxBytes: maxBytes}, nil
}

// Store persists the upload under a random name and returns its URL.
func (r *DiskResolver) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", ErrNoData
	}
	if r.maxBytes > 0 && int64(len(data)) > r.maxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("store attachment: %w", err)
	}

	name := uuid.NewString() + extension(contentType)
	path := filepath.Join(r.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write attachment: %w", err)
	}

	return r.baseURL + "/uploads/" + name, nil
}

func extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}

var _ Resolver = (*DiskResolver)(nil)
