package files

import (
	"context"
	"io"
)

// Storage defines the interface for blob storage.
type Storage interface {
	Save(ctx context.Context, id string, contentType string, data io.Reader, size int64) (int64, error)
	Load(ctx context.Context, id string) (io.ReadCloser, error)
	Delete(ctx context.Context, id string) error
}

// PublicURLProvider is an optional interface for storage backends that support
// direct public access to files (e.g., public S3 buckets behind a CDN).
type PublicURLProvider interface {
	// GetPublicURL returns the public URL for a file, or empty string if not available.
	GetPublicURL(id string) string
}
