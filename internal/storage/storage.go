package storage

import (
	"context"
	"io"
	"time"
)

// Store is the audio object store the pipeline treats as opaque: bytes in
// under a key, a location reference out.
type Store interface {
	// Upload stores the object and returns its location reference. For GCS
	// this is the gs:// URI the recognition provider reads directly.
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (locationRef string, err error)

	// SignedGetURL returns a time-limited download URL for clients.
	SignedGetURL(ctx context.Context, objectName string, ttl time.Duration) (string, error)

	Close() error
}
