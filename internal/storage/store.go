// Package storage abstracts the object store holding video media so
// handlers and services don't care whether they talk to S3 or a test
// double
package storage

import (
	"context"
	"io"
	"time"
)

type ObjectStore interface {
	// Get streams an object. The caller closes the reader
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Put uploads an object. Size may be -1 when unknown
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error

	// Delete removes one or more objects in a single call
	Delete(ctx context.Context, keys ...string) error

	// PresignGet returns a time-limited direct URL for an object
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}
