// Package storage abstracts the object stores the shop writes to: product
// images and, for the disk cart store, serialized carts.
//
// Two drivers are available:
//   - "local": local filesystem (default)
//   - "s3":    S3-compatible object storage (AWS S3, MinIO, R2)
//
//	storage.Connect()
//	url, err := storage.Default().Put(ctx, "products/x.webp", file, "image/webp")
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get when the object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// Disk is implemented by every storage driver.
type Disk interface {
	// Put writes r to path, replacing any existing object.
	Put(ctx context.Context, path string, r io.Reader, contentType string) error

	// Get returns the object's content or ErrNotFound.
	Get(ctx context.Context, path string) ([]byte, error)

	// Exists reports whether an object is stored at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Delete removes path. Missing objects are not an error.
	Delete(ctx context.Context, path string) error

	// URL is the public address of path. It is returned to clients verbatim.
	URL(path string) string
}
