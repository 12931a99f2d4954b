package storage

import (
	"context"
	"io"
)

// ObjectStore is the binary artifact store. File services talk to this
// interface; production wires the MinIO implementation.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}
