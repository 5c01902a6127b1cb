// Package storage provides the file store backends table metadata lives in:
// a local filesystem warehouse and an S3 bucket.
package storage

import (
	"context"
	"io"
)

// Storage reads and writes files addressed by slash-separated paths relative
// to the store's root.
type Storage interface {
	Write(ctx context.Context, filepath string, data io.Reader) error
	Read(ctx context.Context, filepath string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]string, error)
}
