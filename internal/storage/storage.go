// Package storage persists generated document files.
package storage

import (
	"context"
	"io"
)

// Store is a flat key/value file store. Open and Delete return an error
// wrapping fs.ErrNotExist when key is absent.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, key string) error
}
