package object

import (
	"context"
	"io"
)

// BlobStore defines the contract for persisting generated images durably.
// Put stores the reader's contents under name and returns a public URL.
type BlobStore interface {
	Put(ctx context.Context, name string, r io.Reader) (publicURL string, err error)
}
