package blob

import (
	"context"
	"io"
)

// Store is the interface for artifact blob storage. Blobs are content
// addressed, the returned ref is derived from the content digest.
type Store interface {
	// Store writes the content of r and returns its blob reference.
	Store(ctx context.Context, r io.Reader) (ref string, err error)
	// Open returns a reader for a previously stored blob.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}
