package tm

import (
	"context"
	"io"
)

// Mirror stores document snapshots outside the local store, keyed by an
// opaque snapshot name. Snapshots are whole-document copies: pulling one back
// is a full overwrite on import, not a merge.
type Mirror interface {
	// Put stores a snapshot under key, overwriting any existing snapshot
	// with the same key.
	Put(ctx context.Context, key string, r io.Reader) error

	// Get retrieves the snapshot stored under key and writes it to w.
	Get(ctx context.Context, key string, w io.Writer) error

	// List returns all snapshot keys in ascending order.
	List(ctx context.Context) ([]string, error)

	// Latest returns the most recent snapshot key, or "" when the mirror
	// is empty. Keys sort chronologically because they embed a UTC
	// timestamp.
	Latest(ctx context.Context) (string, error)
}
