package driven

import (
	"context"
	"time"
)

// SourceCache persists raw source responses so repeated searches do not
// hit the remote catalog. Entries older than the caller's expiry are misses.
type SourceCache interface {
	// Get returns the payload stored under (source, id) if it was stored
	// after notBefore.
	Get(ctx context.Context, source, id string, notBefore time.Time) ([]byte, bool, error)

	// Put stores payload under (source, id) with the given timestamp.
	Put(ctx context.Context, source, id string, payload []byte, at time.Time) error

	// Purge removes entries stored before the given time and reports how many.
	Purge(ctx context.Context, before time.Time) (int, error)

	// Close releases resources.
	Close() error
}
