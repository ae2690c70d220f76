package storage

import (
	"context"
)

// Backend is a key-value store holding opaque blobs. The adapter keeps its
// entire dataset under a single key, so implementations only need whole-value
// reads and writes; no transactions, indexes or queries are required.
// Implementations must be safe for concurrent use.
type Backend interface {
	// GetItem returns the blob stored under key.
	// Returns nil, nil if nothing is stored under key.
	GetItem(ctx context.Context, key string) ([]byte, error)

	// SetItem replaces the blob stored under key.
	SetItem(ctx context.Context, key string, blob []byte) error

	// Close releases the backend's resources.
	Close() error
}
