// Package memory provides an in-process storage.Backend.
//
// It holds blobs in a map and is meant for tests and throwaway sessions.
// Reads and writes are counted so callers can assert on backend round trips,
// and a failure can be injected to exercise error propagation.
package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/poiesic/docstore/storage"
)

// Backend is an in-memory storage.Backend.
type Backend struct {
	mu     sync.RWMutex
	items  map[string][]byte
	closed bool
	fail   error

	gets atomic.Int64
	sets atomic.Int64
}

var _ storage.Backend = (*Backend)(nil)

// NewBackend creates an empty in-memory backend.
func NewBackend() *Backend {
	return &Backend{items: make(map[string][]byte)}
}

// GetItem returns a copy of the blob stored under key.
func (b *Backend) GetItem(ctx context.Context, key string) ([]byte, error) {
	b.gets.Add(1)
	if key == "" {
		return nil, storage.ErrEmptyKey
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, storage.ErrStorageClosed
	}
	if b.fail != nil {
		return nil, b.fail
	}
	blob, ok := b.items[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), blob...), nil
}

// SetItem stores a copy of blob under key.
func (b *Backend) SetItem(ctx context.Context, key string, blob []byte) error {
	b.sets.Add(1)
	if key == "" {
		return storage.ErrEmptyKey
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return storage.ErrStorageClosed
	}
	if b.fail != nil {
		return b.fail
	}
	b.items[key] = append([]byte(nil), blob...)
	return nil
}

// Close marks the backend closed. Stored blobs are discarded.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.items = nil
	return nil
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (b *Backend) FailWith(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = err
}

// Gets returns the number of GetItem calls so far.
func (b *Backend) Gets() int64 {
	return b.gets.Load()
}

// Sets returns the number of SetItem calls so far.
func (b *Backend) Sets() int64 {
	return b.sets.Load()
}
