// Package memcache provides a storage.Backend on top of memcached.
//
// memcached may evict values at any time, so this backend suits sessions
// where losing the dataset is acceptable. Values are limited by the server's
// item size (1MB by default).
package memcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/poiesic/docstore/storage"
)

const defaultPrefix = "docstore:"

// Backend implements storage.Backend against one or more memcached servers.
type Backend struct {
	client *memcache.Client
	prefix string
	logger *slog.Logger
}

var _ storage.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithPrefix sets the prefix prepended to every key.
// Default is "docstore:".
func WithPrefix(prefix string) Option {
	return func(b *Backend) {
		b.prefix = prefix
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
	}
}

// NewBackend creates a backend using client.
func NewBackend(client *memcache.Client, opts ...Option) *Backend {
	b := &Backend{
		client: client,
		prefix: defaultPrefix,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Dial creates a backend for the given memcached servers.
func Dial(servers []string, opts ...Option) *Backend {
	return NewBackend(memcache.New(servers...), opts...)
}

// GetItem returns the blob stored under key. An evicted value reads as absent.
func (b *Backend) GetItem(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, storage.ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	item, err := b.client.Get(b.cacheKey(key))
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("memcache get %s: %w", b.cacheKey(key), err)
	}

	b.logger.Debug("memcache get", "key", item.Key, "bytes", len(item.Value))
	return item.Value, nil
}

// SetItem stores blob under key without expiration.
func (b *Backend) SetItem(ctx context.Context, key string, blob []byte) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.client.Set(&memcache.Item{Key: b.cacheKey(key), Value: blob})
	if err != nil {
		return fmt.Errorf("memcache set %s: %w", b.cacheKey(key), err)
	}

	b.logger.Debug("memcache set", "key", b.cacheKey(key), "bytes", len(blob))
	return nil
}

// Close is a no-op; the memcache client holds no resources that need release.
func (b *Backend) Close() error {
	return nil
}

func (b *Backend) cacheKey(key string) string {
	return b.prefix + key
}
