// Package redis provides a storage.Backend on top of Redis.
//
// The blob is stored with a plain SET under a prefixed key and read back
// with GET. Connections come from a redigo pool.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/poiesic/docstore/storage"
)

const (
	defaultPrefix      = "docstore:"
	defaultMaxIdle     = 4
	defaultIdleTimeout = 240 * time.Second
)

// Backend implements storage.Backend against a Redis server.
type Backend struct {
	pool   *redis.Pool
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

// NewBackend creates a backend using connections from pool.
// The backend owns the pool and closes it on Close.
func NewBackend(pool *redis.Pool, opts ...Option) *Backend {
	b := &Backend{
		pool:   pool,
		prefix: defaultPrefix,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Dial creates a backend connected to the Redis server at addr.
func Dial(addr string, opts ...Option) *Backend {
	pool := &redis.Pool{
		MaxIdle:     defaultMaxIdle,
		IdleTimeout: defaultIdleTimeout,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", addr)
		},
	}
	return NewBackend(pool, opts...)
}

// GetItem returns the blob stored under key.
func (b *Backend) GetItem(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, storage.ErrEmptyKey
	}

	conn, err := b.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis connection: %w", err)
	}
	defer conn.Close()

	blob, err := redis.Bytes(redis.DoContext(conn, ctx, "GET", b.cacheKey(key)))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis GET %s: %w", b.cacheKey(key), err)
	}

	b.logger.Debug("redis GET", "key", b.cacheKey(key), "bytes", len(blob))
	return blob, nil
}

// SetItem stores blob under key without expiration.
func (b *Backend) SetItem(ctx context.Context, key string, blob []byte) error {
	if key == "" {
		return storage.ErrEmptyKey
	}

	conn, err := b.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis connection: %w", err)
	}
	defer conn.Close()

	if _, err := redis.DoContext(conn, ctx, "SET", b.cacheKey(key), blob); err != nil {
		return fmt.Errorf("redis SET %s: %w", b.cacheKey(key), err)
	}

	b.logger.Debug("redis SET", "key", b.cacheKey(key), "bytes", len(blob))
	return nil
}

// Close closes the connection pool.
func (b *Backend) Close() error {
	return b.pool.Close()
}

func (b *Backend) cacheKey(key string) string {
	return b.prefix + key
}
