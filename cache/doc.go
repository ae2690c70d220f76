// Package cache provides the namespace cache that shadows the persisted dataset.
//
// The cache is a best-effort copy of the backend blob, keyed by namespace. It
// is populated as a side effect of reads and refreshed as a side effect of
// successful writes. Three modes are supported:
//   - none: nothing is cached
//   - model: each namespace is cached as it is read or written
//   - all: every backend load replaces the cache with the whole dataset
package cache
