package cache

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/poiesic/docstore/core"
)

// Mode selects how namespace data is cached.
type Mode string

const (
	// ModeNone disables caching; every read goes to the backend.
	ModeNone Mode = "none"
	// ModeModel caches each namespace as it is read or written.
	ModeModel Mode = "model"
	// ModeAll replaces the cache with the whole dataset on every backend load.
	ModeAll Mode = "all"
)

// ParseMode converts a mode name. The empty string selects ModeModel.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeModel:
		return ModeModel, nil
	case ModeNone:
		return ModeNone, nil
	case ModeAll:
		return ModeAll, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Cache maps namespace names to their NamespaceData. Entries are snapshots:
// callers must not mutate data they get from or hand to the cache. There is
// no eviction; the working set is the whole persisted dataset.
//
// Every write (Set, Replace, Commit, Clear) advances a generation counter.
// Data read from the backend is offered through Populate together with the
// generation observed before the read, and is dropped when a write landed in
// between, so a slow reader never puts an older snapshot over a newer one.
// All methods are safe for concurrent use.
type Cache struct {
	mode       Mode
	mu         sync.RWMutex
	entries    map[string]*core.NamespaceData
	generation uint64
	// complete is set once ModeAll has loaded the whole dataset; from then
	// on a namespace missing from entries is known to be empty.
	complete bool
	logger   *slog.Logger
}

// New creates an empty cache operating in mode.
func New(mode Mode, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		mode:    mode,
		entries: make(map[string]*core.NamespaceData),
		logger:  logger,
	}
}

// Mode returns the caching mode.
func (c *Cache) Mode() Mode {
	return c.mode
}

// Enabled reports whether the cache stores anything at all.
func (c *Cache) Enabled() bool {
	return c.mode != ModeNone
}

// Generation returns the current write generation. Take it before reading
// from the backend and hand it to Populate afterwards.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Get returns the cached data for namespace.
func (c *Cache) Get(namespace string) (*core.NamespaceData, bool) {
	if !c.Enabled() {
		return nil, false
	}
	c.mu.RLock()
	data, ok := c.entries[namespace]
	complete := c.complete
	c.mu.RUnlock()

	if !ok && complete {
		data, ok = core.NewNamespaceData(), true
	}

	if ok {
		c.logger.Debug("namespace cache hit", "namespace", namespace)
	} else {
		c.logger.Debug("namespace cache miss", "namespace", namespace)
	}
	return data, ok
}

// Set stores data for namespace as the result of a write.
func (c *Cache) Set(namespace string, data *core.NamespaceData) {
	if !c.Enabled() || data == nil {
		return
	}
	c.mu.Lock()
	c.generation++
	c.setLocked(namespace, data)
	c.mu.Unlock()
}

// Replace discards every entry and caches each namespace of storage instead,
// as the result of a write.
func (c *Cache) Replace(storage *core.Storage) {
	if !c.Enabled() || storage == nil {
		return
	}
	c.mu.Lock()
	c.generation++
	c.replaceLocked(storage)
	c.mu.Unlock()
	c.logger.Debug("namespace cache replaced", "namespaces", storage.Len())
}

// Commit records data just persisted for namespace, following the cache
// mode: ModeModel caches the namespace, ModeAll replaces the cache with the
// whole dataset that was written.
func (c *Cache) Commit(namespace string, data *core.NamespaceData, storage *core.Storage) {
	switch c.mode {
	case ModeModel:
		c.Set(namespace, data)
	case ModeAll:
		c.Replace(storage)
	}
}

// Populate records data read from the backend for namespace the way Commit
// does, unless a write advanced the cache past generation since the read
// began. Reports whether the data was cached.
func (c *Cache) Populate(generation uint64, namespace string, data *core.NamespaceData, storage *core.Storage) bool {
	if !c.Enabled() {
		return false
	}
	if (c.mode == ModeModel && data == nil) || (c.mode == ModeAll && storage == nil) {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != generation {
		c.logger.Debug("stale namespace read not cached", "namespace", namespace,
			"read_generation", generation, "generation", c.generation)
		return false
	}
	switch c.mode {
	case ModeModel:
		c.setLocked(namespace, data)
	case ModeAll:
		c.replaceLocked(storage)
	}
	return true
}

// Len returns the number of cached namespaces.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear discards every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.generation++
	c.entries = make(map[string]*core.NamespaceData)
	c.complete = false
	c.mu.Unlock()
}

func (c *Cache) setLocked(namespace string, data *core.NamespaceData) {
	c.entries[namespace] = data
}

func (c *Cache) replaceLocked(storage *core.Storage) {
	entries := make(map[string]*core.NamespaceData, storage.Len())
	for _, name := range storage.Names() {
		data, _ := storage.Namespace(name)
		entries[name] = data
	}
	c.entries = entries
	c.complete = c.mode == ModeAll
}
