// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package adapter

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/poiesic/docstore/cache"
	"gopkg.in/yaml.v3"
)

// DefaultNamespace is the backend key the whole dataset is stored under
// when no namespace is configured.
const DefaultNamespace = "DS.LFAdapter"

// Config holds the adapter settings.
type Config struct {
	// Namespace is the backend key holding the persisted dataset.
	// Default: "DS.LFAdapter"
	Namespace string `yaml:"namespace"`

	// Caching selects the namespace cache mode: none, model or all.
	// Default: model
	Caching cache.Mode `yaml:"caching"`

	// CoalesceFindRequests is reported to callers that batch find requests.
	// The adapter itself does not batch.
	// Default: true
	CoalesceFindRequests bool `yaml:"coalesce_find_requests"`

	// MaxDepth bounds how many records deep relationship resolution goes.
	// Default: 8
	MaxDepth int `yaml:"max_depth"`

	// PoolSize is the number of workers loading query results.
	// Default: runtime.NumCPU() / 2, minimum 1
	PoolSize int `yaml:"pool_size"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithNamespace sets the backend key.
func WithNamespace(namespace string) ConfigOption {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithCaching sets the cache mode.
func WithCaching(mode cache.Mode) ConfigOption {
	return func(c *Config) {
		c.Caching = mode
	}
}

// WithCoalesceFindRequests sets the find coalescing flag.
func WithCoalesceFindRequests(coalesce bool) ConfigOption {
	return func(c *Config) {
		c.CoalesceFindRequests = coalesce
	}
}

// WithMaxDepth sets the relationship resolution depth limit.
func WithMaxDepth(depth int) ConfigOption {
	return func(c *Config) {
		c.MaxDepth = depth
	}
}

// WithWorkers sets the query loading pool size.
func WithWorkers(size int) ConfigOption {
	return func(c *Config) {
		c.PoolSize = size
	}
}

// DefaultConfig returns a Config with the default settings.
func DefaultConfig() *Config {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	return &Config{
		Namespace:            DefaultNamespace,
		Caching:              cache.ModeModel,
		CoalesceFindRequests: true,
		MaxDepth:             8,
		PoolSize:             poolSize,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//		WithNamespace("app"),
//		WithCaching(cache.ModeAll),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// LoadConfig reads a YAML configuration file. Settings missing from the
// file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and normalizes the cache mode.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Namespace) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.New("namespace is required"))
	}
	mode, err := cache.ParseMode(string(c.Caching))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	c.Caching = mode
	if c.MaxDepth < 1 {
		return fmt.Errorf("%w: max depth must be at least 1", ErrInvalidConfig)
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("%w: pool size must be at least 1", ErrInvalidConfig)
	}
	return nil
}
