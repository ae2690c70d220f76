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


package docstore

import (
	"log/slog"

	"github.com/poiesic/docstore/adapter"
	"github.com/poiesic/docstore/core"
	"github.com/poiesic/docstore/storage"
	"github.com/poiesic/docstore/storage/badger"
)

// DB bundles a storage backend with the adapter serving it. Unlike a bare
// adapter.Adapter, a DB owns its backend and closes it.
type DB struct {
	backend storage.Backend
	adapter *adapter.Adapter
	logger  *slog.Logger
}

// Open opens (or creates) a BadgerDB database at filePath and serves the
// models of provider from it.
func Open(filePath string, models core.ModelProvider, opts ...adapter.Option) (*DB, error) {
	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}
	return OpenBackend(backend, models, opts...)
}

// OpenMemory opens an in-memory BadgerDB database. Everything stored is
// lost on Close.
func OpenMemory(models core.ModelProvider, opts ...adapter.Option) (*DB, error) {
	backend, err := badger.NewMemoryBackend()
	if err != nil {
		return nil, err
	}
	return OpenBackend(backend, models, opts...)
}

// OpenBackend serves the models of provider from backend. The returned DB
// takes ownership of backend, which is closed even if OpenBackend fails.
func OpenBackend(backend storage.Backend, models core.ModelProvider, opts ...adapter.Option) (*DB, error) {
	a, err := adapter.New(backend, models, opts...)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return &DB{
		backend: backend,
		adapter: a,
		logger:  slog.Default(),
	}, nil
}

// Adapter returns the adapter serving the database.
func (db *DB) Adapter() *adapter.Adapter {
	return db.adapter
}

// Close waits for pending writes, then closes the backend.
func (db *DB) Close() error {
	if err := db.adapter.Close(); err != nil {
		db.logger.Error("error closing adapter", "err", err)
		return err
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
