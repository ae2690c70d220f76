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


// Package storage provides the storage abstraction layer for docstore.
//
// This package defines the Backend interface that decouples the adapter from
// the key-value engine holding its data, along with the blob serialization
// shared by every engine. Backends (BadgerDB, Redis, memcached, in-memory)
// are interchangeable.
//
// # Blob Layout
//
// The adapter keeps its whole dataset under one key. The value stored under
// that key is a JSON object keyed by namespace:
//
//	{
//	  "post":    {"records": {"p1": {"id": "p1", "comments": ["c1"]}}},
//	  "comment": {"records": {"c1": {"id": "c1", "post": "p1"}}}
//	}
//
// Record order within a namespace is insertion order and survives a round
// trip through MarshalStorage and UnmarshalStorage.
//
// # Usage
//
// Open a backend:
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// Use in tests with in-memory storage:
//
//	backend := memory.NewBackend()
//
// # Thread Safety
//
// All backend implementations must be safe for concurrent use. Backends do
// not serialize read-modify-write cycles; that is the adapter's job.
//
// # Context Support
//
// All backend methods accept context.Context. Pass context.Background() for
// operations without specific timeout requirements.
package storage
