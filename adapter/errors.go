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

	"github.com/poiesic/docstore/storage"
)

var (
	// ErrNotFound is returned when a requested id is absent from its namespace.
	ErrNotFound = fmt.Errorf("adapter: %w", storage.ErrNotFound)

	// ErrNoMatch is returned when a single-record query matches nothing.
	ErrNoMatch = errors.New("no record satisfies query")

	// ErrUnknownProjection is returned when a query names a projection the
	// model does not define.
	ErrUnknownProjection = errors.New("unknown projection")

	// ErrModelRequired is returned when an operation is called without a model name.
	ErrModelRequired = errors.New("model name is required")

	// ErrBackendRequired is returned when no storage backend is provided.
	ErrBackendRequired = errors.New("storage backend is required")

	// ErrModelProviderRequired is returned when no model metadata provider is given.
	ErrModelProviderRequired = errors.New("model provider is required")

	// ErrSerializerRequired is returned when WithSerializer is given nil.
	ErrSerializerRequired = errors.New("serializer is required")

	// ErrInvalidConfig is returned when the adapter configuration is invalid.
	ErrInvalidConfig = errors.New("invalid adapter config")
)
