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


package storage

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/docstore/core"
)

// MarshalStorage serializes the whole dataset to the blob format:
// {"<namespace>": {"records": {"<id>": {...}}}}.
func MarshalStorage(s *core.Storage) ([]byte, error) {
	if s == nil {
		s = core.NewStorage()
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalStorage deserializes a blob. An absent or empty blob yields an
// empty dataset.
func UnmarshalStorage(data []byte) (*core.Storage, error) {
	s := core.NewStorage()
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return s, nil
}

// MarshalRecord serializes a single record.
func MarshalRecord(record core.Record) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalRecord deserializes a single record.
func UnmarshalRecord(data []byte) (core.Record, error) {
	var record core.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return record, nil
}
