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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidRecord indicates a Record failed validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrEmptyID indicates a record has no usable id.
	ErrEmptyID = errors.New("record id cannot be empty")

	// ErrInvalidModel indicates model metadata failed validation.
	ErrInvalidModel = errors.New("invalid model")

	// ErrEmptyModelName indicates the model Name field is empty.
	ErrEmptyModelName = errors.New("model name cannot be empty")

	// ErrInvalidProjection indicates a projection failed validation.
	ErrInvalidProjection = errors.New("invalid projection")

	// ErrInvalidProjectionAttribute indicates a projection attribute whose
	// kind is not attr, belongsTo or hasMany. It points at inconsistent model
	// metadata and aborts the whole load.
	ErrInvalidProjectionAttribute = errors.New("unknown kind of projection attribute")
)
