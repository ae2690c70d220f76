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

import (
	"fmt"
)

// ValidateRecord validates a Record before it is stored.
//
// Validation rules:
//   - Record must not be nil
//   - id must be a non-empty string
func ValidateRecord(record Record) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.ID() == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyID)
	}

	return nil
}

// ValidateModel validates model metadata.
//
// Validation rules:
//   - Name must not be empty
//   - Relationships must be belongsTo or hasMany with a target model
//   - Every projection must pass ValidateProjection
func ValidateModel(model *Model) error {
	if model == nil {
		return fmt.Errorf("%w: model is nil", ErrInvalidModel)
	}

	if model.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidModel, ErrEmptyModelName)
	}

	for _, rel := range model.Relationships {
		if !rel.Kind.IsRelationship() {
			return fmt.Errorf("%w: relationship %q of %s has kind %s", ErrInvalidModel, rel.Name, model.Name, rel.Kind)
		}
		if rel.Target == "" {
			return fmt.Errorf("%w: relationship %q of %s has no target model", ErrInvalidModel, rel.Name, model.Name)
		}
	}

	for name, proj := range model.Projections {
		if err := ValidateProjection(proj); err != nil {
			return fmt.Errorf("%w: projection %q of %s: %w", ErrInvalidModel, name, model.Name, err)
		}
	}

	return nil
}

// ValidateProjection checks that every attribute, recursively, has a known
// kind and that relationship attributes name their related model.
func ValidateProjection(proj *Projection) error {
	if proj == nil {
		return fmt.Errorf("%w: projection is nil", ErrInvalidProjection)
	}
	return validateAttributes(proj.Attributes)
}

func validateAttributes(attrs []AttributeDescriptor) error {
	for _, attr := range attrs {
		switch attr.Kind {
		case KindAttr:
		case KindBelongsTo, KindHasMany:
			if attr.ModelName == "" {
				return fmt.Errorf("%w: attribute %q has no related model", ErrInvalidProjection, attr.Name)
			}
			if err := validateAttributes(attr.Attributes); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %s on attribute %q", ErrInvalidProjectionAttribute, attr.Kind, attr.Name)
		}
	}
	return nil
}
