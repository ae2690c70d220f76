package schema

import "errors"

var (
	// ErrUnknownModel is returned when no metadata is registered for a model.
	ErrUnknownModel = errors.New("unknown model")

	// ErrUnknownProjection is returned when a model has no projection of the given name.
	ErrUnknownProjection = errors.New("unknown projection")

	// ErrInvalidSchema is returned when a schema document cannot be parsed.
	ErrInvalidSchema = errors.New("invalid schema")
)
