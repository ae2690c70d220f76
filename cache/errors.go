package cache

import "errors"

var (
	// ErrInvalidMode is returned when a caching mode name is not none, model or all.
	ErrInvalidMode = errors.New("invalid caching mode")
)
