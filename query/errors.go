package query

import "errors"

var (
	// ErrInvalidTerm is returned when a query term cannot be parsed.
	ErrInvalidTerm = errors.New("invalid query term")
)
