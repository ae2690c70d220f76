package query

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Parse builds a query from command-line style terms:
//
//	field=value   Equals; value is read as a JSON literal when it is one
//	              (true, 24, null, "quoted"), otherwise as a plain string
//	field~regex   Matches
func Parse(terms []string) (*Query, error) {
	q := New()
	for _, term := range terms {
		i := strings.IndexAny(term, "=~")
		if i <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTerm, term)
		}
		field, op, raw := term[:i], term[i], term[i+1:]

		switch op {
		case '=':
			q.Eq(field, parseValue(raw))
		case '~':
			re, err := regexp.Compile(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %w", ErrInvalidTerm, term, err)
			}
			q.Re(field, re)
		}
	}
	return q, nil
}

func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		switch v.(type) {
		case []any, map[string]any:
		default:
			return v
		}
	}
	return raw
}
