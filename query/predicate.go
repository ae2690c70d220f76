package query

import (
	"reflect"
	"regexp"
	"strconv"

	"github.com/poiesic/docstore/core"
)

// Predicate is a condition on a single record field. It is either Equals or
// Matches.
type Predicate interface {
	// Match reports whether a field value satisfies the predicate. present
	// is false when the record has no such field.
	Match(value any, present bool) bool

	predicate()
}

// Equals matches fields exactly equal to Value. Numbers compare by numeric
// value regardless of their Go type; no other conversions are made, so the
// string "1" never equals the number 1.
type Equals struct {
	Value any
}

// Matches matches fields whose text matches Pattern. String fields are
// matched as is, numbers and booleans by their canonical text. Missing,
// null, list and object fields never match.
type Matches struct {
	Pattern *regexp.Regexp
}

func (Equals) predicate()  {}
func (Matches) predicate() {}

// Match implements Predicate.
func (e Equals) Match(value any, present bool) bool {
	if !present {
		return false
	}
	return equal(normalize(value), normalize(e.Value))
}

// Match implements Predicate.
func (m Matches) Match(value any, present bool) bool {
	if !present || m.Pattern == nil {
		return false
	}
	text, ok := asText(value)
	if !ok {
		return false
	}
	return m.Pattern.MatchString(text)
}

func asText(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	}
	if f, ok := toFloat(value); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}

// normalize maps Go numeric types to float64, the type decoded records use,
// and does so recursively inside lists and objects.
func normalize(value any) any {
	if f, ok := toFloat(value); ok {
		return f
	}
	switch v := value.(type) {
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out
	case core.Record:
		return normalize(map[string]any(v))
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = normalize(item)
		}
		return out
	}
	return value
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}
