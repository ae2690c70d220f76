package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/poiesic/docstore/core"
)

// Condition pairs a record field with the predicate it must satisfy.
type Condition struct {
	Field     string
	Predicate Predicate
}

// Query is a conjunction of field conditions, optionally carrying the
// projection used to load relationships of the matched records. The zero
// Query matches every record.
type Query struct {
	conditions     []Condition
	projection     *core.Projection
	projectionName string
}

// New returns an empty query.
func New() *Query {
	return &Query{}
}

// Where adds a condition on field and returns q.
func (q *Query) Where(field string, p Predicate) *Query {
	q.conditions = append(q.conditions, Condition{Field: field, Predicate: p})
	return q
}

// Eq adds an Equals condition and returns q.
func (q *Query) Eq(field string, value any) *Query {
	return q.Where(field, Equals{Value: value})
}

// Re adds a Matches condition and returns q.
func (q *Query) Re(field string, pattern *regexp.Regexp) *Query {
	return q.Where(field, Matches{Pattern: pattern})
}

// WithProjection attaches an inline projection and returns q.
func (q *Query) WithProjection(p *core.Projection) *Query {
	q.projection = p
	q.projectionName = ""
	return q
}

// WithProjectionName attaches a projection by name, resolved against the
// queried model's metadata, and returns q.
func (q *Query) WithProjectionName(name string) *Query {
	q.projectionName = name
	q.projection = nil
	return q
}

// Conditions returns the query's conditions in the order they were added.
func (q *Query) Conditions() []Condition {
	if q == nil {
		return nil
	}
	return q.conditions
}

// Projection returns the inline projection and the projection name; at most
// one of them is set.
func (q *Query) Projection() (*core.Projection, string) {
	if q == nil {
		return nil, ""
	}
	return q.projection, q.projectionName
}

// IsEmpty reports whether the query has no conditions.
func (q *Query) IsEmpty() bool {
	return q == nil || len(q.conditions) == 0
}

// Matches reports whether record satisfies every condition of q.
func (q *Query) Matches(record core.Record) bool {
	for _, c := range q.Conditions() {
		value, present := record[c.Field]
		if !c.Predicate.Match(value, present) {
			return false
		}
	}
	return true
}

// String renders the query for logs and error messages.
func (q *Query) String() string {
	parts := make([]string, 0, len(q.Conditions()))
	for _, c := range q.Conditions() {
		switch p := c.Predicate.(type) {
		case Equals:
			parts = append(parts, fmt.Sprintf("%s=%v", c.Field, p.Value))
		case Matches:
			parts = append(parts, fmt.Sprintf("%s~/%v/", c.Field, p.Pattern))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Filter returns the records satisfying q, in the order given.
func Filter(records []core.Record, q *Query) []core.Record {
	out := make([]core.Record, 0, len(records))
	for _, record := range records {
		if q.Matches(record) {
			out = append(out, record)
		}
	}
	return out
}

// First returns the first record satisfying q and stops scanning there.
func First(records []core.Record, q *Query) (core.Record, bool) {
	for _, record := range records {
		if q.Matches(record) {
			return record, true
		}
	}
	return nil, false
}

// Match is the combined form: with single set it returns at most the first
// match, otherwise every match.
func Match(data *core.NamespaceData, q *Query, single bool) []core.Record {
	records := data.Values()
	if single {
		if record, ok := First(records, q); ok {
			return []core.Record{record}
		}
		return nil
	}
	return Filter(records, q)
}
