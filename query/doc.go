// Package query provides the predicate matcher used by docstore queries.
//
// A Query is a conjunction of field conditions. Each condition is either
// Equals, which compares a field to a value without type coercion, or
// Matches, which tests a field's text against a regular expression. Matching
// is a linear scan over a namespace in its natural order; there are no
// indexes.
//
//	q := query.New().Eq("b", false).Re("name", regexp.MustCompile("^t"))
//	matches := query.Filter(records, q)
package query
