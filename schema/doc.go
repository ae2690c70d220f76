// Package schema provides model metadata for the adapter.
//
// A Registry maps model names to core.Model values describing each model's
// namespace, relationships (belongs-to or has-many, synchronous or
// asynchronous) and named projections. Registries are built in code with
// NewRegistry or loaded from a YAML document with LoadFile.
package schema
