// Package adapter maps application records onto a key-value storage
// backend and serves them as a document store.
//
// The whole dataset lives in one JSON blob under a single backend key,
// grouped into namespaces (one per model). Each namespace is read and
// written whole:
//
//	{"post": {"records": {"p1": {"id": "p1", "comments": ["c1"]}}}}
//
// Reads go through a namespace cache whose behaviour is selected by
// Config.Caching. Writes are read-modify-write cycles on the blob and are
// serialized through a single queue per Adapter, so two writes never
// interleave even when they target different namespaces. Each write starts
// from the blob as the backend holds it, not from the cache.
//
// Query and QueryRecord load their results through a projection: the
// belongs-to and has-many references the projection names are replaced with
// the related records, recursively, as deep as the projection reaches.
// References to records that are not stored, or that a self-referencing
// projection would load again with the same projection node, are left
// unresolved. Synchronous relationships that remain
// unresolved are normalized to nil (belongs-to) or an empty list (has-many).
//
// Basic usage:
//
//	models, err := schema.LoadFile("models.yaml")
//	if err != nil {
//		return err
//	}
//	a, err := adapter.New(backend, models)
//	if err != nil {
//		return err
//	}
//	defer a.Close()
//
//	q := query.New().Eq("b", false).WithProjectionName("ListE")
//	lists, err := a.Query(ctx, "list", q)
package adapter
