package adapter

import (
	"github.com/poiesic/docstore/core"
	"github.com/poiesic/docstore/storage"
)

// Serializer turns a write-side snapshot into the record that is stored.
type Serializer interface {
	Serialize(model *core.Model, snapshot core.Snapshot, includeID bool) (core.Record, error)
}

// Materializer exposes records the caller already holds in memory. The
// loader prefers a materialized record over a backend read.
type Materializer interface {
	// Peek returns the serialized form of the record, including its id.
	Peek(model, id string) (core.Record, bool)
}

// JSONSerializer stores snapshot attributes as they round-trip through
// JSON, so a stored record has exactly the shape a later read returns.
type JSONSerializer struct{}

var _ Serializer = JSONSerializer{}

// Serialize implements Serializer.
func (JSONSerializer) Serialize(model *core.Model, snapshot core.Snapshot, includeID bool) (core.Record, error) {
	record := make(core.Record, len(snapshot.Attributes)+1)
	for k, v := range snapshot.Attributes {
		record[k] = v
	}
	if includeID && snapshot.ID != "" {
		record[core.IDField] = snapshot.ID
	}

	blob, err := storage.MarshalRecord(record)
	if err != nil {
		return nil, err
	}
	return storage.UnmarshalRecord(blob)
}
