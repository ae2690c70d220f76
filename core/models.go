package core

import (
	"bytes"
	"encoding/json"
	"math/rand/v2"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// IDField is the record field holding the record's identifier.
const IDField = "id"

// Record is a single stored document. Values are JSON-shaped: string,
// float64, bool, nil, []any or map[string]any. Relationship fields hold
// either a reference id (belongs-to), a slice of ids (has-many), or the
// resolved nested records once a projection has been applied.
type Record map[string]any

// ID returns the record's identifier, or "" if it has none.
func (r Record) ID() string {
	id, _ := r[IDField].(string)
	return id
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies a JSON-shaped value.
func CloneValue(v any) any {
	switch t := v.(type) {
	case Record:
		return t.Clone()
	case map[string]any:
		return map[string]any(Record(t).Clone())
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = CloneValue(item)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}

// NamespaceData holds every record of one namespace, in insertion order.
// It is the unit of persistence and caching: always read and written whole.
type NamespaceData struct {
	Records *orderedmap.OrderedMap[string, Record] `json:"records"`
}

// NewNamespaceData returns an empty NamespaceData.
func NewNamespaceData() *NamespaceData {
	return &NamespaceData{Records: orderedmap.New[string, Record]()}
}

// Get returns the record stored under id.
func (d *NamespaceData) Get(id string) (Record, bool) {
	if d == nil || d.Records == nil {
		return nil, false
	}
	return d.Records.Get(id)
}

// Put inserts or replaces the record stored under id. A replaced record
// keeps its original position.
func (d *NamespaceData) Put(id string, record Record) {
	if d.Records == nil {
		d.Records = orderedmap.New[string, Record]()
	}
	d.Records.Set(id, record)
}

// Remove deletes the record stored under id and reports whether it existed.
func (d *NamespaceData) Remove(id string) bool {
	if d.Records == nil {
		return false
	}
	_, ok := d.Records.Delete(id)
	return ok
}

// Len returns the number of records.
func (d *NamespaceData) Len() int {
	if d == nil || d.Records == nil {
		return 0
	}
	return d.Records.Len()
}

// Values returns the records in namespace order.
func (d *NamespaceData) Values() []Record {
	out := make([]Record, 0, d.Len())
	if d.Len() == 0 {
		return out
	}
	for pair := d.Records.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Clone returns a copy whose record set can be modified without affecting d.
// Records themselves are shared; callers replace records rather than
// mutating them.
func (d *NamespaceData) Clone() *NamespaceData {
	out := NewNamespaceData()
	if d.Len() == 0 {
		return out
	}
	for pair := d.Records.Oldest(); pair != nil; pair = pair.Next() {
		out.Records.Set(pair.Key, pair.Value)
	}
	return out
}

// Storage is the whole persisted blob: every namespace keyed by name.
type Storage struct {
	namespaces *orderedmap.OrderedMap[string, *NamespaceData]
}

// NewStorage returns an empty Storage.
func NewStorage() *Storage {
	return &Storage{namespaces: orderedmap.New[string, *NamespaceData]()}
}

// Namespace returns the data stored for the named namespace.
func (s *Storage) Namespace(name string) (*NamespaceData, bool) {
	if s == nil || s.namespaces == nil {
		return nil, false
	}
	return s.namespaces.Get(name)
}

// SetNamespace stores data under the named namespace.
func (s *Storage) SetNamespace(name string, data *NamespaceData) {
	if s.namespaces == nil {
		s.namespaces = orderedmap.New[string, *NamespaceData]()
	}
	s.namespaces.Set(name, data)
}

// Names returns the namespace names in storage order.
func (s *Storage) Names() []string {
	if s == nil || s.namespaces == nil {
		return nil
	}
	names := make([]string, 0, s.namespaces.Len())
	for pair := s.namespaces.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Len returns the number of namespaces.
func (s *Storage) Len() int {
	if s == nil || s.namespaces == nil {
		return 0
	}
	return s.namespaces.Len()
}

// MarshalJSON implements json.Marshaler.
func (s *Storage) MarshalJSON() ([]byte, error) {
	if s.namespaces == nil {
		return []byte("{}"), nil
	}
	return s.namespaces.MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler. Namespaces without a records
// object decode as empty.
func (s *Storage) UnmarshalJSON(data []byte) error {
	namespaces := orderedmap.New[string, *NamespaceData]()
	if string(bytes.TrimSpace(data)) == "null" {
		s.namespaces = namespaces
		return nil
	}
	if err := json.Unmarshal(data, namespaces); err != nil {
		return err
	}
	for pair := namespaces.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == nil {
			pair.Value = NewNamespaceData()
		} else if pair.Value.Records == nil {
			pair.Value.Records = orderedmap.New[string, Record]()
		}
	}
	s.namespaces = namespaces
	return nil
}

// Snapshot is the write-side view of a record handed to the serializer.
type Snapshot struct {
	ID         string
	Attributes map[string]any
}

// idAlphabet matches the digits of a base-32 number rendering.
const idAlphabet = "0123456789abcdefghijklmnopqrstuv"

// GeneratedIDLength is the length of ids produced by GenerateID.
const GeneratedIDLength = 5

// GenerateID returns a short random base-32 token. Uniqueness against
// existing records is not checked.
func GenerateID() string {
	buf := make([]byte, GeneratedIDLength)
	for i := range buf {
		buf[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return string(buf)
}
