package core

import "fmt"

// AttributeKind identifies how a projected attribute is loaded.
type AttributeKind int

const (
	// KindAttr is a plain attribute, copied as stored.
	KindAttr AttributeKind = iota + 1
	// KindBelongsTo is a reference to a single related record.
	KindBelongsTo
	// KindHasMany is a list of references to related records.
	KindHasMany
)

func (k AttributeKind) String() string {
	switch k {
	case KindAttr:
		return "attr"
	case KindBelongsTo:
		return "belongsTo"
	case KindHasMany:
		return "hasMany"
	default:
		return fmt.Sprintf("AttributeKind(%d)", int(k))
	}
}

// IsRelationship reports whether k refers to other records.
func (k AttributeKind) IsRelationship() bool {
	return k == KindBelongsTo || k == KindHasMany
}

// ParseAttributeKind converts a kind name as used in model definitions.
func ParseAttributeKind(s string) (AttributeKind, error) {
	switch s {
	case "attr":
		return KindAttr, nil
	case "belongsTo":
		return KindBelongsTo, nil
	case "hasMany":
		return KindHasMany, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidProjectionAttribute, s)
	}
}

// AttributeDescriptor describes one attribute of a projection. For
// relationship kinds, ModelName is the related model and Attributes is the
// projection applied to each related record.
type AttributeDescriptor struct {
	Name       string
	Kind       AttributeKind
	ModelName  string
	Attributes []AttributeDescriptor
}

// Projection returns the nested projection applied to related records.
func (a AttributeDescriptor) Projection() *Projection {
	return &Projection{
		ModelName:  a.ModelName,
		Attributes: a.Attributes,
	}
}

// Projection selects which relationships of a model are loaded eagerly and
// how their related records are shaped.
type Projection struct {
	Name       string
	ModelName  string
	Attributes []AttributeDescriptor
}

// Relationship describes a relationship declared on a model.
type Relationship struct {
	Name   string
	Kind   AttributeKind
	Target string
	// Async relationships are resolved lazily by the caller and are never
	// touched by the loader.
	Async bool
}

// Model is the metadata the adapter needs about one record type.
type Model struct {
	Name string
	// URL overrides the namespace the model's records are stored under.
	URL           string
	Attributes    []string
	Relationships []Relationship
	Projections   map[string]*Projection
}

// Namespace returns the name of the namespace holding the model's records.
func (m *Model) Namespace() string {
	if m.URL != "" {
		return m.URL
	}
	return m.Name
}

// Relationship returns the named relationship.
func (m *Model) Relationship(name string) (Relationship, bool) {
	for _, rel := range m.Relationships {
		if rel.Name == name {
			return rel, true
		}
	}
	return Relationship{}, false
}

// IsAsync reports whether the named relationship is declared asynchronous.
// Unknown names are treated as synchronous.
func (m *Model) IsAsync(name string) bool {
	rel, ok := m.Relationship(name)
	return ok && rel.Async
}

// BelongsTo returns the names of the model's belongs-to relationships.
func (m *Model) BelongsTo() []string {
	return m.relationshipNames(KindBelongsTo)
}

// HasMany returns the names of the model's has-many relationships.
func (m *Model) HasMany() []string {
	return m.relationshipNames(KindHasMany)
}

func (m *Model) relationshipNames(kind AttributeKind) []string {
	var names []string
	for _, rel := range m.Relationships {
		if rel.Kind == kind {
			names = append(names, rel.Name)
		}
	}
	return names
}

// Projection returns the named projection.
func (m *Model) Projection(name string) (*Projection, bool) {
	p, ok := m.Projections[name]
	return p, ok
}

// ModelProvider resolves model metadata by model name.
type ModelProvider interface {
	// Model returns the metadata for the named model.
	Model(name string) (*Model, error)
	// Projection returns the projection called name declared for model.
	Projection(model, name string) (*Projection, error)
}
