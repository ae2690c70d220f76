package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/poiesic/docstore/core"
	"gopkg.in/yaml.v3"
)

type document struct {
	Models []modelSpec `yaml:"models"`
}

type modelSpec struct {
	Name          string                    `yaml:"name"`
	URL           string                    `yaml:"url"`
	Attributes    []string                  `yaml:"attributes"`
	Relationships []relationshipSpec        `yaml:"relationships"`
	Projections   map[string]projectionSpec `yaml:"projections"`
}

type relationshipSpec struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Target string `yaml:"target"`
	Async  bool   `yaml:"async"`
}

type projectionSpec struct {
	Attributes []attributeSpec `yaml:"attributes"`
}

type attributeSpec struct {
	Name       string          `yaml:"name"`
	Kind       string          `yaml:"kind"`
	Model      string          `yaml:"model"`
	Attributes []attributeSpec `yaml:"attributes"`
}

// LoadFile reads a YAML schema document from path.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a registry from a YAML schema document:
//
//	models:
//	  - name: post
//	    attributes: [title]
//	    relationships:
//	      - {name: comments, kind: hasMany, target: comment}
//	    projections:
//	      PostE:
//	        attributes:
//	          - {name: title, kind: attr}
//	          - name: comments
//	            kind: hasMany
//	            model: comment
//	            attributes:
//	              - {name: title, kind: attr}
//
// Every relationship and projection must refer to a model defined in the
// same document.
func Parse(data []byte) (*Registry, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}

	reg, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	for _, spec := range doc.Models {
		model, err := spec.toModel()
		if err != nil {
			return nil, err
		}
		if err := reg.Register(model); err != nil {
			return nil, err
		}
	}
	if err := reg.Check(); err != nil {
		return nil, err
	}
	return reg, nil
}

func (s modelSpec) toModel() (*core.Model, error) {
	model := &core.Model{
		Name:        s.Name,
		URL:         s.URL,
		Attributes:  s.Attributes,
		Projections: make(map[string]*core.Projection, len(s.Projections)),
	}

	for _, rs := range s.Relationships {
		kind, err := core.ParseAttributeKind(rs.Kind)
		if err != nil {
			return nil, fmt.Errorf("model %s relationship %s: %w", s.Name, rs.Name, err)
		}
		model.Relationships = append(model.Relationships, core.Relationship{
			Name:   rs.Name,
			Kind:   kind,
			Target: rs.Target,
			Async:  rs.Async,
		})
	}

	for name, ps := range s.Projections {
		attrs, err := toAttributes(ps.Attributes)
		if err != nil {
			return nil, fmt.Errorf("model %s projection %s: %w", s.Name, name, err)
		}
		model.Projections[name] = &core.Projection{
			Name:       name,
			ModelName:  s.Name,
			Attributes: attrs,
		}
	}

	return model, nil
}

func toAttributes(specs []attributeSpec) ([]core.AttributeDescriptor, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	attrs := make([]core.AttributeDescriptor, 0, len(specs))
	for _, as := range specs {
		kind, err := core.ParseAttributeKind(as.Kind)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", as.Name, err)
		}
		nested, err := toAttributes(as.Attributes)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, core.AttributeDescriptor{
			Name:       as.Name,
			Kind:       kind,
			ModelName:  as.Model,
			Attributes: nested,
		})
	}
	return attrs, nil
}
