package adapter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/docstore/core"
	"golang.org/x/sync/errgroup"
)

// frame identifies one step of a resolution: a record loaded with a
// particular projection node. Projections are finite trees, so a frame can
// only repeat along a path when a projection refers back to itself.
type frame struct {
	record string
	node   *core.AttributeDescriptor
}

func newFrame(model *core.Model, id string, proj *core.Projection) frame {
	return frame{record: model.Namespace() + "/" + id, node: projectionNode(proj)}
}

// projectionNode returns the identity of proj's attribute list, or nil when
// there is nothing left to resolve below it.
func projectionNode(proj *core.Projection) *core.AttributeDescriptor {
	if proj == nil || len(proj.Attributes) == 0 {
		return nil
	}
	return &proj.Attributes[0]
}

// path is the chain of frames currently being resolved, innermost first.
// It is immutable, so concurrent branches can extend it independently.
type path struct {
	frame  frame
	parent *path
	depth  int
}

func (p *path) push(f frame) *path {
	depth := 1
	if p != nil {
		depth = p.depth + 1
	}
	return &path{frame: f, parent: p, depth: depth}
}

func (p *path) contains(f frame) bool {
	for n := p; n != nil; n = n.parent {
		if n.frame == f {
			return true
		}
	}
	return false
}

func (p *path) len() int {
	if p == nil {
		return 0
	}
	return p.depth
}

// loader replaces the relationship attributes named by a projection with
// the related records, and normalizes the remaining synchronous
// relationships of a record.
type loader struct {
	a        *Adapter
	maxDepth int
	logger   *slog.Logger
}

func (a *Adapter) newLoader() *loader {
	return &loader{a: a, maxDepth: a.config.MaxDepth, logger: a.logger}
}

// load returns a loaded copy of record; record itself is left untouched.
// proj may be nil, in which case only normalization happens.
func (l *loader) load(ctx context.Context, model *core.Model, record core.Record, proj *core.Projection, parent *path) (core.Record, error) {
	record = record.Clone()
	here := parent.push(newFrame(model, record.ID(), proj))

	if proj != nil {
		for _, attr := range proj.Attributes {
			if err := l.resolveAttribute(ctx, model, record, attr, here); err != nil {
				return nil, err
			}
		}
	}

	normalize(model, record)
	return record, nil
}

func (l *loader) resolveAttribute(ctx context.Context, model *core.Model, record core.Record, attr core.AttributeDescriptor, here *path) error {
	switch attr.Kind {
	case core.KindAttr:
		return nil

	case core.KindBelongsTo:
		if model.IsAsync(attr.Name) {
			return nil
		}
		id, ok := record[attr.Name].(string)
		if !ok {
			return nil
		}
		related, found, err := l.related(ctx, attr, id, here)
		if err != nil {
			return err
		}
		if found {
			record[attr.Name] = map[string]any(related)
		}
		return nil

	case core.KindHasMany:
		if model.IsAsync(attr.Name) {
			return nil
		}
		refs, ok := asList(record[attr.Name])
		if !ok {
			record[attr.Name] = []any{}
			return nil
		}
		resolved, err := l.relatedMany(ctx, attr, refs, here)
		if err != nil {
			return err
		}
		record[attr.Name] = resolved
		return nil

	default:
		return fmt.Errorf("%w: %s on %s.%s", core.ErrInvalidProjectionAttribute, attr.Kind, model.Name, attr.Name)
	}
}

// relatedMany resolves every reference of a has-many attribute
// concurrently. Resolved records keep the order of refs; references that
// resolve to nothing are dropped.
func (l *loader) relatedMany(ctx context.Context, attr core.AttributeDescriptor, refs []any, here *path) ([]any, error) {
	results := make([]any, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		if isObject(ref) {
			results[i] = ref
			continue
		}
		id, ok := ref.(string)
		if !ok {
			continue
		}
		g.Go(func() error {
			related, found, err := l.related(gctx, attr, id, here)
			if err != nil {
				return err
			}
			if found {
				results[i] = map[string]any(related)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]any, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

// related resolves one reference to a loaded record of attr's model. It
// reports found=false for ids that are not stored, that would be loaded
// again with a projection node already being resolved further up the
// chain, or that lie beyond the depth limit.
func (l *loader) related(ctx context.Context, attr core.AttributeDescriptor, id string, here *path) (core.Record, bool, error) {
	target, err := l.a.model(attr.ModelName)
	if err != nil {
		return nil, false, err
	}

	proj := attr.Projection()
	f := newFrame(target, id, proj)
	if f.node != nil && here.contains(f) {
		l.logger.Debug("self-referencing projection left unresolved", "attribute", attr.Name, "record", f.record)
		return nil, false, nil
	}
	if here.len() >= l.maxDepth {
		l.logger.Debug("relationship depth limit reached", "attribute", attr.Name, "record", f.record, "depth", here.len())
		return nil, false, nil
	}

	if m := l.a.materializer; m != nil {
		if record, ok := m.Peek(target.Name, id); ok {
			loaded, err := l.load(ctx, target, record, proj, here)
			return loaded, err == nil, err
		}
	}

	data, err := l.a.namespaceData(ctx, target.Namespace())
	if err != nil {
		return nil, false, err
	}
	record, ok := data.Get(id)
	if !ok {
		l.logger.Debug("related record not found", "attribute", attr.Name, "record", f.record)
		return nil, false, nil
	}
	loaded, err := l.load(ctx, target, record, proj, here)
	return loaded, err == nil, err
}

// normalize gives every relationship of model a uniform shape: a
// synchronous belongs-to is a record or nil, a has-many is a list, and a
// synchronous has-many holds only records or is empty.
func normalize(model *core.Model, record core.Record) {
	for _, rel := range model.Relationships {
		value := record[rel.Name]
		switch rel.Kind {
		case core.KindBelongsTo:
			if !rel.Async && !isObject(value) {
				record[rel.Name] = nil
			}
		case core.KindHasMany:
			list, ok := asList(value)
			if !ok {
				record[rel.Name] = []any{}
				continue
			}
			if rel.Async {
				continue
			}
			for _, item := range list {
				if !isObject(item) {
					record[rel.Name] = []any{}
					break
				}
			}
		}
	}
}

func isObject(v any) bool {
	switch v.(type) {
	case map[string]any, core.Record:
		return true
	default:
		return false
	}
}

func asList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}
