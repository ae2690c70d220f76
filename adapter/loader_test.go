package adapter

import (
	"context"
	"testing"

	"github.com/poiesic/docstore/core"
	"github.com/poiesic/docstore/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectionResolvesHasMany(t *testing.T) {
	a := newTestAdapter(t, seededBackend(t))

	post, err := a.QueryRecord(context.Background(), "post", query.New().Eq("id", "p1").WithProjectionName("PostE"))
	require.NoError(t, err)

	comments, ok := post["comments"].([]any)
	require.True(t, ok, "comments should be a list, got %T", post["comments"])
	require.Len(t, comments, 1, "missingComment must be skipped")

	c1 := comments[0].(map[string]any)
	assert.Equal(t, "c1", c1["id"])
	assert.Equal(t, "comment #1", c1["title"])
	back, ok := c1["post"].(map[string]any)
	require.True(t, ok, "post.comments[].post is projected, got %T", c1["post"])
	assert.Equal(t, "post #1", back["title"])
	assert.Equal(t, []any{}, back["comments"], "the nested post does not project its comments")

	assert.Equal(t, []any{"externalS1", "missingSubscriber"}, post["subscribers"], "async relationships are left alone")
}

func TestProjectionPreservesOrder(t *testing.T) {
	a := newTestAdapter(t, seededBackend(t))

	orders, err := a.Query(context.Background(), "order", query.New().Eq("b", true).WithProjectionName("OrderE"))
	require.NoError(t, err)
	require.Equal(t, []string{"o1", "o3", "o4"}, ids(orders))

	names := func(record core.Record) []any {
		var out []any
		for _, h := range record["hours"].([]any) {
			out = append(out, h.(map[string]any)["name"])
		}
		return out
	}
	assert.Equal(t, []any{"one", "two"}, names(orders[0]))
	assert.Equal(t, []any{"three", "four"}, names(orders[1]))
	assert.Empty(t, orders[2]["hours"])

	h1 := orders[0]["hours"].([]any)[0].(map[string]any)
	assert.Equal(t, 4.0, h1["amount"])
	assert.Nil(t, h1["order"], "unprojected belongs-to normalizes to nil")
}

func TestProjectionResolvesBelongsTo(t *testing.T) {
	a := newTestAdapter(t, seededBackend(t))
	ctx := context.Background()

	c1, err := a.QueryRecord(ctx, "comment", query.New().Eq("id", "c1").WithProjectionName("CommentE"))
	require.NoError(t, err)
	post, ok := c1["post"].(map[string]any)
	require.True(t, ok, "post should be resolved, got %T", c1["post"])
	assert.Equal(t, "post #1", post["title"])
	assert.Equal(t, []any{}, post["comments"], "unprojected sync has-many of the related record defaults to empty")

	c2, err := a.QueryRecord(ctx, "comment", query.New().Eq("id", "c2").WithProjectionName("CommentE"))
	require.NoError(t, err)
	assert.Nil(t, c2["post"], "a missing related record normalizes to nil")

	c3, err := a.QueryRecord(ctx, "comment", query.New().Eq("id", "c3").WithProjectionName("CommentE"))
	require.NoError(t, err)
	assert.Equal(t, "externalA1", c3["author"], "async belongs-to is not resolved")
}

func TestNestedProjection(t *testing.T) {
	a := newTestAdapter(t, seededBackend(t))

	item, err := a.QueryRecord(context.Background(), "item", query.New().Eq("id", "i2").WithProjectionName("ItemE"))
	require.NoError(t, err)

	list, ok := item["list"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "one", list["name"])
	assert.Equal(t, []any{}, list["items"])
}

func TestQueryWithoutProjectionNormalizes(t *testing.T) {
	a := newTestAdapter(t, seededBackend(t))
	ctx := context.Background()

	post, err := a.QueryRecord(ctx, "post", query.New().Eq("id", "p1"))
	require.NoError(t, err)
	assert.Equal(t, []any{}, post["comments"], "sync has-many holding bare ids defaults to empty")
	assert.Equal(t, []any{"externalS1", "missingSubscriber"}, post["subscribers"])

	comment, err := a.QueryRecord(ctx, "comment", query.New().Eq("id", "c3"))
	require.NoError(t, err)
	assert.Nil(t, comment["post"])
	assert.Equal(t, "externalA1", comment["author"])

	customer, err := a.QueryRecord(ctx, "customer", query.New().Eq("customerNumber", "123"))
	require.NoError(t, err)
	assert.Len(t, customer["addresses"], 2, "embedded records are kept")
	assert.Equal(t, "five", customer["hour"].(map[string]any)["name"])
}

func TestProjectionDoesNotMutateStoredRecords(t *testing.T) {
	a := newTestAdapter(t, seededBackend(t))
	ctx := context.Background()

	_, err := a.Query(ctx, "post", query.New().WithProjectionName("PostE"))
	require.NoError(t, err)

	post, err := a.FindRecord(ctx, "post", "p1")
	require.NoError(t, err)
	assert.Equal(t, []any{"c1", "missingComment"}, post["comments"])
}

func TestInlineProjection(t *testing.T) {
	a := newTestAdapter(t, seededBackend(t))

	proj := &core.Projection{
		ModelName: "list",
		Attributes: []core.AttributeDescriptor{
			{Name: "items", Kind: core.KindHasMany, ModelName: "item", Attributes: []core.AttributeDescriptor{
				{Name: "name", Kind: core.KindAttr},
			}},
		},
	}
	list, err := a.QueryRecord(context.Background(), "list", query.New().Eq("name", "one").WithProjection(proj))
	require.NoError(t, err)

	items := list["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "i1", items[0].(map[string]any)["id"])
	assert.Equal(t, "i2", items[1].(map[string]any)["id"])
}

func TestUnknownAttributeKindFailsLoad(t *testing.T) {
	a := newTestAdapter(t, seededBackend(t))

	proj := &core.Projection{
		ModelName:  "list",
		Attributes: []core.AttributeDescriptor{{Name: "items", Kind: core.AttributeKind(99)}},
	}
	_, err := a.Query(context.Background(), "list", query.New().WithProjection(proj))
	assert.ErrorIs(t, err, core.ErrInvalidProjectionAttribute)
}

func TestSelfReferencingProjection(t *testing.T) {
	a := newTestAdapter(t, seededBackend(t))

	postAttrs := make([]core.AttributeDescriptor, 2)
	commentAttrs := []core.AttributeDescriptor{
		{Name: "title", Kind: core.KindAttr},
		{Name: "post", Kind: core.KindBelongsTo, ModelName: "post", Attributes: postAttrs},
	}
	postAttrs[0] = core.AttributeDescriptor{Name: "title", Kind: core.KindAttr}
	postAttrs[1] = core.AttributeDescriptor{Name: "comments", Kind: core.KindHasMany, ModelName: "comment", Attributes: commentAttrs}
	proj := &core.Projection{ModelName: "post", Attributes: postAttrs}

	post, err := a.QueryRecord(context.Background(), "post", query.New().Eq("id", "p1").WithProjection(proj))
	require.NoError(t, err)

	comments := post["comments"].([]any)
	require.Len(t, comments, 1)
	c1 := comments[0].(map[string]any)
	assert.Equal(t, "comment #1", c1["title"])
	assert.Nil(t, c1["post"], "p1 would be loaded again with the same projection")
}

func TestMaxDepthStopsResolution(t *testing.T) {
	a := newTestAdapter(t, seededBackend(t), WithConfig(NewConfig(WithMaxDepth(1))))

	post, err := a.QueryRecord(context.Background(), "post", query.New().Eq("id", "p1").WithProjectionName("PostE"))
	require.NoError(t, err)
	assert.Equal(t, []any{}, post["comments"])
}

type fakeMaterializer map[string]core.Record

func (m fakeMaterializer) Peek(model, id string) (core.Record, bool) {
	r, ok := m[model+"/"+id]
	return r, ok
}

func TestMaterializedRecordsTakePrecedence(t *testing.T) {
	materialized := fakeMaterializer{
		"comment/c1": {"id": "c1", "title": "edited in memory", "post": "p1"},
	}
	a := newTestAdapter(t, seededBackend(t), WithMaterializer(materialized))

	post, err := a.QueryRecord(context.Background(), "post", query.New().Eq("id", "p1").WithProjectionName("PostE"))
	require.NoError(t, err)

	comments := post["comments"].([]any)
	require.Len(t, comments, 1)
	assert.Equal(t, "edited in memory", comments[0].(map[string]any)["title"])
	assert.Equal(t, "p1", materialized["comment/c1"]["post"], "materialized records are not modified")
}

func TestNormalize(t *testing.T) {
	model := &core.Model{
		Name: "post",
		Relationships: []core.Relationship{
			{Name: "author", Kind: core.KindBelongsTo, Target: "user"},
			{Name: "editor", Kind: core.KindBelongsTo, Target: "user", Async: true},
			{Name: "comments", Kind: core.KindHasMany, Target: "comment"},
			{Name: "tags", Kind: core.KindHasMany, Target: "tag", Async: true},
		},
	}

	tests := []struct {
		name   string
		record core.Record
		want   core.Record
	}{
		{
			name:   "missing fields",
			record: core.Record{"id": "p"},
			want:   core.Record{"id": "p", "author": nil, "comments": []any{}, "tags": []any{}},
		},
		{
			name:   "unresolved references",
			record: core.Record{"id": "p", "author": "u1", "editor": "u2", "comments": []any{"c1"}, "tags": []any{"t1"}},
			want:   core.Record{"id": "p", "author": nil, "editor": "u2", "comments": []any{}, "tags": []any{"t1"}},
		},
		{
			name: "resolved references",
			record: core.Record{
				"id":       "p",
				"author":   map[string]any{"id": "u1"},
				"comments": []any{map[string]any{"id": "c1"}},
				"tags":     "t1",
			},
			want: core.Record{
				"id":       "p",
				"author":   map[string]any{"id": "u1"},
				"comments": []any{map[string]any{"id": "c1"}},
				"tags":     []any{},
			},
		},
		{
			name:   "mixed has-many",
			record: core.Record{"id": "p", "comments": []any{map[string]any{"id": "c1"}, "c2"}},
			want:   core.Record{"id": "p", "author": nil, "comments": []any{}, "tags": []any{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normalize(model, tt.record)
			assert.Equal(t, tt.want, tt.record)
		})
	}
}

func TestPath(t *testing.T) {
	var root *path
	assert.Equal(t, 0, root.len())
	assert.False(t, root.contains(frame{record: "post/p1"}))

	p := root.push(frame{record: "post/p1"}).push(frame{record: "comment/c1"})
	assert.Equal(t, 2, p.len())
	assert.True(t, p.contains(frame{record: "post/p1"}))
	assert.True(t, p.contains(frame{record: "comment/c1"}))
	assert.False(t, p.contains(frame{record: "comment/c2"}))
}
