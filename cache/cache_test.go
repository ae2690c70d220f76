package cache

import (
	"sync"
	"testing"

	"github.com/poiesic/docstore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namespaceWith(ids ...string) *core.NamespaceData {
	data := core.NewNamespaceData()
	for _, id := range ids {
		data.Put(id, core.Record{"id": id})
	}
	return data
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeModel, false},
		{"model", ModeModel, false},
		{"none", ModeNone, false},
		{"ALL", ModeAll, false},
		{"everything", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCache_ModeNone(t *testing.T) {
	c := New(ModeNone, nil)
	c.Set("post", namespaceWith("p1"))
	c.Populate(c.Generation(), "post", namespaceWith("p1"), core.NewStorage())

	_, ok := c.Get("post")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_ModeModel(t *testing.T) {
	c := New(ModeModel, nil)

	_, ok := c.Get("post")
	assert.False(t, ok)

	posts := namespaceWith("p1")
	assert.True(t, c.Populate(c.Generation(), "post", posts, nil))

	got, ok := c.Get("post")
	require.True(t, ok)
	assert.Same(t, posts, got)

	// Other namespaces stay uncached
	_, ok = c.Get("comment")
	assert.False(t, ok)

	// Writes overwrite the entry
	updated := namespaceWith("p1", "p2")
	c.Set("post", updated)
	got, ok = c.Get("post")
	require.True(t, ok)
	assert.Equal(t, 2, got.Len())
}

func TestCache_ModeAll(t *testing.T) {
	c := New(ModeAll, nil)

	storage := core.NewStorage()
	storage.SetNamespace("post", namespaceWith("p1"))
	storage.SetNamespace("comment", namespaceWith("c1", "c2"))

	assert.True(t, c.Populate(c.Generation(), "post", namespaceWith("p1"), storage))
	assert.Equal(t, 2, c.Len())

	comments, ok := c.Get("comment")
	require.True(t, ok)
	assert.Equal(t, 2, comments.Len())

	// Namespaces absent from the loaded dataset are known to be empty
	items, ok := c.Get("item")
	require.True(t, ok)
	assert.Equal(t, 0, items.Len())

	c.Clear()
	_, ok = c.Get("item")
	assert.False(t, ok)
}

func TestCache_ReplaceDropsStaleEntries(t *testing.T) {
	c := New(ModeAll, nil)
	c.Set("stale", namespaceWith("s1"))

	storage := core.NewStorage()
	storage.SetNamespace("post", namespaceWith("p1"))
	c.Replace(storage)

	stale, ok := c.Get("stale")
	require.True(t, ok)
	assert.Equal(t, 0, stale.Len())
}

func TestCache_PopulateAfterWriteIsDropped(t *testing.T) {
	t.Run("model", func(t *testing.T) {
		c := New(ModeModel, nil)
		gen := c.Generation()

		written := namespaceWith("a")
		c.Commit("item", written, nil)

		assert.False(t, c.Populate(gen, "item", namespaceWith(), nil))
		got, ok := c.Get("item")
		require.True(t, ok)
		assert.Same(t, written, got)
	})

	t.Run("all", func(t *testing.T) {
		c := New(ModeAll, nil)
		gen := c.Generation()

		written := core.NewStorage()
		written.SetNamespace("item", namespaceWith("a"))
		c.Commit("item", nil, written)

		assert.False(t, c.Populate(gen, "item", nil, core.NewStorage()))
		got, ok := c.Get("item")
		require.True(t, ok)
		assert.Equal(t, 1, got.Len())
	})

	t.Run("clear", func(t *testing.T) {
		c := New(ModeModel, nil)
		gen := c.Generation()
		c.Clear()

		assert.False(t, c.Populate(gen, "item", namespaceWith("a"), nil))
		_, ok := c.Get("item")
		assert.False(t, ok)
	})
}

func TestCache_Concurrent(t *testing.T) {
	c := New(ModeModel, nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Set("post", namespaceWith("p1"))
		}()
		go func() {
			defer wg.Done()
			c.Get("post")
		}()
	}
	wg.Wait()

	_, ok := c.Get("post")
	assert.True(t, ok)
}
