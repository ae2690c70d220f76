package redis

import (
	"context"
	"os"
	"testing"

	"github.com/poiesic/docstore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	b := NewBackend(nil)
	assert.Equal(t, "docstore:DS.LFAdapter", b.cacheKey("DS.LFAdapter"))

	b = NewBackend(nil, WithPrefix("app:"))
	assert.Equal(t, "app:ns", b.cacheKey("ns"))
}

func TestBackend_Server(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	b := Dial(addr, WithPrefix("docstore-test:"+core.GenerateID()+":"))
	defer b.Close()
	ctx := context.Background()

	blob, err := b.GetItem(ctx, "ns")
	require.NoError(t, err)
	assert.Nil(t, blob)

	require.NoError(t, b.SetItem(ctx, "ns", []byte(`{"post":{"records":{}}}`)))

	blob, err = b.GetItem(ctx, "ns")
	require.NoError(t, err)
	assert.Equal(t, `{"post":{"records":{}}}`, string(blob))
}
