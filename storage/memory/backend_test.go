package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/docstore/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackend_SetGet(t *testing.T) {
	b := NewBackend()
	ctx := context.Background()

	blob, err := b.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, blob)

	in := []byte(`{"a":1}`)
	require.NoError(t, b.SetItem(ctx, "k", in))
	in[0] = 'x'

	blob, err = b.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(blob))

	assert.Equal(t, int64(2), b.Gets())
	assert.Equal(t, int64(1), b.Sets())
}

func TestBackend_FailWith(t *testing.T) {
	b := NewBackend()
	ctx := context.Background()
	boom := errors.New("boom")

	b.FailWith(boom)
	_, err := b.GetItem(ctx, "k")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, b.SetItem(ctx, "k", nil), boom)

	b.FailWith(nil)
	_, err = b.GetItem(ctx, "k")
	assert.NoError(t, err)
}

func TestBackend_Close(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Close())

	_, err := b.GetItem(context.Background(), "k")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, b.SetItem(context.Background(), "k", nil), storage.ErrStorageClosed)
}
