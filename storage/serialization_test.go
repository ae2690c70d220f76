package storage

import (
	"testing"

	"github.com/poiesic/docstore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalStorage(t *testing.T) {
	s := core.NewStorage()
	posts := core.NewNamespaceData()
	posts.Put("p1", core.Record{"id": "p1", "title": "post #1", "comments": []any{"c1", "missingComment"}})
	posts.Put("p0", core.Record{"id": "p0", "title": "post #0"})
	s.SetNamespace("post", posts)

	data, err := MarshalStorage(s)
	require.NoError(t, err)

	decoded, err := UnmarshalStorage(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"post"}, decoded.Names())

	ns, ok := decoded.Namespace("post")
	require.True(t, ok)
	values := ns.Values()
	require.Len(t, values, 2)
	assert.Equal(t, "p1", values[0].ID())
	assert.Equal(t, "p0", values[1].ID())
	assert.Equal(t, []any{"c1", "missingComment"}, values[0]["comments"])
}

func TestUnmarshalStorage_Empty(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"nil data", nil},
		{"empty data", []byte{}},
		{"null", []byte("null")},
		{"empty object", []byte("{}")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := UnmarshalStorage(tt.data)
			require.NoError(t, err)
			assert.Equal(t, 0, s.Len())
		})
	}
}

func TestUnmarshalStorage_Invalid(t *testing.T) {
	_, err := UnmarshalStorage([]byte("{not json"))
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalStorage_Nil(t *testing.T) {
	data, err := MarshalStorage(nil)
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(data))
}

func TestMarshalUnmarshalRecord(t *testing.T) {
	record := core.Record{"id": "l1", "name": "one", "b": true, "day": 24.0, "items": []any{"i1", "i2"}}

	data, err := MarshalRecord(record)
	require.NoError(t, err)

	decoded, err := UnmarshalRecord(data)
	require.NoError(t, err)
	assert.Equal(t, record, decoded)

	_, err = UnmarshalRecord([]byte("[1,2]"))
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
