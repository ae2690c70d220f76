package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/docstore/cache"
	"github.com/poiesic/docstore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultNamespace, cfg.Namespace)
	assert.Equal(t, cache.ModeModel, cfg.Caching)
	assert.True(t, cfg.CoalesceFindRequests)
	assert.Equal(t, 8, cfg.MaxDepth)
	assert.GreaterOrEqual(t, cfg.PoolSize, 1)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(
		WithNamespace("app"),
		WithCaching(cache.ModeAll),
		WithCoalesceFindRequests(false),
		WithMaxDepth(3),
		WithWorkers(2),
	)
	assert.Equal(t, "app", cfg.Namespace)
	assert.Equal(t, cache.ModeAll, cfg.Caching)
	assert.False(t, cfg.CoalesceFindRequests)
	assert.Equal(t, 3, cfg.MaxDepth)
	assert.Equal(t, 2, cfg.PoolSize)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		opt  ConfigOption
	}{
		{name: "empty namespace", opt: WithNamespace(" ")},
		{name: "unknown caching", opt: WithCaching("sometimes")},
		{name: "zero depth", opt: WithMaxDepth(0)},
		{name: "zero workers", opt: WithWorkers(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, NewConfig(tt.opt).Validate(), ErrInvalidConfig)
		})
	}

	t.Run("empty caching means model", func(t *testing.T) {
		cfg := NewConfig(WithCaching(""))
		require.NoError(t, cfg.Validate())
		assert.Equal(t, cache.ModeModel, cfg.Caching)
	})
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "docstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("namespace: app\ncaching: all\nmax_depth: 4\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "app", cfg.Namespace)
	assert.Equal(t, cache.ModeAll, cfg.Caching)
	assert.Equal(t, 4, cfg.MaxDepth)
	assert.True(t, cfg.CoalesceFindRequests, "unset fields keep defaults")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("caching: [model]\n"), 0o644))
	_, err = LoadConfig(bad)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("caching: sometimes\n"), 0o644))
	_, err = LoadConfig(invalid)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestJSONSerializer(t *testing.T) {
	model := &core.Model{Name: "hour"}
	snapshot := core.Snapshot{
		ID: "h9",
		Attributes: map[string]any{
			"amount": 7,
			"tags":   []string{"a", "b"},
			"meta":   map[string]int{"n": 1},
		},
	}

	record, err := JSONSerializer{}.Serialize(model, snapshot, true)
	require.NoError(t, err)
	assert.Equal(t, core.Record{
		"id":     "h9",
		"amount": 7.0,
		"tags":   []any{"a", "b"},
		"meta":   map[string]any{"n": 1.0},
	}, record)

	record, err = JSONSerializer{}.Serialize(model, snapshot, false)
	require.NoError(t, err)
	_, hasID := record["id"]
	assert.False(t, hasID)

	_, err = JSONSerializer{}.Serialize(model, core.Snapshot{Attributes: map[string]any{"bad": make(chan int)}}, true)
	assert.Error(t, err)
}
