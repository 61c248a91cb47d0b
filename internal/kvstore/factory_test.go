package kvstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hr-go/internal/config"
)

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("memory store", func(t *testing.T) {
		got, err := NewFromConfig(ctx, config.StoreConfig{Type: "memory"})
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, got)
	})

	t.Run("sqlite store", func(t *testing.T) {
		got, err := NewFromConfig(ctx, config.StoreConfig{Type: "sqlite", DataDir: t.TempDir()})
		require.NoError(t, err)
		defer got.Close()
		assert.IsType(t, &SQLiteStore{}, got)
	})

	t.Run("redis store", func(t *testing.T) {
		mr := miniredis.RunT(t)
		got, err := NewFromConfig(ctx, config.StoreConfig{Type: "redis", RedisAddr: mr.Addr()})
		require.NoError(t, err)
		defer got.Close()
		assert.IsType(t, &RedisStore{}, got)
	})

	errorCases := []struct {
		name string
		cfg  config.StoreConfig
	}{
		{"sqlite without data dir", config.StoreConfig{Type: "sqlite"}},
		{"postgres without dsn", config.StoreConfig{Type: "postgres"}},
		{"redis without addr", config.StoreConfig{Type: "redis"}},
		{"unknown type", config.StoreConfig{Type: "etcd"}},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFromConfig(ctx, tc.cfg)
			assert.Error(t, err)
		})
	}
}
