package kvstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-redis/redis/v8"

	"hr-go/internal/config"
	"hr-go/internal/hr"
)

// CollectionsDBName is the SQLite file holding the register collections.
const CollectionsDBName = "hr.db"

// NewFromConfig creates a KeyValueStore implementation based on the store config type.
func NewFromConfig(ctx context.Context, cfg config.StoreConfig) (hr.KeyValueStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite store")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		store, err := NewSQLiteStore(filepath.Join(cfg.DataDir, CollectionsDBName))
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres_dsn required for postgres store")
		}
		store, err := NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis_addr required for redis store")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
		}
		return NewRedisStore(client, cfg.RedisPrefix), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
