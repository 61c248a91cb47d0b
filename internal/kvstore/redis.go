package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"hr-go/internal/hr"
)

var _ hr.KeyValueStore = (*RedisStore)(nil)

// DefaultRedisPrefix namespaces the register keys.
const DefaultRedisPrefix = "hr:"

// RedisStore keeps each collection as a string value under <prefix><collection>.
// Values never expire.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(collection string) string {
	return r.prefix + collection
}

func (r *RedisStore) Get(ctx context.Context, collection string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key(collection)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading collection %s: %w", collection, err)
	}
	return val, nil
}

func (r *RedisStore) Set(ctx context.Context, collection string, data []byte) error {
	if err := r.client.Set(ctx, r.key(collection), data, 0).Err(); err != nil {
		return fmt.Errorf("writing collection %s: %w", collection, err)
	}
	return nil
}

func (r *RedisStore) Remove(ctx context.Context, collection string) error {
	if err := r.client.Del(ctx, r.key(collection)).Err(); err != nil {
		return fmt.Errorf("removing collection %s: %w", collection, err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
