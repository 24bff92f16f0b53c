// Package cache holds the in-process and Redis backed caches.
package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"
)

var ErrNotFound = errors.New("cache: key not found")

func NewSet[T any](client *redis.Client, prefix string) *Set[T] {
	return &Set[T]{
		client: client,
		prefix: prefix + ":",
	}
}

// Set stores msgpack encoded values of T in Redis under a common prefix.
type Set[T any] struct {
	client *redis.Client
	prefix string
}

func (c *Set[T]) key(key string) string {
	return c.prefix + key
}

func (c *Set[T]) Get(ctx context.Context, key string) (*T, error) {
	key = c.key(key)
	resp, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	} else if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to get value from redis")
		return nil, err
	}

	var dest T
	if err := msgpack.Unmarshal(resp, &dest); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to unmarshal value from msgpack from redis")
		return nil, err
	}
	return &dest, nil
}

func (c *Set[T]) Set(ctx context.Context, key string, value *T, expire time.Duration) error {
	key = c.key(key)
	if l := log.Trace(); l.Enabled() {
		l.Str("key", key).Msg("setting value to redis")
	}
	b, err := msgpack.Marshal(value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to marshal value with msgpack")
		return err
	}
	if err := c.client.Set(ctx, key, b, expire).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to set value to redis")
		return err
	}
	return nil
}

// SetNX stores value only if the key does not exist yet. It reports whether
// the value was stored.
func (c *Set[T]) SetNX(ctx context.Context, key string, value *T, expire time.Duration) (bool, error) {
	b, err := msgpack.Marshal(value)
	if err != nil {
		return false, err
	}
	return c.client.SetNX(ctx, c.key(key), b, expire).Result()
}

func (c *Set[T]) Delete(ctx context.Context, key string) error {
	key = c.key(key)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to delete value from redis")
		return err
	}
	return nil
}
