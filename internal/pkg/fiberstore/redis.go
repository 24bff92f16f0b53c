// Package fiberstore implements fiber.Storage on top of redis, so the
// idempotency middleware can share its responses across instances.
package fiberstore

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type Redis struct {
	Client *redis.Client
	Prefix string
}

// Redis implements fiber.Storage
var _ fiber.Storage = (*Redis)(nil)

func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{
		Client: client,
		Prefix: prefix,
	}
}

func (r *Redis) key(k string) string {
	return r.Prefix + k
}

// Close implements fiber.Storage. The client is shared and stays open.
func (r *Redis) Close() error {
	return nil
}

// Delete implements fiber.Storage
func (r *Redis) Delete(key string) error {
	return r.Client.Del(context.Background(), r.key(key)).Err()
}

// Get implements fiber.Storage. Missing keys return nil without an error.
func (r *Redis) Get(key string) ([]byte, error) {
	val, err := r.Client.Get(context.Background(), r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

// Reset implements fiber.Storage
func (r *Redis) Reset() error {
	ctx := context.Background()
	iter := r.Client.Scan(ctx, 0, r.key("*"), 100).Iterator()
	for iter.Next(ctx) {
		if err := r.Client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Set implements fiber.Storage
func (r *Redis) Set(key string, val []byte, exp time.Duration) error {
	return r.Client.Set(context.Background(), r.key(key), val, exp).Err()
}
