package cache

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

func NewLocal[T any](expire time.Duration) *Local[T] {
	return &Local[T]{
		expire: expire,
		c:      cache.New(expire, time.Minute*10),
	}
}

// Local is an in-process cache of T values keyed by string.
type Local[T any] struct {
	// m serializes MutexGetSet misses
	m sync.Mutex

	expire time.Duration
	c      *cache.Cache
}

func (c *Local[T]) Get(key string) (T, bool) {
	result, ok := c.c.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	return result.(T), true
}

func (c *Local[T]) Set(key string, value T) {
	c.c.Set(key, value, c.expire)
}

// MutexGetSet returns the cached value of key, or calls valueFunc and caches
// its result if the key is still missing once the mutex is held. Errors are
// not cached.
func (c *Local[T]) MutexGetSet(key string, valueFunc func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	c.m.Lock()
	defer c.m.Unlock()
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	value, err := valueFunc()
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to get value from valueFunc() in MutexGetSet")
		return value, err
	}
	c.Set(key, value)
	return value, nil
}

func (c *Local[T]) Delete(key string) {
	c.c.Delete(key)
}
