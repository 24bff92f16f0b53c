package cache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalMutexGetSet(t *testing.T) {
	c := NewLocal[int](time.Minute)

	var calls atomic.Int32
	valueFunc := func() (int, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return 42, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.MutexGetSet("summary", valueFunc)
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())

	c.Delete("summary")
	_, ok := c.Get("summary")
	assert.False(t, ok)
}

func TestLocalMutexGetSetErrorIsNotCached(t *testing.T) {
	c := NewLocal[string](time.Minute)

	_, err := c.MutexGetSet("k", func() (string, error) { return "", errors.New("db down") })
	require.Error(t, err)

	v, err := c.MutexGetSet("k", func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestLocalExpiry(t *testing.T) {
	c := NewLocal[int](20 * time.Millisecond)
	c.Set("k", 1)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	time.Sleep(40 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
}
