package kvstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore records every write that reaches the backend.
type countingStore struct {
	*MemoryStore
	mu     sync.Mutex
	writes map[string][]string
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: NewMemoryStore(), writes: make(map[string][]string)}
}

func (c *countingStore) Put(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	c.writes[key] = append(c.writes[key], string(value))
	c.mu.Unlock()
	return c.MemoryStore.Put(ctx, key, value)
}

func (c *countingStore) writesOf(key string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.writes[key]...)
}

func TestDebouncedWriterCoalescesBursts(t *testing.T) {
	ctx := context.Background()
	backend := newCountingStore()
	w := NewDebouncedWriter(backend, 50*time.Millisecond)

	for i := 1; i <= 5; i++ {
		require.NoError(t, w.Put(ctx, "k", []byte(fmt.Sprint(i))))
	}

	// the first write goes straight through, the rest are parked
	assert.Equal(t, []string{"1"}, backend.writesOf("k"))
	got, err := w.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "5", string(got))

	assert.Eventually(t, func() bool {
		writes := backend.writesOf("k")
		return len(writes) == 2 && writes[1] == "5"
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, w.Pending())
}

func TestDebouncedWriterKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	backend := newCountingStore()
	w := NewDebouncedWriter(backend, time.Hour)

	require.NoError(t, w.Put(ctx, "a", []byte("1")))
	require.NoError(t, w.Put(ctx, "b", []byte("1")))
	assert.Len(t, backend.writesOf("a"), 1)
	assert.Len(t, backend.writesOf("b"), 1)
}

func TestDebouncedWriterFlush(t *testing.T) {
	ctx := context.Background()
	backend := newCountingStore()
	w := NewDebouncedWriter(backend, time.Hour)

	require.NoError(t, w.Put(ctx, "a", []byte("1")))
	require.NoError(t, w.Put(ctx, "a", []byte("2")))
	require.NoError(t, w.Put(ctx, "a", []byte("3")))
	assert.Equal(t, 1, w.Pending())

	require.NoError(t, w.Flush(ctx))
	assert.Equal(t, []string{"1", "3"}, backend.writesOf("a"))
	assert.Zero(t, w.Pending())

	got, err := backend.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "3", string(got))
}

func TestDebouncedWriterDeleteDropsParkedValue(t *testing.T) {
	ctx := context.Background()
	backend := newCountingStore()
	w := NewDebouncedWriter(backend, time.Hour)

	require.NoError(t, w.Put(ctx, "a", []byte("1")))
	require.NoError(t, w.Put(ctx, "a", []byte("2")))
	require.NoError(t, w.Delete(ctx, "a"))

	_, err := w.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, w.Flush(ctx))
	assert.Equal(t, []string{"1"}, backend.writesOf("a"))
}

func TestDebouncedWriterConcurrentPuts(t *testing.T) {
	ctx := context.Background()
	backend := newCountingStore()
	w := NewDebouncedWriter(backend, 10*time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = w.Put(ctx, "k", []byte(fmt.Sprint(i)))
		}(i)
	}
	wg.Wait()
	require.NoError(t, w.Flush(ctx))

	last, err := w.Get(ctx, "k")
	require.NoError(t, err)
	stored, err := backend.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, string(last), string(stored))
	assert.LessOrEqual(t, len(backend.writesOf("k")), 20)
}
