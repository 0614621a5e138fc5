package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestInMemoryIdempotencyStore_Remember(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	t.Run("stores a new key", func(t *testing.T) {
		isNew, err := store.Remember(ctx, "k1", "payment-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		value, ok, err := store.Lookup(ctx, "k1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "payment-1", value)
	})

	t.Run("keeps the first value", func(t *testing.T) {
		_, err := store.Remember(ctx, "k2", "first", time.Hour)
		require.NoError(t, err)

		isNew, err := store.Remember(ctx, "k2", "second", time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew)

		value, _, _ := store.Lookup(ctx, "k2")
		assert.Equal(t, "first", value)
	})

	t.Run("expired keys can be reused", func(t *testing.T) {
		_, err := store.Remember(ctx, "k3", "old", 10*time.Millisecond)
		require.NoError(t, err)
		time.Sleep(20 * time.Millisecond)

		_, ok, _ := store.Lookup(ctx, "k3")
		assert.False(t, ok)

		isNew, err := store.Remember(ctx, "k3", "new", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("forget releases the key", func(t *testing.T) {
		_, _ = store.Remember(ctx, "k4", "v", time.Hour)
		require.NoError(t, store.Forget(ctx, "k4"))

		_, ok, _ := store.Lookup(ctx, "k4")
		assert.False(t, ok)
	})
}

func TestInMemoryIdempotencyStore_Concurrent(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			isNew, err := store.Remember(context.Background(), "same", fmt.Sprintf("v%d", i), time.Hour)
			assert.NoError(t, err)
			if isNew {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store := newInMemoryIdempotencyStore(5 * time.Millisecond)
	defer store.Close()

	_, _ = store.Remember(context.Background(), "short", "v", time.Millisecond)
	_, _ = store.Remember(context.Background(), "long", "v", time.Hour)

	assert.Eventually(t, func() bool { return store.Size() == 1 }, time.Second, 5*time.Millisecond)
}

func TestInMemoryIdempotencyStore_CloseTwice(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestFactory_DisabledRedisUsesMemory(t *testing.T) {
	f := NewIdempotencyStoreFactory(config.RedisConfig{Enabled: false}, WithLogger(zaptest.NewLogger(t)))
	store, err := f.CreateStore(context.Background())
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
}

func TestFactory_UnreachableRedis(t *testing.T) {
	cfg := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	store, err := NewIdempotencyStoreFactory(cfg).CreateStore(context.Background())
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &InMemoryIdempotencyStore{}, store)

	_, err = NewIdempotencyStoreFactory(cfg, WithInMemoryFallback(false)).CreateStore(context.Background())
	assert.Error(t, err)
}
