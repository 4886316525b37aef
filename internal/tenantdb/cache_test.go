package tenantdb

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type tenantWidget struct {
	ID    int64  `gorm:"primaryKey"`
	Label string `gorm:"type:text"`
}

func newTestCache(t *testing.T) (*Cache, *atomic.Int32) {
	t.Helper()

	registry := NewRegistry()
	require.NoError(t, registry.Register(&tenantWidget{}))

	prefix := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	var opens atomic.Int32
	factory := func(name string) gorm.Dialector {
		opens.Add(1)
		return sqlite.Open(fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", prefix, name))
	}

	cache := NewCache(factory, registry, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = cache.EvictAll() })
	return cache, &opens
}

func TestAcquireConcurrentFirstTimeSingleFlight(t *testing.T) {
	cache, opens := newTestCache(t)

	const callers = 16
	conns := make([]*gorm.DB, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			conn, err := cache.Acquire(context.Background(), "acme")
			assert.NoError(t, err)
			conns[slot] = conn
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		assert.Same(t, conns[0], conns[i], "caller %d got a different connection", i)
	}
	assert.Equal(t, int32(1), opens.Load(), "expected exactly one connection setup")
}

func TestAcquireSequentialIsIdempotent(t *testing.T) {
	cache, opens := newTestCache(t)

	first, err := cache.Acquire(context.Background(), "acme")
	require.NoError(t, err)

	second, err := cache.Acquire(context.Background(), "acme")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), opens.Load())
}

func TestAcquireNormalizesTenantID(t *testing.T) {
	cache, opens := newTestCache(t)

	upper, err := cache.Acquire(context.Background(), "  ACME ")
	require.NoError(t, err)

	lower, err := cache.Acquire(context.Background(), "acme")
	require.NoError(t, err)

	assert.Same(t, upper, lower)
	assert.Equal(t, int32(1), opens.Load())
}

func TestAcquireTenantsAreIsolated(t *testing.T) {
	cache, _ := newTestCache(t)

	first, err := cache.Acquire(context.Background(), "alpha")
	require.NoError(t, err)
	second, err := cache.Acquire(context.Background(), "beta")
	require.NoError(t, err)

	require.NoError(t, first.Create(&tenantWidget{ID: 1, Label: "only-alpha"}).Error)

	var count int64
	require.NoError(t, second.Model(&tenantWidget{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAcquireRunsMigrations(t *testing.T) {
	cache, _ := newTestCache(t)

	conn, err := cache.Acquire(context.Background(), "acme")
	require.NoError(t, err)

	assert.True(t, conn.Migrator().HasTable(&tenantWidget{}))
}

func TestAcquireEmptyTenantID(t *testing.T) {
	cache, _ := newTestCache(t)

	_, err := cache.Acquire(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyTenantID)
}

func TestEvictRemovesEntry(t *testing.T) {
	cache, opens := newTestCache(t)

	_, err := cache.Acquire(context.Background(), "acme")
	require.NoError(t, err)
	require.True(t, cache.Has("acme"))

	require.NoError(t, cache.Evict("ACME"))
	assert.False(t, cache.Has("acme"))

	// Unknown tenant eviction is a no-op.
	assert.NoError(t, cache.Evict("acme"))

	_, err = cache.Acquire(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, int32(2), opens.Load(), "re-acquire after evict sets up a fresh connection")
}

func TestEvictAllClearsCache(t *testing.T) {
	cache, _ := newTestCache(t)

	for _, tenant := range []string{"alpha", "beta", "gamma"} {
		_, err := cache.Acquire(context.Background(), tenant)
		require.NoError(t, err)
	}

	require.NoError(t, cache.EvictAll())
	assert.False(t, cache.Has("alpha"))
	assert.False(t, cache.Has("beta"))
	assert.False(t, cache.Has("gamma"))
}

func TestRegistryFreezesOnFirstAcquire(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(&tenantWidget{}))

	cache := NewCache(func(name string) gorm.Dialector {
		return sqlite.Open(fmt.Sprintf("file:freeze_%s?mode=memory&cache=shared", name))
	}, registry, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = cache.EvictAll() })

	_, err := cache.Acquire(context.Background(), "acme")
	require.NoError(t, err)

	assert.ErrorIs(t, registry.Register(&tenantWidget{}), ErrRegistryFrozen)
}
