package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limccn/omi-cache-manager/internal/core/cache"
	domainerrors "github.com/limccn/omi-cache-manager/internal/domain/errors"
	"github.com/limccn/omi-cache-manager/internal/infrastructure/cache/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newBackend(t *testing.T, config any) (*memory.Backend, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	b, err := memory.New(config, memory.WithClock(clock.Now))
	require.NoError(t, err)
	return b, clock
}

func TestNew_Defaults(t *testing.T) {
	b, _ := newBackend(t, nil)

	assert.Equal(t, "SimpleCacheBackend", b.Name())
	assert.Equal(t, "SIMPLECACHEBACKEND", b.KeyPrefix())
	assert.Equal(t, "SIMPLECACHEBACKENDfoo", b.MakeKey("foo"))
	assert.True(t, b.Synchronous())
	require.NotNil(t, b.CacheContext())
	assert.False(t, b.CacheContext().Active(), "map is created on first use")
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := memory.New("not a mapping")
	assert.True(t, domainerrors.IsConfigurationError(err))

	_, err = memory.New(map[string]any{cache.KeyPrefix: []int{1}})
	assert.True(t, domainerrors.IsConfigurationError(err))
}

func TestBackend_SetGet(t *testing.T) {
	ctx := context.Background()
	b, _ := newBackend(t, map[string]any{cache.KeyPrefix: "T:"})

	ok, err := b.Set(ctx, "foo", "bar")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, b.CacheContext().Active())

	v, err := b.Get(ctx, "foo")
	require.NoError(t, err)
	assert.Equal(t, "bar", v)

	v, err = b.Get(ctx, cache.Key("foo"))
	require.NoError(t, err)
	assert.Equal(t, "bar", v)

	v, err = b.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestBackend_SetShapesAreEquivalent(t *testing.T) {
	ctx := context.Background()
	b, _ := newBackend(t, nil)

	_, err := b.Set(ctx, cache.Kwargs{"a": 1})
	require.NoError(t, err)
	_, err = b.Set(ctx, cache.P("b", 2))
	require.NoError(t, err)
	_, err = b.Set(ctx, "c", 3)
	require.NoError(t, err)

	values, err := b.GetMany(ctx, "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3}, values)
}

func TestBackend_ExistenceConditions(t *testing.T) {
	ctx := context.Background()
	b, _ := newBackend(t, nil)

	ok, err := b.Set(ctx, "k", "v1", cache.Exist(cache.SetIfExist))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = b.Add(ctx, "k", "v1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Add(ctx, "k", "v2")
	require.NoError(t, err)
	assert.False(t, ok, "add on an existing key")

	ok, err = b.Set(ctx, "k", "v3", cache.Exist(cache.SetIfExist))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Set(ctx, "k", "v4", cache.Exist(cache.SetIfNotExist))
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v3", v)
}

func TestBackend_Expiry(t *testing.T) {
	ctx := context.Background()
	b, clock := newBackend(t, nil)

	_, err := b.Set(ctx, "short", "v", cache.PExpire(500))
	require.NoError(t, err)
	_, err = b.Set(ctx, "long", "v", cache.Expire(10))
	require.NoError(t, err)

	clock.Advance(time.Second)

	v, err := b.Get(ctx, "short")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = b.Get(ctx, "long")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	ok, err := b.Add(ctx, "short", "again")
	require.NoError(t, err)
	assert.True(t, ok, "an expired key counts as absent")
}

func TestBackend_ExpiryOutOfRange(t *testing.T) {
	ctx := context.Background()
	b, _ := newBackend(t, nil)

	ok, err := b.Set(ctx, "k", "v", cache.Expire(1e10))
	assert.True(t, domainerrors.IsArgumentError(err), "got %v", err)
	assert.False(t, ok)

	v, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v, "nothing is stored without a usable expiry")
}

func TestBackend_Delete(t *testing.T) {
	ctx := context.Background()
	b, _ := newBackend(t, nil)

	_, err := b.Set(ctx, "k", "v")
	require.NoError(t, err)

	ok, err := b.Delete(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Delete(ctx, cache.Key("k"))
	require.NoError(t, err)
	assert.False(t, ok, "delete of a missing key")
}

func TestBackend_DeleteMany(t *testing.T) {
	ctx := context.Background()
	b, _ := newBackend(t, nil)

	_, err := b.SetMany(ctx, cache.P("a", 1), cache.P("b", 2))
	require.NoError(t, err)

	ok, err := b.DeleteMany(ctx, "a", "zz")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.DeleteMany(ctx, "a", "zz")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = b.DeleteMany(ctx)
	assert.True(t, domainerrors.IsArgumentError(err))
}

func TestBackend_SetManyLaterWins(t *testing.T) {
	ctx := context.Background()
	b, _ := newBackend(t, nil)

	ok, err := b.SetMany(ctx, cache.P("a", 1), cache.Kwargs{"a": 2, "b": 3})
	require.NoError(t, err)
	assert.True(t, ok)

	values, err := b.GetMany(ctx, "b", "a", "c")
	require.NoError(t, err)
	assert.Equal(t, []any{3, 2, nil}, values)
}

func TestBackend_ArgumentErrors(t *testing.T) {
	ctx := context.Background()
	b, _ := newBackend(t, nil)

	_, err := b.Get(ctx)
	assert.True(t, domainerrors.IsArgumentError(err))

	_, err = b.Get(ctx, "a", "b")
	assert.True(t, domainerrors.IsArgumentError(err))

	_, err = b.Set(ctx, "a")
	assert.True(t, domainerrors.IsArgumentError(err))

	_, err = b.GetMany(ctx, cache.Key("a"))
	assert.True(t, domainerrors.IsArgumentError(err))

	_, err = b.SetMany(ctx)
	assert.True(t, domainerrors.IsArgumentError(err))
}

func TestBackend_Execute(t *testing.T) {
	ctx := context.Background()
	b, _ := newBackend(t, nil)

	res, err := b.Execute(ctx, "PING")
	require.NoError(t, err)
	assert.Equal(t, "PONG", res)

	_, err = b.Execute(ctx, "set", "foo", "bar")
	require.NoError(t, err)

	res, err = b.Execute(ctx, "GET", "foo")
	require.NoError(t, err)
	assert.Equal(t, "bar", res)

	res, err = b.Execute(ctx, "dbsize")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res)

	res, err = b.Execute(ctx, "time")
	require.NoError(t, err)
	assert.Equal(t, []any{"1704067200", "0"}, res)

	res, err = b.Execute(ctx, "FLUSHDB")
	require.NoError(t, err)
	assert.Equal(t, "OK", res)

	res, err = b.Execute(ctx, "get", "foo")
	require.NoError(t, err)
	assert.Nil(t, res)

	_, err = b.Execute(ctx, "incr", "counter")
	assert.True(t, domainerrors.IsCommandError(err))

	_, err = b.Execute(ctx)
	assert.True(t, domainerrors.IsArgumentError(err))
}

func TestBackend_Clear(t *testing.T) {
	ctx := context.Background()
	b, _ := newBackend(t, map[string]any{cache.KeyPrefix: "A:"})

	_, err := b.SetMany(ctx, cache.P("x", 1), cache.P("y", 2))
	require.NoError(t, err)

	ok, err := b.Clear(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Clear(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "clear is idempotent")

	values, err := b.GetMany(ctx, "x", "y")
	require.NoError(t, err)
	assert.Equal(t, []any{nil, nil}, values)
}

func TestBackend_ContextLifecycle(t *testing.T) {
	ctx := context.Background()
	b, _ := newBackend(t, nil)

	_, err := b.Set(ctx, "k", "v")
	require.NoError(t, err)

	require.NoError(t, b.DestroyCacheContext(ctx))
	require.NoError(t, b.DestroyCacheContext(ctx), "destroy twice is a no-op")
	assert.Nil(t, b.CacheContext())

	_, err = b.Get(ctx, "k")
	assert.True(t, domainerrors.IsKeyError(err))
	assert.True(t, errors.Is(err, cache.ErrContextDestroyed))

	require.NoError(t, b.CreateCacheContext())
	v, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v, "a recreated context starts empty")
}

func TestBackend_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	b, _ := newBackend(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, err := b.Set(ctx, i, j)
				assert.NoError(t, err)
				_, err = b.Get(ctx, i)
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 16; i++ {
		v, err := b.Get(ctx, i)
		require.NoError(t, err)
		assert.Equal(t, 49, v)
	}
}
