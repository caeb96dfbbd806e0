package null_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limccn/omi-cache-manager/internal/core/cache"
	domainerrors "github.com/limccn/omi-cache-manager/internal/domain/errors"
	"github.com/limccn/omi-cache-manager/internal/infrastructure/cache/null"
)

func TestBackend_StoresNothing(t *testing.T) {
	ctx := context.Background()
	b, err := null.New(nil)
	require.NoError(t, err)

	assert.Equal(t, "NullCacheBackend", b.Name())
	assert.Equal(t, "NULLCACHEBACKEND", b.KeyPrefix())
	assert.Nil(t, b.CacheContext())

	ok, err := b.Set(ctx, "foo", "bar")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Add(ctx, cache.P("foo", "bar"))
	require.NoError(t, err)
	assert.True(t, ok)

	v, err := b.Get(ctx, "foo")
	require.NoError(t, err)
	assert.Nil(t, v)

	values, err := b.GetMany(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, []any{nil, nil}, values)

	ok, err = b.Delete(ctx, "foo")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.DeleteMany(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.SetMany(ctx, cache.Kwargs{"a": 1})
	require.NoError(t, err)
	assert.True(t, ok)

	res, err := b.Execute(ctx, "PING")
	require.NoError(t, err)
	assert.Nil(t, res)

	ok, err = b.Clear(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, b.DestroyCacheContext(ctx))
	require.NoError(t, b.CreateCacheContext())
}

func TestBackend_ValidatesArguments(t *testing.T) {
	ctx := context.Background()
	b, err := null.New(map[string]string{cache.KeyPrefix: "N:"})
	require.NoError(t, err)
	assert.Equal(t, "N:k", b.MakeKey("k"))

	_, err = b.Get(ctx)
	assert.True(t, domainerrors.IsArgumentError(err))

	_, err = b.Set(ctx, "only-key")
	assert.True(t, domainerrors.IsArgumentError(err))

	_, err = b.GetMany(ctx)
	assert.True(t, domainerrors.IsArgumentError(err))

	_, err = b.Execute(ctx)
	assert.True(t, domainerrors.IsArgumentError(err))
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := null.New([]string{"x"})
	assert.True(t, domainerrors.IsConfigurationError(err))
}
