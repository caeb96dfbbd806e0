// Package null provides a cache backend that stores nothing.
package null

import (
	"context"

	"github.com/limccn/omi-cache-manager/internal/core/cache"
)

// Backend accepts every verb and keeps nothing: reads miss, writes succeed.
// Arguments are still validated so callers see the same errors as with a real backend.
type Backend struct {
	prefix string
}

var (
	_ cache.Backend     = (*Backend)(nil)
	_ cache.Synchronous = (*Backend)(nil)
)

// New creates a null backend. config may be nil or a mapping.
func New(config any) (*Backend, error) {
	cfg, err := cache.ParseConfig(config)
	if err != nil {
		return nil, err
	}
	r := cfg.Reader()
	b := &Backend{prefix: r.String(cache.KeyPrefix, cache.TypeNull.DefaultPrefix())}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backend) Name() string           { return string(cache.TypeNull) }
func (b *Backend) KeyPrefix() string      { return b.prefix }
func (b *Backend) MakeKey(key any) string { return cache.MakeKey(b.prefix, key) }
func (b *Backend) Synchronous() bool      { return true }

// CacheContext always returns nil: there is no resource to own.
func (b *Backend) CacheContext() cache.Context { return nil }

func (b *Backend) CreateCacheContext() error { return nil }

func (b *Backend) DestroyCacheContext(context.Context) error { return nil }

func (b *Backend) Get(_ context.Context, args ...any) (any, error) {
	_, err := cache.ResolveKey("get", cache.NewCall(args...))
	return nil, err
}

func (b *Backend) Set(_ context.Context, args ...any) (bool, error) {
	if _, err := cache.ResolveSet("set", cache.NewCall(args...)); err != nil {
		return false, err
	}
	return true, nil
}

func (b *Backend) Add(_ context.Context, args ...any) (bool, error) {
	if _, err := cache.ResolveSet("add", cache.NewCall(args...)); err != nil {
		return false, err
	}
	return true, nil
}

// Delete reports true like every other write of this backend.
func (b *Backend) Delete(_ context.Context, args ...any) (bool, error) {
	if _, err := cache.ResolveKey("delete", cache.NewCall(args...)); err != nil {
		return false, err
	}
	return true, nil
}

func (b *Backend) DeleteMany(_ context.Context, keys ...any) (bool, error) {
	if _, err := cache.ResolveKeys("delete_many", cache.NewCall(keys...)); err != nil {
		return false, err
	}
	return true, nil
}

// GetMany returns one nil per requested key.
func (b *Backend) GetMany(_ context.Context, keys ...any) ([]any, error) {
	resolved, err := cache.ResolveKeys("get_many", cache.NewCall(keys...))
	if err != nil {
		return nil, err
	}
	return make([]any, len(resolved)), nil
}

func (b *Backend) SetMany(_ context.Context, args ...any) (bool, error) {
	if _, err := cache.ResolvePairs("set_many", cache.NewCall(args...)); err != nil {
		return false, err
	}
	return true, nil
}

func (b *Backend) Execute(_ context.Context, args ...any) (any, error) {
	if _, _, err := cache.ResolveCommand(cache.NewCall(args...)); err != nil {
		return nil, err
	}
	return nil, nil
}

func (b *Backend) Clear(context.Context) (bool, error) { return true, nil }
