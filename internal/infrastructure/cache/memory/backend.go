// Package memory provides the in-process map cache backend.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/limccn/omi-cache-manager/internal/core/cache"
	domainerrors "github.com/limccn/omi-cache-manager/internal/domain/errors"
)

// Backend implements cache.Backend over a map guarded by a read-write mutex.
type Backend struct {
	prefix string
	now    func() time.Time

	mu       sync.RWMutex
	cacheCtx *dictContext
}

var (
	_ cache.Backend     = (*Backend)(nil)
	_ cache.Synchronous = (*Backend)(nil)
)

// Option configures a Backend.
type Option func(*Backend)

// WithClock replaces the clock used for expiry.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// New creates an in-memory backend. config may be nil or a mapping; only CACHE_KEY_PREFIX
// is read.
func New(config any, opts ...Option) (*Backend, error) {
	cfg, err := cache.ParseConfig(config)
	if err != nil {
		return nil, err
	}
	r := cfg.Reader()
	b := &Backend{
		prefix: r.String(cache.KeyPrefix, cache.TypeSimple.DefaultPrefix()),
		now:    time.Now,
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := b.CreateCacheContext(); err != nil {
		return nil, err
	}
	return b, nil
}

// Name implements cache.Backend.
func (b *Backend) Name() string { return string(cache.TypeSimple) }

// KeyPrefix implements cache.Backend.
func (b *Backend) KeyPrefix() string { return b.prefix }

// MakeKey implements cache.Backend.
func (b *Backend) MakeKey(key any) string { return cache.MakeKey(b.prefix, key) }

// Synchronous implements cache.Synchronous.
func (b *Backend) Synchronous() bool { return true }

// CacheContext implements cache.Backend.
func (b *Backend) CacheContext() cache.Context {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.cacheCtx == nil {
		return nil
	}
	return b.cacheCtx
}

// CreateCacheContext implements cache.Backend.
func (b *Backend) CreateCacheContext() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cacheCtx == nil {
		b.cacheCtx = newDictContext(b.now)
	}
	return nil
}

// DestroyCacheContext implements cache.Backend.
func (b *Backend) DestroyCacheContext(ctx context.Context) error {
	b.mu.Lock()
	cc := b.cacheCtx
	b.cacheCtx = nil
	b.mu.Unlock()
	if cc == nil {
		return nil
	}
	return cc.Destroy(ctx)
}

// withStore runs fn with the acquired map. key names the operation target in errors.
func (b *Backend) withStore(ctx context.Context, key string, fn func(s *store) error) error {
	b.mu.RLock()
	cc := b.cacheCtx
	b.mu.RUnlock()
	if cc == nil {
		return domainerrors.NewKeyError(key, cache.ErrContextDestroyed)
	}
	s, release, err := cc.Acquire(ctx)
	if err != nil {
		return domainerrors.NewKeyError(key, err)
	}
	defer release()
	return fn(s)
}

// Get implements cache.Backend.
func (b *Backend) Get(ctx context.Context, args ...any) (any, error) {
	arg, err := cache.ResolveKey("get", cache.NewCall(args...))
	if err != nil {
		return nil, err
	}
	key := b.MakeKey(arg.Key)
	var value any
	err = b.withStore(ctx, key, func(s *store) error {
		value, _ = s.get(key)
		return nil
	})
	return value, err
}

// Set implements cache.Backend.
func (b *Backend) Set(ctx context.Context, args ...any) (bool, error) {
	cmd, err := cache.ResolveSet("set", cache.NewCall(args...))
	if err != nil {
		return false, err
	}
	return b.set(ctx, cmd)
}

func (b *Backend) set(ctx context.Context, cmd cache.SetCommand) (bool, error) {
	key := b.MakeKey(cmd.Key)
	var ok bool
	err := b.withStore(ctx, key, func(s *store) error {
		ok = s.set(key, cmd.Value, cmd.Options)
		return nil
	})
	return ok, err
}

// Add implements cache.Backend.
func (b *Backend) Add(ctx context.Context, args ...any) (bool, error) {
	cmd, err := cache.ResolveSet("add", cache.NewCall(args...))
	if err != nil {
		return false, err
	}
	cmd.Options.Exist = cache.SetIfNotExist
	return b.set(ctx, cmd)
}

// Delete implements cache.Backend.
func (b *Backend) Delete(ctx context.Context, args ...any) (bool, error) {
	arg, err := cache.ResolveKey("delete", cache.NewCall(args...))
	if err != nil {
		return false, err
	}
	key := b.MakeKey(arg.Key)
	var removed int
	err = b.withStore(ctx, key, func(s *store) error {
		removed = s.delete(key)
		return nil
	})
	return removed > 0, err
}

// DeleteMany implements cache.Backend.
func (b *Backend) DeleteMany(ctx context.Context, keys ...any) (bool, error) {
	resolved, err := cache.ResolveKeys("delete_many", cache.NewCall(keys...))
	if err != nil {
		return false, err
	}
	physical := b.makeKeys(resolved)
	var removed int
	err = b.withStore(ctx, physical[0], func(s *store) error {
		removed = s.delete(physical...)
		return nil
	})
	return removed > 0, err
}

// GetMany implements cache.Backend.
func (b *Backend) GetMany(ctx context.Context, keys ...any) ([]any, error) {
	resolved, err := cache.ResolveKeys("get_many", cache.NewCall(keys...))
	if err != nil {
		return nil, err
	}
	physical := b.makeKeys(resolved)
	values := make([]any, len(physical))
	err = b.withStore(ctx, physical[0], func(s *store) error {
		for i, key := range physical {
			values[i], _ = s.get(key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// SetMany implements cache.Backend.
func (b *Backend) SetMany(ctx context.Context, args ...any) (bool, error) {
	pairs, err := cache.ResolvePairs("set_many", cache.NewCall(args...))
	if err != nil {
		return false, err
	}
	err = b.withStore(ctx, b.MakeKey(pairs[0].Key), func(s *store) error {
		s.setMany(pairs, b.MakeKey)
		return nil
	})
	return err == nil, err
}

// Execute implements cache.Backend. Besides the typed redirects it understands PING, DBSIZE,
// FLUSHDB and TIME; any other command is a command error.
func (b *Backend) Execute(ctx context.Context, args ...any) (any, error) {
	return cache.Dispatch(ctx, b, args, b.raw)
}

func (b *Backend) raw(ctx context.Context, name string, _ cache.Call) (any, error) {
	switch name {
	case "ping":
		return "PONG", nil
	case "dbsize":
		var n int
		err := b.withStore(ctx, b.MakeKey("*"), func(s *store) error {
			n = s.count(b.prefix)
			return nil
		})
		return int64(n), err
	case "flushdb":
		if _, err := b.Clear(ctx); err != nil {
			return nil, err
		}
		return "OK", nil
	case "time":
		now := b.now()
		return []any{strconv.FormatInt(now.Unix(), 10), strconv.Itoa(now.Nanosecond() / 1000)}, nil
	default:
		return nil, domainerrors.NewCommandError(name, errors.Newf("unimplemented command %s", name))
	}
}

// Clear implements cache.Backend.
func (b *Backend) Clear(ctx context.Context) (bool, error) {
	err := b.withStore(ctx, b.MakeKey("*"), func(s *store) error {
		s.clear(b.prefix)
		return nil
	})
	return err == nil, err
}

func (b *Backend) makeKeys(keys []any) []string {
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = b.MakeKey(key)
	}
	return out
}
