// Package redis provides the Redis cache backend over go-redis, with a pooled and a
// single-connection context.
package redis

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"

	"github.com/limccn/omi-cache-manager/internal/core/cache"
	domainerrors "github.com/limccn/omi-cache-manager/internal/domain/errors"
)

const scanCount = 100

// Backend implements cache.Backend for Redis.
type Backend struct {
	typ    cache.Type
	opts   Options
	prefix string
	codec  cache.Codec

	mu       sync.RWMutex
	cacheCtx connContext
}

var _ cache.Backend = (*Backend)(nil)

// New creates a Redis backend with the given profile's defaults. The context is created
// eagerly; the client inside it is created on first use.
func New(config any, profile Profile) (*Backend, error) {
	cfg, err := cache.ParseConfig(config)
	if err != nil {
		return nil, err
	}
	opts, err := LoadOptions(cfg, profile.Defaults)
	if err != nil {
		return nil, err
	}
	r := cfg.Reader()
	prefix := r.String(cache.KeyPrefix, profile.Type.DefaultPrefix())
	if err := r.Err(); err != nil {
		return nil, err
	}
	codec, err := cache.NewCodec(opts.Serializer, opts.DecodeResponses)
	if err != nil {
		return nil, domainerrors.NewConfigurationError("invalid redis configuration", err.Error())
	}

	b := &Backend{
		typ:    profile.Type,
		opts:   opts,
		prefix: prefix,
		codec:  codec,
	}
	if err := b.CreateCacheContext(); err != nil {
		return nil, err
	}
	return b, nil
}

// NewAIORedis creates a backend with the AIORedis profile.
func NewAIORedis(config any) (*Backend, error) {
	return New(config, AIORedis)
}

// NewARedis creates a backend with the ARedis profile.
func NewARedis(config any) (*Backend, error) {
	return New(config, ARedis)
}

// Name implements cache.Backend.
func (b *Backend) Name() string { return string(b.typ) }

// KeyPrefix implements cache.Backend.
func (b *Backend) KeyPrefix() string { return b.prefix }

// MakeKey implements cache.Backend.
func (b *Backend) MakeKey(key any) string { return cache.MakeKey(b.prefix, key) }

// Options returns the resolved connection options.
func (b *Backend) Options() Options { return b.opts }

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
	if b.cacheCtx != nil {
		return nil
	}
	if b.opts.UsePool {
		b.cacheCtx = newPoolContext(b.opts)
	} else {
		b.cacheCtx = newSingleContext(b.opts)
	}
	return nil
}

// DestroyCacheContext implements cache.Backend. It must be called before the process exits
// when the pooled context is in use, otherwise connections leak.
func (b *Backend) DestroyCacheContext(ctx context.Context) error {
	b.mu.Lock()
	cc := b.cacheCtx
	b.cacheCtx = nil
	b.mu.Unlock()
	if cc == nil {
		return nil
	}
	if err := cc.Destroy(ctx); err != nil {
		return errors.Wrap(err, "failed to destroy redis context")
	}
	return nil
}

// with runs fn inside one acquisition scope. The scope is released on every exit path.
func (b *Backend) with(ctx context.Context, fn func(client redis.UniversalClient) error) error {
	b.mu.RLock()
	cc := b.cacheCtx
	b.mu.RUnlock()
	if cc == nil {
		return cache.ErrContextDestroyed
	}
	client, release, err := cc.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(client)
}

// storeError turns a reply error from the server into a command error.
func storeError(op string, err error) error {
	var replyErr redis.Error
	if errors.As(err, &replyErr) {
		return domainerrors.NewCommandError(op, err)
	}
	return errors.Wrapf(err, "redis %s", op)
}

// Get implements cache.Backend.
func (b *Backend) Get(ctx context.Context, args ...any) (any, error) {
	arg, err := cache.ResolveKey("get", cache.NewCall(args...))
	if err != nil {
		return nil, err
	}
	key := b.MakeKey(arg.Key)

	var value any
	err = b.with(ctx, func(client redis.UniversalClient) error {
		data, err := client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return storeError("get", err)
		}
		value, err = b.codec.Decode(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
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
	value, err := b.codec.Encode(cmd.Value)
	if err != nil {
		return false, err
	}
	setArgs := redis.SetArgs{TTL: cmd.Options.TTL}
	switch cmd.Options.Exist {
	case cache.SetIfNotExist:
		setArgs.Mode = "NX"
	case cache.SetIfExist:
		setArgs.Mode = "XX"
	}
	key := b.MakeKey(cmd.Key)

	var ok bool
	err = b.with(ctx, func(client redis.UniversalClient) error {
		err := client.SetArgs(ctx, key, value, setArgs).Err()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return storeError("set", err)
		}
		ok = true
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
	return b.del(ctx, "delete", b.MakeKey(arg.Key))
}

// DeleteMany implements cache.Backend.
func (b *Backend) DeleteMany(ctx context.Context, keys ...any) (bool, error) {
	resolved, err := cache.ResolveKeys("delete_many", cache.NewCall(keys...))
	if err != nil {
		return false, err
	}
	return b.del(ctx, "delete_many", b.makeKeys(resolved)...)
}

func (b *Backend) del(ctx context.Context, op string, keys ...string) (bool, error) {
	var removed int64
	err := b.with(ctx, func(client redis.UniversalClient) error {
		if !splitKeys(client, len(keys)) {
			n, err := client.Del(ctx, keys...).Result()
			if err != nil {
				return storeError(op, err)
			}
			removed = n
			return nil
		}

		cmds := make([]*redis.IntCmd, len(keys))
		_, err := client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, key := range keys {
				cmds[i] = pipe.Del(ctx, key)
			}
			return nil
		})
		if err != nil {
			return storeError(op, err)
		}
		for _, cmd := range cmds {
			removed += cmd.Val()
		}
		return nil
	})
	return removed > 0, err
}

// splitKeys reports whether a multi-key command must be sent key by key. Cluster keys
// carry no hash tag, so they may live in different slots.
func splitKeys(client redis.UniversalClient, n int) bool {
	_, cluster := client.(*redis.ClusterClient)
	return cluster && n > 1
}

// mget returns one reply per key, a string or nil for a miss.
func mget(ctx context.Context, client redis.UniversalClient, keys []string) ([]any, error) {
	if !splitKeys(client, len(keys)) {
		replies, err := client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, storeError("get_many", err)
		}
		return replies, nil
	}

	cmds := make([]*redis.StringCmd, len(keys))
	_, err := client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, key := range keys {
			cmds[i] = pipe.Get(ctx, key)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, storeError("get_many", err)
	}
	replies := make([]any, len(cmds))
	for i, cmd := range cmds {
		s, err := cmd.Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, storeError("get_many", err)
		}
		replies[i] = s
	}
	return replies, nil
}

// GetMany implements cache.Backend. The result is aligned with the input keys.
func (b *Backend) GetMany(ctx context.Context, keys ...any) ([]any, error) {
	resolved, err := cache.ResolveKeys("get_many", cache.NewCall(keys...))
	if err != nil {
		return nil, err
	}
	physical := b.makeKeys(resolved)

	var values []any
	err = b.with(ctx, func(client redis.UniversalClient) error {
		replies, err := mget(ctx, client, physical)
		if err != nil {
			return err
		}
		values = make([]any, len(replies))
		for i, reply := range replies {
			s, ok := reply.(string)
			if !ok {
				continue
			}
			if values[i], err = b.codec.Decode([]byte(s)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// SetMany implements cache.Backend. All pairs are written by one MSET, or by pipelined SETs
// in cluster mode.
func (b *Backend) SetMany(ctx context.Context, args ...any) (bool, error) {
	pairs, err := cache.ResolvePairs("set_many", cache.NewCall(args...))
	if err != nil {
		return false, err
	}
	values := make([]any, 0, 2*len(pairs))
	for _, p := range pairs {
		v, err := b.codec.Encode(p.Value)
		if err != nil {
			return false, err
		}
		values = append(values, b.MakeKey(p.Key), v)
	}

	err = b.with(ctx, func(client redis.UniversalClient) error {
		if !splitKeys(client, len(pairs)) {
			if err := client.MSet(ctx, values...).Err(); err != nil {
				return storeError("set_many", err)
			}
			return nil
		}
		_, err := client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for i := 0; i < len(values); i += 2 {
				pipe.Set(ctx, values[i].(string), values[i+1], 0)
			}
			return nil
		})
		if err != nil {
			return storeError("set_many", err)
		}
		return nil
	})
	return err == nil, err
}

// Execute implements cache.Backend.
func (b *Backend) Execute(ctx context.Context, args ...any) (any, error) {
	return cache.Dispatch(ctx, b, args, b.raw)
}

func (b *Backend) raw(ctx context.Context, name string, c cache.Call) (any, error) {
	var args []any
	if cache.IsAdminCommand(name) {
		if len(c.Kwargs) > 0 {
			return nil, domainerrors.NewArgumentError("execute", "named arguments are not supported by "+name+", "+c.String())
		}
		args = append([]any{name}, c.Args...)
	} else {
		var err error
		if args, err = cache.KeyCommand(name, c, b.MakeKey); err != nil {
			return nil, err
		}
	}

	var result any
	err := b.with(ctx, func(client redis.UniversalClient) error {
		res, err := client.Do(ctx, args...).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return storeError(name, err)
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Clear implements cache.Backend. Keys are found with SCAN; in cluster mode every master is
// scanned and keys are deleted one by one to stay within a hash slot.
func (b *Backend) Clear(ctx context.Context) (bool, error) {
	pattern := b.MakeKey("*")
	err := b.with(ctx, func(client redis.UniversalClient) error {
		if cluster, ok := client.(*redis.ClusterClient); ok {
			return cluster.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
				return clearNode(ctx, node, pattern, true)
			})
		}
		return clearNode(ctx, client, pattern, false)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func clearNode(ctx context.Context, client redis.Cmdable, pattern string, perKey bool) error {
	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			return storeError("clear", err)
		}
		if len(keys) > 0 {
			if perKey {
				pipe := client.Pipeline()
				for _, key := range keys {
					pipe.Del(ctx, key)
				}
				_, err = pipe.Exec(ctx)
			} else {
				err = client.Del(ctx, keys...).Err()
			}
			if err != nil {
				return storeError("clear", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (b *Backend) makeKeys(keys []any) []string {
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = b.MakeKey(key)
	}
	return out
}
