package manager

import (
	"fmt"
	"sort"
	"strings"

	"github.com/limccn/omi-cache-manager/internal/core/cache"
	domainerrors "github.com/limccn/omi-cache-manager/internal/domain/errors"
	"github.com/limccn/omi-cache-manager/internal/infrastructure/cache/memory"
	"github.com/limccn/omi-cache-manager/internal/infrastructure/cache/null"
	"github.com/limccn/omi-cache-manager/internal/infrastructure/cache/redis"
)

// Constructor builds a backend from a configuration mapping.
type Constructor func(config any) (cache.Backend, error)

func newNull(config any) (cache.Backend, error) {
	return null.New(config)
}

func newSimple(config any) (cache.Backend, error) {
	return memory.New(config)
}

func newAIORedis(config any) (cache.Backend, error) {
	return redis.NewAIORedis(config)
}

func newARedis(config any) (cache.Backend, error) {
	return redis.NewARedis(config)
}

// registry maps lower-cased backend names to constructors. Short aliases, type names and
// dotted paths all resolve to the same constructor.
var registry = map[string]Constructor{
	"null_cache":       newNull,
	"nullcachebackend": newNull,
	"omi_cache_manager.backends.nullcachebackend": newNull,

	"simple_cache":       newSimple,
	"simplecachebackend": newSimple,
	"omi_cache_manager.backends.simplecachebackend": newSimple,

	"aioredis":        newAIORedis,
	"aioredisbackend": newAIORedis,
	"omi_cache_manager.aio_redis_backend.aioredisbackend": newAIORedis,

	"aredis":        newARedis,
	"aredisbackend": newARedis,
	"omi_cache_manager.aredis_backend.aredisbackend": newARedis,
}

// Lookup returns the constructor registered under name, ignoring case.
func Lookup(name string) (Constructor, bool) {
	ctor, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return ctor, ok
}

// Names returns every registered backend name in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolve turns a selector into a backend. A cache.Backend is used as is; a string is looked
// up in the registry and constructed with config.
func resolve(selector any, config any) (cache.Backend, error) {
	switch s := selector.(type) {
	case nil:
		return nil, domainerrors.NewResolutionError("nil selector")
	case cache.Backend:
		return s, nil
	case string:
		ctor, ok := Lookup(s)
		if !ok {
			return nil, domainerrors.NewResolutionError(s)
		}
		return ctor(config)
	case cache.Type:
		return resolve(string(s), config)
	default:
		return nil, domainerrors.NewResolutionError(fmt.Sprintf("unsupported selector type %T", selector))
	}
}
