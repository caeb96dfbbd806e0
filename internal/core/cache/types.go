package cache

import (
	"fmt"
	"strings"
)

// Type represents the type name of a cache backend.
type Type string

const (
	// TypeNull is the no-op backend.
	TypeNull Type = "NullCacheBackend"

	// TypeSimple is the in-process map backend.
	TypeSimple Type = "SimpleCacheBackend"

	// TypeAIORedis is the redis backend profile with a bounded pool by default.
	TypeAIORedis Type = "AIORedisBackend"

	// TypeARedis is the redis backend profile with cluster and idle options.
	TypeARedis Type = "ARedisBackend"
)

// DefaultPrefix returns the default key prefix of a backend type.
func (t Type) DefaultPrefix() string {
	return strings.ToUpper(string(t))
}

// Existence is the existence condition of a set.
type Existence string

const (
	// ExistAny writes regardless of the key's presence.
	ExistAny Existence = ""

	// SetIfExist writes only if the key exists.
	SetIfExist Existence = "SET_IF_EXIST"

	// SetIfNotExist writes only if the key does not exist.
	SetIfNotExist Existence = "SET_IF_NOT_EXIST"
)

// MakeKey joins prefix and key the way every backend namespaces its keys.
func MakeKey(prefix string, key any) string {
	switch k := key.(type) {
	case string:
		return prefix + k
	case []byte:
		return prefix + string(k)
	case fmt.Stringer:
		return prefix + k.String()
	default:
		return prefix + fmt.Sprint(k)
	}
}
