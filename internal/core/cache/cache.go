// Package cache defines the cache backend contract, its argument normalization and the
// configuration mapping shared by all backends.
package cache

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrContextDestroyed is returned by verbs invoked after the backend's cache context was
// destroyed and not recreated.
var ErrContextDestroyed = errors.New("cache context destroyed")

// Context owns the connection-or-pool resource of a backend.
type Context interface {
	// Active reports whether a live handle is currently held.
	Active() bool

	// Destroy releases the handle and waits for it to close.
	// Destroying an empty context is a no-op.
	Destroy(ctx context.Context) error
}

// Backend defines the uniform cache verb set.
//
// Every verb accepts a variadic argument list resolved through Call: values of type Kwargs
// are named arguments, Pair values are (key, value) tuples, everything else is positional.
type Backend interface {
	// Name returns the backend type name, e.g. "SimpleCacheBackend".
	Name() string

	// KeyPrefix returns the prefix prepended to every logical key.
	KeyPrefix() string

	// MakeKey maps a logical key to the physical key handed to the store.
	MakeKey(key any) string

	// CacheContext returns the current context, or nil when none exists.
	CacheContext() Context

	// CreateCacheContext creates a new context when none exists.
	CreateCacheContext() error

	// DestroyCacheContext destroys the current context. Safe to call repeatedly.
	DestroyCacheContext(ctx context.Context) error

	// Get returns the value stored for one key, or nil if the key does not exist.
	//
	//	Get(ctx, "foo")
	//	Get(ctx, Kwargs{"key": "foo"})
	Get(ctx context.Context, args ...any) (any, error)

	// Set stores one key. Returns false when the existence condition prevented the write.
	//
	//	Set(ctx, "foo", "bar")
	//	Set(ctx, P("foo", "bar"))
	//	Set(ctx, Kwargs{"foo": "bar"}, Expire(10))
	Set(ctx context.Context, args ...any) (bool, error)

	// Add stores one key only if it does not exist yet.
	Add(ctx context.Context, args ...any) (bool, error)

	// Delete removes one key. Returns true iff a key was removed.
	Delete(ctx context.Context, args ...any) (bool, error)

	// DeleteMany removes the given positional keys. Returns true iff any key was removed.
	DeleteMany(ctx context.Context, keys ...any) (bool, error)

	// GetMany returns the values of the given positional keys in input order.
	GetMany(ctx context.Context, keys ...any) ([]any, error)

	// SetMany stores every Pair and named argument in a single batch.
	SetMany(ctx context.Context, args ...any) (bool, error)

	// Execute runs a low-level command; args[0] is the command name.
	Execute(ctx context.Context, args ...any) (any, error)

	// Clear removes every key carrying the backend's prefix.
	Clear(ctx context.Context) (bool, error)
}

// Synchronous is implemented by backends whose verbs never leave the process.
// Callers that need a uniform cancellable contract run such verbs off their own goroutine.
type Synchronous interface {
	Synchronous() bool
}

// IsSynchronous reports whether b declares itself synchronous.
func IsSynchronous(b Backend) bool {
	s, ok := b.(Synchronous)
	return ok && s.Synchronous()
}
