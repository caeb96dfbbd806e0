package cache

import (
	"context"

	domainerrors "github.com/limccn/omi-cache-manager/internal/domain/errors"
)

// adminCommands are side-effect-free on keys and pass straight through to the store.
var adminCommands = map[string]struct{}{
	"ping":         {},
	"quit":         {},
	"bgsave":       {},
	"dbsize":       {},
	"time":         {},
	"info":         {},
	"lastsave":     {},
	"flushdb":      {},
	"sync":         {},
	"bgrewriteaof": {},
}

// IsAdminCommand reports whether the lower-cased command name is on the pass-through list.
func IsAdminCommand(name string) bool {
	_, ok := adminCommands[name]
	return ok
}

// RawExecutor runs a command Dispatch does not redirect to a typed verb.
// name is lower-cased; c holds the remaining arguments.
type RawExecutor func(ctx context.Context, name string, c Call) (any, error)

// Dispatch implements Execute for b. GET, MGET, SET, MSET and DEL are redirected to the
// typed verbs so prefixing and normalization apply uniformly; everything else goes to raw.
func Dispatch(ctx context.Context, b Backend, args []any, raw RawExecutor) (any, error) {
	name, rest, err := ResolveCommand(NewCall(args...))
	if err != nil {
		return nil, err
	}

	switch name {
	case "get":
		return b.Get(ctx, rest.Values()...)
	case "mget":
		return wrap(b.GetMany(ctx, rest.Values()...))
	case "set":
		return wrap(b.Set(ctx, rest.Values()...))
	case "mset":
		return wrap(b.SetMany(ctx, rest.Values()...))
	case "del":
		return wrap(b.Delete(ctx, rest.Values()...))
	default:
		return raw(ctx, name, rest)
	}
}

// KeyCommand builds the argument list of a command whose first argument is a key:
// the key is prefixed through makeKey and the remaining arguments are forwarded verbatim.
func KeyCommand(name string, c Call, makeKey func(any) string) ([]any, error) {
	if len(c.Kwargs) > 0 {
		return nil, domainerrors.NewArgumentError("execute", "named arguments are not supported by "+name+", "+c.String())
	}
	if len(c.Args) == 0 {
		return nil, domainerrors.NewArgumentError("execute", "no key to execute "+name)
	}
	if err := checkKey("execute", c.Args[0]); err != nil {
		return nil, err
	}
	out := make([]any, 0, len(c.Args)+1)
	out = append(out, name, makeKey(c.Args[0]))
	out = append(out, c.Args[1:]...)
	return out, nil
}

func wrap[T any](v T, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}
