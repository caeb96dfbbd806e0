package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limccn/omi-cache-manager/internal/core/cache"
	domainerrors "github.com/limccn/omi-cache-manager/internal/domain/errors"
)

func TestNewCall_SplitsArguments(t *testing.T) {
	c := cache.NewCall("a", cache.P("k", "v"), cache.Kwargs{"x": 1}, cache.Kwargs{"x": 2, "y": 3})

	assert.Equal(t, []any{"a", cache.P("k", "v")}, c.Args)
	assert.Equal(t, cache.Kwargs{"x": 2, "y": 3}, c.Kwargs)
}

func TestCall_ValuesRoundTrip(t *testing.T) {
	c := cache.NewCall("a", cache.Kwargs{"key": "b"})
	again := cache.NewCall(c.Values()...)
	assert.Equal(t, c, again)

	assert.Equal(t, []any{"a"}, cache.NewCall("a").Values())
}

func TestResolveKey(t *testing.T) {
	arg, err := cache.ResolveKey("get", cache.NewCall("foo"))
	require.NoError(t, err)
	assert.Equal(t, "foo", arg.Key)
	assert.Equal(t, cache.ShapePositionalKey, arg.Shape)

	arg, err = cache.ResolveKey("get", cache.NewCall(cache.Key("foo")))
	require.NoError(t, err)
	assert.Equal(t, "foo", arg.Key)
	assert.Equal(t, cache.ShapeNamedKey, arg.Shape)
}

func TestResolveKey_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []any
	}{
		{"no key", nil},
		{"two positional", []any{"a", "b"}},
		{"positional and named", []any{"a", cache.Key("b")}},
		{"wrong name", []any{cache.Kwargs{"id": "a"}}},
		{"two names", []any{cache.Kwargs{"key": "a", "other": "b"}}},
		{"nil key", []any{nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cache.ResolveKey("get", cache.NewCall(tt.args...))
			assert.True(t, domainerrors.IsArgumentError(err), "got %v", err)
		})
	}
}

func TestResolveSet_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		args  []any
		shape cache.Shape
	}{
		{"mapping", []any{cache.Kwargs{"foo": "bar"}}, cache.ShapeMapping},
		{"tuple", []any{cache.P("foo", "bar")}, cache.ShapeTuple},
		{"two positional", []any{"foo", "bar"}, cache.ShapeTwoPositional},
		{"mapping with options", []any{cache.Kwargs{"foo": "bar"}, cache.Expire(10)}, cache.ShapeMapping},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := cache.ResolveSet("set", cache.NewCall(tt.args...))
			require.NoError(t, err)
			assert.Equal(t, "foo", cmd.Key)
			assert.Equal(t, "bar", cmd.Value)
			assert.Equal(t, tt.shape, cmd.Shape)
		})
	}
}

func TestResolveSet_Options(t *testing.T) {
	cmd, err := cache.ResolveSet("set", cache.NewCall("k", "v", cache.Expire(10)))
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cmd.Options.TTL)
	assert.Equal(t, cache.ExistAny, cmd.Options.Exist)

	cmd, err = cache.ResolveSet("set", cache.NewCall("k", "v", cache.Expire(10), cache.PExpire(1500)))
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cmd.Options.TTL, "pexpire wins")

	cmd, err = cache.ResolveSet("set", cache.NewCall("k", "v", cache.Exist(cache.SetIfNotExist)))
	require.NoError(t, err)
	assert.Equal(t, cache.SetIfNotExist, cmd.Options.Exist)

	cmd, err = cache.ResolveSet("set", cache.NewCall("k", "v", cache.Kwargs{cache.OptionExpire: "2"}))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cmd.Options.TTL)
}

func TestResolveSet_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []any
	}{
		{"nothing", nil},
		{"only options", []any{cache.Expire(10)}},
		{"two mappings", []any{cache.Kwargs{"a": 1, "b": 2}}},
		{"single non-pair positional", []any{"a"}},
		{"three positional", []any{"a", "b", "c"}},
		{"positional and mapping", []any{"a", "b", cache.Kwargs{"c": 1}}},
		{"pair and mapping", []any{cache.P("a", 1), cache.Kwargs{"c": 1}}},
		{"pair as key", []any{cache.P("a", 1), "b"}},
		{"nil key", []any{nil, "b"}},
		{"negative expire", []any{"a", "b", cache.Expire(-1)}},
		{"bad expire", []any{"a", "b", cache.Kwargs{cache.OptionExpire: "soon"}}},
		{"expire overflows", []any{"a", "b", cache.Expire(1e10)}},
		{"pexpire overflows", []any{"a", "b", cache.Kwargs{cache.OptionPExpire: 1e19}}},
		{"bad exist", []any{"a", "b", cache.Kwargs{cache.OptionExist: "MAYBE"}}},
		{"exist not a string", []any{"a", "b", cache.Kwargs{cache.OptionExist: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cache.ResolveSet("set", cache.NewCall(tt.args...))
			assert.True(t, domainerrors.IsArgumentError(err), "got %v", err)
		})
	}
}

func TestResolveKeys(t *testing.T) {
	keys, err := cache.ResolveKeys("get_many", cache.NewCall("a", "b", 3))
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", 3}, keys)

	_, err = cache.ResolveKeys("get_many", cache.NewCall())
	assert.True(t, domainerrors.IsArgumentError(err))

	_, err = cache.ResolveKeys("get_many", cache.NewCall("a", cache.Key("b")))
	assert.True(t, domainerrors.IsArgumentError(err))

	_, err = cache.ResolveKeys("get_many", cache.NewCall(cache.P("a", 1)))
	assert.True(t, domainerrors.IsArgumentError(err))
}

func TestResolvePairs_MergesInOrder(t *testing.T) {
	pairs, err := cache.ResolvePairs("set_many", cache.NewCall(
		cache.P("b", 1),
		cache.P("a", 2),
		cache.Kwargs{"d": 4, "c": 3, "b": 5},
	))
	require.NoError(t, err)

	assert.Equal(t, []cache.Pair{
		cache.P("b", 5),
		cache.P("a", 2),
		cache.P("c", 3),
		cache.P("d", 4),
	}, pairs)
}

func TestResolvePairs_Errors(t *testing.T) {
	_, err := cache.ResolvePairs("set_many", cache.NewCall())
	assert.True(t, domainerrors.IsArgumentError(err))

	_, err = cache.ResolvePairs("set_many", cache.NewCall("a", "b"))
	assert.True(t, domainerrors.IsArgumentError(err))

	_, err = cache.ResolvePairs("set_many", cache.NewCall(cache.P(nil, 1)))
	assert.True(t, domainerrors.IsArgumentError(err))
}

func TestResolveCommand(t *testing.T) {
	name, rest, err := cache.ResolveCommand(cache.NewCall("PING"))
	require.NoError(t, err)
	assert.Equal(t, "ping", name)
	assert.Empty(t, rest.Args)

	name, rest, err = cache.ResolveCommand(cache.NewCall([]byte("Incr"), "counter"))
	require.NoError(t, err)
	assert.Equal(t, "incr", name)
	assert.Equal(t, []any{"counter"}, rest.Args)

	for _, args := range [][]any{nil, {""}, {42}} {
		_, _, err := cache.ResolveCommand(cache.NewCall(args...))
		assert.True(t, domainerrors.IsArgumentError(err), "args %v", args)
	}
}

func TestShape_String(t *testing.T) {
	assert.Equal(t, "tuple", cache.ShapeTuple.String())
	assert.Equal(t, "Shape(42)", cache.Shape(42).String())
}

func TestMakeKey(t *testing.T) {
	assert.Equal(t, "P:foo", cache.MakeKey("P:", "foo"))
	assert.Equal(t, "P:foo", cache.MakeKey("P:", []byte("foo")))
	assert.Equal(t, "P:42", cache.MakeKey("P:", 42))
	assert.Equal(t, "P:1s", cache.MakeKey("P:", time.Second))
	assert.Equal(t, "SIMPLECACHEBACKEND", cache.TypeSimple.DefaultPrefix())
}
