package cache

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	domainerrors "github.com/limccn/omi-cache-manager/internal/domain/errors"
)

// Reserved named arguments of Set and Add.
const (
	OptionExpire  = "expire"
	OptionPExpire = "pexpire"
	OptionExist   = "exist"
)

// Kwargs carries the named arguments of a verb call.
// Several Kwargs in one call are merged, later names winning.
type Kwargs map[string]any

// Pair is a (key, value) tuple argument.
type Pair struct {
	Key   any
	Value any
}

// P builds a Pair.
func P(key, value any) Pair {
	return Pair{Key: key, Value: value}
}

// Key names the key of Get and Delete.
func Key(key any) Kwargs {
	return Kwargs{"key": key}
}

// Expire sets the expiry of Set in seconds.
func Expire(seconds int) Kwargs {
	return Kwargs{OptionExpire: seconds}
}

// PExpire sets the expiry of Set in milliseconds.
func PExpire(milliseconds int) Kwargs {
	return Kwargs{OptionPExpire: milliseconds}
}

// Exist sets the existence condition of Set.
func Exist(e Existence) Kwargs {
	return Kwargs{OptionExist: string(e)}
}

// Shape identifies which calling convention a verb call matched.
type Shape int

const (
	// ShapeNone is the zero value; it never resolves.
	ShapeNone Shape = iota
	// ShapePositionalKey is a single positional key: Get(ctx, "k").
	ShapePositionalKey
	// ShapeNamedKey is a single named key: Get(ctx, Kwargs{"key": "k"}).
	ShapeNamedKey
	// ShapeTuple is a single positional Pair: Set(ctx, P("k", "v")).
	ShapeTuple
	// ShapeTwoPositional is a positional key and value: Set(ctx, "k", "v").
	ShapeTwoPositional
	// ShapeMapping is one named key-value pair: Set(ctx, Kwargs{"k": "v"}).
	ShapeMapping
)

var shapeNames = map[Shape]string{
	ShapeNone:          "none",
	ShapePositionalKey: "positional-key",
	ShapeNamedKey:      "named-key",
	ShapeTuple:         "tuple",
	ShapeTwoPositional: "two-positional",
	ShapeMapping:       "mapping",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return "Shape(" + strconv.Itoa(int(s)) + ")"
}

// Call is one verb invocation: ordered positional arguments and named arguments.
type Call struct {
	Args   []any
	Kwargs Kwargs
}

// NewCall splits a variadic verb argument list into positional and named arguments.
func NewCall(args ...any) Call {
	var c Call
	for _, arg := range args {
		kw, ok := arg.(Kwargs)
		if !ok {
			c.Args = append(c.Args, arg)
			continue
		}
		if c.Kwargs == nil {
			c.Kwargs = make(Kwargs, len(kw))
		}
		for name, value := range kw {
			c.Kwargs[name] = value
		}
	}
	return c
}

// Values flattens the call back into a variadic argument list.
func (c Call) Values() []any {
	values := make([]any, 0, len(c.Args)+1)
	values = append(values, c.Args...)
	if len(c.Kwargs) > 0 {
		values = append(values, c.Kwargs)
	}
	return values
}

func (c Call) String() string {
	return fmt.Sprintf("args=%v kwargs=%v", c.Args, map[string]any(c.Kwargs))
}

// split separates reserved options from the other named arguments.
func (c Call) split() (named Kwargs, options Kwargs) {
	named = Kwargs{}
	options = Kwargs{}
	for name, value := range c.Kwargs {
		switch name {
		case OptionExpire, OptionPExpire, OptionExist:
			options[name] = value
		default:
			named[name] = value
		}
	}
	return named, options
}

// KeyArg is the resolved key of a single-key verb.
type KeyArg struct {
	Key   any
	Shape Shape
}

// ResolveKey resolves the single key of Get and Delete.
func ResolveKey(verb string, c Call) (KeyArg, error) {
	var arg KeyArg
	switch {
	case len(c.Args) == 1 && len(c.Kwargs) == 0:
		arg = KeyArg{Key: c.Args[0], Shape: ShapePositionalKey}
	case len(c.Args) == 0 && len(c.Kwargs) == 1:
		key, ok := c.Kwargs["key"]
		if !ok {
			return KeyArg{}, domainerrors.NewArgumentError(verb, "the named key must be `key`, "+c.String())
		}
		arg = KeyArg{Key: key, Shape: ShapeNamedKey}
	default:
		return KeyArg{}, domainerrors.NewArgumentError(verb, "too many or no key, "+c.String())
	}
	if err := checkKey(verb, arg.Key); err != nil {
		return KeyArg{}, err
	}
	return arg, nil
}

// SetOptions are the resolved options of Set.
type SetOptions struct {
	// TTL is zero when the key does not expire.
	TTL   time.Duration
	Exist Existence
}

// SetCommand is the resolved key, value and options of Set.
type SetCommand struct {
	Key     any
	Value   any
	Shape   Shape
	Options SetOptions
}

// ResolveSet resolves the arguments of Set and Add.
func ResolveSet(verb string, c Call) (SetCommand, error) {
	named, options := c.split()
	opts, err := resolveSetOptions(verb, options)
	if err != nil {
		return SetCommand{}, err
	}

	cmd := SetCommand{Options: opts}
	switch len(c.Args) {
	case 0:
		switch len(named) {
		case 0:
			return SetCommand{}, domainerrors.NewArgumentError(verb, "mapping for set might be missing, "+c.String())
		case 1:
			for name, value := range named {
				cmd.Key, cmd.Value = name, value
			}
			cmd.Shape = ShapeMapping
		default:
			return SetCommand{}, domainerrors.NewArgumentError(verb, "too many mappings, use SetMany instead, "+c.String())
		}
	case 1:
		pair, ok := c.Args[0].(Pair)
		if !ok {
			return SetCommand{}, domainerrors.NewArgumentError(verb, fmt.Sprintf("a value or a Pair is required to set key %v", c.Args[0]))
		}
		cmd.Key, cmd.Value, cmd.Shape = pair.Key, pair.Value, ShapeTuple
	case 2:
		cmd.Key, cmd.Value, cmd.Shape = c.Args[0], c.Args[1], ShapeTwoPositional
	default:
		return SetCommand{}, domainerrors.NewArgumentError(verb, "too many keys, use SetMany instead, "+c.String())
	}

	if cmd.Shape != ShapeMapping && len(named) > 0 {
		return SetCommand{}, domainerrors.NewArgumentError(verb, "positional and named key-value pairs can not be mixed, "+c.String())
	}
	if _, isPair := cmd.Key.(Pair); isPair {
		return SetCommand{}, domainerrors.NewArgumentError(verb, "a Pair can not be used as key, "+c.String())
	}
	if err := checkKey(verb, cmd.Key); err != nil {
		return SetCommand{}, err
	}
	return cmd, nil
}

func resolveSetOptions(verb string, options Kwargs) (SetOptions, error) {
	var opts SetOptions

	expire, err := toDuration(options[OptionExpire], time.Second)
	if err != nil {
		return SetOptions{}, domainerrors.NewArgumentError(verb, "expire: "+err.Error())
	}
	pexpire, err := toDuration(options[OptionPExpire], time.Millisecond)
	if err != nil {
		return SetOptions{}, domainerrors.NewArgumentError(verb, "pexpire: "+err.Error())
	}
	opts.TTL = expire
	if pexpire > 0 {
		opts.TTL = pexpire
	}

	switch exist := options[OptionExist].(type) {
	case nil:
	case Existence:
		opts.Exist = exist
	case string:
		opts.Exist = Existence(exist)
	default:
		return SetOptions{}, domainerrors.NewArgumentError(verb, fmt.Sprintf("exist must be a string, got %T", exist))
	}
	switch opts.Exist {
	case ExistAny, SetIfExist, SetIfNotExist:
	default:
		return SetOptions{}, domainerrors.NewArgumentError(verb, fmt.Sprintf("exist must be %s or %s, got %q", SetIfExist, SetIfNotExist, opts.Exist))
	}
	return opts, nil
}

// ResolveKeys resolves the positional keys of GetMany and DeleteMany.
func ResolveKeys(verb string, c Call) ([]any, error) {
	if len(c.Kwargs) > 0 {
		return nil, domainerrors.NewArgumentError(verb, "only positional keys are supported, "+c.String())
	}
	if len(c.Args) == 0 {
		return nil, domainerrors.NewArgumentError(verb, "no keys, "+c.String())
	}
	for _, key := range c.Args {
		if _, isPair := key.(Pair); isPair {
			return nil, domainerrors.NewArgumentError(verb, "a Pair can not be used as key, "+c.String())
		}
		if err := checkKey(verb, key); err != nil {
			return nil, err
		}
	}
	return c.Args, nil
}

// ResolvePairs merges the Pair positionals and named arguments of SetMany into one batch.
// Positional pairs come first, then named pairs in name order; a repeated key keeps its
// first position and its last value.
func ResolvePairs(verb string, c Call) ([]Pair, error) {
	pairs := make([]Pair, 0, len(c.Args)+len(c.Kwargs))
	index := make(map[string]int, cap(pairs))

	add := func(p Pair) error {
		if err := checkKey(verb, p.Key); err != nil {
			return err
		}
		id := MakeKey("", p.Key)
		if i, ok := index[id]; ok {
			pairs[i].Value = p.Value
			return nil
		}
		index[id] = len(pairs)
		pairs = append(pairs, p)
		return nil
	}

	for _, arg := range c.Args {
		pair, ok := arg.(Pair)
		if !ok {
			return nil, domainerrors.NewArgumentError(verb, fmt.Sprintf("only Pair positionals are supported, got %T", arg))
		}
		if err := add(pair); err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(c.Kwargs))
	for name := range c.Kwargs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := add(Pair{Key: name, Value: c.Kwargs[name]}); err != nil {
			return nil, err
		}
	}

	if len(pairs) == 0 {
		return nil, domainerrors.NewArgumentError(verb, "no key-value pairs, "+c.String())
	}
	return pairs, nil
}

// ResolveCommand splits the command name off an Execute call.
// The returned name is lower-cased.
func ResolveCommand(c Call) (string, Call, error) {
	if len(c.Args) == 0 {
		return "", Call{}, domainerrors.NewArgumentError("execute", "command can not be empty")
	}
	var name string
	switch cmd := c.Args[0].(type) {
	case string:
		name = cmd
	case []byte:
		name = string(cmd)
	default:
		return "", Call{}, domainerrors.NewArgumentError("execute", fmt.Sprintf("command must be a string, got %T", cmd))
	}
	if name == "" {
		return "", Call{}, domainerrors.NewArgumentError("execute", "command can not be empty")
	}
	return strings.ToLower(name), Call{Args: c.Args[1:], Kwargs: c.Kwargs}, nil
}

func checkKey(verb string, key any) error {
	if key == nil {
		return domainerrors.NewArgumentError(verb, "key can not be nil")
	}
	return nil
}

// toDuration converts an expiry option in the given unit. nil means no expiry.
func toDuration(v any, unit time.Duration) (time.Duration, error) {
	var n float64
	switch t := v.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		if t < 0 {
			return 0, fmt.Errorf("must not be negative, got %s", t)
		}
		return t, nil
	case int:
		n = float64(t)
	case int32:
		n = float64(t)
	case int64:
		n = float64(t)
	case uint:
		n = float64(t)
	case uint32:
		n = float64(t)
	case uint64:
		n = float64(t)
	case float32:
		n = float64(t)
	case float64:
		n = t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("must be a number, got %q", t)
		}
		n = f
	default:
		return 0, fmt.Errorf("must be a number, got %T", v)
	}
	if n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("must be a non-negative number, got %v", v)
	}
	d := n * float64(unit)
	if d >= math.MaxInt64 {
		return 0, fmt.Errorf("out of range, got %v", v)
	}
	return time.Duration(d), nil
}
