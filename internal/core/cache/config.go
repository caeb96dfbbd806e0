package cache

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xhit/go-str2duration/v2"

	domainerrors "github.com/limccn/omi-cache-manager/internal/domain/errors"
)

// Recognized configuration keys.
const (
	KeyPrefix                 = "CACHE_KEY_PREFIX"
	KeySchemeURI              = "CACHE_SCHEME_URI"
	KeyRedisScheme            = "CACHE_REDIS_SCHEME"
	KeyRedisHost              = "CACHE_REDIS_HOST"
	KeyRedisPort              = "CACHE_REDIS_PORT"
	KeyRedisUser              = "CACHE_REDIS_USER"
	KeyRedisPassword          = "CACHE_REDIS_PASSWORD"
	KeyRedisDatabase          = "CACHE_REDIS_DATABASE"
	KeyRedisConnectionTimeout = "CACHE_REDIS_CONNECTION_TIMEOUT"
	KeyRedisEncoding          = "CACHE_REDIS_ENCODING"
	KeyRedisDecodeResponses   = "CACHE_REDIS_DECODE_RESPONSES"
	KeyRedisUsePool           = "CACHE_REDIS_USE_POOL"
	KeyRedisUseCluster        = "CACHE_REDIS_USE_CLUSTER"
	KeyRedisPoolMinSize       = "CACHE_REDIS_POOL_MINSIZE"
	KeyRedisPoolMaxSize       = "CACHE_REDIS_POOL_MAXSIZE"
	KeyRedisMaxIdleTime       = "CACHE_REDIS_MAX_IDLE_TIME"
	KeyRedisRetryOnTimeout    = "CACHE_REDIS_RETRY_ON_TIMEOUT"
	KeyRedisIdleCheckInterval = "CACHE_REDIS_IDLE_CHECK_INTERVAL"
	KeyRedisSerializer        = "CACHE_REDIS_SERIALIZER"
)

// Config is the configuration mapping consumed by backends. A nil Config means defaults.
type Config map[string]any

// ParseConfig accepts nil or a key-value mapping; any other shape is a configuration error.
func ParseConfig(raw any) (Config, error) {
	switch cfg := raw.(type) {
	case nil:
		return nil, nil
	case Config:
		return cfg, nil
	case map[string]any:
		return Config(cfg), nil
	case map[string]string:
		out := make(Config, len(cfg))
		for k, v := range cfg {
			out[k] = v
		}
		return out, nil
	default:
		return nil, domainerrors.NewConfigurationError("`config` must be a mapping or nil", fmt.Sprintf("got %T", raw))
	}
}

// Lookup returns the raw value of key and whether it is present.
func (c Config) Lookup(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c[key]
	return v, ok
}

// Reader reads typed values out of a Config, remembering the first conversion error.
type Reader struct {
	cfg Config
	err error
}

// Reader returns a typed reader over c.
func (c Config) Reader() *Reader {
	return &Reader{cfg: c}
}

// Err returns the first conversion error as a configuration error.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) fail(key string, v any, want string) {
	if r.err == nil {
		r.err = domainerrors.NewConfigurationError("invalid configuration value", fmt.Sprintf("%s: want %s, got %T(%v)", key, want, v, v))
	}
}

// String returns the value of key as a string.
func (r *Reader) String(key, def string) string {
	v, ok := r.cfg.Lookup(key)
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	case int, int32, int64, uint, uint32, uint64:
		return fmt.Sprint(t)
	default:
		r.fail(key, v, "string")
		return def
	}
}

// Int returns the value of key as an int. An empty string counts as absent.
func (r *Reader) Int(key string, def int) int {
	v, ok := r.cfg.Lookup(key)
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case uint:
		return int(t)
	case uint32:
		return int(t)
	case uint64:
		return int(t)
	case float64:
		if t == float64(int(t)) {
			return int(t)
		}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return def
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	r.fail(key, v, "integer")
	return def
}

// Bool returns the value of key as a bool.
func (r *Reader) Bool(key string, def bool) bool {
	v, ok := r.cfg.Lookup(key)
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case int:
		return t != 0
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return def
		}
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	r.fail(key, v, "boolean")
	return def
}

// Duration returns the value of key as a duration. Bare numbers are seconds;
// strings may carry a unit ("500ms", "3s", "1d").
func (r *Reader) Duration(key string, def time.Duration) time.Duration {
	v, ok := r.cfg.Lookup(key)
	if !ok || v == nil {
		return def
	}
	if s, isString := v.(string); isString {
		s = strings.TrimSpace(s)
		if s == "" {
			return def
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			v = f
		} else if d, err := str2duration.ParseDuration(s); err == nil {
			return d
		} else {
			r.fail(key, v, "duration")
			return def
		}
	}
	d, err := toDuration(v, time.Second)
	if err != nil {
		r.fail(key, v, "duration")
		return def
	}
	return d
}
