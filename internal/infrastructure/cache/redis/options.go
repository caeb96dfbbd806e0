package redis

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/limccn/omi-cache-manager/internal/core/cache"
	domainerrors "github.com/limccn/omi-cache-manager/internal/domain/errors"
)

// Options holds the Redis connection configuration of a Backend.
type Options struct {
	// URI overrides Scheme, Host, Port, Username, Password and DB when set.
	URI      string
	Scheme   string
	Host     string
	Port     int
	Username string
	Password string
	DB       int

	DialTimeout     time.Duration
	Encoding        string
	DecodeResponses bool
	Serializer      string

	UsePool        bool
	UseCluster     bool
	PoolMinSize    int
	PoolMaxSize    int
	MaxIdleTime    time.Duration
	RetryOnTimeout bool

	// IdleCheckInterval is accepted for configuration compatibility only: go-redis reaps
	// idle connections on checkout using MaxIdleTime.
	IdleCheckInterval time.Duration
}

// Profile is a named set of defaults for a Redis backend.
type Profile struct {
	Type     cache.Type
	Defaults Options
}

var (
	// AIORedis uses a bounded pool of 3 to 10 connections and a 3s dial timeout by default.
	AIORedis = Profile{
		Type: cache.TypeAIORedis,
		Defaults: Options{
			Scheme:          "redis",
			Host:            "localhost",
			Port:            6379,
			DialTimeout:     3 * time.Second,
			Encoding:        "utf-8",
			DecodeResponses: true,
			UsePool:         true,
			PoolMinSize:     3,
			PoolMaxSize:     10,
		},
	}

	// ARedis leaves pool size and dial timeout to go-redis and supports cluster mode.
	ARedis = Profile{
		Type: cache.TypeARedis,
		Defaults: Options{
			Scheme:            "redis",
			Host:              "localhost",
			Port:              6379,
			Encoding:          "utf-8",
			DecodeResponses:   true,
			UsePool:           true,
			IdleCheckInterval: time.Second,
		},
	}
)

// LoadOptions reads Options from a configuration mapping on top of defaults.
func LoadOptions(cfg cache.Config, defaults Options) (Options, error) {
	r := cfg.Reader()
	o := Options{
		URI:               r.String(cache.KeySchemeURI, defaults.URI),
		Scheme:            r.String(cache.KeyRedisScheme, defaults.Scheme),
		Host:              r.String(cache.KeyRedisHost, defaults.Host),
		Port:              r.Int(cache.KeyRedisPort, defaults.Port),
		Username:          r.String(cache.KeyRedisUser, defaults.Username),
		Password:          r.String(cache.KeyRedisPassword, defaults.Password),
		DB:                r.Int(cache.KeyRedisDatabase, defaults.DB),
		DialTimeout:       r.Duration(cache.KeyRedisConnectionTimeout, defaults.DialTimeout),
		Encoding:          r.String(cache.KeyRedisEncoding, defaults.Encoding),
		DecodeResponses:   r.Bool(cache.KeyRedisDecodeResponses, defaults.DecodeResponses),
		Serializer:        r.String(cache.KeyRedisSerializer, defaults.Serializer),
		UsePool:           r.Bool(cache.KeyRedisUsePool, defaults.UsePool),
		UseCluster:        r.Bool(cache.KeyRedisUseCluster, defaults.UseCluster),
		PoolMinSize:       r.Int(cache.KeyRedisPoolMinSize, defaults.PoolMinSize),
		PoolMaxSize:       r.Int(cache.KeyRedisPoolMaxSize, defaults.PoolMaxSize),
		MaxIdleTime:       r.Duration(cache.KeyRedisMaxIdleTime, defaults.MaxIdleTime),
		RetryOnTimeout:    r.Bool(cache.KeyRedisRetryOnTimeout, defaults.RetryOnTimeout),
		IdleCheckInterval: r.Duration(cache.KeyRedisIdleCheckInterval, defaults.IdleCheckInterval),
	}
	if err := r.Err(); err != nil {
		return Options{}, err
	}
	if err := o.validate(); err != nil {
		return Options{}, err
	}
	return o, nil
}

func (o Options) validate() error {
	invalid := func(format string, args ...any) error {
		return domainerrors.NewConfigurationError("invalid redis configuration", fmt.Sprintf(format, args...))
	}
	switch o.Scheme {
	case "redis", "rediss":
	default:
		return invalid("%s must be redis or rediss, got %q", cache.KeyRedisScheme, o.Scheme)
	}
	switch strings.ToLower(strings.ReplaceAll(o.Encoding, "-", "")) {
	case "utf8":
	default:
		return invalid("%s must be utf-8, got %q", cache.KeyRedisEncoding, o.Encoding)
	}
	if o.Port <= 0 || o.Port > 65535 {
		return invalid("%s out of range: %d", cache.KeyRedisPort, o.Port)
	}
	if o.DB < 0 {
		return invalid("%s must not be negative: %d", cache.KeyRedisDatabase, o.DB)
	}
	if o.PoolMinSize < 0 || o.PoolMaxSize < 0 {
		return invalid("pool sizes must not be negative: min=%d max=%d", o.PoolMinSize, o.PoolMaxSize)
	}
	if o.PoolMaxSize > 0 && o.PoolMinSize > o.PoolMaxSize {
		return invalid("%s (%d) exceeds %s (%d)", cache.KeyRedisPoolMinSize, o.PoolMinSize, cache.KeyRedisPoolMaxSize, o.PoolMaxSize)
	}
	if _, err := cache.NewCodec(o.Serializer, o.DecodeResponses); err != nil {
		return invalid("%s: %v", cache.KeyRedisSerializer, err)
	}
	return nil
}

// URL returns the connection URI built from the options.
func (o Options) URL() string {
	if o.URI != "" {
		return o.URI
	}
	u := url.URL{
		Scheme: o.Scheme,
		Host:   net.JoinHostPort(o.Host, strconv.Itoa(o.Port)),
		Path:   "/" + strconv.Itoa(o.DB),
	}
	switch {
	case o.Password != "":
		u.User = url.UserPassword(o.Username, o.Password)
	case o.Username != "":
		u.User = url.User(o.Username)
	}
	return u.String()
}

func (o Options) clientOptions() (*redis.Options, error) {
	opt, err := redis.ParseURL(o.URL())
	if err != nil {
		return nil, err
	}
	if o.DialTimeout > 0 {
		opt.DialTimeout = o.DialTimeout
	}
	if o.UsePool {
		if o.PoolMaxSize > 0 {
			opt.PoolSize = o.PoolMaxSize
		}
		opt.MinIdleConns = o.PoolMinSize
		if o.MaxIdleTime > 0 {
			opt.ConnMaxIdleTime = o.MaxIdleTime
		}
	} else {
		opt.PoolSize = 1
		opt.MinIdleConns = 0
	}
	if !o.RetryOnTimeout {
		opt.MaxRetries = -1
	}
	return opt, nil
}

func (o Options) clusterOptions() (*redis.ClusterOptions, error) {
	opt, err := o.clientOptions()
	if err != nil {
		return nil, err
	}
	if opt.DB != 0 {
		return nil, fmt.Errorf("redis cluster only supports database 0, got %d", opt.DB)
	}
	return &redis.ClusterOptions{
		Addrs:           []string{opt.Addr},
		Username:        opt.Username,
		Password:        opt.Password,
		TLSConfig:       opt.TLSConfig,
		DialTimeout:     opt.DialTimeout,
		PoolSize:        opt.PoolSize,
		MinIdleConns:    opt.MinIdleConns,
		ConnMaxIdleTime: opt.ConnMaxIdleTime,
		MaxRetries:      opt.MaxRetries,
	}, nil
}

// newClient builds the go-redis client. go-redis dials lazily, so this does no I/O.
func (o Options) newClient() (redis.UniversalClient, error) {
	if o.UseCluster {
		opt, err := o.clusterOptions()
		if err != nil {
			return nil, err
		}
		return redis.NewClusterClient(opt), nil
	}
	opt, err := o.clientOptions()
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}
