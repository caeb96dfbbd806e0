// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/limccn/omi-cache-manager/internal/core/cache"
)

// cacheEnvPrefix marks environment variables forwarded to the cache backend.
const cacheEnvPrefix = "CACHE_"

// Config holds all configuration for the application.
type Config struct {
	Server ServerConfig
	Cache  CacheConfig
	Log    LogConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envDefault:"8080" validate:"min=1,max=65535"`
	GinMode         string        `env:"GIN_MODE" envDefault:"release" validate:"oneof=debug release test"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s" validate:"gt=0"`
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CacheConfig selects the cache backend and carries its configuration mapping.
type CacheConfig struct {
	Backend    string `env:"CACHE_BACKEND" envDefault:"simple_cache" validate:"required"`
	ConfigFile string `env:"CACHE_CONFIG_FILE"`

	// Options is the mapping handed to the backend: keys from ConfigFile overridden by
	// CACHE_* environment variables.
	Options cache.Config
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn error"`
	Format string `env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json console"`
}

// Load loads configuration from environment variables and the optional cache config file.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	options, err := LoadCacheOptions(cfg.Cache.ConfigFile)
	if err != nil {
		return nil, err
	}
	cfg.Cache.Options = options
	return cfg, nil
}

// LoadCacheOptions builds the backend mapping: the keys of file, when set, overridden by the
// CACHE_* environment variables.
func LoadCacheOptions(file string) (cache.Config, error) {
	return cacheOptions(file, env.ToMap(os.Environ()))
}

// cacheOptions merges the config file with CACHE_* variables of environ.
func cacheOptions(file string, environ map[string]string) (cache.Config, error) {
	options := cache.Config{}
	if file != "" {
		fromFile, err := LoadCacheFile(file)
		if err != nil {
			return nil, err
		}
		for k, v := range fromFile {
			options[k] = v
		}
	}
	for k, v := range environ {
		if !strings.HasPrefix(k, cacheEnvPrefix) {
			continue
		}
		switch k {
		case "CACHE_BACKEND", "CACHE_CONFIG_FILE":
			continue
		}
		options[k] = v
	}
	return options, nil
}

// LoadCacheFile reads a YAML mapping of CACHE_* keys.
func LoadCacheFile(path string) (cache.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read cache config %s", path)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "failed to parse cache config %s", path)
	}
	return cache.Config(raw), nil
}
