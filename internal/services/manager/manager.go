// Package manager provides the cache manager facade: it resolves a backend by name or
// instance, optionally binds itself to a host and forwards every cache verb to the backend.
package manager

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/limccn/omi-cache-manager/internal/core/cache"
	domainerrors "github.com/limccn/omi-cache-manager/internal/domain/errors"
	"github.com/limccn/omi-cache-manager/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/limccn/omi-cache-manager/manager")

// Manager forwards cache verbs to one backend.
type Manager struct {
	backend cache.Backend
	host    Host
	sync    bool
	logger  zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for verb tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// New creates a manager.
//
// selector is either a cache.Backend, used as is, or a registered backend name constructed
// with config. config must be nil or a mapping. When host is not nil the manager binds itself
// to the host's State; a host that already carries a manager is a binding conflict. The
// backend is resolved before binding, so a failed construction leaves the host unbound.
func New(host Host, selector any, config any, opts ...Option) (*Manager, error) {
	if _, err := cache.ParseConfig(config); err != nil {
		return nil, err
	}
	backend, err := resolve(selector, config)
	if err != nil {
		return nil, err
	}
	_, provided := selector.(cache.Backend)

	m := &Manager{
		backend: backend,
		sync:    cache.IsSynchronous(backend),
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(m)
	}

	if host != nil {
		state := host.CacheState()
		if state == nil {
			return nil, m.discard(provided, domainerrors.NewConfigurationError("host has no cache state", ""))
		}
		if err := state.bind(m); err != nil {
			return nil, m.discard(provided, err)
		}
		m.host = host
	}

	m.logger.Debug().
		Str("backend", backend.Name()).
		Str("prefix", backend.KeyPrefix()).
		Bool("bound", m.host != nil).
		Msg("cache manager created")
	return m, nil
}

// discard releases a backend this manager constructed itself and returns err.
func (m *Manager) discard(provided bool, err error) error {
	if !provided {
		if derr := m.backend.DestroyCacheContext(context.Background()); derr != nil {
			m.logger.Warn().Err(derr).Msg("failed to destroy discarded cache backend")
		}
	}
	return err
}

// Backend returns the backend.
func (m *Manager) Backend() cache.Backend { return m.backend }

// BackendName returns the backend type name.
func (m *Manager) BackendName() string { return m.backend.Name() }

// Host returns the bound host, or nil.
func (m *Manager) Host() Host { return m.host }

// CacheContext returns the backend's current context, or nil.
func (m *Manager) CacheContext() cache.Context { return m.backend.CacheContext() }

// CreateBackendCacheContext recreates the backend's context after a destroy.
func (m *Manager) CreateBackendCacheContext() error {
	return m.backend.CreateCacheContext()
}

// DestroyBackendCacheContext releases the backend's connection resources. It must be called
// once at shutdown; repeated calls are safe.
func (m *Manager) DestroyBackendCacheContext(ctx context.Context) error {
	return m.backend.DestroyCacheContext(ctx)
}

// Get returns the value of one key, or nil when absent.
func (m *Manager) Get(ctx context.Context, args ...any) (any, error) {
	return run(ctx, m, "get", func(ctx context.Context) (any, error) {
		return m.backend.Get(ctx, args...)
	})
}

// Set stores one key.
func (m *Manager) Set(ctx context.Context, args ...any) (bool, error) {
	return run(ctx, m, "set", func(ctx context.Context) (bool, error) {
		return m.backend.Set(ctx, args...)
	})
}

// Add stores one key if it does not exist.
func (m *Manager) Add(ctx context.Context, args ...any) (bool, error) {
	return run(ctx, m, "add", func(ctx context.Context) (bool, error) {
		return m.backend.Add(ctx, args...)
	})
}

// Delete removes one key.
func (m *Manager) Delete(ctx context.Context, args ...any) (bool, error) {
	return run(ctx, m, "delete", func(ctx context.Context) (bool, error) {
		return m.backend.Delete(ctx, args...)
	})
}

// DeleteMany removes several keys.
func (m *Manager) DeleteMany(ctx context.Context, keys ...any) (bool, error) {
	return run(ctx, m, "delete_many", func(ctx context.Context) (bool, error) {
		return m.backend.DeleteMany(ctx, keys...)
	})
}

// GetMany returns the values of several keys in input order.
func (m *Manager) GetMany(ctx context.Context, keys ...any) ([]any, error) {
	return run(ctx, m, "get_many", func(ctx context.Context) ([]any, error) {
		return m.backend.GetMany(ctx, keys...)
	})
}

// SetMany stores several keys in one batch.
func (m *Manager) SetMany(ctx context.Context, args ...any) (bool, error) {
	return run(ctx, m, "set_many", func(ctx context.Context) (bool, error) {
		return m.backend.SetMany(ctx, args...)
	})
}

// Execute runs a low-level command.
func (m *Manager) Execute(ctx context.Context, args ...any) (any, error) {
	return run(ctx, m, "execute", func(ctx context.Context) (any, error) {
		return m.backend.Execute(ctx, args...)
	})
}

// Clear removes every key of the backend's namespace.
func (m *Manager) Clear(ctx context.Context) (bool, error) {
	return run(ctx, m, "clear", func(ctx context.Context) (bool, error) {
		return m.backend.Clear(ctx)
	})
}

// run executes one verb with tracing, metrics and debug logging. Verbs of synchronous
// backends run on their own goroutine so the caller can abandon them through ctx.
func run[T any](ctx context.Context, m *Manager, verb string, fn func(context.Context) (T, error)) (T, error) {
	name := m.backend.Name()
	ctx, span := tracer.Start(ctx, "cache."+verb,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("cache.backend", name),
			attribute.String("cache.prefix", m.backend.KeyPrefix()),
		),
	)
	defer span.End()

	start := time.Now()
	var (
		v   T
		err error
	)
	if m.sync {
		v, err = detach(ctx, verb, fn)
	} else {
		v, err = fn(ctx)
	}
	elapsed := time.Since(start)

	result := metrics.ResultOK
	if err != nil {
		result = metrics.ResultError
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	metrics.Operations.WithLabelValues(name, verb, result).Inc()
	metrics.OperationDuration.WithLabelValues(name, verb).Observe(elapsed.Seconds())

	m.logger.Debug().
		Str("backend", name).
		Str("verb", verb).
		Dur("latency", elapsed).
		Err(err).
		Msg("cache verb")
	return v, err
}

type outcome[T any] struct {
	v   T
	err error
}

func detach[T any](ctx context.Context, verb string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	done := make(chan outcome[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome[T]{err: errors.Newf("cache %s panicked: %v", verb, r)}
			}
		}()
		v, err := fn(ctx)
		done <- outcome[T]{v: v, err: err}
	}()

	select {
	case o := <-done:
		return o.v, o.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
