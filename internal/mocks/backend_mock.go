// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/limccn/omi-cache-manager/internal/core/cache"
)

// MockBackend is a mock implementation of cache.Backend.
// Variadic verb arguments are recorded as a single []any.
type MockBackend struct {
	mock.Mock
	name   string
	prefix string
}

var _ cache.Backend = (*MockBackend)(nil)

// NewMockBackend creates a MockBackend reporting the given name and prefix.
func NewMockBackend(name, prefix string) *MockBackend {
	return &MockBackend{name: name, prefix: prefix}
}

func (m *MockBackend) Name() string           { return m.name }
func (m *MockBackend) KeyPrefix() string      { return m.prefix }
func (m *MockBackend) MakeKey(key any) string { return cache.MakeKey(m.prefix, key) }

// CacheContext returns the mocked context.
func (m *MockBackend) CacheContext() cache.Context {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(cache.Context)
}

// CreateCacheContext records the call.
func (m *MockBackend) CreateCacheContext() error {
	args := m.Called()
	return args.Error(0)
}

// DestroyCacheContext records the call.
func (m *MockBackend) DestroyCacheContext(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Get returns the mocked value.
func (m *MockBackend) Get(ctx context.Context, a ...any) (any, error) {
	args := m.Called(ctx, a)
	return args.Get(0), args.Error(1)
}

// Set returns the mocked result.
func (m *MockBackend) Set(ctx context.Context, a ...any) (bool, error) {
	args := m.Called(ctx, a)
	return args.Bool(0), args.Error(1)
}

// Add returns the mocked result.
func (m *MockBackend) Add(ctx context.Context, a ...any) (bool, error) {
	args := m.Called(ctx, a)
	return args.Bool(0), args.Error(1)
}

// Delete returns the mocked result.
func (m *MockBackend) Delete(ctx context.Context, a ...any) (bool, error) {
	args := m.Called(ctx, a)
	return args.Bool(0), args.Error(1)
}

// DeleteMany returns the mocked result.
func (m *MockBackend) DeleteMany(ctx context.Context, keys ...any) (bool, error) {
	args := m.Called(ctx, keys)
	return args.Bool(0), args.Error(1)
}

// GetMany returns the mocked values.
func (m *MockBackend) GetMany(ctx context.Context, keys ...any) ([]any, error) {
	args := m.Called(ctx, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]any), args.Error(1)
}

// SetMany returns the mocked result.
func (m *MockBackend) SetMany(ctx context.Context, a ...any) (bool, error) {
	args := m.Called(ctx, a)
	return args.Bool(0), args.Error(1)
}

// Execute returns the mocked reply.
func (m *MockBackend) Execute(ctx context.Context, a ...any) (any, error) {
	args := m.Called(ctx, a)
	return args.Get(0), args.Error(1)
}

// Clear returns the mocked result.
func (m *MockBackend) Clear(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}
