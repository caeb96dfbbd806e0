package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/limccn/omi-cache-manager/internal/core/cache"
)

type entry struct {
	value     any
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// store is the map handle owned by a dictContext.
type store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

func newStore(now func() time.Time) *store {
	return &store{
		entries: make(map[string]*entry),
		now:     now,
	}
}

func (s *store) get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || e.expired(s.now()) {
		return nil, false
	}
	return e.value, true
}

// set writes key under the existence condition and reports whether it wrote.
func (s *store) set(key string, value any, opts cache.SetOptions) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e, ok := s.entries[key]
	exists := ok && !e.expired(now)
	switch opts.Exist {
	case cache.SetIfNotExist:
		if exists {
			return false
		}
	case cache.SetIfExist:
		if !exists {
			return false
		}
	}
	var expiresAt time.Time
	if opts.TTL > 0 {
		expiresAt = now.Add(opts.TTL)
	}
	s.entries[key] = &entry{value: value, expiresAt: expiresAt}
	return true
}

func (s *store) setMany(pairs []cache.Pair, makeKey func(any) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range pairs {
		s.entries[makeKey(p.Key)] = &entry{value: p.Value}
	}
}

func (s *store) delete(keys ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for _, key := range keys {
		e, ok := s.entries[key]
		if !ok {
			continue
		}
		delete(s.entries, key)
		if !e.expired(now) {
			removed++
		}
	}
	return removed
}

// count returns the number of live keys carrying prefix.
func (s *store) count(prefix string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	n := 0
	for key, e := range s.entries {
		if strings.HasPrefix(key, prefix) && !e.expired(now) {
			n++
		}
	}
	return n
}

// clear removes every key carrying prefix and returns how many live keys it removed.
func (s *store) clear(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for key, e := range s.entries {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if !e.expired(now) {
			n++
		}
		delete(s.entries, key)
	}
	return n
}

// dictContext owns the map of a Backend. The map is created on first acquisition.
type dictContext struct {
	mu    sync.Mutex
	store *store
	now   func() time.Time
}

var _ cache.Context = (*dictContext)(nil)

func newDictContext(now func() time.Time) *dictContext {
	return &dictContext{now: now}
}

// Acquire returns the map, creating it if needed. The release func is a no-op: the map
// outlives every scope.
func (c *dictContext) Acquire(_ context.Context) (*store, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = newStore(c.now)
	}
	return c.store, func() {}, nil
}

// Active implements cache.Context.
func (c *dictContext) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store != nil
}

// Destroy implements cache.Context.
func (c *dictContext) Destroy(_ context.Context) error {
	c.mu.Lock()
	s := c.store
	c.store = nil
	c.mu.Unlock()
	if s == nil {
		return nil
	}
	s.mu.Lock()
	clear(s.entries)
	s.mu.Unlock()
	return nil
}
