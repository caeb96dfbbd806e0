package manager

import (
	"sync"

	domainerrors "github.com/limccn/omi-cache-manager/internal/domain/errors"
)

// Host is an application object that can carry one cache manager.
type Host interface {
	CacheState() *State
}

// State is the cache slot of a Host. The zero value is an unbound slot.
type State struct {
	mu      sync.RWMutex
	manager *Manager
}

// Manager returns the bound manager, or nil.
func (s *State) Manager() *Manager {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manager
}

// Bound reports whether a manager is bound.
func (s *State) Bound() bool {
	return s.Manager() != nil
}

func (s *State) bind(m *Manager) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.manager != nil {
		return domainerrors.NewBindingConflictError()
	}
	s.manager = m
	return nil
}
