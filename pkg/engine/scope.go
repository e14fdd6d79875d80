package engine

import (
	"strings"
	"sync"

	"vueblade/pkg/utils/coerce"
)

// Scope holds the variables a template renders against. Lookups fall back
// to the parent scope, so included views can shadow without copying.
type Scope struct {
	mu     sync.RWMutex
	vars   map[string]interface{}
	parent *Scope
}

func NewScope(parent *Scope) *Scope {
	return &Scope{
		vars:   make(map[string]interface{}),
		parent: parent,
	}
}

// NewScopeFrom seeds a root scope with data.
func NewScopeFrom(data map[string]interface{}) *Scope {
	s := NewScope(nil)
	for k, v := range data {
		s.vars[k] = v
	}
	return s
}

func (s *Scope) Set(key string, val interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[key] = val
}

// Get returns the variable stored under key. Dotted keys (user.profile.name)
// walk into nested maps; a missing segment reports false.
func (s *Scope) Get(key string) (interface{}, bool) {
	if val, ok := s.lookup(key); ok {
		return val, true
	}
	if !strings.Contains(key, ".") {
		return nil, false
	}

	parts := strings.Split(key, ".")
	current, ok := s.lookup(parts[0])
	if !ok {
		return nil, false
	}
	for _, part := range parts[1:] {
		if current == nil {
			return nil, false
		}
		m, err := coerce.ToMap(current)
		if err != nil || m == nil {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func (s *Scope) lookup(key string) (interface{}, bool) {
	s.mu.RLock()
	val, ok := s.vars[key]
	parent := s.parent
	s.mu.RUnlock()

	if ok {
		return val, true
	}
	// parent is consulted after the read lock is released to avoid lock
	// ordering problems between nested scopes.
	if parent != nil {
		return parent.lookup(key)
	}
	return nil, false
}

// ToMap flattens the scope chain into a plain map, inner scopes winning.
func (s *Scope) ToMap() map[string]interface{} {
	var m map[string]interface{}
	if s.parent != nil {
		m = s.parent.ToMap()
	} else {
		m = make(map[string]interface{})
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.vars {
		m[k] = v
	}
	return m
}
