package api

import (
	"sync"

	"github.com/papercomputeco/tales/pkg/engine"
	"github.com/papercomputeco/tales/pkg/metrics"
)

// Sessions holds the live engines by session id.
type Sessions struct {
	mu      sync.RWMutex
	engines map[string]*engine.Engine
}

func NewSessions() *Sessions {
	return &Sessions{engines: make(map[string]*engine.Engine)}
}

// Put registers an engine under its session id, replacing a previous one.
func (s *Sessions) Put(e *engine.Engine) string {
	id := e.Snapshot().ID

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.engines[id]; !ok {
		metrics.ActiveSessions.Inc()
	}
	s.engines[id] = e
	return id
}

func (s *Sessions) Get(id string) (*engine.Engine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.engines[id]
	return e, ok
}

// Delete drops a session. It reports whether the session existed.
func (s *Sessions) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.engines[id]; !ok {
		return false
	}
	delete(s.engines, id)
	metrics.ActiveSessions.Dec()
	return true
}

func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.engines)
}
