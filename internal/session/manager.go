package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"contentforge/internal/provider"
)

// Manager keeps one State per chat, created on first use.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*State
	provider provider.Provider
	opts     Options
}

func NewManager(p provider.Provider, opts Options) *Manager {
	return &Manager{
		sessions: make(map[int64]*State),
		provider: p,
		opts:     opts.withDefaults(),
	}
}

// Get returns the session for key, creating it if needed.
func (m *Manager) Get(ctx context.Context, key int64) (*State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[key]; ok {
		s.LastSeen = m.opts.Now()
		return s, nil
	}

	s, err := New(m.provider, m.opts)
	if err != nil {
		return nil, err
	}
	m.sessions[key] = s
	m.opts.Log.Info("session created", zap.Int64("chat", key), zap.String("session", s.ID))
	return s, nil
}

// Each calls fn for every open session in key order. fn runs without the
// manager lock held; a session is not closed while fn is using it.
func (m *Manager) Each(fn func(key int64, s *State)) {
	m.mu.Lock()
	keys := make([]int64, 0, len(m.sessions))
	for k := range m.sessions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	states := make([]*State, len(keys))
	for i, k := range keys {
		states[i] = m.sessions[k]
	}
	m.mu.Unlock()

	for i, k := range keys {
		m.visit(k, states[i], fn)
	}
}

func (m *Manager) visit(key int64, s *State, fn func(key int64, s *State)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	fn(key, s)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Evict closes sessions not seen for longer than idle and returns how many went.
func (m *Manager) Evict(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.opts.Now().Add(-idle)
	evicted := 0
	for key, s := range m.sessions {
		if s.LastSeen.After(cutoff) {
			continue
		}
		if err := s.Close(); err != nil {
			m.opts.Log.Warn("close idle session", zap.Int64("chat", key), zap.Error(err))
		}
		delete(m.sessions, key)
		evicted++
	}
	if evicted > 0 {
		m.opts.Log.Info("idle sessions evicted", zap.Int("count", evicted))
	}
	return evicted
}

// Close drops every session.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for key, s := range m.sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(m.sessions, key)
	}
	return errors.Join(errs...)
}
