package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wallsified/pdf-o-matico/internal/pdf"
	"github.com/wallsified/pdf-o-matico/internal/tools"
)

// ErrNotFound is returned for an unknown session id.
var ErrNotFound = errors.New("session not found")

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Tools  *tools.Registry
	Engine pdf.Engine
	Store  Store
	Logger *slog.Logger

	// Now overrides the clock (tests)
	Now func() time.Time
}

// Manager tracks live sessions by id.
type Manager struct {
	tools  *tools.Registry
	engine pdf.Engine
	store  Store
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty manager.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		tools:    cfg.Tools,
		engine:   cfg.Engine,
		store:    cfg.Store,
		logger:   logger.With("component", "sessions"),
		now:      now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a session for the named tool.
func (m *Manager) Create(toolName string) (*Session, error) {
	tool, err := m.tools.Get(toolName)
	if err != nil {
		return nil, err
	}

	s, err := New(Config{
		ID:     uuid.NewString(),
		Tool:   tool,
		Engine: m.engine,
		Store:  m.store,
		Logger: m.logger,
		Now:    m.now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.logger.Info("session created", "id", s.ID(), "tool", toolName)
	return s, nil
}

// Get returns a session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Delete removes a session and its transient files.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := s.Close(); err != nil {
		return err
	}
	m.logger.Info("session deleted", "id", id)
	return nil
}

// List returns the state of every session, oldest activity first.
func (m *Manager) List() []State {
	m.mu.RLock()
	states := make([]State, 0, len(m.sessions))
	for _, s := range m.sessions {
		states = append(states, s.State())
	}
	m.mu.RUnlock()

	sort.Slice(states, func(i, j int) bool {
		if states[i].UpdatedAt.Equal(states[j].UpdatedAt) {
			return states[i].ID < states[j].ID
		}
		return states[i].UpdatedAt.Before(states[j].UpdatedAt)
	})
	return states
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep deletes sessions idle for longer than maxIdle and returns how many
// were removed. Sessions in the middle of a transform are kept.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	removed := 0
	for _, id := range ids {
		if m.expire(id, cutoff) {
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("expired idle sessions", "count", removed)
	}
	return removed
}

// expire removes the session if it is still idle. The idle check and the
// close happen under the session lock, so a transform cannot start between
// them.
func (m *Manager) expire(id string, cutoff time.Time) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok || !s.retire(cutoff) {
		m.mu.Unlock()
		return false
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	if err := s.Close(); err != nil {
		m.logger.Warn("failed to expire session", "id", id, "error", err)
	}
	return true
}

// Run sweeps every interval until ctx is done, then closes all sessions.
func (m *Manager) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Shutdown()
			return
		case <-ticker.C:
			m.Sweep(maxIdle)
		}
	}
}

// Shutdown deletes every session.
func (m *Manager) Shutdown() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		if err := m.Delete(id); err != nil && !errors.Is(err, ErrNotFound) {
			m.logger.Warn("failed to close session", "id", id, "error", err)
		}
	}
}
