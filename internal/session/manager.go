// Package session tracks browser sessions and the lifecycle of the search each
// one is running. Every session runs at most one search at a time.
package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	internalErrors "github.com/gcbaptista/imagination-concordance/internal/errors"
	"github.com/gcbaptista/imagination-concordance/model"
)

// allowedTransitions encodes the search lifecycle:
// idle -> validating -> requesting -> rendering -> idle, with error reachable
// from validating and requesting. error behaves like idle for a new search.
var allowedTransitions = map[model.LifecycleState][]model.LifecycleState{
	model.StateIdle:       {model.StateValidating},
	model.StateValidating: {model.StateRequesting, model.StateError, model.StateIdle},
	model.StateRequesting: {model.StateRendering, model.StateError},
	model.StateRendering:  {model.StateIdle},
	model.StateError:      {model.StateValidating},
}

type session struct {
	info  model.SessionInfo
	guard *semaphore.Weighted
}

// Manager owns all sessions
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*session
	ttl      time.Duration
	limit    int // 0 means unbounded
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	logger   *slog.Logger
	now      func() time.Time
}

// NewManager creates a session manager. Sessions idle for longer than ttl are
// removed by the cleanup routine started with Start.
func NewManager(ttl time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*session),
		ttl:      ttl,
		stopChan: make(chan struct{}),
		logger:   logger.With("component", "session"),
		now:      time.Now,
	}
}

// Start begins the background cleanup routine
func (m *Manager) Start() {
	m.wg.Add(1)
	go m.cleanupRoutine()
}

// Stop ends the cleanup routine. It is safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
	m.wg.Wait()
}

// SetLimit caps the number of live sessions. When the cap is reached, Create
// evicts the least recently active session that has no search in flight.
func (m *Manager) SetLimit(limit int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limit = limit
}

// Create registers a new idle session and returns its ID
func (m *Manager) Create() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.limit > 0 && len(m.sessions) >= m.limit {
		m.evictLocked()
	}

	now := m.now()
	s := &session{
		info: model.SessionInfo{
			ID:         uuid.New().String(),
			State:      model.StateIdle,
			CreatedAt:  now,
			LastActive: now,
		},
		guard: semaphore.NewWeighted(1),
	}
	m.sessions[s.info.ID] = s
	return s.info.ID
}

// Ensure returns id when it names a live session, otherwise a new session ID.
func (m *Manager) Ensure(id string) (string, bool) {
	if id != "" {
		m.mu.RLock()
		_, exists := m.sessions[id]
		m.mu.RUnlock()
		if exists {
			return id, false
		}
	}
	return m.Create(), true
}

// evictLocked drops the least recently active idle session. m.mu must be held.
func (m *Manager) evictLocked() {
	var oldest *session
	for _, s := range m.sessions {
		if s.info.InFlight {
			continue
		}
		if oldest == nil || s.info.LastActive.Before(oldest.info.LastActive) {
			oldest = s
		}
	}
	if oldest == nil {
		m.logger.Warn("session limit reached with every session searching", "limit", m.limit)
		return
	}
	delete(m.sessions, oldest.info.ID)
	m.logger.Debug("evicted session at limit", "session", oldest.info.ID, "limit", m.limit)
}

// Get returns a copy of the session's state
func (m *Manager) Get(id string) (*model.SessionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.sessions[id]
	if !exists {
		return nil, internalErrors.NewSessionNotFoundError(id)
	}
	info := s.info
	return &info, nil
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Begin claims the session's search slot and moves it to validating.
// It fails with ErrSearchInFlight while another search of the same session
// has not settled.
func (m *Manager) Begin(id, query string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, exists := m.sessions[id]
	if !exists {
		return nil, internalErrors.NewSessionNotFoundError(id)
	}
	if !s.guard.TryAcquire(1) {
		return nil, internalErrors.ErrSearchInFlight
	}

	previous := s.info.State
	if err := m.transitionLocked(s, model.StateValidating); err != nil {
		s.guard.Release(1)
		return nil, err
	}
	s.info.InFlight = true
	s.info.LastQuery = query
	s.info.LastActive = m.now()

	return &Run{manager: m, id: id, previous: previous}, nil
}

// transitionLocked moves s to state. m.mu must be held.
func (m *Manager) transitionLocked(s *session, to model.LifecycleState) error {
	for _, allowed := range allowedTransitions[s.info.State] {
		if allowed == to {
			s.info.State = to
			return nil
		}
	}
	return fmt.Errorf("invalid lifecycle transition %s -> %s for session %s", s.info.State, to, s.info.ID)
}

func (m *Manager) transition(id string, to model.LifecycleState, mutate func(info *model.SessionInfo)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, exists := m.sessions[id]
	if !exists {
		return internalErrors.NewSessionNotFoundError(id)
	}
	if err := m.transitionLocked(s, to); err != nil {
		m.logger.Warn("lifecycle transition rejected", "error", err)
		return err
	}
	s.info.LastActive = m.now()
	if mutate != nil {
		mutate(&s.info)
	}
	return nil
}

func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, exists := m.sessions[id]; exists {
		s.info.InFlight = false
		s.guard.Release(1)
	}
}

// cleanupRoutine periodically removes expired sessions
func (m *Manager) cleanupRoutine() {
	defer m.wg.Done()

	interval := m.ttl / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CleanupExpired()
		case <-m.stopChan:
			return
		}
	}
}

// CleanupExpired removes sessions idle for longer than the TTL.
// Sessions with a search in flight are kept.
func (m *Manager) CleanupExpired() int {
	if m.ttl <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.ttl)
	cleaned := 0
	for id, s := range m.sessions {
		if !s.info.InFlight && s.info.LastActive.Before(cutoff) {
			delete(m.sessions, id)
			cleaned++
		}
	}

	if cleaned > 0 {
		m.logger.Info("cleaned up expired sessions", "count", cleaned)
	}
	return cleaned
}
