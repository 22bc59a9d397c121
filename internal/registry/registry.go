// Package registry holds live exam sessions. Sessions exist only in
// process memory: restarts drop them and nothing is shared across
// processes.
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/echoexam/echo-backend/internal/model"
)

// Store is the injectable session registry boundary. Eviction policy
// belongs to the implementation, not to the callers.
type Store interface {
	Put(s *model.ExamSession)
	Get(id uuid.UUID) (*model.ExamSession, bool)
	Len() int
}

type entry struct {
	session  *model.ExamSession
	lastSeen time.Time
}

// MemoryStore keeps sessions in a mutex-guarded map. A TTL of zero
// keeps sessions for the process lifetime; a positive TTL evicts
// sessions idle for longer than the TTL. Eviction only unlinks the
// session; grading tasks still holding a pointer finish harmlessly.
type MemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[uuid.UUID]*entry
	log      zerolog.Logger
}

// NewMemoryStore creates a MemoryStore with the given idle TTL.
func NewMemoryStore(ttl time.Duration, log zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[uuid.UUID]*entry),
		log:      log.With().Str("component", "session_registry").Logger(),
	}
}

// Put registers a session.
func (m *MemoryStore) Put(s *model.ExamSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = &entry{session: s, lastSeen: time.Now()}
}

// Get returns a session and refreshes its idle clock.
func (m *MemoryStore) Get(id uuid.UUID) (*model.ExamSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = time.Now()
	return e.session, true
}

// Len reports the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Start runs the eviction sweep until ctx is cancelled. With a zero
// TTL there is nothing to do and Start returns immediately.
func (m *MemoryStore) Start(ctx context.Context) {
	if m.ttl <= 0 {
		return
	}
	m.log.Info().Dur("ttl", m.ttl).Msg("Session eviction sweep started")

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("Session eviction sweep stopped")
			return
		case <-ticker.C:
			if n := m.evictIdle(time.Now()); n > 0 {
				m.log.Info().Int("evicted", n).Int("remaining", m.Len()).Msg("Evicted idle sessions")
			}
		}
	}
}

// evictIdle drops sessions idle longer than the TTL and returns how
// many were removed.
func (m *MemoryStore) evictIdle(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for id, e := range m.sessions {
		if now.Sub(e.lastSeen) > m.ttl {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}
