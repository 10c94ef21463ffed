package out

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"mindtrack/internal/modules/session/domain"
	sessionout "mindtrack/internal/modules/session/port/out"
)

// MemorySessionStore keeps sessions in process. Every read and write copies.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewMemorySessionStore() sessionout.SessionStore {
	return &MemorySessionStore{sessions: map[string]domain.Session{}}
}

func (s *MemorySessionStore) Insert(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return fmt.Errorf("session %q already stored", session.ID)
	}
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return session.Clone(), nil
}

func (s *MemorySessionStore) Update(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, session.ID)
	}
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	return nil
}

// List returns sessions ordered by creation time.
func (s *MemorySessionStore) List(_ context.Context) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
