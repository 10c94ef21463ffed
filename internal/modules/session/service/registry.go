package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"mindtrack/internal/modules/session/domain"
	sessionout "mindtrack/internal/modules/session/port/out"
	"mindtrack/internal/platform/clock"
	apperrors "mindtrack/internal/platform/errors"
	"mindtrack/internal/platform/id"
)

const (
	defaultSubject = "General"
	defaultLevel   = domain.LevelPartial
)

// Registry owns every session and enforces that at most one is live.
type Registry struct {
	mu    sync.Mutex
	store sessionout.SessionStore
	idGen id.Generator
	clock clock.Clock
}

func NewRegistry(store sessionout.SessionStore, idGen id.Generator, clk clock.Clock) *Registry {
	return &Registry{store: store, idGen: idGen, clock: clk}
}

// Create stores a new session under a fresh id. It fails with
// ErrActiveSessionExists while another session is active, paused or rescheduling.
func (r *Registry) Create(ctx context.Context, session domain.Session) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.live(ctx); err == nil {
		return domain.Session{}, apperrors.ErrActiveSessionExists
	} else if err != apperrors.ErrNoActiveSession {
		return domain.Session{}, err
	}

	session = session.Clone()
	session.ID = r.idGen.New()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = r.clock.Now()
	}
	Normalize(&session)
	if err := r.store.Insert(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session.Clone(), nil
}

func (r *Registry) Get(ctx context.Context, id string) (domain.Session, error) {
	return r.store.Get(ctx, id)
}

func (r *Registry) Update(ctx context.Context, session domain.Session) error {
	if session.Backlog == nil {
		session.Backlog = []domain.BacklogItem{}
	}
	return r.store.Update(ctx, session)
}

func (r *Registry) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, id)
}

// GetActive returns the session that is active or paused.
func (r *Registry) GetActive(ctx context.Context) (domain.Session, error) {
	return r.find(ctx, func(s domain.Session) bool {
		return s.State == domain.StateActive || s.State == domain.StatePaused
	})
}

// Live also includes a session that is mid-reschedule.
func (r *Registry) Live(ctx context.Context) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live(ctx)
}

// LatestCompleted returns the most recently created completed session.
func (r *Registry) LatestCompleted(ctx context.Context) (domain.Session, error) {
	sessions, err := r.store.List(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	var latest domain.Session
	found := false
	for _, s := range sessions {
		if s.State != domain.StateCompleted {
			continue
		}
		if !found || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
			found = true
		}
	}
	if !found {
		return domain.Session{}, fmt.Errorf("%w: no completed session", domain.ErrSessionNotFound)
	}
	return latest, nil
}

func (r *Registry) live(ctx context.Context) (domain.Session, error) {
	return r.find(ctx, domain.Session.Live)
}

func (r *Registry) find(ctx context.Context, match func(domain.Session) bool) (domain.Session, error) {
	sessions, err := r.store.List(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	for _, s := range sessions {
		if match(s) {
			return s, nil
		}
	}
	return domain.Session{}, apperrors.ErrNoActiveSession
}

// Normalize fills defaults for optional session and topic fields.
func Normalize(s *domain.Session) {
	if s.Backlog == nil {
		s.Backlog = []domain.BacklogItem{}
	}
	if s.Emotions == nil {
		s.Emotions = []domain.Emotion{}
	}
	for i := range s.Topics {
		t := &s.Topics[i]
		t.Name = strings.TrimSpace(t.Name)
		t.Subject = strings.TrimSpace(t.Subject)
		if t.Subject == "" {
			t.Subject = defaultSubject
		}
		if t.Level.Validate() != nil {
			t.Level = defaultLevel
		}
		if t.Status == "" {
			t.Status = domain.TopicPending
		}
		if t.Key == "" {
			t.Key = fmt.Sprintf("t%d", i+1)
		}
	}
}
