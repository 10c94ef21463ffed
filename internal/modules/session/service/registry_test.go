package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	sessionadapter "mindtrack/internal/modules/session/adapter/out"
	"mindtrack/internal/modules/session/domain"
	"mindtrack/internal/modules/session/service"
	apperrors "mindtrack/internal/platform/errors"
)

func newRegistry() (*service.Registry, *fakeClock) {
	clk := newFakeClock()
	return service.NewRegistry(sessionadapter.NewMemorySessionStore(), &seqID{}, clk), clk
}

func TestRegistryCreateNormalizes(t *testing.T) {
	t.Parallel()
	registry, _ := newRegistry()
	s, err := registry.Create(context.Background(), domain.Session{
		State:  domain.StateActive,
		Topics: []domain.Topic{{Name: " Limits ", Level: "expert"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	topic := s.Topics[0]
	if s.ID != "sess-1" || topic.Name != "Limits" || topic.Subject != "General" || topic.Level != domain.LevelPartial || topic.Status != domain.TopicPending || topic.Key != "t1" {
		t.Fatalf("unexpected normalized session: %+v", s)
	}
	if s.Backlog == nil || s.Emotions == nil || s.CreatedAt.IsZero() {
		t.Fatalf("optional fields must be filled: %+v", s)
	}
}

func TestRegistrySingleLiveSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	registry, _ := newRegistry()
	first, err := registry.Create(ctx, domain.Session{State: domain.StateRescheduling})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := registry.Create(ctx, domain.Session{State: domain.StateActive}); !errors.Is(err, apperrors.ErrActiveSessionExists) {
		t.Fatalf("expected active session exists, got %v", err)
	}
	if _, err := registry.GetActive(ctx); !errors.Is(err, apperrors.ErrNoActiveSession) {
		t.Fatalf("rescheduling session is not active or paused, got %v", err)
	}
	live, err := registry.Live(ctx)
	if err != nil || live.ID != first.ID {
		t.Fatalf("live must include rescheduling: %v", err)
	}
}

func TestRegistryLatestCompleted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	registry, clk := newRegistry()
	if _, err := registry.LatestCompleted(ctx); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	first, _ := registry.Create(ctx, domain.Session{State: domain.StateCompleted})
	clk.Advance(time.Minute)
	second, _ := registry.Create(ctx, domain.Session{State: domain.StateCompleted})
	latest, err := registry.LatestCompleted(ctx)
	if err != nil {
		t.Fatalf("latest completed: %v", err)
	}
	if latest.ID != second.ID || latest.ID == first.ID {
		t.Fatalf("expected %s, got %s", second.ID, latest.ID)
	}
}
