package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mindtrack/internal/modules/session/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type seqID struct {
	mu sync.Mutex
	n  int
}

func (s *seqID) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("sess-%d", s.n)
}

type fakeAllocator struct {
	initial    []domain.Allocation
	reallocate func(ctx context.Context, topics []domain.Topic, remaining int) ([]domain.Allocation, error)
	status     domain.AllocatorStatus
	requested  []domain.Topic
	remaining  int
}

func (f *fakeAllocator) AllocateInitial(context.Context, []domain.Topic, int) []domain.Allocation {
	return f.initial
}

func (f *fakeAllocator) Reallocate(ctx context.Context, topics []domain.Topic, remaining int) ([]domain.Allocation, error) {
	f.requested = topics
	f.remaining = remaining
	if f.reallocate == nil {
		return nil, nil
	}
	return f.reallocate(ctx, topics, remaining)
}

func (f *fakeAllocator) Check(context.Context) domain.AllocatorStatus {
	return f.status
}

type fakeClassifier struct {
	emotion domain.Emotion
	calls   int
}

func (f *fakeClassifier) Classify(context.Context, []byte) domain.Emotion {
	f.calls++
	return f.emotion
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
}

func (f *fakeHistory) Record(_ context.Context, entry domain.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeHistory) List(context.Context, int) ([]domain.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.HistoryEntry(nil), f.entries...), nil
}
