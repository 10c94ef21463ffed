package domain_test

import (
	"errors"
	"testing"

	"mindtrack/internal/modules/session/domain"
)

func TestStateTransitions(t *testing.T) {
	t.Parallel()
	cases := []struct {
		from domain.State
		ev   domain.Event
		want domain.State
	}{
		{domain.StateIdle, domain.EventStart, domain.StateActive},
		{domain.StateActive, domain.EventAdvance, domain.StateActive},
		{domain.StateActive, domain.EventFinish, domain.StateCompleted},
		{domain.StateActive, domain.EventPause, domain.StatePaused},
		{domain.StatePaused, domain.EventResume, domain.StateActive},
		{domain.StateActive, domain.EventBeginReschedule, domain.StateRescheduling},
		{domain.StateRescheduling, domain.EventEndReschedule, domain.StateActive},
	}
	for _, tc := range cases {
		got, err := tc.from.Next(tc.ev)
		if err != nil {
			t.Fatalf("%s --%s--> unexpected error: %v", tc.from, tc.ev, err)
		}
		if got != tc.want {
			t.Fatalf("%s --%s--> %s, want %s", tc.from, tc.ev, got, tc.want)
		}
	}
}

func TestIllegalTransitionReportsRequiredState(t *testing.T) {
	t.Parallel()
	_, err := domain.StatePaused.Next(domain.EventPause)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	var stateErr *domain.InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected *InvalidStateError, got %T", err)
	}
	if stateErr.Current != domain.StatePaused || stateErr.Required != domain.StateActive {
		t.Fatalf("unexpected error fields: %+v", stateErr)
	}
}

func TestCompletedIsTerminal(t *testing.T) {
	t.Parallel()
	if !domain.StateCompleted.Terminal() {
		t.Fatalf("completed must be terminal")
	}
	for _, ev := range []domain.Event{domain.EventStart, domain.EventAdvance, domain.EventPause, domain.EventResume, domain.EventBeginReschedule} {
		if _, err := domain.StateCompleted.Next(ev); err == nil {
			t.Fatalf("completed must reject %s", ev)
		}
	}
}

func TestApplyLeavesSessionUntouchedOnError(t *testing.T) {
	t.Parallel()
	s := domain.Session{State: domain.StateRescheduling}
	if err := s.Apply(domain.EventPause); err == nil {
		t.Fatalf("expected error")
	}
	if s.State != domain.StateRescheduling {
		t.Fatalf("state changed on rejected event: %s", s.State)
	}
}

func TestRemainingTopicIndexesStartAtCursor(t *testing.T) {
	t.Parallel()
	s := domain.Session{
		CurrentIndex: 1,
		Topics: []domain.Topic{
			{Status: domain.TopicPending},
			{Status: domain.TopicActive},
			{Status: domain.TopicCompleted},
			{Status: domain.TopicPending},
		},
	}
	got := s.RemainingTopicIndexes()
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("unexpected remaining indexes: %v", got)
	}
}

func TestCloneDoesNotShareSlices(t *testing.T) {
	t.Parallel()
	s := domain.Session{Topics: []domain.Topic{{Name: "a"}}, Emotions: []domain.Emotion{domain.EmotionSad}}
	c := s.Clone()
	c.Topics[0].Name = "b"
	c.Emotions[0] = domain.EmotionHappy
	if s.Topics[0].Name != "a" || s.Emotions[0] != domain.EmotionSad {
		t.Fatalf("clone shares backing arrays")
	}
}

func TestCloneKeepsEmptySlicesNonNil(t *testing.T) {
	t.Parallel()
	s := domain.Session{Backlog: []domain.BacklogItem{}, Emotions: []domain.Emotion{}}
	c := s.Clone()
	if c.Backlog == nil || c.Emotions == nil {
		t.Fatalf("empty slices became nil: backlog=%#v emotions=%#v", c.Backlog, c.Emotions)
	}
	if (domain.Session{}).Clone().Topics != nil {
		t.Fatalf("nil topics should stay nil")
	}
}
