package service

import (
	"time"

	"mindtrack/internal/modules/session/domain"
	"mindtrack/internal/platform/clock"
)

// TimerAccountant turns timer anchors and clock reads into study durations.
// Each method reads the clock once; durations never go negative.
type TimerAccountant struct {
	clock clock.Clock
}

func NewTimerAccountant(clk clock.Clock) TimerAccountant {
	return TimerAccountant{clock: clk}
}

// StartTopic activates the topic at index and starts the timer on it.
func (t TimerAccountant) StartTopic(s *domain.Session, index int) error {
	if index < 0 || index >= len(s.Topics) {
		return domain.ErrNoActiveTopic
	}
	now := t.clock.Now()
	topic := &s.Topics[index]
	topic.Status = domain.TopicActive
	if topic.StartedAt.IsZero() {
		topic.StartedAt = now
	}
	s.TimerAnchor = now
	return nil
}

// RemainingSeconds reports the time left on the current topic.
func (t TimerAccountant) RemainingSeconds(s domain.Session) (int, bool) {
	topic, ok := s.CurrentTopic()
	if !ok {
		return 0, false
	}
	spent := topic.ElapsedSeconds + liveDelta(s, t.clock.Now())
	return max(0, topic.TimeMinutes*60-spent), true
}

// Pause folds the running delta into the current topic. No-op when stopped.
func (t TimerAccountant) Pause(s *domain.Session) {
	t.fold(s)
}

// Resume restarts the timer; callers check the state machine first.
func (t TimerAccountant) Resume(s *domain.Session) {
	s.TimerAnchor = t.clock.Now()
}

// Stop folds the running delta like Pause and returns the whole minutes folded.
func (t TimerAccountant) Stop(s *domain.Session) int {
	return t.fold(s) / 60
}

func (t TimerAccountant) TotalStudiedMinutes(s domain.Session) int {
	total := 0
	for _, topic := range s.Topics {
		total += topic.ElapsedSeconds
	}
	total += liveDelta(s, t.clock.Now())
	return total / 60
}

func (t TimerAccountant) fold(s *domain.Session) int {
	if !s.TimerRunning() {
		return 0
	}
	delta := liveDelta(*s, t.clock.Now())
	if topic, ok := s.CurrentTopic(); ok {
		topic.ElapsedSeconds += delta
	}
	s.TimerAnchor = time.Time{}
	return delta
}

func liveDelta(s domain.Session, now time.Time) int {
	return clock.WholeSeconds(s.TimerAnchor, now)
}
