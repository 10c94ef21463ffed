package service

import "mindtrack/internal/modules/session/domain"

// EmotionEvaluator keeps a sliding window of the last N emotions per session
// and fires when every entry in a full window is negative.
type EmotionEvaluator struct {
	capacity int
	negative map[domain.Emotion]struct{}
}

func NewEmotionEvaluator(capacity int, negative []domain.Emotion) EmotionEvaluator {
	if capacity < 1 {
		capacity = 1
	}
	set := make(map[domain.Emotion]struct{}, len(negative))
	for _, e := range negative {
		set[e] = struct{}{}
	}
	return EmotionEvaluator{capacity: capacity, negative: set}
}

func (e EmotionEvaluator) Capacity() int {
	return e.capacity
}

func (e EmotionEvaluator) IsNegative(emotion domain.Emotion) bool {
	_, ok := e.negative[emotion]
	return ok
}

func (e EmotionEvaluator) Record(s *domain.Session, emotion domain.Emotion) {
	s.Emotions = append(s.Emotions, emotion)
	if len(s.Emotions) > e.capacity {
		s.Emotions = append([]domain.Emotion(nil), s.Emotions[len(s.Emotions)-e.capacity:]...)
	}
}

func (e EmotionEvaluator) Evaluate(s domain.Session) domain.Trigger {
	if len(s.Emotions) < e.capacity {
		return domain.Trigger{Message: domain.TriggerMessageWarmingUp}
	}
	for _, emotion := range s.Emotions[len(s.Emotions)-e.capacity:] {
		if !e.IsNegative(emotion) {
			return domain.Trigger{Message: domain.TriggerMessageStable}
		}
	}
	return domain.Trigger{Ready: true, Message: domain.TriggerMessageReady}
}

// Recent returns up to count of the latest emotions, oldest first.
func (e EmotionEvaluator) Recent(s domain.Session, count int) []domain.Emotion {
	if count <= 0 || len(s.Emotions) == 0 {
		return []domain.Emotion{}
	}
	start := max(0, len(s.Emotions)-count)
	return append([]domain.Emotion(nil), s.Emotions[start:]...)
}

func (e EmotionEvaluator) Clear(s *domain.Session) {
	s.Emotions = []domain.Emotion{}
}

func (e EmotionEvaluator) Distribution(s domain.Session) map[domain.Emotion]int {
	out := map[domain.Emotion]int{}
	for _, emotion := range s.Emotions {
		out[emotion]++
	}
	return out
}
