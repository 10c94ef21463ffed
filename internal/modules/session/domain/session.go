package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// MinTopicMinutes is the smallest allocation a topic may receive.
const MinTopicMinutes = 5

const SchemaVersion = 1

type TopicLevel string

const (
	LevelKnown   TopicLevel = "known"
	LevelPartial TopicLevel = "partial"
	LevelUnknown TopicLevel = "unknown"
)

func (l TopicLevel) Validate() error {
	switch l {
	case LevelKnown, LevelPartial, LevelUnknown:
		return nil
	default:
		return fmt.Errorf("unknown topic level: %q", string(l))
	}
}

type TopicStatus string

const (
	TopicPending   TopicStatus = "pending"
	TopicActive    TopicStatus = "active"
	TopicCompleted TopicStatus = "completed"
	TopicBacklog   TopicStatus = "backlog"
)

type Emotion string

const (
	EmotionNeutral   Emotion = "neutral"
	EmotionHappy     Emotion = "happy"
	EmotionSad       Emotion = "sad"
	EmotionTired     Emotion = "tired"
	EmotionAngry     Emotion = "angry"
	EmotionSurprised Emotion = "surprised"
)

func ParseEmotion(raw string) (Emotion, error) {
	e := Emotion(strings.ToLower(strings.TrimSpace(raw)))
	switch e {
	case EmotionNeutral, EmotionHappy, EmotionSad, EmotionTired, EmotionAngry, EmotionSurprised:
		return e, nil
	default:
		return "", fmt.Errorf("unknown emotion: %q", raw)
	}
}

type Topic struct {
	Key            string
	Name           string
	Subject        string
	Level          TopicLevel
	TimeMinutes    int
	Status         TopicStatus
	ElapsedSeconds int
	StartedAt      time.Time
	CompletedAt    time.Time
}

// Remaining reports whether the topic still needs study time.
func (t Topic) Remaining() bool {
	return t.Status == TopicPending || t.Status == TopicActive
}

type BacklogItem struct {
	Name    string
	Subject string
}

type Session struct {
	ID              string
	Topics          []Topic
	CurrentIndex    int
	State           State
	TimerAnchor     time.Time
	Emotions        []Emotion
	Backlog         []BacklogItem
	RescheduleCount int
	TotalMinutes    int
	CreatedAt       time.Time
	CompletedAt     time.Time
}

// Clone returns a deep copy so callers never share slices with a store.
func (s Session) Clone() Session {
	out := s
	out.Topics = slices.Clone(s.Topics)
	out.Emotions = slices.Clone(s.Emotions)
	out.Backlog = slices.Clone(s.Backlog)
	return out
}

// Live reports whether the session counts against the single-active-session rule.
func (s Session) Live() bool {
	return s.State == StateActive || s.State == StatePaused || s.State == StateRescheduling
}

func (s Session) TimerRunning() bool {
	return !s.TimerAnchor.IsZero()
}

// CurrentTopic returns the topic under the cursor, if any.
func (s *Session) CurrentTopic() (*Topic, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Topics) {
		return nil, false
	}
	return &s.Topics[s.CurrentIndex], true
}

func (s Session) TotalAllocatedMinutes() int {
	total := 0
	for _, t := range s.Topics {
		total += t.TimeMinutes
	}
	return total
}

// RemainingTopicIndexes lists topics at or after the cursor that still need time.
func (s Session) RemainingTopicIndexes() []int {
	out := []int{}
	for i := s.CurrentIndex; i < len(s.Topics); i++ {
		if i >= 0 && s.Topics[i].Remaining() {
			out = append(out, i)
		}
	}
	return out
}

func (s Session) CountStatus(status TopicStatus) int {
	n := 0
	for _, t := range s.Topics {
		if t.Status == status {
			n++
		}
	}
	return n
}
