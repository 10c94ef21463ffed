package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mindtrack/internal/modules/session/domain"
	sessionout "mindtrack/internal/modules/session/port/out"
	"mindtrack/internal/platform/clock"
	apperrors "mindtrack/internal/platform/errors"
	"mindtrack/internal/platform/tx"
)

const (
	MaxTotalMinutes         = 600
	defaultAllocatorTimeout = 30 * time.Second
	recentEmotionCount      = 3
)

type Deps struct {
	Registry         *Registry
	Locker           tx.Manager
	Clock            clock.Clock
	Timer            TimerAccountant
	Emotions         EmotionEvaluator
	Allocator        sessionout.Allocator
	Classifier       sessionout.EmotionClassifier
	History          sessionout.HistoryStore
	Reports          sessionout.ReportWriter
	Logger           *slog.Logger
	AllocatorTimeout time.Duration
	DetectionEnabled bool
}

// SessionService runs each session use case as one read-modify-write under
// the session's lock.
type SessionService struct {
	registry         *Registry
	locker           tx.Manager
	clock            clock.Clock
	timer            TimerAccountant
	emotions         EmotionEvaluator
	allocator        sessionout.Allocator
	classifier       sessionout.EmotionClassifier
	history          sessionout.HistoryStore
	reports          sessionout.ReportWriter
	logger           *slog.Logger
	allocatorTimeout time.Duration
	detectionEnabled bool
}

func NewSessionService(deps Deps) *SessionService {
	if deps.Locker == nil {
		deps.Locker = tx.NewKeyedLocker()
	}
	if deps.Clock == nil {
		deps.Clock = clock.SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.AllocatorTimeout <= 0 {
		deps.AllocatorTimeout = defaultAllocatorTimeout
	}
	return &SessionService{
		registry:         deps.Registry,
		locker:           deps.Locker,
		clock:            deps.Clock,
		timer:            deps.Timer,
		emotions:         deps.Emotions,
		allocator:        deps.Allocator,
		classifier:       deps.Classifier,
		history:          deps.History,
		reports:          deps.Reports,
		logger:           deps.Logger,
		allocatorTimeout: deps.AllocatorTimeout,
		detectionEnabled: deps.DetectionEnabled,
	}
}

// Create allocates the budget across topics and starts the first one.
func (s *SessionService) Create(ctx context.Context, topics []domain.Topic, totalMinutes int) (domain.Session, error) {
	if totalMinutes <= 0 || totalMinutes > MaxTotalMinutes {
		return domain.Session{}, fmt.Errorf("%w: total time must be between 1 and %d minutes", apperrors.ErrInvalidInput, MaxTotalMinutes)
	}
	if len(topics) == 0 {
		return domain.Session{}, fmt.Errorf("%w: at least one topic required", apperrors.ErrInvalidInput)
	}
	for _, t := range topics {
		if strings.TrimSpace(t.Name) == "" {
			return domain.Session{}, fmt.Errorf("%w: topic name cannot be empty", apperrors.ErrInvalidInput)
		}
	}
	if _, err := s.registry.Live(ctx); err == nil {
		return domain.Session{}, apperrors.ErrActiveSessionExists
	} else if !errors.Is(err, apperrors.ErrNoActiveSession) {
		return domain.Session{}, err
	}

	draft := domain.Session{State: domain.StateIdle, Topics: append([]domain.Topic(nil), topics...), TotalMinutes: totalMinutes}
	Normalize(&draft)

	allocated := map[string]int{}
	for _, a := range s.allocator.AllocateInitial(ctx, draft.Topics, totalMinutes) {
		allocated[a.Key] = a.TimeMinutes
	}
	even := EvenSplit(totalMinutes, len(draft.Topics))
	for i := range draft.Topics {
		minutes, ok := allocated[draft.Topics[i].Key]
		if !ok {
			minutes = even
		}
		draft.Topics[i].TimeMinutes = max(domain.MinTopicMinutes, minutes)
	}

	if err := draft.Apply(domain.EventStart); err != nil {
		return domain.Session{}, err
	}
	draft.CreatedAt = s.clock.Now()
	if err := s.timer.StartTopic(&draft, 0); err != nil {
		return domain.Session{}, err
	}
	created, err := s.registry.Create(ctx, draft)
	if err != nil {
		return domain.Session{}, err
	}
	s.logger.Info("session created", "session_id", created.ID, "topics", len(created.Topics), "total_minutes", totalMinutes)
	return created, nil
}

// Current returns the active or paused session and the seconds left on its topic.
func (s *SessionService) Current(ctx context.Context) (domain.Session, int, error) {
	session, err := s.registry.GetActive(ctx)
	if err != nil {
		return domain.Session{}, 0, err
	}
	remaining, ok := s.timer.RemainingSeconds(session)
	if !ok {
		return domain.Session{}, 0, domain.ErrNoActiveTopic
	}
	return session, remaining, nil
}

// AdvanceTopic closes the current topic as completed or backlog and moves on.
func (s *SessionService) AdvanceTopic(ctx context.Context, completed bool) (domain.Session, error) {
	updated, err := s.withLive(ctx, func(_ context.Context, session *domain.Session) error {
		if _, err := session.State.Next(domain.EventAdvance); err != nil {
			return err
		}
		topic, ok := session.CurrentTopic()
		if !ok {
			return domain.ErrNoActiveTopic
		}
		s.timer.Stop(session)
		now := s.clock.Now()
		if completed {
			topic.Status = domain.TopicCompleted
			if topic.CompletedAt.IsZero() {
				topic.CompletedAt = now
			}
		} else {
			topic.Status = domain.TopicBacklog
			session.Backlog = append(session.Backlog, domain.BacklogItem{Name: topic.Name, Subject: topic.Subject})
		}
		session.CurrentIndex++

		if session.CurrentIndex >= len(session.Topics) {
			if err := session.Apply(domain.EventFinish); err != nil {
				return err
			}
			session.CompletedAt = now
			return nil
		}
		if err := session.Apply(domain.EventAdvance); err != nil {
			return err
		}
		return s.timer.StartTopic(session, session.CurrentIndex)
	})
	if err != nil {
		return domain.Session{}, err
	}
	if updated.State == domain.StateCompleted {
		s.logger.Info("session completed", "session_id", updated.ID, "completed", updated.CountStatus(domain.TopicCompleted), "backlog", len(updated.Backlog))
		s.archive(ctx, updated)
	}
	return updated, nil
}

func (s *SessionService) Pause(ctx context.Context) (domain.Session, error) {
	return s.withLive(ctx, func(_ context.Context, session *domain.Session) error {
		if err := session.Apply(domain.EventPause); err != nil {
			return err
		}
		s.timer.Pause(session)
		return nil
	})
}

func (s *SessionService) Resume(ctx context.Context) (domain.Session, error) {
	return s.withLive(ctx, func(_ context.Context, session *domain.Session) error {
		if err := session.Apply(domain.EventResume); err != nil {
			return err
		}
		s.timer.Resume(session)
		return nil
	})
}

// Delete removes the session with id, or the live session when id is empty.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if id == "" {
		live, err := s.registry.Live(ctx)
		if err != nil {
			return err
		}
		id = live.ID
	}
	err := s.locker.Within(ctx, id, func(ctx context.Context) error {
		return s.registry.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("session deleted", "session_id", id)
	return nil
}

// Summary reports on the live session, falling back to the latest completed one.
func (s *SessionService) Summary(ctx context.Context) (domain.Session, int, error) {
	session, err := s.registry.Live(ctx)
	if errors.Is(err, apperrors.ErrNoActiveSession) {
		session, err = s.registry.LatestCompleted(ctx)
	}
	if err != nil {
		return domain.Session{}, 0, err
	}
	return session, s.timer.TotalStudiedMinutes(session), nil
}

// RecordEmotion appends a label to the live session's window.
func (s *SessionService) RecordEmotion(ctx context.Context, emotion domain.Emotion) (domain.Session, domain.Trigger, error) {
	var trigger domain.Trigger
	updated, err := s.withLive(ctx, func(_ context.Context, session *domain.Session) error {
		s.emotions.Record(session, emotion)
		trigger = s.emotions.Evaluate(*session)
		return nil
	})
	if err != nil {
		return domain.Session{}, domain.Trigger{}, err
	}
	if trigger.Ready {
		s.logger.Info("reschedule trigger ready", "session_id", updated.ID)
	}
	return updated, trigger, nil
}

// DetectEmotion classifies a frame outside the session lock and records it.
func (s *SessionService) DetectEmotion(ctx context.Context, frame []byte) (domain.Emotion, domain.Session, domain.Trigger, error) {
	if !s.detectionEnabled || s.classifier == nil {
		session, err := s.registry.Live(ctx)
		if err != nil {
			return "", domain.Session{}, domain.Trigger{}, err
		}
		return domain.EmotionNeutral, session, s.emotions.Evaluate(session), nil
	}
	if _, err := s.registry.Live(ctx); err != nil {
		return "", domain.Session{}, domain.Trigger{}, err
	}
	emotion := s.classifier.Classify(ctx, frame)
	session, trigger, err := s.RecordEmotion(ctx, emotion)
	if err != nil {
		return "", domain.Session{}, domain.Trigger{}, err
	}
	return emotion, session, trigger, nil
}

// EmotionStatus returns the recent labels and the current trigger decision.
func (s *SessionService) EmotionStatus(ctx context.Context) ([]domain.Emotion, domain.Trigger, error) {
	session, err := s.registry.GetActive(ctx)
	if err != nil {
		return nil, domain.Trigger{}, err
	}
	return s.emotions.Recent(session, recentEmotionCount), s.emotions.Evaluate(session), nil
}

func (s *SessionService) Distribution(session domain.Session) map[domain.Emotion]int {
	return s.emotions.Distribution(session)
}

func (s *SessionService) StudiedMinutes(session domain.Session) int {
	return s.timer.TotalStudiedMinutes(session)
}

func (s *SessionService) CheckAllocator(ctx context.Context) domain.AllocatorStatus {
	return s.allocator.Check(ctx)
}

func (s *SessionService) History(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if s.history == nil {
		return []domain.HistoryEntry{}, nil
	}
	return s.history.List(ctx, limit)
}

// withLive runs fn on a fresh copy of the live session under its lock and
// writes the result back. Nothing is written when fn fails.
func (s *SessionService) withLive(ctx context.Context, fn func(context.Context, *domain.Session) error) (domain.Session, error) {
	live, err := s.registry.Live(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	var out domain.Session
	err = s.locker.Within(ctx, live.ID, func(ctx context.Context) error {
		current, err := s.registry.Get(ctx, live.ID)
		if err != nil {
			return err
		}
		if err := fn(ctx, &current); err != nil {
			return err
		}
		if err := s.registry.Update(ctx, current); err != nil {
			return err
		}
		out = current
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	return out, nil
}

func (s *SessionService) archive(ctx context.Context, session domain.Session) {
	entry := domain.HistoryEntry{
		SessionID:       session.ID,
		State:           session.State,
		TotalTopics:     len(session.Topics),
		CompletedCount:  session.CountStatus(domain.TopicCompleted),
		BacklogCount:    len(session.Backlog),
		TotalMinutes:    session.TotalAllocatedMinutes(),
		StudiedMinutes:  s.timer.TotalStudiedMinutes(session),
		RescheduleCount: session.RescheduleCount,
		CreatedAt:       session.CreatedAt,
		CompletedAt:     session.CompletedAt,
	}
	if s.reports != nil {
		path, err := s.reports.Write(ctx, entry, session)
		if err != nil {
			s.logger.Warn("write session report", "session_id", session.ID, "error", err)
		} else {
			entry.ReportPath = path
		}
	}
	if s.history != nil {
		if err := s.history.Record(ctx, entry); err != nil {
			s.logger.Warn("record session history", "session_id", session.ID, "error", err)
		}
	}
}

// EvenSplit is the fallback allocation: max(5, total/count) per topic.
func EvenSplit(totalMinutes, count int) int {
	if count <= 0 {
		return domain.MinTopicMinutes
	}
	return max(domain.MinTopicMinutes, totalMinutes/count)
}
