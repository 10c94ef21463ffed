package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mindtrack/internal/modules/session/domain"
	apperrors "mindtrack/internal/platform/errors"
)

// Reschedule re-allocates the remaining study time across the topics that
// still need it. Every failure after the session enters rescheduling restores
// it to active with the timer running before the error is returned.
func (s *SessionService) Reschedule(ctx context.Context) (domain.RescheduleResult, domain.Session, error) {
	live, err := s.registry.Live(ctx)
	if err != nil {
		return domain.RescheduleResult{}, domain.Session{}, err
	}

	var (
		result domain.RescheduleResult
		out    domain.Session
	)
	err = s.locker.Within(ctx, live.ID, func(ctx context.Context) error {
		session, err := s.registry.Get(ctx, live.ID)
		if err != nil {
			return err
		}
		if err := session.Apply(domain.EventBeginReschedule); err != nil {
			return err
		}
		s.timer.Pause(&session)
		if err := s.registry.Update(ctx, session); err != nil {
			return err
		}
		snapshot := session.Clone()

		result, err = s.reallocate(ctx, &session)
		if err == nil {
			s.emotions.Clear(&session)
			session.RescheduleCount++
			err = s.finishReschedule(ctx, &session)
		}
		if err != nil {
			if restoreErr := s.finishReschedule(ctx, &snapshot); restoreErr != nil {
				s.logger.Error("restore session after reschedule failure", "session_id", snapshot.ID, "error", restoreErr)
			}
			s.logger.Warn("reschedule failed", "session_id", snapshot.ID, "error", err)
			return err
		}
		out = session
		return nil
	})
	if err != nil {
		return domain.RescheduleResult{}, domain.Session{}, err
	}
	s.logger.Info("session rescheduled",
		"session_id", out.ID,
		"topics_affected", result.TopicsAffected,
		"remaining_minutes", result.RemainingMinutes,
		"reschedule_count", out.RescheduleCount,
	)
	return result, out, nil
}

func (s *SessionService) reallocate(ctx context.Context, session *domain.Session) (domain.RescheduleResult, error) {
	indexes := session.RemainingTopicIndexes()
	if len(indexes) == 0 {
		return domain.RescheduleResult{}, domain.ErrNoRemainingTopics
	}
	remaining := max(0, session.TotalAllocatedMinutes()-s.timer.TotalStudiedMinutes(*session))
	if remaining < domain.MinTopicMinutes {
		return domain.RescheduleResult{}, domain.ErrInsufficientRemainingTime
	}

	topics := make([]domain.Topic, 0, len(indexes))
	old := make([]domain.Allocation, 0, len(indexes))
	for _, i := range indexes {
		topics = append(topics, session.Topics[i])
		old = append(old, allocationOf(session.Topics[i]))
	}

	if status := s.allocator.Check(ctx); !status.Connected {
		return domain.RescheduleResult{}, fmt.Errorf("%w: %s", apperrors.ErrAllocatorUnavailable, status.Message)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.allocatorTimeout)
	defer cancel()
	allocations, err := s.allocator.Reallocate(callCtx, topics, remaining)
	if err != nil {
		return domain.RescheduleResult{}, classifyAllocatorError(err)
	}

	affected := applyAllocations(session, indexes, allocations)
	updated := make([]domain.Allocation, 0, len(indexes))
	for _, i := range indexes {
		updated = append(updated, allocationOf(session.Topics[i]))
	}
	return domain.RescheduleResult{
		OldSchedule:      old,
		NewSchedule:      updated,
		TopicsAffected:   affected,
		RemainingMinutes: remaining,
	}, nil
}

// finishReschedule moves the session back to active and writes it even when
// the caller's context is already done.
func (s *SessionService) finishReschedule(ctx context.Context, session *domain.Session) error {
	if err := session.Apply(domain.EventEndReschedule); err != nil {
		return err
	}
	s.timer.Resume(session)
	return s.registry.Update(context.WithoutCancel(ctx), *session)
}

// applyAllocations matches by topic key, then by case-insensitive name.
// Topics missing from the response keep their minutes.
func applyAllocations(session *domain.Session, indexes []int, allocations []domain.Allocation) int {
	byKey := make(map[string]int, len(allocations))
	byName := make(map[string]int, len(allocations))
	for _, a := range allocations {
		if a.Key != "" {
			byKey[a.Key] = a.TimeMinutes
		}
		if name := strings.ToLower(strings.TrimSpace(a.Name)); name != "" {
			if _, seen := byName[name]; !seen {
				byName[name] = a.TimeMinutes
			}
		}
	}

	affected := 0
	for _, i := range indexes {
		topic := &session.Topics[i]
		minutes, ok := byKey[topic.Key]
		if !ok {
			minutes, ok = byName[strings.ToLower(topic.Name)]
		}
		if !ok {
			continue
		}
		topic.TimeMinutes = max(domain.MinTopicMinutes, minutes)
		affected++
	}
	return affected
}

func classifyAllocatorError(err error) error {
	switch {
	case errors.Is(err, apperrors.ErrAllocatorUnavailable), errors.Is(err, apperrors.ErrAllocatorInvalidResponse):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: allocator timed out", apperrors.ErrAllocatorUnavailable)
	default:
		return fmt.Errorf("%w: %v", apperrors.ErrAllocatorUnavailable, err)
	}
}

func allocationOf(t domain.Topic) domain.Allocation {
	return domain.Allocation{
		Key:         t.Key,
		Name:        t.Name,
		Subject:     t.Subject,
		Level:       t.Level,
		TimeMinutes: t.TimeMinutes,
	}
}
