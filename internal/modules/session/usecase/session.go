package usecase

import (
	"context"
	"fmt"
	"strings"

	"mindtrack/internal/modules/session/domain"
	sessiondto "mindtrack/internal/modules/session/dto"
	sessionin "mindtrack/internal/modules/session/port/in"
	"mindtrack/internal/modules/session/service"
	apperrors "mindtrack/internal/platform/errors"
)

type Interactor struct {
	svc *service.SessionService
}

func NewInteractor(svc *service.SessionService) sessionin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Create(ctx context.Context, input sessiondto.CreateInput) (sessiondto.SessionOutput, error) {
	if len(input.Subjects) == 0 {
		return sessiondto.SessionOutput{}, fmt.Errorf("%w: at least one subject required", apperrors.ErrInvalidInput)
	}
	topics := []domain.Topic{}
	for _, subject := range input.Subjects {
		if len(subject.Topics) == 0 {
			return sessiondto.SessionOutput{}, fmt.Errorf("%w: subject %q has no topics", apperrors.ErrInvalidInput, subject.Name)
		}
		for _, t := range subject.Topics {
			level, err := parseLevel(t.Level)
			if err != nil {
				return sessiondto.SessionOutput{}, err
			}
			topics = append(topics, domain.Topic{Name: t.Name, Subject: subject.Name, Level: level})
		}
	}
	session, err := i.svc.Create(ctx, topics, input.TotalMinutes)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	return toSessionOutput(session), nil
}

func (i *Interactor) Current(ctx context.Context) (sessiondto.CurrentOutput, error) {
	session, remaining, err := i.svc.Current(ctx)
	if err != nil {
		return sessiondto.CurrentOutput{}, err
	}
	topic, _ := session.CurrentTopic()
	return sessiondto.CurrentOutput{
		SessionID:        session.ID,
		State:            string(session.State),
		Topic:            toTopicOutput(*topic),
		TopicIndex:       session.CurrentIndex,
		TotalTopics:      len(session.Topics),
		RemainingSeconds: remaining,
		Paused:           session.State == domain.StatePaused,
	}, nil
}

func (i *Interactor) AdvanceTopic(ctx context.Context, input sessiondto.AdvanceInput) (sessiondto.AdvanceOutput, error) {
	session, err := i.svc.AdvanceTopic(ctx, input.Completed)
	if err != nil {
		return sessiondto.AdvanceOutput{}, err
	}
	out := sessiondto.AdvanceOutput{Session: toSessionOutput(session), Finished: session.State == domain.StateCompleted}
	if next, ok := session.CurrentTopic(); ok && !out.Finished {
		topic := toTopicOutput(*next)
		out.Next = &topic
	}
	return out, nil
}

func (i *Interactor) Pause(ctx context.Context) (sessiondto.SessionOutput, error) {
	session, err := i.svc.Pause(ctx)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	return toSessionOutput(session), nil
}

func (i *Interactor) Resume(ctx context.Context) (sessiondto.SessionOutput, error) {
	session, err := i.svc.Resume(ctx)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	return toSessionOutput(session), nil
}

func (i *Interactor) Summary(ctx context.Context) (sessiondto.SummaryOutput, error) {
	session, studied, err := i.svc.Summary(ctx)
	if err != nil {
		return sessiondto.SummaryOutput{}, err
	}
	distribution := map[string]int{}
	for emotion, n := range i.svc.Distribution(session) {
		distribution[string(emotion)] = n
	}
	out := toSessionOutput(session)
	return sessiondto.SummaryOutput{
		SessionID:             session.ID,
		State:                 string(session.State),
		TotalTopics:           len(session.Topics),
		CompletedCount:        session.CountStatus(domain.TopicCompleted),
		BacklogCount:          len(session.Backlog),
		TotalAllocatedMinutes: session.TotalAllocatedMinutes(),
		StudiedMinutes:        studied,
		RescheduleCount:       session.RescheduleCount,
		EmotionTimeline:       out.Emotions,
		EmotionDistribution:   distribution,
		Topics:                out.Topics,
		Backlog:               out.Backlog,
		CreatedAt:             session.CreatedAt,
		CompletedAt:           session.CompletedAt,
	}, nil
}

func (i *Interactor) Delete(ctx context.Context) error {
	return i.svc.Delete(ctx, "")
}

func (i *Interactor) DetectEmotion(ctx context.Context, frame []byte) (sessiondto.EmotionOutput, error) {
	emotion, session, trigger, err := i.svc.DetectEmotion(ctx, frame)
	if err != nil {
		return sessiondto.EmotionOutput{}, err
	}
	return toEmotionOutput(emotion, session, trigger), nil
}

func (i *Interactor) RecordEmotion(ctx context.Context, raw string) (sessiondto.EmotionOutput, error) {
	emotion, err := domain.ParseEmotion(raw)
	if err != nil {
		return sessiondto.EmotionOutput{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	session, trigger, err := i.svc.RecordEmotion(ctx, emotion)
	if err != nil {
		return sessiondto.EmotionOutput{}, err
	}
	return toEmotionOutput(emotion, session, trigger), nil
}

func (i *Interactor) EmotionStatus(ctx context.Context) (sessiondto.EmotionStatusOutput, error) {
	recent, trigger, err := i.svc.EmotionStatus(ctx)
	if err != nil {
		return sessiondto.EmotionStatusOutput{}, err
	}
	return sessiondto.EmotionStatusOutput{Recent: emotionStrings(recent), Trigger: toTriggerOutput(trigger)}, nil
}

func (i *Interactor) Reschedule(ctx context.Context) (sessiondto.RescheduleOutput, error) {
	result, session, err := i.svc.Reschedule(ctx)
	if err != nil {
		return sessiondto.RescheduleOutput{}, err
	}
	return sessiondto.RescheduleOutput{
		OldSchedule:      toAllocationOutputs(result.OldSchedule),
		NewSchedule:      toAllocationOutputs(result.NewSchedule),
		TopicsAffected:   result.TopicsAffected,
		RemainingMinutes: result.RemainingMinutes,
		Session:          toSessionOutput(session),
	}, nil
}

func (i *Interactor) CheckAllocator(ctx context.Context) sessiondto.AllocatorStatusOutput {
	status := i.svc.CheckAllocator(ctx)
	return sessiondto.AllocatorStatusOutput{Connected: status.Connected, Model: status.Model, Message: status.Message}
}

func (i *Interactor) History(ctx context.Context, limit int) ([]sessiondto.HistoryOutput, error) {
	entries, err := i.svc.History(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]sessiondto.HistoryOutput, 0, len(entries))
	for _, e := range entries {
		out = append(out, sessiondto.HistoryOutput{
			SessionID:       e.SessionID,
			State:           string(e.State),
			TotalTopics:     e.TotalTopics,
			CompletedCount:  e.CompletedCount,
			BacklogCount:    e.BacklogCount,
			TotalMinutes:    e.TotalMinutes,
			StudiedMinutes:  e.StudiedMinutes,
			RescheduleCount: e.RescheduleCount,
			CreatedAt:       e.CreatedAt,
			CompletedAt:     e.CompletedAt,
			ReportPath:      e.ReportPath,
		})
	}
	return out, nil
}

// parseLevel accepts an empty level as partial.
func parseLevel(raw string) (domain.TopicLevel, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return domain.LevelPartial, nil
	}
	level := domain.TopicLevel(raw)
	if err := level.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	return level, nil
}

func toSessionOutput(s domain.Session) sessiondto.SessionOutput {
	topics := make([]sessiondto.TopicOutput, 0, len(s.Topics))
	for _, t := range s.Topics {
		topics = append(topics, toTopicOutput(t))
	}
	backlog := make([]sessiondto.BacklogOutput, 0, len(s.Backlog))
	for _, b := range s.Backlog {
		backlog = append(backlog, sessiondto.BacklogOutput{Name: b.Name, Subject: b.Subject})
	}
	return sessiondto.SessionOutput{
		ID:              s.ID,
		State:           string(s.State),
		Topics:          topics,
		CurrentIndex:    s.CurrentIndex,
		Backlog:         backlog,
		Emotions:        emotionStrings(s.Emotions),
		RescheduleCount: s.RescheduleCount,
		TotalMinutes:    s.TotalMinutes,
		CreatedAt:       s.CreatedAt,
		CompletedAt:     s.CompletedAt,
	}
}

func toTopicOutput(t domain.Topic) sessiondto.TopicOutput {
	return sessiondto.TopicOutput{
		Key:            t.Key,
		Name:           t.Name,
		Subject:        t.Subject,
		Level:          string(t.Level),
		TimeMinutes:    t.TimeMinutes,
		Status:         string(t.Status),
		ElapsedSeconds: t.ElapsedSeconds,
		StartedAt:      t.StartedAt,
		CompletedAt:    t.CompletedAt,
	}
}

func toEmotionOutput(emotion domain.Emotion, session domain.Session, trigger domain.Trigger) sessiondto.EmotionOutput {
	return sessiondto.EmotionOutput{
		SessionID: session.ID,
		Emotion:   string(emotion),
		Buffer:    emotionStrings(session.Emotions),
		Trigger:   toTriggerOutput(trigger),
	}
}

func toTriggerOutput(trigger domain.Trigger) sessiondto.TriggerOutput {
	return sessiondto.TriggerOutput{Ready: trigger.Ready, Message: trigger.Message}
}

func toAllocationOutputs(allocations []domain.Allocation) []sessiondto.AllocationOutput {
	out := make([]sessiondto.AllocationOutput, 0, len(allocations))
	for _, a := range allocations {
		out = append(out, sessiondto.AllocationOutput{
			Key:         a.Key,
			Name:        a.Name,
			Subject:     a.Subject,
			Level:       string(a.Level),
			TimeMinutes: a.TimeMinutes,
		})
	}
	return out
}

func emotionStrings(emotions []domain.Emotion) []string {
	out := make([]string, 0, len(emotions))
	for _, e := range emotions {
		out = append(out, string(e))
	}
	return out
}
