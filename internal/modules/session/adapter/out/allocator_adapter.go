package out

import (
	"context"

	scheduledto "mindtrack/internal/modules/schedule/dto"
	schedulein "mindtrack/internal/modules/schedule/port/in"
	"mindtrack/internal/modules/session/domain"
	sessionout "mindtrack/internal/modules/session/port/out"
)

// ScheduleAllocator bridges session topics to the schedule module.
type ScheduleAllocator struct {
	schedule schedulein.Usecase
}

func NewScheduleAllocator(schedule schedulein.Usecase) sessionout.Allocator {
	return &ScheduleAllocator{schedule: schedule}
}

func (a *ScheduleAllocator) AllocateInitial(ctx context.Context, topics []domain.Topic, totalMinutes int) []domain.Allocation {
	out := a.schedule.AllocateInitial(ctx, toAllocationInput(topics, totalMinutes))
	return fromAllocationOutput(out, topics)
}

func (a *ScheduleAllocator) Reallocate(ctx context.Context, topics []domain.Topic, remainingMinutes int) ([]domain.Allocation, error) {
	out, err := a.schedule.Reallocate(ctx, toAllocationInput(topics, remainingMinutes))
	if err != nil {
		return nil, err
	}
	return fromAllocationOutput(out, topics), nil
}

func (a *ScheduleAllocator) Check(ctx context.Context) domain.AllocatorStatus {
	status := a.schedule.Status(ctx)
	return domain.AllocatorStatus{Connected: status.Connected, Model: status.Model, Message: status.Message}
}

func toAllocationInput(topics []domain.Topic, minutes int) scheduledto.AllocationInput {
	input := scheduledto.AllocationInput{Minutes: minutes, Topics: make([]scheduledto.TopicInput, 0, len(topics))}
	for _, t := range topics {
		input.Topics = append(input.Topics, scheduledto.TopicInput{
			ID:      t.Key,
			Name:    t.Name,
			Subject: t.Subject,
			Level:   string(t.Level),
		})
	}
	return input
}

func fromAllocationOutput(out scheduledto.AllocationOutput, topics []domain.Topic) []domain.Allocation {
	byKey := make(map[string]domain.Topic, len(topics))
	for _, t := range topics {
		byKey[t.Key] = t
	}
	allocations := make([]domain.Allocation, 0, len(out.Items))
	for _, item := range out.Items {
		t := byKey[item.ID]
		allocations = append(allocations, domain.Allocation{
			Key:         item.ID,
			Name:        item.Name,
			Subject:     t.Subject,
			Level:       t.Level,
			TimeMinutes: item.TimeMinutes,
		})
	}
	return allocations
}
