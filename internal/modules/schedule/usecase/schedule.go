package usecase

import (
	"context"

	"mindtrack/internal/modules/schedule/domain"
	scheduledto "mindtrack/internal/modules/schedule/dto"
	schedulein "mindtrack/internal/modules/schedule/port/in"
	"mindtrack/internal/modules/schedule/service"
)

type Interactor struct {
	svc *service.AllocatorService
}

func NewInteractor(svc *service.AllocatorService) schedulein.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) AllocateInitial(ctx context.Context, input scheduledto.AllocationInput) scheduledto.AllocationOutput {
	items, fallback := i.svc.AllocateInitial(ctx, toRequest(input))
	return scheduledto.AllocationOutput{Items: toOutput(items), Fallback: fallback}
}

func (i *Interactor) Reallocate(ctx context.Context, input scheduledto.AllocationInput) (scheduledto.AllocationOutput, error) {
	items, err := i.svc.Reallocate(ctx, toRequest(input))
	if err != nil {
		return scheduledto.AllocationOutput{}, err
	}
	return scheduledto.AllocationOutput{Items: toOutput(items)}, nil
}

func (i *Interactor) Status(ctx context.Context) scheduledto.StatusOutput {
	status := i.svc.Status(ctx)
	return scheduledto.StatusOutput{Connected: status.Connected, Model: status.Model, Message: status.Message}
}

func toRequest(input scheduledto.AllocationInput) domain.Request {
	items := make([]domain.Item, 0, len(input.Topics))
	for _, t := range input.Topics {
		items = append(items, domain.Item{ID: t.ID, Name: t.Name, Subject: t.Subject, Level: domain.Level(t.Level)})
	}
	return domain.Request{Items: items, Minutes: input.Minutes}
}

func toOutput(items []domain.Item) []scheduledto.AllocationItem {
	out := make([]scheduledto.AllocationItem, 0, len(items))
	for _, item := range items {
		out = append(out, scheduledto.AllocationItem{ID: item.ID, Name: item.Name, TimeMinutes: item.TimeMinutes})
	}
	return out
}
