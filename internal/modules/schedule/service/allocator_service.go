package service

import (
	"context"
	"fmt"
	"log/slog"

	"mindtrack/internal/modules/schedule/domain"
	scheduleout "mindtrack/internal/modules/schedule/port/out"
	apperrors "mindtrack/internal/platform/errors"
)

type Status struct {
	Connected bool
	Model     string
	Message   string
}

type AllocatorService struct {
	llm    scheduleout.LLM
	logger *slog.Logger
}

func NewAllocatorService(llm scheduleout.LLM, logger *slog.Logger) *AllocatorService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AllocatorService{llm: llm, logger: logger}
}

// AllocateInitial asks the model for a plan and falls back to an even split
// when the call fails or the plan does not cover every topic. The second
// return value reports whether the fallback was used.
func (s *AllocatorService) AllocateInitial(ctx context.Context, req domain.Request) ([]domain.Item, bool) {
	if err := req.Validate(); err != nil {
		return domain.EvenSplit(req), true
	}
	raw, err := s.llm.Generate(ctx, domain.InitialPrompt(req))
	if err != nil {
		s.logger.Warn("initial allocation failed, using even split", "error", err)
		return domain.EvenSplit(req), true
	}
	items, err := domain.ParseSchedule(raw, req.Items)
	if err != nil {
		s.logger.Warn("initial allocation unparseable, using even split", "error", err)
		return domain.EvenSplit(req), true
	}
	if !domain.Complete(req.Items, items) {
		s.logger.Warn("initial allocation incomplete, using even split", "requested", len(req.Items), "allocated", len(items))
		return domain.EvenSplit(req), true
	}
	return domain.Order(req.Items, items), false
}

// Reallocate returns whatever part of the plan matched the request. Items the
// model left out are simply absent.
func (s *AllocatorService) Reallocate(ctx context.Context, req domain.Request) ([]domain.Item, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	raw, err := s.llm.Generate(ctx, domain.ReschedulePrompt(req))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrAllocatorUnavailable, err)
	}
	items, err := domain.ParseSchedule(raw, req.Items)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrAllocatorInvalidResponse, err)
	}
	return domain.Order(req.Items, items), nil
}

func (s *AllocatorService) Status(ctx context.Context) Status {
	status := Status{Model: s.llm.Model()}
	if err := s.llm.Ping(ctx); err != nil {
		status.Message = fmt.Sprintf("Cannot reach allocator: %v", err)
		return status
	}
	status.Connected = true
	status.Message = "Allocator is reachable"
	return status
}
