package in

import (
	"context"

	"mindtrack/internal/modules/schedule/dto"
)

type Usecase interface {
	AllocateInitial(ctx context.Context, input dto.AllocationInput) dto.AllocationOutput
	Reallocate(ctx context.Context, input dto.AllocationInput) (dto.AllocationOutput, error)
	Status(ctx context.Context) dto.StatusOutput
}
