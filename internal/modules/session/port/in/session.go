package in

import (
	"context"

	"mindtrack/internal/modules/session/dto"
)

type Usecase interface {
	Create(ctx context.Context, input dto.CreateInput) (dto.SessionOutput, error)
	Current(ctx context.Context) (dto.CurrentOutput, error)
	AdvanceTopic(ctx context.Context, input dto.AdvanceInput) (dto.AdvanceOutput, error)
	Pause(ctx context.Context) (dto.SessionOutput, error)
	Resume(ctx context.Context) (dto.SessionOutput, error)
	Summary(ctx context.Context) (dto.SummaryOutput, error)
	Delete(ctx context.Context) error
	DetectEmotion(ctx context.Context, frame []byte) (dto.EmotionOutput, error)
	RecordEmotion(ctx context.Context, emotion string) (dto.EmotionOutput, error)
	EmotionStatus(ctx context.Context) (dto.EmotionStatusOutput, error)
	Reschedule(ctx context.Context) (dto.RescheduleOutput, error)
	CheckAllocator(ctx context.Context) dto.AllocatorStatusOutput
	History(ctx context.Context, limit int) ([]dto.HistoryOutput, error)
}
